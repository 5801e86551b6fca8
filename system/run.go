package system

import (
	"context"
	"errors"
	"time"

	"github.com/reglet-dev/cwvm/domain/entities"
	engerrors "github.com/reglet-dev/cwvm/domain/errors"
	"github.com/reglet-dev/cwvm/executor"
	"go.uber.org/zap"
)

// Hook produces the contract result for a call in place of invoking the
// entry point, for callers that need to run something other than the guest
// export under the dispatcher's event and sub-message handling.
type Hook func(ctx context.Context, vm VM, msg []byte) (entities.ContractResult[entities.Response], error)

func callEntryPoint(ep executor.EntryPoint) Hook {
	return func(ctx context.Context, vm VM, msg []byte) (entities.ContractResult[entities.Response], error) {
		return vm.Call(ctx, ep, msg)
	}
}

// Run executes ep on the VM's contract as a top-level call. Everything runs
// inside one transaction that is committed only if the call and all of its
// sub-messages succeed; on error nothing the call did remains.
func Run(ctx context.Context, vm VM, ep executor.EntryPoint, msg []byte) ([]byte, []entities.Event, error) {
	return RunHook(ctx, vm, ep, msg, callEntryPoint(ep))
}

// RunHook is Run with the entry point invocation replaced by hook.
func RunHook(ctx context.Context, vm VM, ep executor.EntryPoint, msg []byte, hook Hook) ([]byte, []entities.Event, error) {
	return transact(vm, ep.Name(), func(handler EventHandler) ([]byte, error) {
		return ContinueHook(ctx, vm, ep, msg, handler, hook)
	})
}

// Continue executes ep on the VM's contract inside the caller's
// transaction, sending events to handler. It backs nested calls.
func Continue(ctx context.Context, vm VM, ep executor.EntryPoint, msg []byte, handler EventHandler) ([]byte, error) {
	return ContinueHook(ctx, vm, ep, msg, handler, callEntryPoint(ep))
}

// ContinueHook is Continue with the entry point invocation replaced by hook.
func ContinueHook(ctx context.Context, vm VM, ep executor.EntryPoint, msg []byte, handler EventHandler, hook Hook) ([]byte, error) {
	env := vm.Env()
	if ep.HasInfo() {
		info := vm.Info()
		if !info.Funds.Empty() {
			if err := vm.Bank().Transfer(info.Sender, env.Contract.Address, info.Funds); err != nil {
				return nil, err
			}
		}
	}

	result, err := hook(ctx, vm, msg)
	if err != nil {
		return nil, err
	}
	if result.IsErr() {
		return nil, engerrors.NewSystemError(engerrors.SystemContractExecutionFailure, "%s", result.Err)
	}
	return handleResponse(ctx, vm, ep, *result.Ok, handler)
}

// transact runs body in a fresh outer transaction and collects its events.
func transact(vm VM, label string, body func(EventHandler) ([]byte, error)) ([]byte, []entities.Event, error) {
	logger := vm.Logger().With(
		zap.String("entry_point", label),
		zap.String("contract", string(vm.Env().Contract.Address)))
	start := time.Now()
	gasBefore := vm.Gas().Consumed()

	var events []entities.Event
	handler := func(e entities.Event) { events = append(events, e) }

	if err := vm.Begin(); err != nil {
		return nil, nil, err
	}
	data, err := body(handler)
	if err == nil {
		err = vm.Commit()
	} else if rerr := vm.Rollback(); rerr != nil {
		err = errors.Join(err, rerr)
	}

	gasUsed := vm.Gas().Consumed() - gasBefore
	vm.Metrics().ObserveCall(label, time.Since(start), err)
	vm.Metrics().ObserveGas(label, gasUsed)
	if err != nil {
		logger.Debug("call rolled back", zap.Uint64("gas_used", gasUsed), zap.Error(err))
		return nil, nil, err
	}
	logger.Debug("call committed",
		zap.Uint64("gas_used", gasUsed),
		zap.Int("events", len(events)))
	return data, events, nil
}

// handleResponse emits the response's events and folds the sub-message loop
// over its messages, returning the final data.
func handleResponse(ctx context.Context, vm VM, ep executor.EntryPoint, resp entities.Response, handler EventHandler) ([]byte, error) {
	contract := vm.Env().Contract.Address
	if err := entities.Validate(resp); err != nil {
		return nil, engerrors.NewSystemError(engerrors.SystemFailedToSerialize, "invalid response: %v", err)
	}
	meta, err := vm.RunningContractMeta()
	if err != nil {
		return nil, err
	}
	events, err := DeriveEvents(ep, contract, meta.CodeID, resp)
	if err != nil {
		return nil, err
	}
	for _, e := range events {
		handler(e)
	}

	data := resp.Data
	for _, sub := range resp.Messages {
		data, err = runSubMessage(ctx, vm, contract, sub, data, handler)
		if err != nil {
			return nil, err
		}
	}
	return data, nil
}
