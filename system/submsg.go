package system

import (
	"context"
	"errors"

	"github.com/reglet-dev/cwvm/domain/entities"
	engerrors "github.com/reglet-dev/cwvm/domain/errors"
	"github.com/reglet-dev/cwvm/domain/ports"
	"go.uber.org/zap"
)

func checkpointFor(sub entities.SubMsg) ports.GasCheckpoint {
	if sub.GasLimit != nil {
		return ports.Limited(*sub.GasLimit)
	}
	return ports.Unlimited
}

// withCheckpoint runs fn under a gas checkpoint that is popped on every exit
// path.
func withCheckpoint(gas ports.GasMeter, cp ports.GasCheckpoint, fn func() error) (err error) {
	if err := gas.Push(cp); err != nil {
		return err
	}
	defer func() {
		if perr := gas.Pop(); perr != nil {
			err = errors.Join(err, perr)
		}
	}()
	return fn()
}

// runSubMessage dispatches sub in its own nested transaction and applies the
// continuation, returning the new running data.
func runSubMessage(ctx context.Context, vm VM, caller entities.Addr, sub entities.SubMsg, data []byte, handler EventHandler) ([]byte, error) {
	kind := sub.Msg.Kind()
	logger := vm.Logger().With(
		zap.Uint64("submsg_id", sub.ID),
		zap.String("kind", kind),
		zap.String("reply_on", string(sub.ReplyOn)))

	var (
		began   bool
		result  DispatchResult
		gasUsed uint64
	)
	err := withCheckpoint(vm.Gas(), checkpointFor(sub), func() error {
		if err := vm.Begin(); err != nil {
			return err
		}
		began = true
		before := vm.Gas().Consumed()
		result.Data, result.Err = dispatch(ctx, vm, caller, sub.Msg, func(e entities.Event) {
			result.Events = append(result.Events, e)
		})
		gasUsed = vm.Gas().Consumed() - before
		return nil
	})
	if err != nil {
		if began {
			err = errors.Join(err, vm.Rollback())
		}
		return nil, err
	}

	cont := Decide(result, sub.ReplyOn)
	if cont.Commit() {
		if err := vm.Commit(); err != nil {
			return nil, err
		}
		for _, e := range result.Events {
			handler(e)
		}
	} else if err := vm.Rollback(); err != nil {
		return nil, err
	}
	vm.Metrics().ObserveSubMessage(kind, sub.ReplyOn, cont.Kind.String())
	logger.Debug("sub-message finished",
		zap.Stringer("continuation", cont.Kind),
		zap.Uint64("gas_used", gasUsed),
		zap.NamedError("dispatch_error", result.Err))

	switch cont.Kind {
	case KindContinue:
		if cont.Data != nil {
			return cont.Data, nil
		}
		return data, nil
	case KindReply:
		reply := entities.Reply{ID: sub.ID, Payload: sub.Payload, Result: cont.Result, GasUsed: gasUsed}
		replyData, err := vm.ContinueReply(ctx, reply, handler)
		if err != nil {
			// a failing reply aborts the whole call
			return nil, err
		}
		switch {
		case replyData != nil:
			return replyData, nil
		case cont.Result.Ok != nil && cont.Result.Ok.Data != nil:
			return cont.Result.Ok.Data, nil
		}
		return data, nil
	}
	return nil, cont.Err
}

// dispatch executes one CosmosMsg on behalf of caller.
func dispatch(ctx context.Context, vm VM, caller entities.Addr, msg entities.CosmosMsg, handler EventHandler) ([]byte, error) {
	switch {
	case msg.Custom != nil:
		return vm.MessageCustom(ctx, msg.Custom, handler)
	case msg.Wasm != nil:
		return dispatchWasm(ctx, vm, caller, *msg.Wasm, handler)
	case msg.Bank != nil:
		return nil, dispatchBank(vm, caller, *msg.Bank)
	case msg.IBC != nil:
		return nil, dispatchIBC(ctx, vm, *msg.IBC)
	}
	return nil, unsupported(msg.Kind())
}

func dispatchWasm(ctx context.Context, vm VM, caller entities.Addr, msg entities.WasmMsg, handler EventHandler) ([]byte, error) {
	switch {
	case msg.Execute != nil:
		m := msg.Execute
		return vm.ContinueExecute(ctx, m.ContractAddr, m.Funds, m.Msg, handler)

	case msg.Instantiate != nil:
		m := msg.Instantiate
		meta := entities.ContractMeta{CodeID: m.CodeID, Admin: m.Admin, Label: m.Label, Creator: caller}
		_, data, err := vm.ContinueInstantiate(ctx, meta, m.Funds, m.Msg, handler)
		return data, err

	case msg.Instantiate2 != nil:
		m := msg.Instantiate2
		meta := entities.ContractMeta{CodeID: m.CodeID, Admin: m.Admin, Label: m.Label, Creator: caller}
		_, data, err := vm.ContinueInstantiate2(ctx, meta, m.Funds, m.Salt, m.Msg, handler)
		return data, err

	case msg.Migrate != nil:
		m := msg.Migrate
		if err := SetCodeID(vm, caller, m.ContractAddr, m.NewCodeID); err != nil {
			return nil, err
		}
		return vm.ContinueMigrate(ctx, m.ContractAddr, m.Msg, handler)

	case msg.UpdateAdmin != nil:
		admin := msg.UpdateAdmin.Admin
		return nil, SetAdmin(vm, caller, msg.UpdateAdmin.ContractAddr, &admin, handler)

	case msg.ClearAdmin != nil:
		return nil, SetAdmin(vm, caller, msg.ClearAdmin.ContractAddr, nil, handler)
	}
	return nil, unsupported("wasm")
}

func dispatchBank(vm VM, caller entities.Addr, msg entities.BankMsg) error {
	switch {
	case msg.Send != nil:
		return vm.Bank().Transfer(caller, msg.Send.ToAddress, msg.Send.Amount)
	case msg.Burn != nil:
		return vm.Bank().Burn(caller, msg.Burn.Amount)
	}
	return unsupported("bank")
}

func dispatchIBC(ctx context.Context, vm VM, msg entities.IBCMsg) error {
	switch {
	case msg.Transfer != nil:
		return vm.IBCTransfer(ctx, *msg.Transfer)
	case msg.SendPacket != nil:
		return vm.IBCSendPacket(ctx, *msg.SendPacket)
	case msg.CloseChannel != nil:
		return vm.IBCCloseChannel(ctx, *msg.CloseChannel)
	}
	return unsupported("ibc")
}

func unsupported(kind string) error {
	return engerrors.NewSystemError(engerrors.SystemUnsupportedMessage, "%s", kind)
}
