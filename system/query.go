package system

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/reglet-dev/cwvm/domain/entities"
	engerrors "github.com/reglet-dev/cwvm/domain/errors"
)

// Query answers request without opening a transaction. Failures the guest
// should see, such as an unknown contract, come back inside the
// SystemResult; a Go error means the query itself must abort, for example
// because gas ran out.
func Query(ctx context.Context, vm VM, request entities.QueryRequest) (entities.SystemResult, error) {
	res, err := query(ctx, vm, request)
	if err == nil {
		return res, nil
	}
	if qerr := querierError(err); qerr != nil {
		return entities.SystemResult{Err: qerr}, nil
	}
	return entities.SystemResult{}, err
}

// QueryRaw is Query over JSON, as used by query_chain. A request that does
// not parse is reported to the guest as an invalid request.
func QueryRaw(ctx context.Context, vm VM, request []byte) ([]byte, error) {
	var req entities.QueryRequest
	var res entities.SystemResult
	if err := json.Unmarshal(request, &req); err != nil {
		res = entities.SystemResult{Err: &entities.QuerierError{
			InvalidRequest: &entities.InvalidRequestError{Error: err.Error(), Request: request},
		}}
	} else {
		var qerr error
		if res, qerr = Query(ctx, vm, req); qerr != nil {
			return nil, qerr
		}
	}
	out, err := json.Marshal(res)
	if err != nil {
		return nil, engerrors.NewSystemError(engerrors.SystemFailedToSerialize, "query result: %v", err)
	}
	return out, nil
}

func query(ctx context.Context, vm VM, request entities.QueryRequest) (entities.SystemResult, error) {
	switch {
	case request.Custom != nil:
		return vm.QueryCustom(ctx, request.Custom)
	case request.Bank != nil:
		return queryBank(vm, *request.Bank)
	case request.Wasm != nil:
		return queryWasm(ctx, vm, *request.Wasm)
	case request.Staking != nil:
		return unsupportedQuery("staking"), nil
	case request.Stargate != nil:
		return unsupportedQuery("stargate"), nil
	case request.IBC != nil:
		return unsupportedQuery("ibc"), nil
	}
	return unsupportedQuery("unknown"), nil
}

func queryBank(vm VM, q entities.BankQuery) (entities.SystemResult, error) {
	switch {
	case q.Balance != nil:
		coin, err := vm.Bank().Balance(q.Balance.Address, q.Balance.Denom)
		if err != nil {
			return entities.SystemResult{}, err
		}
		return okJSON(entities.BalanceResponse{Amount: coin})
	case q.AllBalances != nil:
		coins, err := vm.Bank().AllBalances(q.AllBalances.Address)
		if err != nil {
			return entities.SystemResult{}, err
		}
		return okJSON(entities.AllBalancesResponse{Amount: coins})
	case q.Supply != nil:
		coin, err := vm.Bank().Supply(q.Supply.Denom)
		if err != nil {
			return entities.SystemResult{}, err
		}
		return okJSON(entities.SupplyResponse{Amount: coin})
	}
	return unsupportedQuery("bank"), nil
}

func queryWasm(ctx context.Context, vm VM, q entities.WasmQuery) (entities.SystemResult, error) {
	switch {
	case q.Smart != nil:
		res, err := vm.ContinueQuery(ctx, q.Smart.ContractAddr, q.Smart.Msg)
		if err != nil {
			return entities.SystemResult{}, err
		}
		return entities.SystemResult{Ok: &res}, nil

	case q.Raw != nil:
		value, err := vm.QueryStorage(q.Raw.ContractAddr, q.Raw.Key)
		if err != nil {
			return entities.SystemResult{}, err
		}
		if value == nil {
			value = []byte{}
		}
		return okBinary(value), nil

	case q.ContractInfo != nil:
		meta, err := vm.ContractMeta(q.ContractInfo.ContractAddr)
		if err != nil {
			return entities.SystemResult{}, err
		}
		code, err := vm.CodeInfo(meta.CodeID)
		if err != nil {
			return entities.SystemResult{}, err
		}
		return okJSON(entities.ContractInfoResponse{
			Admin:   meta.Admin,
			Creator: meta.Creator,
			IBCPort: meta.IBCPort,
			CodeID:  meta.CodeID,
			Pinned:  code.Pinned,
		})

	case q.CodeInfo != nil:
		code, err := vm.CodeInfo(q.CodeInfo.CodeID)
		if err != nil {
			return entities.SystemResult{}, err
		}
		return okJSON(entities.CodeInfoResponse{Creator: code.Creator, Checksum: code.Checksum, CodeID: code.CodeID})
	}
	return unsupportedQuery("wasm"), nil
}

func okBinary(b []byte) entities.SystemResult {
	res := entities.OkResult(b)
	return entities.SystemResult{Ok: &res}
}

func okJSON(v any) (entities.SystemResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return entities.SystemResult{}, engerrors.NewSystemError(engerrors.SystemFailedToSerialize, "%v", err)
	}
	return okBinary(b), nil
}

func unsupportedQuery(kind string) entities.SystemResult {
	return entities.SystemResult{Err: &entities.QuerierError{
		UnsupportedRequest: &entities.UnsupportedRequestError{Kind: kind},
	}}
}

// querierError maps lookup failures to the guest-visible error union.
func querierError(err error) *entities.QuerierError {
	var contractErr *engerrors.ContractNotFoundError
	if errors.As(err, &contractErr) {
		return &entities.QuerierError{NoSuchContract: &entities.NoSuchContractError{Addr: contractErr.Address}}
	}
	var codeErr *engerrors.CodeNotFoundError
	if errors.As(err, &codeErr) {
		return &entities.QuerierError{NoSuchCode: &entities.NoSuchCodeError{CodeID: codeErr.CodeID}}
	}
	return nil
}
