package entities

import (
	"encoding/json"
)

// QueryRequest is an externally tagged union of the queries a contract may
// issue through query_chain.
type QueryRequest struct {
	Bank     *BankQuery      `json:"bank,omitempty"`
	Wasm     *WasmQuery      `json:"wasm,omitempty"`
	Custom   json.RawMessage `json:"custom,omitempty"`
	Staking  json.RawMessage `json:"staking,omitempty"`
	Stargate json.RawMessage `json:"stargate,omitempty"`
	IBC      json.RawMessage `json:"ibc,omitempty"`
}

type BankQuery struct {
	Balance     *BalanceQuery     `json:"balance,omitempty"`
	AllBalances *AllBalancesQuery `json:"all_balances,omitempty"`
	Supply      *SupplyQuery      `json:"supply,omitempty"`
}

type BalanceQuery struct {
	Address Addr   `json:"address"`
	Denom   string `json:"denom"`
}

type AllBalancesQuery struct {
	Address Addr `json:"address"`
}

type SupplyQuery struct {
	Denom string `json:"denom"`
}

type WasmQuery struct {
	Smart        *SmartQuery        `json:"smart,omitempty"`
	Raw          *RawQuery          `json:"raw,omitempty"`
	ContractInfo *ContractInfoQuery `json:"contract_info,omitempty"`
	CodeInfo     *CodeInfoQuery     `json:"code_info,omitempty"`
}

type SmartQuery struct {
	ContractAddr Addr   `json:"contract_addr"`
	Msg          []byte `json:"msg"`
}

type RawQuery struct {
	ContractAddr Addr   `json:"contract_addr"`
	Key          []byte `json:"key"`
}

type ContractInfoQuery struct {
	ContractAddr Addr `json:"contract_addr"`
}

type CodeInfoQuery struct {
	CodeID uint64 `json:"code_id"`
}

type BalanceResponse struct {
	Amount Coin `json:"amount"`
}

type AllBalancesResponse struct {
	Amount Coins `json:"amount"`
}

type SupplyResponse struct {
	Amount Coin `json:"amount"`
}

type ContractInfoResponse struct {
	Admin   *Addr  `json:"admin,omitempty"`
	Creator Addr   `json:"creator"`
	IBCPort string `json:"ibc_port,omitempty"`
	CodeID  uint64 `json:"code_id"`
	Pinned  bool   `json:"pinned"`
}

type CodeInfoResponse struct {
	Creator  Addr     `json:"creator"`
	Checksum Checksum `json:"checksum"`
	CodeID   uint64   `json:"code_id"`
}

// SystemResult is what query_chain hands back to the guest: either the
// queried party's ContractResult, or a failure of the querier itself.
type SystemResult struct {
	Ok  *ContractResult[[]byte]
	Err *QuerierError
}

// MarshalJSON implements json.Marshaler.
func (r SystemResult) MarshalJSON() ([]byte, error) {
	if r.Err != nil {
		return json.Marshal(map[string]*QuerierError{"error": r.Err})
	}
	if r.Ok == nil {
		return json.Marshal(map[string]ContractResult[[]byte]{"ok": OkResult([]byte{})})
	}
	return json.Marshal(map[string]*ContractResult[[]byte]{"ok": r.Ok})
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *SystemResult) UnmarshalJSON(b []byte) error {
	var raw struct {
		Ok  *ContractResult[[]byte] `json:"ok"`
		Err *QuerierError           `json:"error"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	r.Ok, r.Err = raw.Ok, raw.Err
	return nil
}

// QuerierError is the querier-level failure union the guest understands.
type QuerierError struct {
	InvalidRequest     *InvalidRequestError     `json:"invalid_request,omitempty"`
	InvalidResponse    *InvalidResponseError    `json:"invalid_response,omitempty"`
	NoSuchContract     *NoSuchContractError     `json:"no_such_contract,omitempty"`
	NoSuchCode         *NoSuchCodeError         `json:"no_such_code,omitempty"`
	UnsupportedRequest *UnsupportedRequestError `json:"unsupported_request,omitempty"`
	Unknown            *struct{}                `json:"unknown,omitempty"`
}

type InvalidRequestError struct {
	Error   string `json:"error"`
	Request []byte `json:"request"`
}

type InvalidResponseError struct {
	Error    string `json:"error"`
	Response []byte `json:"response"`
}

type NoSuchContractError struct {
	Addr string `json:"addr"`
}

type NoSuchCodeError struct {
	CodeID uint64 `json:"code_id"`
}

type UnsupportedRequestError struct {
	Kind string `json:"kind"`
}
