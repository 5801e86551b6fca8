package entities

import "encoding/json"

// ReplyOn selects when the host calls back into the emitting contract's
// reply entry point after a sub-message completes.
type ReplyOn string

const (
	ReplyAlways  ReplyOn = "always"
	ReplySuccess ReplyOn = "success"
	ReplyError   ReplyOn = "error"
	ReplyNever   ReplyOn = "never"
)

// SubMsg is a message returned by a contract for the host to dispatch before
// the parent call is considered finished.
type SubMsg struct {
	GasLimit *uint64   `json:"gas_limit,omitempty"`
	ReplyOn  ReplyOn   `json:"reply_on" validate:"required,oneof=always success error never"`
	Payload  []byte    `json:"payload,omitempty"`
	Msg      CosmosMsg `json:"msg"`
	ID       uint64    `json:"id"`
}

// CosmosMsg is an externally tagged union. Exactly one field is set.
// Staking, Distribution, Stargate and Gov are decoded only so the dispatcher
// can reject them by name.
type CosmosMsg struct {
	Bank         *BankMsg        `json:"bank,omitempty"`
	Wasm         *WasmMsg        `json:"wasm,omitempty"`
	IBC          *IBCMsg         `json:"ibc,omitempty"`
	Custom       json.RawMessage `json:"custom,omitempty"`
	Staking      json.RawMessage `json:"staking,omitempty"`
	Distribution json.RawMessage `json:"distribution,omitempty"`
	Stargate     json.RawMessage `json:"stargate,omitempty"`
	Gov          json.RawMessage `json:"gov,omitempty"`
}

// Kind returns a short dotted name for the message variant, for example
// "wasm.execute" or "bank.send".
func (m CosmosMsg) Kind() string {
	switch {
	case m.Bank != nil:
		switch {
		case m.Bank.Send != nil:
			return "bank.send"
		case m.Bank.Burn != nil:
			return "bank.burn"
		}
		return "bank"
	case m.Wasm != nil:
		switch {
		case m.Wasm.Execute != nil:
			return "wasm.execute"
		case m.Wasm.Instantiate != nil:
			return "wasm.instantiate"
		case m.Wasm.Instantiate2 != nil:
			return "wasm.instantiate2"
		case m.Wasm.Migrate != nil:
			return "wasm.migrate"
		case m.Wasm.UpdateAdmin != nil:
			return "wasm.update_admin"
		case m.Wasm.ClearAdmin != nil:
			return "wasm.clear_admin"
		}
		return "wasm"
	case m.IBC != nil:
		switch {
		case m.IBC.Transfer != nil:
			return "ibc.transfer"
		case m.IBC.SendPacket != nil:
			return "ibc.send_packet"
		case m.IBC.CloseChannel != nil:
			return "ibc.close_channel"
		}
		return "ibc"
	case m.Custom != nil:
		return "custom"
	case m.Staking != nil:
		return "staking"
	case m.Distribution != nil:
		return "distribution"
	case m.Stargate != nil:
		return "stargate"
	case m.Gov != nil:
		return "gov"
	}
	return "unknown"
}

// BankMsg moves or destroys native tokens.
type BankMsg struct {
	Send *SendMsg `json:"send,omitempty"`
	Burn *BurnMsg `json:"burn,omitempty"`
}

type SendMsg struct {
	ToAddress Addr  `json:"to_address" validate:"required"`
	Amount    Coins `json:"amount" validate:"dive"`
}

type BurnMsg struct {
	Amount Coins `json:"amount" validate:"dive"`
}

// WasmMsg calls into or administers other contracts.
type WasmMsg struct {
	Execute      *ExecuteMsg      `json:"execute,omitempty"`
	Instantiate  *InstantiateMsg  `json:"instantiate,omitempty"`
	Instantiate2 *Instantiate2Msg `json:"instantiate2,omitempty"`
	Migrate      *MigrateMsg      `json:"migrate,omitempty"`
	UpdateAdmin  *UpdateAdminMsg  `json:"update_admin,omitempty"`
	ClearAdmin   *ClearAdminMsg   `json:"clear_admin,omitempty"`
}

type ExecuteMsg struct {
	ContractAddr Addr   `json:"contract_addr" validate:"required"`
	Msg          []byte `json:"msg"`
	Funds        Coins  `json:"funds" validate:"dive"`
}

type InstantiateMsg struct {
	Admin  *Addr  `json:"admin,omitempty"`
	Label  string `json:"label"`
	Msg    []byte `json:"msg"`
	Funds  Coins  `json:"funds" validate:"dive"`
	CodeID uint64 `json:"code_id" validate:"required"`
}

// Instantiate2Msg instantiates at an address derived from the code checksum,
// the creator and Salt.
type Instantiate2Msg struct {
	Admin  *Addr  `json:"admin,omitempty"`
	Label  string `json:"label"`
	Msg    []byte `json:"msg"`
	Funds  Coins  `json:"funds" validate:"dive"`
	Salt   []byte `json:"salt" validate:"required,min=1,max=64"`
	CodeID uint64 `json:"code_id" validate:"required"`
}

type MigrateMsg struct {
	ContractAddr Addr   `json:"contract_addr" validate:"required"`
	Msg          []byte `json:"msg"`
	NewCodeID    uint64 `json:"new_code_id" validate:"required"`
}

type UpdateAdminMsg struct {
	ContractAddr Addr `json:"contract_addr" validate:"required"`
	Admin        Addr `json:"admin" validate:"required"`
}

type ClearAdminMsg struct {
	ContractAddr Addr `json:"contract_addr" validate:"required"`
}

// IBCMsg covers the inter-chain operations a contract may request.
type IBCMsg struct {
	Transfer     *TransferMsg     `json:"transfer,omitempty"`
	SendPacket   *SendPacketMsg   `json:"send_packet,omitempty"`
	CloseChannel *CloseChannelMsg `json:"close_channel,omitempty"`
}

type TransferMsg struct {
	ChannelID string     `json:"channel_id" validate:"required"`
	ToAddress string     `json:"to_address" validate:"required"`
	Amount    Coin       `json:"amount"`
	Timeout   IBCTimeout `json:"timeout"`
}

type SendPacketMsg struct {
	ChannelID string     `json:"channel_id" validate:"required"`
	Data      []byte     `json:"data"`
	Timeout   IBCTimeout `json:"timeout"`
}

type CloseChannelMsg struct {
	ChannelID string `json:"channel_id" validate:"required"`
}

// IBCTimeout is either a block height, a timestamp, or both.
type IBCTimeout struct {
	Block     *IBCTimeoutBlock `json:"block,omitempty"`
	Timestamp *Timestamp       `json:"timestamp,omitempty"`
}

type IBCTimeoutBlock struct {
	Revision uint64 `json:"revision"`
	Height   uint64 `json:"height"`
}
