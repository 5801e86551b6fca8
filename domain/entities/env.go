package entities

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Timestamp is a point in time in nanoseconds since the Unix epoch.
// It serializes as a decimal string.
type Timestamp uint64

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatUint(uint64(t), 10))
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	*t = Timestamp(v)
	return nil
}

// Env is the execution environment handed to every entry point.
type Env struct {
	Transaction *TransactionInfo `json:"transaction,omitempty"`
	Block       BlockInfo        `json:"block"`
	Contract    ContractInfo     `json:"contract"`
}

// BlockInfo describes the block the call executes in.
type BlockInfo struct {
	ChainID string    `json:"chain_id" validate:"required"`
	Height  uint64    `json:"height"`
	Time    Timestamp `json:"time"`
}

// TransactionInfo identifies the transaction within its block.
type TransactionInfo struct {
	Index uint32 `json:"index"`
}

// ContractInfo names the contract being executed.
type ContractInfo struct {
	Address Addr `json:"address" validate:"required"`
}

// MessageInfo carries the caller of an execute or instantiate call and the
// funds it attached.
type MessageInfo struct {
	Sender Addr  `json:"sender" validate:"required"`
	Funds  Coins `json:"funds" validate:"dive"`
}
