package entities

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Addr is a human-readable account or contract address.
type Addr string

// String returns the address as a plain string.
func (a Addr) String() string { return string(a) }

// Coin is an amount of a single denomination. Amount is a decimal u128
// rendered as a string, the way the guest side serializes Uint128.
type Coin struct {
	Denom  string `json:"denom" validate:"required"`
	Amount string `json:"amount" validate:"required,numeric"`
}

// NewCoin builds a coin from a native amount.
func NewCoin(amount uint64, denom string) Coin {
	return Coin{Denom: denom, Amount: strconv.FormatUint(amount, 10)}
}

func (c Coin) String() string {
	return c.Amount + c.Denom
}

// Coins is a list of coins. It always serializes as a JSON array, never null.
type Coins []Coin

// MarshalJSON implements json.Marshaler.
func (cs Coins) MarshalJSON() ([]byte, error) {
	if cs == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Coin(cs))
}

func (cs Coins) String() string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, ",")
}

// Empty reports whether there is nothing to transfer.
func (cs Coins) Empty() bool {
	for _, c := range cs {
		if c.Amount != "0" && c.Amount != "" {
			return false
		}
	}
	return true
}
