// Package bank implements ports.Bank over a ports.Store, so balances move
// with the engine's transactions. Amounts are Uint128 as in CosmWasm; the
// arithmetic runs on 256-bit integers and rejects anything wider.
package bank

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/holiman/uint256"
	"github.com/reglet-dev/cwvm/domain/entities"
	engerrors "github.com/reglet-dev/cwvm/domain/errors"
	"github.com/reglet-dev/cwvm/domain/ports"
)

// MaxAmountBits is the width of a coin amount.
const MaxAmountBits = 128

// ErrAmountOverflow is returned when a balance or supply would not fit in
// MaxAmountBits.
var ErrAmountOverflow = errors.New("amount overflows uint128")

var _ ports.Bank = (*Bank)(nil)

// Bank keeps balances, per-account denom lists and total supply.
type Bank struct {
	store ports.Store
}

// New returns a bank persisting to store.
func New(store ports.Store) *Bank {
	return &Bank{store: store}
}

func balanceKey(addr entities.Addr, denom string) []byte {
	return []byte("balance/" + string(addr) + "/" + denom)
}

func denomsKey(addr entities.Addr) []byte { return []byte("denoms/" + string(addr)) }

func supplyKey(denom string) []byte { return []byte("supply/" + denom) }

// ParseAmount parses a decimal Uint128.
func ParseAmount(s string) (*uint256.Int, error) {
	x, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if x.BitLen() > MaxAmountBits {
		return nil, fmt.Errorf("%w: %s", ErrAmountOverflow, s)
	}
	return x, nil
}

func (b *Bank) load(key []byte) (*uint256.Int, error) {
	raw, err := b.store.Get(key)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes(raw), nil
}

func (b *Bank) save(key []byte, x *uint256.Int) error {
	if x.IsZero() {
		return b.store.Delete(key)
	}
	return b.store.Set(key, x.Bytes())
}

func add(x, y *uint256.Int) (*uint256.Int, error) {
	sum, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow || sum.BitLen() > MaxAmountBits {
		return nil, ErrAmountOverflow
	}
	return sum, nil
}

func (b *Bank) denoms(addr entities.Addr) ([]string, error) {
	raw, err := b.store.Get(denomsKey(addr))
	if err != nil || raw == nil {
		return nil, err
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("denoms of %s: %w", addr, err)
	}
	return out, nil
}

func (b *Bank) addDenom(addr entities.Addr, denom string) error {
	denoms, err := b.denoms(addr)
	if err != nil {
		return err
	}
	i := sort.SearchStrings(denoms, denom)
	if i < len(denoms) && denoms[i] == denom {
		return nil
	}
	denoms = append(denoms, "")
	copy(denoms[i+1:], denoms[i:])
	denoms[i] = denom
	raw, err := json.Marshal(denoms)
	if err != nil {
		return err
	}
	return b.store.Set(denomsKey(addr), raw)
}

func (b *Bank) credit(addr entities.Addr, denom string, amount *uint256.Int) error {
	bal, err := b.load(balanceKey(addr, denom))
	if err != nil {
		return err
	}
	sum, err := add(bal, amount)
	if err != nil {
		return fmt.Errorf("credit %s: %w", addr, err)
	}
	if err := b.addDenom(addr, denom); err != nil {
		return err
	}
	return b.save(balanceKey(addr, denom), sum)
}

func (b *Bank) debit(addr entities.Addr, denom string, amount *uint256.Int) error {
	bal, err := b.load(balanceKey(addr, denom))
	if err != nil {
		return err
	}
	if bal.Lt(amount) {
		return &engerrors.InsufficientFundsError{
			Address: string(addr),
			Denom:   denom,
			Balance: bal.Dec(),
			Needed:  amount.Dec(),
		}
	}
	return b.save(balanceKey(addr, denom), new(uint256.Int).Sub(bal, amount))
}

// Transfer implements ports.Bank. Coins are moved one by one; the caller's
// transaction undoes a partial transfer.
func (b *Bank) Transfer(from, to entities.Addr, coins entities.Coins) error {
	for _, c := range coins {
		amount, err := ParseAmount(c.Amount)
		if err != nil {
			return err
		}
		if err := b.debit(from, c.Denom, amount); err != nil {
			return err
		}
		if err := b.credit(to, c.Denom, amount); err != nil {
			return err
		}
	}
	return nil
}

// Burn implements ports.Bank.
func (b *Bank) Burn(from entities.Addr, coins entities.Coins) error {
	for _, c := range coins {
		amount, err := ParseAmount(c.Amount)
		if err != nil {
			return err
		}
		if err := b.debit(from, c.Denom, amount); err != nil {
			return err
		}
		supply, err := b.load(supplyKey(c.Denom))
		if err != nil {
			return err
		}
		if err := b.save(supplyKey(c.Denom), new(uint256.Int).Sub(supply, amount)); err != nil {
			return err
		}
	}
	return nil
}

// Mint implements ports.Bank.
func (b *Bank) Mint(to entities.Addr, coins entities.Coins) error {
	for _, c := range coins {
		amount, err := ParseAmount(c.Amount)
		if err != nil {
			return err
		}
		supply, err := b.load(supplyKey(c.Denom))
		if err != nil {
			return err
		}
		total, err := add(supply, amount)
		if err != nil {
			return fmt.Errorf("supply of %s: %w", c.Denom, err)
		}
		if err := b.credit(to, c.Denom, amount); err != nil {
			return err
		}
		if err := b.save(supplyKey(c.Denom), total); err != nil {
			return err
		}
	}
	return nil
}

// Balance implements ports.Bank. Unknown accounts hold zero.
func (b *Bank) Balance(addr entities.Addr, denom string) (entities.Coin, error) {
	bal, err := b.load(balanceKey(addr, denom))
	if err != nil {
		return entities.Coin{}, err
	}
	return entities.Coin{Denom: denom, Amount: bal.Dec()}, nil
}

// AllBalances implements ports.Bank. Zero balances are left out; the result
// is sorted by denom.
func (b *Bank) AllBalances(addr entities.Addr) (entities.Coins, error) {
	denoms, err := b.denoms(addr)
	if err != nil {
		return nil, err
	}
	out := entities.Coins{}
	for _, d := range denoms {
		c, err := b.Balance(addr, d)
		if err != nil {
			return nil, err
		}
		if c.Amount != "0" {
			out = append(out, c)
		}
	}
	return out, nil
}

// Supply implements ports.Bank.
func (b *Bank) Supply(denom string) (entities.Coin, error) {
	supply, err := b.load(supplyKey(denom))
	if err != nil {
		return entities.Coin{}, err
	}
	return entities.Coin{Denom: denom, Amount: supply.Dec()}, nil
}
