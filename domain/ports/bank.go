package ports

import "github.com/reglet-dev/cwvm/domain/entities"

// Bank is the asset ledger primitive the engine moves funds through.
type Bank interface {
	Transfer(from, to entities.Addr, coins entities.Coins) error
	Burn(from entities.Addr, coins entities.Coins) error
	Mint(to entities.Addr, coins entities.Coins) error
	Balance(addr entities.Addr, denom string) (entities.Coin, error)
	AllBalances(addr entities.Addr) (entities.Coins, error)
	Supply(denom string) (entities.Coin, error)
}
