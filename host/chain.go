package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/reglet-dev/cwvm/domain/entities"
	"github.com/reglet-dev/cwvm/domain/ports"
	"github.com/reglet-dev/cwvm/infrastructure/address"
	"github.com/reglet-dev/cwvm/infrastructure/bank"
	"github.com/reglet-dev/cwvm/infrastructure/codestore"
	"github.com/reglet-dev/cwvm/infrastructure/registry"
	"github.com/reglet-dev/cwvm/infrastructure/storage"
)

// Store key namespaces.
var (
	bankPrefix     = []byte("bank/")
	registryPrefix = []byte("registry/")
)

func contractStatePrefix(contract entities.Addr) []byte {
	return []byte("state/" + string(contract) + "/")
}

// Chain is the state the executor runs contracts against. Bank and Registry
// must write through Store so that a rolled back call leaves no trace in
// them either.
type Chain struct {
	Store     ports.TransactionalStore
	Bank      ports.Bank
	Registry  ports.ContractRegistry
	Codes     ports.CodeStore
	Addresses ports.AddressCodec
}

func (c Chain) validate() error {
	var errs []error
	if c.Store == nil {
		errs = append(errs, errors.New("store is required"))
	}
	if c.Bank == nil {
		errs = append(errs, errors.New("bank is required"))
	}
	if c.Registry == nil {
		errs = append(errs, errors.New("registry is required"))
	}
	if c.Codes == nil {
		errs = append(errs, errors.New("code store is required"))
	}
	if c.Addresses == nil {
		errs = append(errs, errors.New("address codec is required"))
	}
	return errors.Join(errs...)
}

// NewChain builds a Chain whose bank and registry live inside store.
func NewChain(store ports.TransactionalStore, codes ports.CodeStore, addresses ports.AddressCodec) Chain {
	return Chain{
		Store:     store,
		Bank:      bank.New(store.Prefix(bankPrefix)),
		Registry:  registry.New(store.Prefix(registryPrefix)),
		Codes:     codes,
		Addresses: addresses,
	}
}

// NewMemoryChain builds a throwaway Chain with in-memory storage and an
// in-memory code store. Close the returned code store when done.
func NewMemoryChain(prefix string, opts ...codestore.Option) (Chain, error) {
	codes, err := codestore.Open(opts...)
	if err != nil {
		return Chain{}, fmt.Errorf("open code store: %w", err)
	}
	return NewChain(storage.NewMemory(), codes, address.NewBech32(prefix)), nil
}

// CustomHandler gives meaning to the chain-specific custom query and
// message kinds.
type CustomHandler interface {
	Query(ctx context.Context, request json.RawMessage) (entities.SystemResult, error)
	Execute(ctx context.Context, contract entities.Addr, msg json.RawMessage) ([]byte, []entities.Event, error)
}

// IBCHandler carries out the inter-chain messages a contract emits.
type IBCHandler interface {
	Transfer(ctx context.Context, contract entities.Addr, msg entities.TransferMsg) error
	SendPacket(ctx context.Context, contract entities.Addr, msg entities.SendPacketMsg) error
	CloseChannel(ctx context.Context, contract entities.Addr, msg entities.CloseChannelMsg) error
}
