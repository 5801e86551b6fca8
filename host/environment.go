package host

import (
	"context"

	"github.com/reglet-dev/cwvm/domain/entities"
	"github.com/reglet-dev/cwvm/domain/ports"
	"github.com/reglet-dev/cwvm/hostfuncs"
	"github.com/reglet-dev/cwvm/system"
)

// contractStore is contract's private storage namespace.
func (e *Executor) contractStore(contract entities.Addr) ports.Store {
	return e.chain.Store.Prefix(contractStatePrefix(contract))
}

// Contract implements hostfuncs.Environment.
func (s *Session) Contract() entities.Addr { return s.env.Contract.Address }

// Storage implements hostfuncs.Environment.
func (s *Session) Storage() ports.Store { return s.exec.contractStore(s.env.Contract.Address) }

// Addresses implements hostfuncs.Environment.
func (s *Session) Addresses() ports.AddressCodec { return s.exec.chain.Addresses }

// Querier implements hostfuncs.Environment.
func (s *Session) Querier() hostfuncs.Querier { return s }

// Costs implements hostfuncs.Environment.
func (s *Session) Costs() hostfuncs.GasCosts { return s.exec.costs }

// ReadOnly implements hostfuncs.Environment.
func (s *Session) ReadOnly() bool { return s.readOnly }

// QueryRaw answers query_chain for the running contract.
func (s *Session) QueryRaw(ctx context.Context, request []byte) ([]byte, error) {
	return system.QueryRaw(ctx, s, request)
}
