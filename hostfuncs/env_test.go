package hostfuncs

import (
	"context"
	"errors"
	"strings"

	"github.com/reglet-dev/cwvm/domain/entities"
	engerrors "github.com/reglet-dev/cwvm/domain/errors"
	"github.com/reglet-dev/cwvm/domain/ports"
	"go.uber.org/zap"
)

type mapStore map[string][]byte

func (s mapStore) Get(key []byte) ([]byte, error) { return s[string(key)], nil }

func (s mapStore) Set(key, value []byte) error {
	s[string(key)] = append([]byte(nil), value...)
	return nil
}

func (s mapStore) Delete(key []byte) error {
	delete(s, string(key))
	return nil
}

func (s mapStore) Has(key []byte) (bool, error) {
	_, ok := s[string(key)]
	return ok, nil
}

// upperCodec treats lower-case ascii as valid and canonicalizes by
// upper-casing.
type upperCodec struct{}

func (upperCodec) Validate(addr entities.Addr) error {
	if strings.ToLower(string(addr)) != string(addr) {
		return errors.New("address must be lower case")
	}
	return nil
}

func (c upperCodec) Canonicalize(addr entities.Addr) ([]byte, error) {
	if err := c.Validate(addr); err != nil {
		return nil, err
	}
	return []byte(strings.ToUpper(string(addr))), nil
}

func (upperCodec) Humanize(canonical []byte) (entities.Addr, error) {
	if len(canonical) == 0 {
		return "", errors.New("empty canonical address")
	}
	return entities.Addr(strings.ToLower(string(canonical))), nil
}

type budgetMeter struct {
	remaining uint64
	consumed  uint64
}

func (m *budgetMeter) Push(ports.GasCheckpoint) error { return nil }
func (m *budgetMeter) Pop() error { return nil }

func (m *budgetMeter) Consume(amount uint64) error {
	if amount > m.remaining {
		return &engerrors.OutOfGasError{Requested: amount, Remaining: m.remaining}
	}
	m.remaining -= amount
	m.consumed += amount
	return nil
}

func (m *budgetMeter) Consumed() uint64 { return m.consumed }
func (m *budgetMeter) Remaining() uint64 { return m.remaining }

type querierFunc func(ctx context.Context, request []byte) ([]byte, error)

func (f querierFunc) QueryRaw(ctx context.Context, request []byte) ([]byte, error) {
	return f(ctx, request)
}

type fakeEnv struct {
	store    mapStore
	gas      *budgetMeter
	querier  Querier
	logger   *zap.Logger
	readOnly bool
}

func newFakeEnv() *fakeEnv {
	return &fakeEnv{
		store:  mapStore{},
		gas:    &budgetMeter{remaining: 10_000_000},
		logger: zap.NewNop(),
		querier: querierFunc(func(context.Context, []byte) ([]byte, error) {
			return []byte(`{"ok":{"ok":"e30="}}`), nil
		}),
	}
}

func (e *fakeEnv) Contract() entities.Addr { return "contract" }
func (e *fakeEnv) Storage() ports.Store { return e.store }
func (e *fakeEnv) Addresses() ports.AddressCodec { return upperCodec{} }
func (e *fakeEnv) Querier() Querier { return e.querier }
func (e *fakeEnv) Gas() ports.GasMeter { return e.gas }
func (e *fakeEnv) Costs() GasCosts { return DefaultGasCosts() }
func (e *fakeEnv) Logger() *zap.Logger { return e.logger }
func (e *fakeEnv) ReadOnly() bool { return e.readOnly }
