package hostfuncs

import (
	"context"
	"errors"

	"github.com/reglet-dev/cwvm/domain/entities"
	"github.com/reglet-dev/cwvm/domain/ports"
	"go.uber.org/zap"
)

// Environment is the execution state a host function acts on. The host
// runtime installs one per contract call with WithEnvironment.
type Environment interface {
	// Contract is the address of the contract whose code is running.
	Contract() entities.Addr
	// Storage is the contract's own namespaced view of the store.
	Storage() ports.Store
	Addresses() ports.AddressCodec
	Querier() Querier
	Gas() ports.GasMeter
	Costs() GasCosts
	Logger() *zap.Logger
	// ReadOnly is set for queries; storage writes then fail.
	ReadOnly() bool
}

// Querier answers query_chain. The result is a JSON SystemResult; a Go error
// is reserved for failures that must trap the guest, such as running out of
// gas.
type Querier interface {
	QueryRaw(ctx context.Context, request []byte) ([]byte, error)
}

// GasCosts prices host function work.
type GasCosts struct {
	HostCall        uint64 `mapstructure:"host_call" json:"host_call"`
	PerByte         uint64 `mapstructure:"per_byte" json:"per_byte"`
	Secp256k1Verify uint64 `mapstructure:"secp256k1_verify" json:"secp256k1_verify"`
	Ed25519Verify   uint64 `mapstructure:"ed25519_verify" json:"ed25519_verify"`
}

// DefaultGasCosts returns the standard price list.
func DefaultGasCosts() GasCosts {
	return GasCosts{
		HostCall:        100,
		PerByte:         1,
		Secp256k1Verify: 154_000,
		Ed25519Verify:   138_000,
	}
}

// ErrNoEnvironment is returned when a host function runs without an
// Environment on its context.
var ErrNoEnvironment = errors.New("no host environment on context")

type contextKey struct {
	name string
}

var environmentKey = &contextKey{name: "environment"}

// WithEnvironment attaches env to ctx.
func WithEnvironment(ctx context.Context, env Environment) context.Context {
	return context.WithValue(ctx, environmentKey, env)
}

// EnvironmentFrom retrieves the Environment installed by WithEnvironment.
func EnvironmentFrom(ctx context.Context) (Environment, error) {
	env, ok := ctx.Value(environmentKey).(Environment)
	if !ok || env == nil {
		return nil, ErrNoEnvironment
	}
	return env, nil
}

// HostContext wraps a standard context.Context with the name of the host
// function being invoked, so middleware can label what it observes.
type HostContext interface {
	context.Context

	// FunctionName returns the name of the host function being invoked.
	FunctionName() string
}

type hostContext struct {
	context.Context
	funcName string
}

// NewHostContext creates a new HostContext wrapping the given context.
func NewHostContext(ctx context.Context, funcName string) HostContext {
	return &hostContext{Context: ctx, funcName: funcName}
}

func (c *hostContext) FunctionName() string {
	return c.funcName
}

// HostContextFrom returns ctx if it already names funcName, otherwise it
// wraps ctx. A host function called while another is running gets its own
// name.
func HostContextFrom(ctx context.Context, funcName string) HostContext {
	if hc, ok := ctx.(HostContext); ok && hc.FunctionName() == funcName {
		return hc
	}
	return NewHostContext(ctx, funcName)
}
