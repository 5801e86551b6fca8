package host

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/reglet-dev/cwvm/domain/entities"
	engerrors "github.com/reglet-dev/cwvm/domain/errors"
	"github.com/reglet-dev/cwvm/domain/ports"
	"github.com/reglet-dev/cwvm/executor"
	"github.com/reglet-dev/cwvm/hostfuncs"
	"github.com/reglet-dev/cwvm/infrastructure/address"
	wazeroadapter "github.com/reglet-dev/cwvm/infrastructure/wazero"
	"github.com/reglet-dev/cwvm/system"
	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"
)

// ErrContractExists is returned when an instantiation derives an address
// that already holds a contract.
var ErrContractExists = errors.New("contract address already in use")

// Executor runs contracts stored on a Chain. It owns the wazero runtime and
// the compiled module cache; everything a single call touches lives in the
// Session created for it, so calls on different goroutines do not share
// execution state. Calls that write state must still be serialized by the
// caller because they share the Chain's store.
type Executor struct {
	runtime  wazero.Runtime
	registry *hostfuncs.Registry
	chain    Chain

	logger    *zap.Logger
	metrics   ports.Metrics
	publisher ports.EventPublisher
	custom    CustomHandler
	ibc       IBCHandler
	costs     hostfuncs.GasCosts

	gasLimit           uint64
	maxCallDepth       uint32
	maxSubMessageDepth uint32
	resultLimit        uint32
	memoryLimitPages   uint32
	cacheSize          int

	compiled *lru.Cache[entities.Checksum, wazero.CompiledModule]

	mu      sync.Mutex // guards the fields below
	pinned  map[entities.Checksum]wazero.CompiledModule
	block   entities.BlockInfo
	txIndex uint32
}

// Result is the outcome of a committed top-level call.
type Result struct {
	Data    []byte
	Events  []entities.Event
	GasUsed uint64
}

// NewExecutor creates a new executor over chain with the given options.
func NewExecutor(ctx context.Context, chain Chain, opts ...Option) (*Executor, error) {
	if err := chain.validate(); err != nil {
		return nil, &engerrors.ConfigError{Field: "chain", Err: err}
	}
	e := &Executor{
		chain:              chain,
		logger:             zap.NewNop(),
		metrics:            ports.NopMetrics{},
		costs:              hostfuncs.DefaultGasCosts(),
		gasLimit:           DefaultGasLimit,
		maxCallDepth:       hostfuncs.DefaultMaxCallDepth,
		maxSubMessageDepth: DefaultMaxSubMessageDepth,
		resultLimit:        executor.DefaultResultLimit,
		memoryLimitPages:   DefaultMemoryLimitPages,
		cacheSize:          DefaultCacheSize,
		pinned:             make(map[entities.Checksum]wazero.CompiledModule),
		block:              entities.BlockInfo{ChainID: DefaultChainID, Height: 1},
	}
	for _, opt := range opts {
		opt(e)
	}

	// Default registry if not provided
	if e.registry == nil {
		reg, err := hostfuncs.NewRegistry(
			hostfuncs.WithMiddleware(
				hostfuncs.RecoveryMiddleware(),
				hostfuncs.GasMiddleware(),
				hostfuncs.LoggingMiddleware(e.logger.Named("hostfuncs")),
			),
			hostfuncs.WithBundle(hostfuncs.AllBundles()),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create default registry: %w", err)
		}
		e.registry = reg
	}

	cache, err := lru.NewWithEvict(e.cacheSize, e.evict)
	if err != nil {
		return nil, fmt.Errorf("failed to create module cache: %w", err)
	}
	e.compiled = cache

	cfg := wazero.NewRuntimeConfig().
		WithMemoryLimitPages(e.memoryLimitPages).
		WithCloseOnContextDone(true)
	rt := wazero.NewRuntimeWithConfig(ctx, cfg)
	e.runtime = rt

	if err := wazeroadapter.RegisterWithRuntime(ctx, rt, e.registry); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to register host functions: %w", err)
	}

	return e, nil
}

// Close releases resources held by the executor. The Chain is left open.
func (e *Executor) Close(ctx context.Context) error {
	e.compiled.Purge()
	e.mu.Lock()
	var errs []error
	for checksum, mod := range e.pinned {
		errs = append(errs, mod.Close(ctx))
		delete(e.pinned, checksum)
	}
	e.mu.Unlock()
	errs = append(errs, e.runtime.Close(ctx))
	return errors.Join(errs...)
}

// Chain returns the state the executor runs against.
func (e *Executor) Chain() Chain { return e.chain }

// Block returns the block the next call executes in.
func (e *Executor) Block() entities.BlockInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.block
}

// SetBlock moves execution to block.
func (e *Executor) SetBlock(block entities.BlockInfo) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.block = block
	e.txIndex = 0
}

// NextBlock advances the height by one and the time by elapsed.
func (e *Executor) NextBlock(elapsed time.Duration) entities.BlockInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.block.Height++
	e.block.Time += entities.Timestamp(elapsed.Nanoseconds()) //nolint:gosec // G115: elapsed is non-negative
	e.txIndex = 0
	return e.block
}

// env builds the environment for a call on contract. State-changing calls
// get a transaction index within the current block.
func (e *Executor) env(contract entities.Addr, tx bool) entities.Env {
	e.mu.Lock()
	defer e.mu.Unlock()
	env := entities.Env{Block: e.block, Contract: entities.ContractInfo{Address: contract}}
	if tx {
		env.Transaction = &entities.TransactionInfo{Index: e.txIndex}
		e.txIndex++
	}
	return env
}

func (e *Executor) newSession(contract entities.Addr, info entities.MessageInfo, tx bool) *Session {
	return newSession(e, newExecution(e), e.env(contract, tx), info)
}

// finish records depth metrics, publishes the events of a committed call
// and packages the result.
func (e *Executor) finish(s *Session, data []byte, events []entities.Event, err error) (*Result, error) {
	s.observeDepth()
	if err != nil {
		return nil, err
	}
	if e.publisher != nil {
		e.publisher.Publish(s.env.Contract.Address, events)
	}
	return &Result{Data: data, Events: events, GasUsed: s.run.gas.Consumed()}, nil
}

// transact runs fn in its own outer transaction.
func (e *Executor) transact(fn func() error) error {
	store := e.chain.Store
	if err := store.Begin(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		if rerr := store.Rollback(); rerr != nil {
			return errors.Join(err, rerr)
		}
		return err
	}
	return store.Commit()
}

// InstantiateParams describes a new contract instance.
type InstantiateParams struct {
	Admin  *entities.Addr
	Sender entities.Addr
	Label  string
	Msg    []byte
	Funds  entities.Coins
	// Salt selects the predictable address derivation when set.
	Salt   []byte
	CodeID uint64
}

// Instantiate creates a contract from stored code and runs its instantiate
// entry point. Registration and the call commit or roll back together.
func (e *Executor) Instantiate(ctx context.Context, p InstantiateParams) (entities.Addr, *Result, error) {
	var (
		contract entities.Addr
		s        *Session
		data     []byte
		events   []entities.Event
	)
	err := e.transact(func() error {
		code, err := e.chain.Registry.CodeInfo(p.CodeID)
		if err != nil {
			return err
		}
		if len(p.Salt) > 0 {
			contract, err = e.predictableAddress(code.Checksum, p.Sender, p.Salt)
		} else {
			contract, err = e.classicAddress(p.CodeID)
		}
		if err != nil {
			return err
		}
		meta := entities.ContractMeta{CodeID: p.CodeID, Admin: p.Admin, Label: p.Label, Creator: p.Sender}
		if err := e.register(contract, meta); err != nil {
			return err
		}
		s = e.newSession(contract, entities.MessageInfo{Sender: p.Sender, Funds: p.Funds}, true)
		data, events, err = system.Run(ctx, s, executor.Instantiate, p.Msg)
		return err
	})
	if s == nil {
		return "", nil, err
	}
	res, err := e.finish(s, data, events, err)
	if err != nil {
		return "", nil, err
	}
	return contract, res, nil
}

func (e *Executor) classicAddress(codeID uint64) (entities.Addr, error) {
	instanceID, err := e.chain.Registry.NextInstanceID()
	if err != nil {
		return "", err
	}
	return e.chain.Addresses.Humanize(address.ContractAddress(codeID, instanceID))
}

func (e *Executor) predictableAddress(checksum entities.Checksum, creator entities.Addr, salt []byte) (entities.Addr, error) {
	canonical, err := e.chain.Addresses.Canonicalize(creator)
	if err != nil {
		return "", fmt.Errorf("creator %s: %w", creator, err)
	}
	return e.chain.Addresses.Humanize(address.PredictableAddress(checksum, canonical, salt))
}

// register records meta under a fresh contract address.
func (e *Executor) register(contract entities.Addr, meta entities.ContractMeta) error {
	_, err := e.chain.Registry.ContractMeta(contract)
	if err == nil {
		return fmt.Errorf("%w: %s", ErrContractExists, contract)
	}
	var notFound *engerrors.ContractNotFoundError
	if !errors.As(err, &notFound) {
		return err
	}
	return e.chain.Registry.SetContractMeta(contract, meta)
}

// Execute runs the execute entry point of contract on behalf of sender.
func (e *Executor) Execute(ctx context.Context, sender, contract entities.Addr, msg []byte, funds entities.Coins) (*Result, error) {
	if _, err := e.chain.Registry.ContractMeta(contract); err != nil {
		return nil, err
	}
	s := e.newSession(contract, entities.MessageInfo{Sender: sender, Funds: funds}, true)
	data, events, err := system.Run(ctx, s, executor.Execute, msg)
	return e.finish(s, data, events, err)
}

// Migrate moves contract to newCodeID and runs the new code's migrate entry
// point. Only the contract's admin may do this.
func (e *Executor) Migrate(ctx context.Context, sender, contract entities.Addr, newCodeID uint64, msg []byte) (*Result, error) {
	if _, err := e.chain.Registry.ContractMeta(contract); err != nil {
		return nil, err
	}
	s := e.newSession(contract, entities.MessageInfo{Sender: sender}, true)
	data, events, err := system.Migrate(ctx, s, newCodeID, msg)
	return e.finish(s, data, events, err)
}

// UpdateAdmin hands contract's admin rights to newAdmin, or drops them for
// good when newAdmin is nil.
func (e *Executor) UpdateAdmin(_ context.Context, sender, contract entities.Addr, newAdmin *entities.Addr) (*Result, error) {
	s := e.newSession(contract, entities.MessageInfo{Sender: sender}, true)
	events, err := system.UpdateAdmin(s, newAdmin)
	return e.finish(s, nil, events, err)
}

// Sudo runs the privileged sudo entry point. It has no sender; the chain
// itself is the caller.
func (e *Executor) Sudo(ctx context.Context, contract entities.Addr, msg []byte) (*Result, error) {
	return e.call(ctx, executor.Sudo, contract, msg)
}

// IBC delivers an inter-chain lifecycle or packet callback to contract.
func (e *Executor) IBC(ctx context.Context, ep executor.EntryPoint, contract entities.Addr, msg []byte) (*Result, error) {
	if !ep.IBC() {
		return nil, fmt.Errorf("%s is not an ibc entry point", ep)
	}
	return e.call(ctx, ep, contract, msg)
}

func (e *Executor) call(ctx context.Context, ep executor.EntryPoint, contract entities.Addr, msg []byte) (*Result, error) {
	if _, err := e.chain.Registry.ContractMeta(contract); err != nil {
		return nil, err
	}
	s := e.newSession(contract, entities.MessageInfo{}, true)
	data, events, err := system.Run(ctx, s, ep, msg)
	return e.finish(s, data, events, err)
}

// Query runs contract's query entry point read-only and returns its binary
// result. A contract that answers with an error fails the query.
func (e *Executor) Query(ctx context.Context, contract entities.Addr, msg []byte) ([]byte, error) {
	s := e.newSession(contract, entities.MessageInfo{}, false)
	defer s.observeDepth()
	res, err := s.ContinueQuery(ctx, contract, msg)
	if err != nil {
		return nil, err
	}
	if res.IsErr() {
		return nil, engerrors.NewSystemError(engerrors.SystemContractExecutionFailure, "%s", res.Err)
	}
	return *res.Ok, nil
}

// QueryChain answers a chain query the way query_chain does for contracts.
func (e *Executor) QueryChain(ctx context.Context, request entities.QueryRequest) (entities.SystemResult, error) {
	s := e.newSession("", entities.MessageInfo{}, false)
	defer s.observeDepth()
	return system.Query(ctx, s, request)
}
