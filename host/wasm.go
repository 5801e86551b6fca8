package host

import (
	"context"
	"fmt"

	"github.com/reglet-dev/cwvm/domain/entities"
	"github.com/reglet-dev/cwvm/executor"
	"github.com/reglet-dev/cwvm/hostfuncs"
	wazeroadapter "github.com/reglet-dev/cwvm/infrastructure/wazero"
	"github.com/tetratelabs/wazero"
)

// instantiate creates a fresh instance of the running contract's code.
// Every call gets its own instance so that no guest state survives between
// calls; the module name only has to be unique within the runtime.
func (s *Session) instantiate(ctx context.Context) (*wazeroadapter.Instance, error) {
	meta, err := s.RunningContractMeta()
	if err != nil {
		return nil, err
	}
	code, err := s.exec.chain.Registry.CodeInfo(meta.CodeID)
	if err != nil {
		return nil, err
	}
	compiled, err := s.exec.module(ctx, code.Checksum)
	if err != nil {
		return nil, err
	}

	cfg := wazero.NewModuleConfig().
		WithName(s.run.nextModuleName()).
		WithStartFunctions()
	mod, err := s.exec.runtime.InstantiateModule(ctx, compiled, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate contract %s: %w", s.env.Contract.Address, err)
	}
	return wazeroadapter.NewInstance(mod, s.run.depth), nil
}

// callContract runs ep on the session's contract in a new instance with the
// session installed as the host environment.
func callContract[T any](ctx context.Context, s *Session, ep executor.EntryPoint, msg []byte) (entities.ContractResult[T], error) {
	var result entities.ContractResult[T]

	inst, err := s.instantiate(ctx)
	if err != nil {
		return result, err
	}
	defer func() { _ = inst.Close(ctx) }()

	ctx = wazeroadapter.WithCallDepth(ctx, s.run.depth)
	ctx = hostfuncs.WithEnvironment(ctx, s)

	var info *entities.MessageInfo
	if ep.HasInfo() {
		info = &s.info
	}
	return executor.Call[T](ctx, inst, ep, s.env, info, msg, s.exec.resultLimit)
}
