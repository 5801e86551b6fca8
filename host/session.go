package host

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/reglet-dev/cwvm/domain/entities"
	engerrors "github.com/reglet-dev/cwvm/domain/errors"
	"github.com/reglet-dev/cwvm/domain/ports"
	"github.com/reglet-dev/cwvm/executor"
	"github.com/reglet-dev/cwvm/hostfuncs"
	"github.com/reglet-dev/cwvm/infrastructure/gas"
	"github.com/reglet-dev/cwvm/system"
	"go.uber.org/zap"
)

// execution is the state shared by every session of one top-level call.
type execution struct {
	gas      ports.GasMeter
	depth    *hostfuncs.CallDepth
	subDepth *hostfuncs.CallDepth
	id       string
	modules  uint64
}

func newExecution(e *Executor) *execution {
	return &execution{
		id:       uuid.NewString(),
		gas:      gas.NewMeter(e.gasLimit),
		depth:    hostfuncs.NewCallDepth("guest", e.maxCallDepth),
		subDepth: hostfuncs.NewCallDepth("submessage", e.maxSubMessageDepth),
	}
}

func (x *execution) nextModuleName() string {
	x.modules++
	return fmt.Sprintf("%s/%d", x.id, x.modules)
}

// Session is the execution context of one contract call. It implements
// system.VM for the dispatcher and hostfuncs.Environment for the contract's
// imports. Nested calls run in child sessions that share the gas meter and
// depth counters of the top-level call.
//
// A Session is not safe for concurrent use.
type Session struct {
	exec     *Executor
	run      *execution
	logger   *zap.Logger
	env      entities.Env
	info     entities.MessageInfo
	readOnly bool
}

var (
	_ system.VM             = (*Session)(nil)
	_ hostfuncs.Environment = (*Session)(nil)
)

func newSession(e *Executor, run *execution, env entities.Env, info entities.MessageInfo) *Session {
	return &Session{
		exec: e,
		run:  run,
		env:  env,
		info: info,
		logger: e.logger.With(
			zap.String("execution_id", run.id),
			zap.String("contract", string(env.Contract.Address))),
	}
}

// child is a session for a nested call on contract. Query children stay
// read-only all the way down.
func (s *Session) child(contract entities.Addr, info entities.MessageInfo) *Session {
	env := s.env
	env.Contract = entities.ContractInfo{Address: contract}
	c := newSession(s.exec, s.run, env, info)
	c.readOnly = s.readOnly
	return c
}

// ID identifies the top-level call this session belongs to.
func (s *Session) ID() string { return s.run.id }

func (s *Session) observeDepth() {
	s.exec.metrics.ObserveDepth(s.run.depth.Scope(), s.run.depth.Peak())
	s.exec.metrics.ObserveDepth(s.run.subDepth.Scope(), s.run.subDepth.Peak())
}

// Begin implements ports.Transactional.
func (s *Session) Begin() error { return s.exec.chain.Store.Begin() }

// Commit implements ports.Transactional.
func (s *Session) Commit() error { return s.exec.chain.Store.Commit() }

// Rollback implements ports.Transactional.
func (s *Session) Rollback() error { return s.exec.chain.Store.Rollback() }

// Depth implements ports.Transactional.
func (s *Session) Depth() int { return s.exec.chain.Store.Depth() }

func (s *Session) Env() entities.Env { return s.env }
func (s *Session) Info() entities.MessageInfo { return s.info }
func (s *Session) Gas() ports.GasMeter { return s.run.gas }
func (s *Session) Bank() ports.Bank { return s.exec.chain.Bank }
func (s *Session) Logger() *zap.Logger { return s.logger }
func (s *Session) Metrics() ports.Metrics { return s.exec.metrics }

func (s *Session) RunningContractMeta() (entities.ContractMeta, error) {
	return s.ContractMeta(s.env.Contract.Address)
}

func (s *Session) ContractMeta(addr entities.Addr) (entities.ContractMeta, error) {
	return s.exec.chain.Registry.ContractMeta(addr)
}

func (s *Session) SetContractMeta(addr entities.Addr, meta entities.ContractMeta) error {
	return s.exec.chain.Registry.SetContractMeta(addr, meta)
}

func (s *Session) CodeInfo(codeID uint64) (entities.CodeInfo, error) {
	return s.exec.chain.Registry.CodeInfo(codeID)
}

// Call implements system.VM.
func (s *Session) Call(ctx context.Context, ep executor.EntryPoint, msg []byte) (entities.ContractResult[entities.Response], error) {
	s.logger.Debug("calling entry point", zap.Stringer("entry_point", ep))
	return callContract[entities.Response](ctx, s, ep, msg)
}

// nested runs fn one sub-message level deeper.
func (s *Session) nested(fn func() error) error {
	return s.run.subDepth.Guard(fn)
}

// ContinueExecute implements system.VM. The running contract is the sender.
func (s *Session) ContinueExecute(ctx context.Context, contract entities.Addr, funds entities.Coins, msg []byte, handler system.EventHandler) ([]byte, error) {
	var data []byte
	err := s.nested(func() error {
		if _, err := s.ContractMeta(contract); err != nil {
			return err
		}
		c := s.child(contract, entities.MessageInfo{Sender: s.env.Contract.Address, Funds: funds})
		var err error
		data, err = system.Continue(ctx, c, executor.Execute, msg, handler)
		return err
	})
	return data, err
}

// ContinueInstantiate implements system.VM.
func (s *Session) ContinueInstantiate(ctx context.Context, meta entities.ContractMeta, funds entities.Coins, msg []byte, handler system.EventHandler) (entities.Addr, []byte, error) {
	if _, err := s.CodeInfo(meta.CodeID); err != nil {
		return "", nil, err
	}
	contract, err := s.exec.classicAddress(meta.CodeID)
	if err != nil {
		return "", nil, err
	}
	return s.instantiateAt(ctx, contract, meta, funds, msg, handler)
}

// ContinueInstantiate2 implements system.VM.
func (s *Session) ContinueInstantiate2(ctx context.Context, meta entities.ContractMeta, funds entities.Coins, salt, msg []byte, handler system.EventHandler) (entities.Addr, []byte, error) {
	code, err := s.CodeInfo(meta.CodeID)
	if err != nil {
		return "", nil, err
	}
	contract, err := s.exec.predictableAddress(code.Checksum, meta.Creator, salt)
	if err != nil {
		return "", nil, err
	}
	return s.instantiateAt(ctx, contract, meta, funds, msg, handler)
}

func (s *Session) instantiateAt(ctx context.Context, contract entities.Addr, meta entities.ContractMeta, funds entities.Coins, msg []byte, handler system.EventHandler) (entities.Addr, []byte, error) {
	var data []byte
	err := s.nested(func() error {
		if err := s.exec.register(contract, meta); err != nil {
			return err
		}
		c := s.child(contract, entities.MessageInfo{Sender: meta.Creator, Funds: funds})
		var err error
		data, err = system.Continue(ctx, c, executor.Instantiate, msg, handler)
		return err
	})
	if err != nil {
		return "", nil, err
	}
	return contract, data, nil
}

// ContinueMigrate implements system.VM. The code id has already been
// switched by the dispatcher.
func (s *Session) ContinueMigrate(ctx context.Context, contract entities.Addr, msg []byte, handler system.EventHandler) ([]byte, error) {
	var data []byte
	err := s.nested(func() error {
		c := s.child(contract, entities.MessageInfo{Sender: s.env.Contract.Address})
		var err error
		data, err = system.Continue(ctx, c, executor.Migrate, msg, handler)
		return err
	})
	return data, err
}

// ContinueReply implements system.VM.
func (s *Session) ContinueReply(ctx context.Context, reply entities.Reply, handler system.EventHandler) ([]byte, error) {
	msg, err := json.Marshal(reply)
	if err != nil {
		return nil, engerrors.NewSystemError(engerrors.SystemFailedToSerialize, "reply: %v", err)
	}
	var data []byte
	err = s.nested(func() error {
		c := s.child(s.env.Contract.Address, entities.MessageInfo{})
		var err error
		data, err = system.Continue(ctx, c, executor.Reply, msg, handler)
		return err
	})
	return data, err
}

// ContinueQuery implements system.VM. The queried contract runs read-only.
func (s *Session) ContinueQuery(ctx context.Context, contract entities.Addr, msg []byte) (entities.ContractResult[[]byte], error) {
	if _, err := s.ContractMeta(contract); err != nil {
		return entities.ContractResult[[]byte]{}, err
	}
	c := s.child(contract, entities.MessageInfo{})
	c.readOnly = true
	return callContract[[]byte](ctx, c, executor.Query, msg)
}

// QueryStorage implements system.VM.
func (s *Session) QueryStorage(contract entities.Addr, key []byte) ([]byte, error) {
	if _, err := s.ContractMeta(contract); err != nil {
		return nil, err
	}
	return s.exec.contractStore(contract).Get(key)
}

// QueryCustom implements system.VM.
func (s *Session) QueryCustom(ctx context.Context, request json.RawMessage) (entities.SystemResult, error) {
	if s.exec.custom == nil {
		return entities.SystemResult{Err: &entities.QuerierError{
			UnsupportedRequest: &entities.UnsupportedRequestError{Kind: "custom"},
		}}, nil
	}
	return s.exec.custom.Query(ctx, request)
}

// MessageCustom implements system.VM.
func (s *Session) MessageCustom(ctx context.Context, msg json.RawMessage, handler system.EventHandler) ([]byte, error) {
	if s.exec.custom == nil {
		return nil, engerrors.NewSystemError(engerrors.SystemUnsupportedMessage, "custom")
	}
	data, events, err := s.exec.custom.Execute(ctx, s.env.Contract.Address, msg)
	if err != nil {
		return nil, err
	}
	for _, e := range events {
		handler(e)
	}
	return data, nil
}

func (s *Session) ibcHandler(kind string) (IBCHandler, error) {
	if s.exec.ibc == nil {
		return nil, engerrors.NewSystemError(engerrors.SystemUnsupportedMessage, "%s", kind)
	}
	return s.exec.ibc, nil
}

// IBCTransfer implements system.VM.
func (s *Session) IBCTransfer(ctx context.Context, msg entities.TransferMsg) error {
	h, err := s.ibcHandler("ibc.transfer")
	if err != nil {
		return err
	}
	return h.Transfer(ctx, s.env.Contract.Address, msg)
}

// IBCSendPacket implements system.VM.
func (s *Session) IBCSendPacket(ctx context.Context, msg entities.SendPacketMsg) error {
	h, err := s.ibcHandler("ibc.send_packet")
	if err != nil {
		return err
	}
	return h.SendPacket(ctx, s.env.Contract.Address, msg)
}

// IBCCloseChannel implements system.VM.
func (s *Session) IBCCloseChannel(ctx context.Context, msg entities.CloseChannelMsg) error {
	h, err := s.ibcHandler("ibc.close_channel")
	if err != nil {
		return err
	}
	return h.CloseChannel(ctx, s.env.Contract.Address, msg)
}
