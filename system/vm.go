package system

import (
	"context"
	"encoding/json"

	"github.com/reglet-dev/cwvm/domain/entities"
	"github.com/reglet-dev/cwvm/domain/ports"
	"github.com/reglet-dev/cwvm/executor"
	"go.uber.org/zap"
)

// EventHandler receives events in emission order.
type EventHandler func(entities.Event)

// VM is the execution context of one contract call: the running contract,
// the state it acts on, and the primitives the dispatcher needs to reach
// other contracts. The dispatcher receives it explicitly and keeps no state
// of its own, so independent VMs never interfere.
//
// Continue* methods run a nested call on another (or the same) contract
// without opening a transaction; the dispatcher has already opened one.
type VM interface {
	ports.Transactional

	Env() entities.Env
	// Info is the zero value for entry points that take none.
	Info() entities.MessageInfo
	Gas() ports.GasMeter
	Bank() ports.Bank
	Logger() *zap.Logger
	Metrics() ports.Metrics

	RunningContractMeta() (entities.ContractMeta, error)
	ContractMeta(addr entities.Addr) (entities.ContractMeta, error)
	SetContractMeta(addr entities.Addr, meta entities.ContractMeta) error
	CodeInfo(codeID uint64) (entities.CodeInfo, error)

	// Call invokes ep on the running contract's code.
	Call(ctx context.Context, ep executor.EntryPoint, msg []byte) (entities.ContractResult[entities.Response], error)

	ContinueExecute(ctx context.Context, contract entities.Addr, funds entities.Coins, msg []byte, handler EventHandler) ([]byte, error)
	ContinueInstantiate(ctx context.Context, meta entities.ContractMeta, funds entities.Coins, msg []byte, handler EventHandler) (entities.Addr, []byte, error)
	ContinueInstantiate2(ctx context.Context, meta entities.ContractMeta, funds entities.Coins, salt, msg []byte, handler EventHandler) (entities.Addr, []byte, error)
	ContinueMigrate(ctx context.Context, contract entities.Addr, msg []byte, handler EventHandler) ([]byte, error)
	// ContinueReply calls reply on the running contract.
	ContinueReply(ctx context.Context, reply entities.Reply, handler EventHandler) ([]byte, error)
	ContinueQuery(ctx context.Context, contract entities.Addr, msg []byte) (entities.ContractResult[[]byte], error)

	// QueryStorage reads one key of another contract's storage; nil if absent.
	QueryStorage(contract entities.Addr, key []byte) ([]byte, error)
	QueryCustom(ctx context.Context, request json.RawMessage) (entities.SystemResult, error)
	MessageCustom(ctx context.Context, msg json.RawMessage, handler EventHandler) ([]byte, error)

	IBCTransfer(ctx context.Context, msg entities.TransferMsg) error
	IBCSendPacket(ctx context.Context, msg entities.SendPacketMsg) error
	IBCCloseChannel(ctx context.Context, msg entities.CloseChannelMsg) error
}
