package system

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/reglet-dev/cwvm/domain/entities"
	engerrors "github.com/reglet-dev/cwvm/domain/errors"
	"github.com/reglet-dev/cwvm/domain/ports"
	"github.com/reglet-dev/cwvm/executor"
	"go.uber.org/zap"
)

type entry struct {
	value   []byte
	deleted bool
}

// layeredStore is a minimal strictly nested transactional map.
type layeredStore struct {
	layers []map[string]entry
}

func newLayeredStore() *layeredStore {
	return &layeredStore{layers: []map[string]entry{{}}}
}

func (s *layeredStore) Get(key []byte) ([]byte, error) {
	for i := len(s.layers) - 1; i >= 0; i-- {
		if e, ok := s.layers[i][string(key)]; ok {
			if e.deleted {
				return nil, nil
			}
			return e.value, nil
		}
	}
	return nil, nil
}

func (s *layeredStore) Set(key, value []byte) error {
	s.layers[len(s.layers)-1][string(key)] = entry{value: append([]byte(nil), value...)}
	return nil
}

func (s *layeredStore) Delete(key []byte) error {
	s.layers[len(s.layers)-1][string(key)] = entry{deleted: true}
	return nil
}

func (s *layeredStore) Has(key []byte) (bool, error) {
	v, err := s.Get(key)
	return v != nil, err
}

func (s *layeredStore) Begin() error {
	s.layers = append(s.layers, map[string]entry{})
	return nil
}

func (s *layeredStore) Commit() error {
	if len(s.layers) < 2 {
		return errors.New("commit without transaction")
	}
	top := s.layers[len(s.layers)-1]
	s.layers = s.layers[:len(s.layers)-1]
	for k, e := range top {
		s.layers[len(s.layers)-1][k] = e
	}
	return nil
}

func (s *layeredStore) Rollback() error {
	if len(s.layers) < 2 {
		return errors.New("rollback without transaction")
	}
	s.layers = s.layers[:len(s.layers)-1]
	return nil
}

func (s *layeredStore) Depth() int { return len(s.layers) - 1 }

// stackGas keeps one remaining budget per open checkpoint.
type stackGas struct {
	remaining []uint64
	consumed  uint64
	pushed    []ports.GasCheckpoint
	pops      int
}

func newStackGas(limit uint64) *stackGas {
	return &stackGas{remaining: []uint64{limit}}
}

func (g *stackGas) Push(cp ports.GasCheckpoint) error {
	rem := g.Remaining()
	if n, ok := cp.Limit(); ok && n < rem {
		rem = n
	}
	g.remaining = append(g.remaining, rem)
	g.pushed = append(g.pushed, cp)
	return nil
}

func (g *stackGas) Pop() error {
	if len(g.remaining) < 2 {
		return errors.New("pop without checkpoint")
	}
	g.remaining = g.remaining[:len(g.remaining)-1]
	g.pops++
	return nil
}

func (g *stackGas) Consume(n uint64) error {
	if n > g.Remaining() {
		return &engerrors.OutOfGasError{Requested: n, Remaining: g.Remaining()}
	}
	for i := range g.remaining {
		g.remaining[i] -= n
	}
	g.consumed += n
	return nil
}

func (g *stackGas) Consumed() uint64 { return g.consumed }
func (g *stackGas) Remaining() uint64 { return g.remaining[len(g.remaining)-1] }

// storeBank keeps uint64 balances in the layered store so they roll back
// with everything else.
type storeBank struct {
	store *layeredStore
}

func balanceKey(addr entities.Addr, denom string) []byte {
	return []byte("bank/" + string(addr) + "/" + denom)
}

func (b storeBank) get(addr entities.Addr, denom string) uint64 {
	v, _ := b.store.Get(balanceKey(addr, denom))
	n, _ := strconv.ParseUint(string(v), 10, 64)
	return n
}

func (b storeBank) set(addr entities.Addr, denom string, n uint64) {
	_ = b.store.Set(balanceKey(addr, denom), []byte(strconv.FormatUint(n, 10)))
}

func (b storeBank) Transfer(from, to entities.Addr, coins entities.Coins) error {
	if err := b.Burn(from, coins); err != nil {
		return err
	}
	return b.Mint(to, coins)
}

func (b storeBank) Burn(from entities.Addr, coins entities.Coins) error {
	for _, c := range coins {
		amount, _ := strconv.ParseUint(c.Amount, 10, 64)
		have := b.get(from, c.Denom)
		if have < amount {
			return &engerrors.InsufficientFundsError{Address: string(from), Denom: c.Denom, Balance: strconv.FormatUint(have, 10), Needed: c.Amount}
		}
		b.set(from, c.Denom, have-amount)
	}
	return nil
}

func (b storeBank) Mint(to entities.Addr, coins entities.Coins) error {
	for _, c := range coins {
		amount, _ := strconv.ParseUint(c.Amount, 10, 64)
		b.set(to, c.Denom, b.get(to, c.Denom)+amount)
	}
	return nil
}

func (b storeBank) Balance(addr entities.Addr, denom string) (entities.Coin, error) {
	return entities.NewCoin(b.get(addr, denom), denom), nil
}

func (b storeBank) AllBalances(addr entities.Addr) (entities.Coins, error) {
	return entities.Coins{entities.NewCoin(b.get(addr, "ucosm"), "ucosm")}, nil
}

func (b storeBank) Supply(denom string) (entities.Coin, error) {
	return entities.NewCoin(1000, denom), nil
}

// contractFunc scripts one code id.
type contractFunc func(vm *fakeVM, ep executor.EntryPoint, msg []byte) (entities.ContractResult[entities.Response], error)

type recordingMetrics struct {
	ports.NopMetrics
	subMessages []string
}

func (m *recordingMetrics) ObserveSubMessage(kind string, replyOn entities.ReplyOn, continuation string) {
	m.subMessages = append(m.subMessages, kind+"/"+string(replyOn)+"/"+continuation)
}

// world is the state shared by every fakeVM of one test.
type world struct {
	store     *layeredStore
	gas       *stackGas
	metas     map[entities.Addr]entities.ContractMeta
	codes     map[uint64]entities.CodeInfo
	code      map[uint64]contractFunc
	replies   []entities.Reply
	calls     []string
	metrics   *recordingMetrics
	instances int
}

func newWorld() *world {
	return &world{
		store:   newLayeredStore(),
		gas:     newStackGas(1_000_000),
		metas:   map[entities.Addr]entities.ContractMeta{},
		codes:   map[uint64]entities.CodeInfo{},
		code:    map[uint64]contractFunc{},
		metrics: &recordingMetrics{},
	}
}

func (w *world) bank() storeBank { return storeBank{store: w.store} }

// deploy registers code under codeID and a contract running it.
func (w *world) deploy(addr entities.Addr, codeID uint64, admin *entities.Addr, fn contractFunc) {
	w.codes[codeID] = entities.CodeInfo{CodeID: codeID, Creator: "creator"}
	w.code[codeID] = fn
	w.metas[addr] = entities.ContractMeta{CodeID: codeID, Admin: admin, Label: string(addr), Creator: "creator"}
}

func (w *world) vm(contract, sender entities.Addr, funds entities.Coins) *fakeVM {
	return &fakeVM{
		w:    w,
		env:  entities.Env{Contract: entities.ContractInfo{Address: contract}, Block: entities.BlockInfo{Height: 1, ChainID: "test"}},
		info: entities.MessageInfo{Sender: sender, Funds: funds},
	}
}

type fakeVM struct {
	w    *world
	env  entities.Env
	info entities.MessageInfo
}

var _ VM = (*fakeVM)(nil)

func (v *fakeVM) Begin() error { return v.w.store.Begin() }
func (v *fakeVM) Commit() error { return v.w.store.Commit() }
func (v *fakeVM) Rollback() error { return v.w.store.Rollback() }
func (v *fakeVM) Depth() int { return v.w.store.Depth() }
func (v *fakeVM) Env() entities.Env { return v.env }
func (v *fakeVM) Info() entities.MessageInfo { return v.info }
func (v *fakeVM) Gas() ports.GasMeter { return v.w.gas }
func (v *fakeVM) Bank() ports.Bank { return v.w.bank() }
func (v *fakeVM) Logger() *zap.Logger { return zap.NewNop() }
func (v *fakeVM) Metrics() ports.Metrics { return v.w.metrics }

func (v *fakeVM) RunningContractMeta() (entities.ContractMeta, error) {
	return v.ContractMeta(v.env.Contract.Address)
}

func (v *fakeVM) ContractMeta(addr entities.Addr) (entities.ContractMeta, error) {
	meta, ok := v.w.metas[addr]
	if !ok {
		return entities.ContractMeta{}, &engerrors.ContractNotFoundError{Address: string(addr)}
	}
	return meta, nil
}

func (v *fakeVM) SetContractMeta(addr entities.Addr, meta entities.ContractMeta) error {
	v.w.metas[addr] = meta
	return nil
}

func (v *fakeVM) CodeInfo(codeID uint64) (entities.CodeInfo, error) {
	info, ok := v.w.codes[codeID]
	if !ok {
		return entities.CodeInfo{}, &engerrors.CodeNotFoundError{CodeID: codeID}
	}
	return info, nil
}

func (v *fakeVM) Call(_ context.Context, ep executor.EntryPoint, msg []byte) (entities.ContractResult[entities.Response], error) {
	meta, err := v.RunningContractMeta()
	if err != nil {
		return entities.ContractResult[entities.Response]{}, err
	}
	v.w.calls = append(v.w.calls, fmt.Sprintf("%s.%s", v.env.Contract.Address, ep.Name()))
	return v.w.code[meta.CodeID](v, ep, msg)
}

func (v *fakeVM) child(contract entities.Addr, funds entities.Coins) *fakeVM {
	return v.w.vm(contract, v.env.Contract.Address, funds)
}

func (v *fakeVM) ContinueExecute(ctx context.Context, contract entities.Addr, funds entities.Coins, msg []byte, handler EventHandler) ([]byte, error) {
	if _, err := v.ContractMeta(contract); err != nil {
		return nil, err
	}
	return Continue(ctx, v.child(contract, funds), executor.Execute, msg, handler)
}

func (v *fakeVM) ContinueInstantiate(ctx context.Context, meta entities.ContractMeta, funds entities.Coins, msg []byte, handler EventHandler) (entities.Addr, []byte, error) {
	v.w.instances++
	addr := entities.Addr(fmt.Sprintf("contract%d", v.w.instances))
	v.w.metas[addr] = meta
	data, err := Continue(ctx, v.child(addr, funds), executor.Instantiate, msg, handler)
	return addr, data, err
}

func (v *fakeVM) ContinueInstantiate2(ctx context.Context, meta entities.ContractMeta, funds entities.Coins, salt, msg []byte, handler EventHandler) (entities.Addr, []byte, error) {
	addr := entities.Addr("salted-" + string(salt))
	v.w.metas[addr] = meta
	data, err := Continue(ctx, v.child(addr, funds), executor.Instantiate, msg, handler)
	return addr, data, err
}

func (v *fakeVM) ContinueMigrate(ctx context.Context, contract entities.Addr, msg []byte, handler EventHandler) ([]byte, error) {
	return Continue(ctx, v.child(contract, nil), executor.Migrate, msg, handler)
}

func (v *fakeVM) ContinueReply(ctx context.Context, reply entities.Reply, handler EventHandler) ([]byte, error) {
	v.w.replies = append(v.w.replies, reply)
	msg, err := json.Marshal(reply)
	if err != nil {
		return nil, err
	}
	return Continue(ctx, v.w.vm(v.env.Contract.Address, "", nil), executor.Reply, msg, handler)
}

func (v *fakeVM) ContinueQuery(_ context.Context, contract entities.Addr, msg []byte) (entities.ContractResult[[]byte], error) {
	if _, err := v.ContractMeta(contract); err != nil {
		return entities.ContractResult[[]byte]{}, err
	}
	return entities.OkResult(append([]byte("echo:"), msg...)), nil
}

func (v *fakeVM) QueryStorage(contract entities.Addr, key []byte) ([]byte, error) {
	return v.w.store.Get(append([]byte(string(contract)+"/"), key...))
}

func (v *fakeVM) QueryCustom(context.Context, json.RawMessage) (entities.SystemResult, error) {
	return unsupportedQuery("custom"), nil
}

func (v *fakeVM) MessageCustom(context.Context, json.RawMessage, EventHandler) ([]byte, error) {
	return nil, unsupported("custom")
}

func (v *fakeVM) IBCTransfer(context.Context, entities.TransferMsg) error { return unsupported("ibc.transfer") }
func (v *fakeVM) IBCSendPacket(context.Context, entities.SendPacketMsg) error { return unsupported("ibc.send_packet") }
func (v *fakeVM) IBCCloseChannel(context.Context, entities.CloseChannelMsg) error { return unsupported("ibc.close_channel") }

// set writes a contract-namespaced key.
func (v *fakeVM) set(key, value string) {
	_ = v.w.store.Set([]byte(string(v.env.Contract.Address)+"/"+key), []byte(value))
}

func (w *world) get(contract entities.Addr, key string) string {
	v, _ := w.store.Get([]byte(string(contract) + "/" + key))
	return string(v)
}

func okResp(resp entities.Response) (entities.ContractResult[entities.Response], error) {
	return entities.OkResult(resp), nil
}

func addrPtr(s string) *entities.Addr {
	a := entities.Addr(s)
	return &a
}
