package host

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/reglet-dev/cwvm/domain/entities"
	"github.com/reglet-dev/cwvm/infrastructure/codestore"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const echoPath = "testdata/echo.wasm"

type harness struct {
	t       *testing.T
	ctx     context.Context
	exec    *Executor
	chain   Chain
	creator entities.Addr
	codeID  uint64
}

// newHarness starts an executor over an in-memory chain with the echo
// contract stored as code 1.
func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	chain, err := NewMemoryChain("cosmwasm", codestore.WithLogger(logger))
	require.NoError(t, err)
	t.Cleanup(func() { _ = chain.Codes.Close() })

	exec, err := NewExecutor(ctx, chain, append([]Option{WithLogger(logger)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = exec.Close(ctx) })

	h := &harness{t: t, ctx: ctx, exec: exec, chain: chain}
	h.creator = h.account(1)

	info, _, err := exec.StoreCode(ctx, h.creator, readEcho(t))
	require.NoError(t, err)
	h.codeID = info.CodeID
	return h
}

func readEcho(t *testing.T) []byte {
	t.Helper()
	code, err := os.ReadFile(echoPath)
	require.NoError(t, err)
	return code
}

// account is a valid address derived from a single repeated byte.
func (h *harness) account(b byte) entities.Addr {
	h.t.Helper()
	addr, err := h.chain.Addresses.Humanize(bytes.Repeat([]byte{b}, 20))
	require.NoError(h.t, err)
	return addr
}

// instantiate creates an echo contract administered by the creator.
func (h *harness) instantiate() entities.Addr {
	h.t.Helper()
	admin := h.creator
	addr, _, err := h.exec.Instantiate(h.ctx, InstantiateParams{
		Sender: h.creator,
		CodeID: h.codeID,
		Admin:  &admin,
		Label:  "echo",
		Msg:    respond(h.t, entities.Response{}),
	})
	require.NoError(h.t, err)
	return addr
}

// raw reads one key of contract's storage; empty if the key is unset.
func (h *harness) raw(contract entities.Addr, key string) []byte {
	h.t.Helper()
	res, err := h.exec.QueryChain(h.ctx, entities.QueryRequest{Wasm: &entities.WasmQuery{
		Raw: &entities.RawQuery{ContractAddr: contract, Key: []byte(key)},
	}})
	require.NoError(h.t, err)
	require.Nil(h.t, res.Err)
	require.NotNil(h.t, res.Ok)
	require.NotNil(h.t, res.Ok.Ok)
	return *res.Ok.Ok
}

// rawJSON decodes a stored JSON value into v.
func (h *harness) rawJSON(contract entities.Addr, key string, v any) {
	h.t.Helper()
	require.NoError(h.t, json.Unmarshal(h.raw(contract, key), v))
}

func (h *harness) balance(addr entities.Addr) string {
	h.t.Helper()
	coin, err := h.chain.Bank.Balance(addr, "ucosm")
	require.NoError(h.t, err)
	return coin.Amount
}

func (h *harness) meta(addr entities.Addr) entities.ContractMeta {
	h.t.Helper()
	meta, err := h.chain.Registry.ContractMeta(addr)
	require.NoError(h.t, err)
	return meta
}

// respond is the message that makes the echo contract return resp.
func respond(t *testing.T, resp entities.Response) []byte {
	t.Helper()
	b, err := json.Marshal(entities.OkResult(resp))
	require.NoError(t, err)
	return b
}

// fail is the message that makes the echo contract return an error.
func fail(t *testing.T, msg string) []byte {
	t.Helper()
	b, err := json.Marshal(entities.ErrResult[entities.Response](msg))
	require.NoError(t, err)
	return b
}

// answer is the query message that makes the echo contract answer data.
func answer(t *testing.T, data []byte) []byte {
	t.Helper()
	b, err := json.Marshal(entities.OkResult(data))
	require.NoError(t, err)
	return b
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func execute(contract entities.Addr, msg []byte, replyOn entities.ReplyOn, id uint64) entities.SubMsg {
	return entities.SubMsg{
		ID:      id,
		ReplyOn: replyOn,
		Msg: entities.CosmosMsg{Wasm: &entities.WasmMsg{
			Execute: &entities.ExecuteMsg{ContractAddr: contract, Msg: msg},
		}},
	}
}

func eventTypes(events []entities.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func attr(k, v string) entities.Attribute { return entities.Attribute{Key: k, Value: v} }
