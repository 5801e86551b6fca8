package executor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/reglet-dev/cwvm/domain/entities"
	engerrors "github.com/reglet-dev/cwvm/domain/errors"
	"github.com/reglet-dev/cwvm/internal/testutil"
	"github.com/reglet-dev/cwvm/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResults(t *testing.T) {
	v, err := ParseValue("allocate", []uint64{42})
	require.NoError(t, err)
	assert.Equal(t, uint64(42), v)

	_, err = ParseValue("allocate", nil)
	assert.True(t, errors.Is(err, engerrors.ErrUnexpectedReturnType))
	_, err = ParseValue("allocate", []uint64{1, 2})
	assert.True(t, errors.Is(err, engerrors.ErrUnexpectedReturnType))

	assert.NoError(t, ParseUnit("deallocate", nil))
	assert.True(t, errors.Is(ParseUnit("deallocate", []uint64{0}), engerrors.ErrExpectedUnit))

	ptr, err := ParsePointer("execute", []uint64{0x100})
	require.NoError(t, err)
	assert.Equal(t, memory.Pointer(0x100), ptr)

	_, err = ParsePointer("execute", []uint64{})
	assert.True(t, errors.Is(err, engerrors.ErrExpectedPointer))
	_, err = ParsePointer("execute", []uint64{1 << 40})
	assert.True(t, errors.Is(err, engerrors.ErrExpectedPointer))
}

func TestInputs(t *testing.T) {
	assert.Equal(t, Input{Function: "allocate", Params: []uint64{16}, Results: 1}, AllocateInput(16))
	assert.Equal(t, Input{Function: "deallocate", Params: []uint64{8}, Results: 0}, DeallocateInput(8))
	assert.Equal(t, []uint64{1, 2, 3}, CallInput(Execute, 1, 2, 3).Params)
	assert.Equal(t, []uint64{1, 3}, CallWithoutInfoInput(Query, 1, 3).Params)
}

func TestEntryPoints(t *testing.T) {
	assert.True(t, Instantiate.HasInfo())
	assert.True(t, Execute.HasInfo())
	for _, ep := range []EntryPoint{Migrate, Reply, Query, Sudo, IBCPacketReceive} {
		assert.False(t, ep.HasInfo(), ep.Name())
	}

	assert.Len(t, EntryPoints(false), 6)
	assert.Len(t, EntryPoints(true), 12)

	ep, ok := Lookup("ibc_packet_ack")
	require.True(t, ok)
	assert.True(t, ep.IBC())
	_, ok = Lookup("main")
	assert.False(t, ok)
}

func testEnv() entities.Env {
	return entities.Env{
		Block:    entities.BlockInfo{Height: 12, Time: 1_700_000_000_000_000_000, ChainID: "testing"},
		Contract: entities.ContractInfo{Address: "wasm1contract"},
	}
}

func TestCall_ExecuteRoundTrip(t *testing.T) {
	g := testutil.NewGuest(1 << 16)
	var resultPtr memory.Pointer

	g.Exports["execute"] = func(_ context.Context, g *Guest, params []uint64) ([]uint64, error) {
		require.Len(t, params, 3)

		var env entities.Env
		require.NoError(t, json.Unmarshal(g.ReadRegion(memory.Pointer(params[0])), &env))
		assert.Equal(t, entities.Addr("wasm1contract"), env.Contract.Address)

		var info entities.MessageInfo
		require.NoError(t, json.Unmarshal(g.ReadRegion(memory.Pointer(params[1])), &info))
		assert.Equal(t, entities.Addr("wasm1sender"), info.Sender)

		assert.JSONEq(t, `{"transfer":{}}`, string(g.ReadRegion(memory.Pointer(params[2]))))

		resultPtr = g.MustRegion([]byte(`{"ok":{"messages":[],"attributes":[{"key":"action","value":"transfer"}],"events":[],"data":"aGk="}}`))
		return []uint64{uint64(resultPtr)}, nil
	}

	info := &entities.MessageInfo{Sender: "wasm1sender"}
	result, err := Call[entities.Response](context.Background(), g, Execute, testEnv(), info, []byte(`{"transfer":{}}`), DefaultResultLimit)
	require.NoError(t, err)
	require.False(t, result.IsErr())
	assert.Equal(t, []entities.Attribute{{Key: "action", Value: "transfer"}}, result.Ok.Attributes)
	assert.Equal(t, []byte("hi"), result.Ok.Data)

	assert.Equal(t, []string{"allocate", "allocate", "allocate", "execute", "deallocate"}, g.Calls)
	assert.Equal(t, []memory.Pointer{resultPtr}, g.Freed)
}

// Guest is a local alias to keep export signatures short.
type Guest = testutil.Guest

func TestCall_QueryOmitsInfo(t *testing.T) {
	g := testutil.NewGuest(1 << 16)
	g.Exports["query"] = func(_ context.Context, g *Guest, params []uint64) ([]uint64, error) {
		require.Len(t, params, 2)
		return []uint64{uint64(g.MustRegion([]byte(`{"ok":"eyJhIjoxfQ=="}`)))}, nil
	}

	result, err := Call[[]byte](context.Background(), g, Query, testEnv(), nil, []byte(`{}`), DefaultResultLimit)
	require.NoError(t, err)
	require.False(t, result.IsErr())
	assert.JSONEq(t, `{"a":1}`, string(*result.Ok))
	assert.Equal(t, []string{"allocate", "allocate", "query", "deallocate"}, g.Calls)
}

func TestCall_ContractError(t *testing.T) {
	g := testutil.NewGuest(1 << 16)
	g.Exports["execute"] = func(_ context.Context, g *Guest, _ []uint64) ([]uint64, error) {
		return []uint64{uint64(g.MustRegion([]byte(`{"error":"insufficient allowance"}`)))}, nil
	}

	result, err := Call[entities.Response](context.Background(), g, Execute, testEnv(), &entities.MessageInfo{Sender: "a"}, []byte(`{}`), DefaultResultLimit)
	require.NoError(t, err)
	assert.True(t, result.IsErr())
	assert.Equal(t, "insufficient allowance", result.Err)
}

func TestCall_ResultLimit(t *testing.T) {
	g := testutil.NewGuest(1 << 16)
	g.Exports["execute"] = func(_ context.Context, g *Guest, _ []uint64) ([]uint64, error) {
		return []uint64{uint64(g.MustRegion([]byte(`{"ok":{"messages":[],"attributes":[],"events":[]}}`)))}, nil
	}

	_, err := Call[entities.Response](context.Background(), g, Execute, testEnv(), &entities.MessageInfo{Sender: "a"}, []byte(`{}`), 8)
	assert.True(t, errors.Is(err, engerrors.ErrOverflowLimit), "got %v", err)
}

func TestCall_BadReturnShape(t *testing.T) {
	g := testutil.NewGuest(1 << 16)
	g.Exports["migrate"] = func(context.Context, *Guest, []uint64) ([]uint64, error) {
		return []uint64{1, 2}, nil
	}

	_, err := Call[entities.Response](context.Background(), g, Migrate, testEnv(), nil, []byte(`{}`), DefaultResultLimit)
	assert.True(t, errors.Is(err, engerrors.ErrExpectedPointer), "got %v", err)
}

func TestCall_MalformedResult(t *testing.T) {
	g := testutil.NewGuest(1 << 16)
	g.Exports["sudo"] = func(_ context.Context, g *Guest, _ []uint64) ([]uint64, error) {
		return []uint64{uint64(g.MustRegion([]byte(`not json`)))}, nil
	}

	_, err := Call[entities.Response](context.Background(), g, Sudo, testEnv(), nil, []byte(`{}`), DefaultResultLimit)
	assert.True(t, errors.Is(err, engerrors.ErrFailedToSerialize), "got %v", err)
	assert.Contains(t, err.Error(), "reading sudo result")
}

func TestCall_MissingInfo(t *testing.T) {
	g := testutil.NewGuest(1 << 16)
	_, err := Call[entities.Response](context.Background(), g, Instantiate, testEnv(), nil, []byte(`{}`), DefaultResultLimit)
	assert.Error(t, err)
	assert.Empty(t, g.Calls)
}

func TestAllocate_ZeroPointerRejected(t *testing.T) {
	inst := &zeroAllocator{Guest: testutil.NewGuest(1024)}
	_, err := Allocate(context.Background(), inst, 4)
	assert.True(t, errors.Is(err, engerrors.ErrInvalidPointer), "got %v", err)
}

type zeroAllocator struct {
	*testutil.Guest
}

func (z *zeroAllocator) Invoke(context.Context, string, ...uint64) ([]uint64, error) {
	return []uint64{0}, nil
}
