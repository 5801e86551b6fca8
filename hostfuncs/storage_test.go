package hostfuncs

import (
	"context"
	"testing"

	engerrors "github.com/reglet-dev/cwvm/domain/errors"
	"github.com/reglet-dev/cwvm/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDBReadWriteRemove(t *testing.T) {
	env := newFakeEnv()
	ctx := WithEnvironment(context.Background(), env)
	g := testutil.NewGuest(64 * 1024)

	key := g.PutRegion(t, []byte("counter"))
	value := g.PutRegion(t, []byte("42"))

	_, err := DBWrite(ctx, g, []uint64{uint64(key), uint64(value)})
	require.NoError(t, err)
	assert.Equal(t, []byte("42"), env.store["counter"])

	res, err := DBRead(ctx, g, []uint64{uint64(key)})
	require.NoError(t, err)
	require.Len(t, res, 1)
	require.NotZero(t, res[0])
	assert.Equal(t, []byte("42"), g.ReadRegion(uint32(res[0])))

	_, err = DBRemove(ctx, g, []uint64{uint64(key)})
	require.NoError(t, err)

	res, err = DBRead(ctx, g, []uint64{uint64(key)})
	require.NoError(t, err)
	assert.Equal(t, []uint64{0}, res)
}

func TestDBWrite_ReadOnly(t *testing.T) {
	env := newFakeEnv()
	env.readOnly = true
	ctx := WithEnvironment(context.Background(), env)
	g := testutil.NewGuest(64 * 1024)

	key := g.PutRegion(t, []byte("k"))
	value := g.PutRegion(t, []byte("v"))

	_, err := DBWrite(ctx, g, []uint64{uint64(key), uint64(value)})
	assert.ErrorIs(t, err, ErrReadOnly)
	_, err = DBRemove(ctx, g, []uint64{uint64(key)})
	assert.ErrorIs(t, err, ErrReadOnly)
	assert.Empty(t, env.store)
}

func TestDBRead_ChargesGas(t *testing.T) {
	env := newFakeEnv()
	env.store["key"] = []byte("value")
	ctx := WithEnvironment(context.Background(), env)
	g := testutil.NewGuest(64 * 1024)

	key := g.PutRegion(t, []byte("key"))
	_, err := DBRead(ctx, g, []uint64{uint64(key)})
	require.NoError(t, err)
	assert.Equal(t, uint64(len("key")+len("value")), env.gas.Consumed())

	env.gas.remaining = 1
	_, err = DBRead(ctx, g, []uint64{uint64(key)})
	assert.ErrorIs(t, err, engerrors.ErrOutOfGas)
}

func TestDBRead_InvalidRegion(t *testing.T) {
	ctx := WithEnvironment(context.Background(), newFakeEnv())
	g := testutil.NewGuest(64 * 1024)

	_, err := DBRead(ctx, g, []uint64{0})
	assert.ErrorIs(t, err, engerrors.ErrZeroOffset)
}

func TestDBRead_NoEnvironment(t *testing.T) {
	g := testutil.NewGuest(1024 * 4)
	_, err := DBRead(context.Background(), g, []uint64{8})
	assert.ErrorIs(t, err, ErrNoEnvironment)
}
