package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_NestedTransactions(t *testing.T) {
	s := NewMemory()
	require.NoError(t, s.Set([]byte("a"), []byte("0")))

	require.NoError(t, s.Begin())
	require.NoError(t, s.Set([]byte("a"), []byte("1")))
	require.NoError(t, s.Begin())
	require.NoError(t, s.Set([]byte("b"), []byte("2")))
	require.NoError(t, s.Delete([]byte("a")))
	assert.Equal(t, 2, s.Depth())

	v, err := s.Get([]byte("a"))
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, s.Rollback())
	v, err = s.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)
	has, err := s.Has([]byte("b"))
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, s.Commit())
	assert.Equal(t, 0, s.Depth())
	v, err = s.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)
}

func TestStore_CommitFoldsIntoParentOnly(t *testing.T) {
	s := NewMemory()
	require.NoError(t, s.Begin())
	require.NoError(t, s.Begin())
	require.NoError(t, s.Set([]byte("k"), []byte("v")))
	require.NoError(t, s.Commit())

	v, err := s.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	require.NoError(t, s.Rollback())
	v, err = s.Get([]byte("k"))
	require.NoError(t, err)
	assert.Nil(t, v, "rolling back the parent discards the committed child")
}

func TestStore_NoTransaction(t *testing.T) {
	s := NewMemory()
	assert.ErrorIs(t, s.Commit(), ErrNoTransaction)
	assert.ErrorIs(t, s.Rollback(), ErrNoTransaction)
}

func TestStore_Prefix(t *testing.T) {
	s := NewMemory()
	alice := s.Prefix([]byte("alice"))
	bob := s.Prefix([]byte("bob"))

	require.NoError(t, alice.Set([]byte("k"), []byte("a")))
	require.NoError(t, s.Begin())
	require.NoError(t, bob.Set([]byte("k"), []byte("b")))

	v, err := alice.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), v)
	v, err = bob.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), v)

	require.NoError(t, s.Rollback())
	v, err = bob.Get([]byte("k"))
	require.NoError(t, err)
	assert.Nil(t, v, "views write into the innermost transaction")

	v, err = s.Get([]byte("k"))
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestStore_EmptyValue(t *testing.T) {
	s := NewMemory()
	require.NoError(t, s.Set([]byte("k"), []byte{}))
	v, err := s.Get([]byte("k"))
	require.NoError(t, err)
	assert.NotNil(t, v)
	assert.Empty(t, v)
}
