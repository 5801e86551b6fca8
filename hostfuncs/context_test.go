package hostfuncs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHostContext(t *testing.T) {
	hc := NewHostContext(context.Background(), "db_read")

	require.NotNil(t, hc)
	assert.Equal(t, "db_read", hc.FunctionName())
}

func TestHostContextFrom(t *testing.T) {
	hc := NewHostContext(context.Background(), "query_chain")

	assert.Same(t, hc, HostContextFrom(hc, "query_chain"))

	nested := HostContextFrom(hc, "db_read")
	assert.Equal(t, "db_read", nested.FunctionName())
}

func TestHostContext_PropagatesValues(t *testing.T) {
	env := newFakeEnv()
	hc := NewHostContext(WithEnvironment(context.Background(), env), "debug")

	got, err := EnvironmentFrom(hc)
	require.NoError(t, err)
	assert.Same(t, env, got)
}

func TestEnvironmentFrom_Missing(t *testing.T) {
	_, err := EnvironmentFrom(context.Background())
	assert.ErrorIs(t, err, ErrNoEnvironment)
}

func TestHostContext_Cancellation(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	hc := NewHostContext(parent, "query_chain")

	cancel()
	<-hc.Done()
	assert.ErrorIs(t, hc.Err(), context.Canceled)
}
