package eventbus

import (
	"sync"
	"testing"

	"github.com/reglet-dev/cwvm/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestBus_Publish(t *testing.T) {
	b := New(zaptest.NewLogger(t))

	var all, mine []entities.Addr
	require.NoError(t, b.Subscribe(func(c entities.Addr, _ []entities.Event) { all = append(all, c) }))
	require.NoError(t, b.SubscribeContract("c1", func(c entities.Addr, events []entities.Event) {
		mine = append(mine, c)
		assert.Equal(t, "execute", events[0].Type)
	}))

	batch := []entities.Event{entities.NewEvent("execute")}
	b.Publish("c1", batch)
	b.Publish("c2", batch)
	b.Publish("c3", nil)

	assert.Equal(t, []entities.Addr{"c1", "c2"}, all)
	assert.Equal(t, []entities.Addr{"c1"}, mine)
}

func TestBus_Async(t *testing.T) {
	b := New(nil)
	var mu sync.Mutex
	count := 0
	require.NoError(t, b.SubscribeAsync(func(entities.Addr, []entities.Event) {
		mu.Lock()
		count++
		mu.Unlock()
	}))

	b.Publish("c1", []entities.Event{entities.NewEvent("execute")})
	b.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, count)
}
