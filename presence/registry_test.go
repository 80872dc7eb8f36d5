package presence

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryLastConnectWins(t *testing.T) {
	r := NewRegistry()

	r.Register(1, "conn-a")
	r.Register(1, "conn-b")

	connID, ok := r.Lookup(1)
	assert.True(t, ok)
	assert.Equal(t, "conn-b", connID)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryStaleDisconnectDoesNotEvict(t *testing.T) {
	r := NewRegistry()

	r.Register(1, "conn-a")
	r.Register(1, "conn-b")

	// the superseded connection disconnects late
	r.Unregister(1, "conn-a")

	connID, ok := r.Lookup(1)
	assert.True(t, ok)
	assert.Equal(t, "conn-b", connID)

	r.Unregister(1, "conn-b")
	_, ok = r.Lookup(1)
	assert.False(t, ok)
}

func TestRegistryUnregisterUnknownUser(t *testing.T) {
	r := NewRegistry()
	r.Unregister(42, "conn-x") // no-op
	_, ok := r.Lookup(42)
	assert.False(t, ok)
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			r.Register(int64(n%5), "conn")
			r.Lookup(int64(n % 5))
			r.Unregister(int64(n%5), "conn")
		}(i)
	}
	wg.Wait()
}
