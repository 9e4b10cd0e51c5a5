package net

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/l1jgo/arena/internal/core/event"
)

func TestRegistry_AddRemoveLive(t *testing.T) {
	r := NewRegistry()
	assert.True(t, r.Add(&Session{ID: 2}, 0))
	assert.True(t, r.Add(&Session{ID: 1}, 0))

	assert.Equal(t, map[event.ConnID]struct{}{1: {}, 2: {}}, r.Live())
	sessions := r.Sessions()
	assert.Equal(t, event.ConnID(1), sessions[0].ID)
	assert.Equal(t, event.ConnID(2), sessions[1].ID)

	assert.True(t, r.Remove(1))
	assert.False(t, r.Remove(1))
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_Capacity(t *testing.T) {
	r := NewRegistry()
	assert.True(t, r.Add(&Session{ID: 1}, 1))
	assert.False(t, r.Add(&Session{ID: 2}, 1))
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_LiveIsACopy(t *testing.T) {
	r := NewRegistry()
	r.Add(&Session{ID: 1}, 0)
	live := r.Live()
	r.Remove(1)
	assert.Contains(t, live, event.ConnID(1))
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 1; i <= 8; i++ {
		wg.Add(2)
		go func(id event.ConnID) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Add(&Session{ID: id}, 0)
				r.Remove(id)
			}
		}(event.ConnID(i))
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = r.Live()
				_ = r.Sessions()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, r.Len())
}
