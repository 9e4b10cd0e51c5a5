package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityPool_RecycledSlotGetsNewGeneration(t *testing.T) {
	p := NewEntityPool()
	a := p.Create()
	require.True(t, p.Alive(a))
	assert.False(t, a.IsZero())

	require.True(t, p.Destroy(a))
	assert.False(t, p.Alive(a))

	b := p.Create()
	assert.Equal(t, a.Index(), b.Index())
	assert.NotEqual(t, a.Generation(), b.Generation())
	assert.False(t, p.Alive(a), "stale id must not alias the recycled slot")
	assert.True(t, p.Alive(b))
}

func TestEntityPool_DestroyIsIdempotent(t *testing.T) {
	p := NewEntityPool()
	a := p.Create()
	b := p.Create()

	assert.True(t, p.Destroy(a))
	assert.False(t, p.Destroy(a))
	assert.Equal(t, 1, p.Live())
	assert.True(t, p.Alive(b), "removing one entity never invalidates another")
}

func TestEntityPool_UnknownID(t *testing.T) {
	p := NewEntityPool()
	assert.False(t, p.Alive(NewEntityID(42, 1)))
	assert.False(t, p.Destroy(NewEntityID(42, 1)))
	assert.False(t, p.Alive(0))
}

func TestWorld_DestroyClearsStores(t *testing.T) {
	w := NewWorld()
	names := NewStore[string]()
	w.Registry().Register(names)

	id := w.CreateEntity()
	name := "box"
	names.Set(id, &name)
	_, ok := names.Get(id)
	require.True(t, ok)
	require.Equal(t, 1, w.Len())

	assert.True(t, w.Destroy(id))
	_, ok = names.Get(id)
	assert.False(t, ok)
	assert.Equal(t, 0, w.Len())
	assert.False(t, w.Destroy(id))
}

func TestStore_SetGetRemove(t *testing.T) {
	s := NewStore[int]()
	for i := 1; i <= 3; i++ {
		v := i
		s.Set(NewEntityID(uint32(i), 1), &v)
	}

	got, ok := s.Get(NewEntityID(2, 1))
	require.True(t, ok)
	assert.Equal(t, 2, *got)

	s.Remove(NewEntityID(2, 1))
	_, ok = s.Get(NewEntityID(2, 1))
	assert.False(t, ok)
	_, ok = s.Get(NewEntityID(3, 1))
	assert.True(t, ok)
}
