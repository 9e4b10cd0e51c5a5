package ecs

// World owns the entity pool and the component registry. Destruction is
// immediate: once Destroy returns, the ID is dead and every store is clean.
type World struct {
	pool     *EntityPool
	registry *Registry
}

func NewWorld() *World {
	return &World{
		pool:     NewEntityPool(),
		registry: NewRegistry(),
	}
}

func (w *World) Registry() *Registry { return w.registry }

func (w *World) CreateEntity() EntityID { return w.pool.Create() }

func (w *World) Alive(id EntityID) bool { return w.pool.Alive(id) }

// Destroy removes id's components and frees its slot. Stale IDs are ignored.
func (w *World) Destroy(id EntityID) bool {
	if !w.pool.Alive(id) {
		return false
	}
	w.registry.RemoveAll(id)
	return w.pool.Destroy(id)
}

// Len returns the number of live entities.
func (w *World) Len() int { return w.pool.Live() }
