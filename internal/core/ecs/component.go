package ecs

// Removable is implemented by every component store so the Registry can drop
// an entity's data from all stores at once.
type Removable interface {
	Remove(id EntityID)
}

// Store is a typed map from entity to component pointer. Components are held
// by pointer so engine-owned objects (bodies, shapes) keep their identity.
type Store[T any] struct {
	data map[EntityID]*T
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{data: make(map[EntityID]*T, 64)}
}

func (s *Store[T]) Set(id EntityID, c *T) { s.data[id] = c }

func (s *Store[T]) Get(id EntityID) (*T, bool) {
	c, ok := s.data[id]
	return c, ok
}

func (s *Store[T]) Remove(id EntityID) { delete(s.data, id) }
