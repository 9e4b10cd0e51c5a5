package net

import (
	"sort"
	"sync"

	"github.com/l1jgo/arena/internal/broadcast"
	"github.com/l1jgo/arena/internal/core/event"
	"github.com/l1jgo/arena/internal/metrics"
)

// Registry is the outbound registry: every connection that can currently
// receive frames. It is the only state shared between connection goroutines
// and the tick loop. Readers copy out under the lock and work on the copy.
type Registry struct {
	mu       sync.RWMutex
	sessions map[event.ConnID]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[event.ConnID]*Session, 64)}
}

// Add registers s. It refuses once limit sessions are held (limit <= 0 means no
// limit).
func (r *Registry) Add(s *Session, limit int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit > 0 && len(r.sessions) >= limit {
		return false
	}
	r.sessions[s.ID] = s
	metrics.Connections.Set(float64(len(r.sessions)))
	return true
}

// Remove deregisters id and reports whether it was present.
func (r *Registry) Remove(id event.ConnID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	metrics.Connections.Set(float64(len(r.sessions)))
	return true
}

func (r *Registry) Get(id event.ConnID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Live returns the set of registered connection IDs.
func (r *Registry) Live() map[event.ConnID]struct{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make(map[event.ConnID]struct{}, len(r.sessions))
	for id := range r.sessions {
		ids[id] = struct{}{}
	}
	return ids
}

// Sessions returns the registered sessions in ascending ID order.
func (r *Registry) Sessions() []*Session {
	r.mu.RLock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Targets returns the registered sessions as broadcast targets, in ascending
// ID order.
func (r *Registry) Targets() []broadcast.Target {
	sessions := r.Sessions()
	out := make([]broadcast.Target, len(sessions))
	for i, s := range sessions {
		out[i] = s
	}
	return out
}

// CloseAll closes every registered session.
func (r *Registry) CloseAll() int {
	sessions := r.Sessions()
	for _, s := range sessions {
		s.Close()
	}
	return len(sessions)
}
