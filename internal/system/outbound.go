package system

import (
	"github.com/l1jgo/arena/internal/broadcast"
	"github.com/l1jgo/arena/internal/core/event"
)

// Outbound is the tick loop's read-only view of the transport's outbound
// registry. Implementations copy out under their own lock.
type Outbound interface {
	Live() map[event.ConnID]struct{}
	Targets() []broadcast.Target
	Len() int
}
