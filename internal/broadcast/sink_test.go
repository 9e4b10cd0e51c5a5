package broadcast

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/l1jgo/arena/internal/core/event"
	"github.com/l1jgo/arena/internal/protocol"
)

// chanTarget mimics a connection's bounded outbound queue.
type chanTarget struct {
	id event.ConnID
	ch chan []byte
}

func newChanTarget(id event.ConnID, size int) *chanTarget {
	return &chanTarget{id: id, ch: make(chan []byte, size)}
}

func (c *chanTarget) ConnID() event.ConnID { return c.id }

func (c *chanTarget) TrySend(frame []byte) bool {
	select {
	case c.ch <- frame:
		return true
	default:
		return false
	}
}

func TestPublish_DeliversToAll(t *testing.T) {
	sink := NewSink(zap.NewNop())
	a, b := newChanTarget(1, 4), newChanTarget(2, 4)

	snap := protocol.Snapshot{Tick: 3, Entities: []protocol.EntityState{{X: 1, Y: 2, Cos: 1}}}
	res, err := sink.Publish(snap, []Target{a, b})
	require.NoError(t, err)
	assert.Equal(t, Result{Delivered: 2}, res)

	for _, target := range []*chanTarget{a, b} {
		var got protocol.Snapshot
		require.NoError(t, json.Unmarshal(<-target.ch, &got))
		assert.Equal(t, snap, got)
	}
}

func TestPublish_StalledTargetDoesNotBlockOthers(t *testing.T) {
	sink := NewSink(zap.NewNop())
	stalled := newChanTarget(1, 1) // never drained
	healthy := newChanTarget(2, 1)

	for tick := uint64(1); tick <= 10; tick++ {
		res, err := sink.Publish(protocol.Snapshot{Tick: tick}, []Target{stalled, healthy})
		require.NoError(t, err)
		if tick == 1 {
			// The stalled queue still has its one free slot.
			assert.Equal(t, Result{Delivered: 2}, res)
		} else {
			assert.Equal(t, Result{Delivered: 1, Dropped: 1}, res)
		}

		var got protocol.Snapshot
		require.NoError(t, json.Unmarshal(<-healthy.ch, &got))
		assert.Equal(t, tick, got.Tick, "healthy target gets every tick")
	}

	var first protocol.Snapshot
	require.NoError(t, json.Unmarshal(<-stalled.ch, &first))
	assert.Equal(t, uint64(1), first.Tick)
}

func TestPublish_NoTargets(t *testing.T) {
	res, err := NewSink(zap.NewNop()).Publish(protocol.Snapshot{Tick: 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
}
