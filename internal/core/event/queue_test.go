package event

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l1jgo/arena/internal/metrics"
)

func TestQueue_DropsWhenFull(t *testing.T) {
	q := NewQueue(2)
	before := testutil.ToFloat64(metrics.EventsDropped.WithLabelValues("disconnect"))

	require.True(t, q.TryPush(Connect(1)))
	require.True(t, q.TryPush(Input(1, []byte(`{}`))))
	assert.False(t, q.TryPush(Disconnect(1)), "full queue must drop, not block")

	after := testutil.ToFloat64(metrics.EventsDropped.WithLabelValues("disconnect"))
	assert.Equal(t, before+1, after)
	assert.Equal(t, 2, q.Len())
	assert.Equal(t, 2, q.Cap())
}

func TestQueue_MinimumCapacity(t *testing.T) {
	q := NewQueue(0)
	assert.Equal(t, 1, q.Cap())
	assert.True(t, q.TryPush(Connect(1)))
	assert.False(t, q.TryPush(Connect(2)))
}

func TestQueue_DrainPreservesOrder(t *testing.T) {
	q := NewQueue(8)
	q.TryPush(Connect(7))
	q.TryPush(Input(7, []byte("a")))
	q.TryPush(Input(7, []byte("b")))

	var got []Event
	n := q.Drain(func(ev Event) { got = append(got, ev) })

	require.Equal(t, 3, n)
	assert.Equal(t, KindConnect, got[0].Kind)
	assert.Equal(t, "a", string(got[1].Payload))
	assert.Equal(t, "b", string(got[2].Payload))
	assert.Zero(t, q.Drain(func(Event) { t.Fatal("queue should be empty") }))
}

func TestQueue_ConcurrentProducersKeepPerProducerOrder(t *testing.T) {
	const producers, perProducer = 4, 50
	q := NewQueue(producers * perProducer)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(id ConnID) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.TryPush(Input(id, []byte{byte(i)}))
			}
		}(ConnID(p + 1))
	}
	wg.Wait()

	last := map[ConnID]int{}
	q.Drain(func(ev Event) {
		seq := int(ev.Payload[0])
		prev, seen := last[ev.Conn]
		if seen {
			assert.Greater(t, seq, prev)
		}
		last[ev.Conn] = seq
	})
	assert.Len(t, last, producers)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "connect", KindConnect.String())
	assert.Equal(t, "disconnect", KindDisconnect.String())
	assert.Equal(t, "input", KindInput.String())
	assert.Equal(t, "unknown", Kind(0).String())
	assert.Equal(t, "12", ConnID(12).String())
}
