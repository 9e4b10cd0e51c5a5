package spawn

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/l1jgo/arena/internal/core/event"
	"github.com/l1jgo/arena/internal/physics"
)

func TestRandom_StaysInBoundsAndIsSeeded(t *testing.T) {
	a, b := NewRandom(13), NewRandom(13)
	for i := 0; i < 100; i++ {
		sa, err := a.Spawn(event.ConnID(i))
		require.NoError(t, err)
		sb, _ := b.Spawn(event.ConnID(i))

		assert.Equal(t, sa, sb)
		assert.GreaterOrEqual(t, sa.Position.X, -1.0)
		assert.Less(t, sa.Position.X, 1.0)
		assert.GreaterOrEqual(t, sa.Position.Y, 0.5)
		assert.Less(t, sa.Position.Y, 1.0)
	}
}

func TestFixed(t *testing.T) {
	st, err := Fixed{Position: physics.Vec2{X: 2, Y: 3}}.Spawn(1)
	require.NoError(t, err)
	assert.Equal(t, physics.Vec2{X: 2, Y: 3}, st.Position)
}

type failingPolicy struct{}

func (failingPolicy) Spawn(event.ConnID) (physics.BodyState, error) {
	return physics.BodyState{}, errors.New("script blew up")
}

func TestWithFallback(t *testing.T) {
	p := WithFallback(failingPolicy{}, Fixed{Position: physics.Vec2{Y: 1}}, zap.NewNop())
	st, err := p.Spawn(4)
	require.NoError(t, err)
	assert.Equal(t, physics.Vec2{Y: 1}, st.Position)

	ok := WithFallback(Fixed{Position: physics.Vec2{X: 5}}, failingPolicy{}, zap.NewNop())
	st, err = ok.Spawn(4)
	require.NoError(t, err)
	assert.InDelta(t, 5, st.Position.X, 1e-9)
}
