package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestEngine_Spawn(t *testing.T) {
	path := writeScript(t, t.TempDir(), "spawn.lua", `
function spawn(conn_id, count)
  return count * 0.5 - 2, 1.0, conn_id / 100
end
`)
	e, err := NewEngine(path, zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	first, err := e.Spawn(7)
	require.NoError(t, err)
	assert.InDelta(t, -2, first.Position.X, 1e-9)
	assert.InDelta(t, 1, first.Position.Y, 1e-9)
	assert.InDelta(t, 0.07, first.Angle, 1e-9)

	second, err := e.Spawn(8)
	require.NoError(t, err)
	assert.InDelta(t, -1.5, second.Position.X, 1e-9, "count advances per successful spawn")
}

func TestEngine_AngleIsOptional(t *testing.T) {
	path := writeScript(t, t.TempDir(), "spawn.lua", `function spawn() return 1, 2 end`)
	e, err := NewEngine(path, zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	st, err := e.Spawn(1)
	require.NoError(t, err)
	assert.Zero(t, st.Angle)
}

func TestEngine_LoadsDirectory(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "a_helpers.lua", `function base() return 3 end`)
	writeScript(t, dir, "b_spawn.lua", `function spawn() return base(), 0.5 end`)
	writeScript(t, dir, "notes.txt", `not lua`)

	e, err := NewEngine(dir, zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	st, err := e.Spawn(1)
	require.NoError(t, err)
	assert.InDelta(t, 3, st.Position.X, 1e-9)
}

func TestEngine_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := NewEngine(writeScript(t, dir, "empty.lua", `x = 1`), zap.NewNop())
	assert.ErrorIs(t, err, ErrNoSpawnFunc)

	_, err = NewEngine(writeScript(t, dir, "broken.lua", `function spawn(`), zap.NewNop())
	assert.Error(t, err)

	_, err = NewEngine(filepath.Join(dir, "missing.lua"), zap.NewNop())
	assert.Error(t, err)

	e, err := NewEngine(writeScript(t, dir, "bad.lua", `
function spawn(conn_id)
  if conn_id == 2 then error("no room") end
  return "left", 1
end`), zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	_, err = e.Spawn(1)
	assert.ErrorContains(t, err, "want numbers")
	_, err = e.Spawn(2)
	assert.ErrorContains(t, err, "no room")
}

func TestEngine_RejectsNonFinite(t *testing.T) {
	path := writeScript(t, t.TempDir(), "spawn.lua", `function spawn() return 1/0, 1 end`)
	e, err := NewEngine(path, zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	_, err = e.Spawn(1)
	assert.ErrorContains(t, err, "non-finite")
}
