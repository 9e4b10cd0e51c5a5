package scripting

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/l1jgo/arena/internal/core/event"
	"github.com/l1jgo/arena/internal/physics"
)

// ErrNoSpawnFunc is returned when the loaded scripts define no spawn function.
var ErrNoSpawnFunc = errors.New("lua function spawn not found")

// Engine wraps a single gopher-lua VM. It is driven only from the tick loop
// goroutine.
//
// Scripts define
//
//	function spawn(conn_id, count) return x, y [, angle] end
//
// where count is the number of bodies spawned before this one.
type Engine struct {
	vm     *lua.LState
	spawns int
	log    *zap.Logger
}

// NewEngine loads path, which is either a single .lua file or a directory
// whose .lua files are loaded in name order.
func NewEngine(path string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState()
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	info, err := os.Stat(path)
	if err != nil {
		vm.Close()
		return nil, fmt.Errorf("lua scripts: %w", err)
	}
	if info.IsDir() {
		err = e.loadDir(path)
	} else {
		err = e.loadFile(path)
	}
	if err != nil {
		vm.Close()
		return nil, err
	}

	if e.vm.GetGlobal("spawn") == lua.LNil {
		vm.Close()
		return nil, fmt.Errorf("%s: %w", path, ErrNoSpawnFunc)
	}
	return e, nil
}

func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		if err := e.loadFile(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) loadFile(path string) error {
	if err := e.vm.DoFile(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	e.log.Debug("loaded lua script", zap.String("file", path))
	return nil
}

// Spawn calls the script's spawn function. A script error or a non-numeric
// result is returned as an error; the caller decides on a fallback.
func (e *Engine) Spawn(id event.ConnID) (physics.BodyState, error) {
	fn := e.vm.GetGlobal("spawn")
	if fn == lua.LNil {
		return physics.BodyState{}, ErrNoSpawnFunc
	}

	top := e.vm.GetTop()
	defer e.vm.SetTop(top)

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    3,
		Protect: true,
	}, lua.LNumber(id), lua.LNumber(e.spawns)); err != nil {
		return physics.BodyState{}, fmt.Errorf("lua spawn: %w", err)
	}

	x, okX := e.vm.Get(-3).(lua.LNumber)
	y, okY := e.vm.Get(-2).(lua.LNumber)
	if !okX || !okY {
		return physics.BodyState{}, fmt.Errorf("lua spawn: want numbers, got %s, %s",
			e.vm.Get(-3).Type(), e.vm.Get(-2).Type())
	}
	var angle float64
	if a, ok := e.vm.Get(-1).(lua.LNumber); ok {
		angle = float64(a)
	}
	st := physics.BodyState{
		Position: physics.Vec2{X: float64(x), Y: float64(y)},
		Angle:    angle,
	}
	for _, v := range []float64{st.Position.X, st.Position.Y, angle} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return physics.BodyState{}, fmt.Errorf("lua spawn: non-finite result %v", v)
		}
	}

	e.spawns++
	return st, nil
}

func (e *Engine) Close() {
	e.vm.Close()
}
