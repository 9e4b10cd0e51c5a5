package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/l1jgo/arena/internal/broadcast"
	"github.com/l1jgo/arena/internal/config"
	"github.com/l1jgo/arena/internal/core/event"
	coresys "github.com/l1jgo/arena/internal/core/system"
	gonet "github.com/l1jgo/arena/internal/net"
	"github.com/l1jgo/arena/internal/physics"
	"github.com/l1jgo/arena/internal/scripting"
	"github.com/l1jgo/arena/internal/session"
	"github.com/l1jgo/arena/internal/spawn"
	"github.com/l1jgo/arena/internal/system"
	"github.com/l1jgo/arena/internal/tick"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Config: optional file, then the positional bind address.
	cfg := config.Default()
	if path := os.Getenv("ARENA_CONFIG"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if len(os.Args) > 1 {
		cfg.Network.BindAddress = os.Args[1]
	}

	// 2. Logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	// 3. Everything else
	a, err := newArena(cfg, clockwork.NewRealClock(), log)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return a.Run(ctx)
}

// arena is one fully wired server: transport, session registry, physics and
// the tick loop driving them.
type arena struct {
	server *gonet.Server
	loop   *tick.Loop
	script *scripting.Engine
	log    *zap.Logger
}

// newArena builds and binds the server. A bind failure is returned before
// any goroutine starts.
func newArena(cfg *config.Config, clock clockwork.Clock, log *zap.Logger) (*arena, error) {
	a := &arena{log: log}

	// Physics
	layout := physics.DefaultArena()
	if cfg.Physics.ArenaFile != "" {
		loaded, err := physics.LoadArena(cfg.Physics.ArenaFile)
		if err != nil {
			return nil, err
		}
		layout = loaded
	}
	space, err := physics.NewSpace(physics.Params{
		Gravity: physics.Vec2{X: cfg.Physics.GravityX, Y: cfg.Physics.GravityY},
		Damping: cfg.Physics.Damping,
		Step:    cfg.Network.TickInterval().Seconds(),
		Body:    physics.DefaultBodyTemplate(),
	}, layout, log)
	if err != nil {
		return nil, err
	}

	// Spawn policy
	policy, err := a.spawnPolicy(cfg.Spawn)
	if err != nil {
		return nil, err
	}

	// Transport
	queue := event.NewQueue(cfg.Network.EventQueueSize)
	opts := gonet.Options{
		OutQueueSize:    cfg.Network.OutQueueSize,
		MaxMessageSize:  cfg.Network.MaxMessageSize,
		ReadTimeout:     cfg.Network.ReadTimeout,
		WriteTimeout:    cfg.Network.WriteTimeout,
		PingInterval:    cfg.Network.PingInterval,
		InputsPerSecond: cfg.Network.InputsPerSecond,
		InputBurst:      cfg.Network.InputBurst,
		MaxConnections:  cfg.Network.MaxConnections,
	}
	if cfg.Metrics.Enabled {
		opts.MetricsPath = cfg.Metrics.Path
	}
	a.server = gonet.NewServer(opts, queue, log)
	if err := a.server.Listen(cfg.Network.BindAddress); err != nil {
		a.Close()
		return nil, err
	}

	// Systems
	outbound := a.server.Registry()
	sessions := session.NewRegistry(space, policy, session.InputConfig{
		MaxComponent: cfg.Physics.MaxInput,
		Scale:        cfg.Physics.InputScale,
	}, log)
	frame := &system.Frame{}

	runner := coresys.NewRunner()
	runner.Register(system.NewInputSystem(queue, sessions, outbound, log))
	runner.Register(system.NewReconcileSystem(sessions, outbound, cfg.Tick.ReconcileEvery, log))
	runner.Register(system.NewPhysicsSystem(space))
	runner.Register(system.NewSnapshotSystem(sessions, space, outbound, frame, log))
	runner.Register(system.NewOutputSystem(broadcast.NewSink(log), outbound, frame, log))

	a.loop = tick.NewLoop(runner, clock, cfg.Network.TickInterval(), cfg.Tick.SlowTickWarn, log)

	log.Info("server ready",
		zap.String("name", cfg.Server.Name),
		zap.String("addr", a.server.Addr().String()),
		zap.Int("fps", cfg.Network.FPS),
		zap.Int("event_queue", queue.Cap()),
		zap.String("spawn", cfg.Spawn.Policy),
		zap.Int("arena_boxes", len(layout.Boxes)),
	)
	return a, nil
}

func (a *arena) spawnPolicy(cfg config.SpawnConfig) (spawn.Policy, error) {
	random := spawn.NewRandom(cfg.Seed)
	switch cfg.Policy {
	case "fixed":
		return spawn.Fixed{Position: physics.Vec2{X: cfg.FixedX, Y: cfg.FixedY}}, nil
	case "lua":
		eng, err := scripting.NewEngine(cfg.Script, a.log)
		if err != nil {
			return nil, err
		}
		a.script = eng
		return spawn.WithFallback(eng, random, a.log), nil
	default:
		return random, nil
	}
}

// Run serves connections and ticks until ctx is done or a tick fails.
func (a *arena) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	serveErr := make(chan error, 1)
	go func() {
		err := a.server.Serve()
		if err != nil {
			a.log.Error("serve failed", zap.Error(err))
			cancel()
		}
		serveErr <- err
	}()

	loopErr := a.loop.Run(ctx)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.log.Warn("shutdown", zap.Error(err))
	}

	if loopErr != nil {
		return loopErr
	}
	if err := <-serveErr; err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	a.log.Info("server stopped", zap.Uint64("ticks", a.loop.Ticks()))
	return nil
}

func (a *arena) Close() {
	if a.script != nil {
		a.script.Close()
		a.script = nil
	}
}

// newLogger builds a zap logger from config.
func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
