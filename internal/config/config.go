package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultBindAddress is used when neither the command line nor the config
// file names one.
const DefaultBindAddress = "127.0.0.1:8080"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Server  ServerConfig  `toml:"server"`
	Network NetworkConfig `toml:"network"`
	Physics PhysicsConfig `toml:"physics"`
	Spawn   SpawnConfig   `toml:"spawn"`
	Tick    TickConfig    `toml:"tick"`
	Logging LoggingConfig `toml:"logging"`
	Metrics MetricsConfig `toml:"metrics"`
}

type ServerConfig struct {
	Name string `toml:"name"`
}

type NetworkConfig struct {
	BindAddress     string        `toml:"bind_address"`
	FPS             int           `toml:"fps"`
	EventQueueSize  int           `toml:"event_queue_size"`
	OutQueueSize    int           `toml:"out_queue_size"`
	MaxMessageSize  int64         `toml:"max_message_size"`
	ReadTimeout     time.Duration `toml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
	PingInterval    time.Duration `toml:"ping_interval"`
	InputsPerSecond float64       `toml:"inputs_per_second"` // 0 = unlimited
	InputBurst      int           `toml:"input_burst"`
	MaxConnections  int           `toml:"max_connections"` // 0 = unlimited
}

// TickInterval is the fixed duration of one tick.
func (n NetworkConfig) TickInterval() time.Duration {
	return time.Second / time.Duration(n.FPS)
}

type PhysicsConfig struct {
	GravityX   float64 `toml:"gravity_x"`
	GravityY   float64 `toml:"gravity_y"`
	Damping    float64 `toml:"damping"`     // linear damping per second
	InputScale float64 `toml:"input_scale"` // input vector -> velocity multiplier
	MaxInput   float64 `toml:"max_input"`   // per-component bound on inbound input
	ArenaFile  string  `toml:"arena_file"`  // optional YAML arena layout
}

type SpawnConfig struct {
	Policy string  `toml:"policy"` // "random", "fixed" or "lua"
	Seed   int64   `toml:"seed"`
	FixedX float64 `toml:"fixed_x"`
	FixedY float64 `toml:"fixed_y"`
	Script string  `toml:"script"` // Lua file for the "lua" policy
}

type TickConfig struct {
	ReconcileEvery int           `toml:"reconcile_every"`
	SlowTickWarn   time.Duration `toml:"slow_tick_warn"` // 0 = tick interval
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Load reads a TOML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaults()
}

func (c *Config) Validate() error {
	switch {
	case c.Network.BindAddress == "":
		return fmt.Errorf("%w: network.bind_address is empty", ErrInvalid)
	case c.Network.FPS <= 0 || c.Network.FPS > 1000:
		return fmt.Errorf("%w: network.fps must be in 1..1000, got %d", ErrInvalid, c.Network.FPS)
	case c.Network.EventQueueSize < 1:
		return fmt.Errorf("%w: network.event_queue_size must be positive", ErrInvalid)
	case c.Network.OutQueueSize < 1:
		return fmt.Errorf("%w: network.out_queue_size must be positive", ErrInvalid)
	case c.Network.MaxMessageSize < 1:
		return fmt.Errorf("%w: network.max_message_size must be positive", ErrInvalid)
	case c.Physics.MaxInput <= 0:
		return fmt.Errorf("%w: physics.max_input must be positive", ErrInvalid)
	case c.Physics.Damping < 0:
		return fmt.Errorf("%w: physics.damping must not be negative", ErrInvalid)
	case c.Tick.ReconcileEvery < 1:
		return fmt.Errorf("%w: tick.reconcile_every must be at least 1", ErrInvalid)
	}
	switch c.Spawn.Policy {
	case "random", "fixed":
	case "lua":
		if c.Spawn.Script == "" {
			return fmt.Errorf("%w: spawn.policy \"lua\" needs spawn.script", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown spawn.policy %q", ErrInvalid, c.Spawn.Policy)
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Name: "arena",
		},
		Network: NetworkConfig{
			BindAddress:     DefaultBindAddress,
			FPS:             60,
			EventQueueSize:  64,
			OutQueueSize:    128,
			MaxMessageSize:  512,
			ReadTimeout:     60 * time.Second,
			WriteTimeout:    10 * time.Second,
			PingInterval:    30 * time.Second,
			InputsPerSecond: 120,
			InputBurst:      30,
			MaxConnections:  1024,
		},
		Physics: PhysicsConfig{
			GravityY:   -9.81,
			Damping:    0.8,
			InputScale: 10,
			MaxInput:   1,
		},
		Spawn: SpawnConfig{
			Policy: "random",
			Seed:   13,
			FixedY: 0.75,
		},
		Tick: TickConfig{
			ReconcileEvery: 1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}
