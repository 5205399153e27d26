// Package config loads the bridge configuration: TOML on top of defaults,
// with a small set of deploy-time environment overrides applied last.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"ballpit/bridge/internal/world"
)

type Config struct {
	Remote      RemoteConfig      `toml:"remote"`
	Loop        LoopConfig        `toml:"loop"`
	Physics     PhysicsConfig     `toml:"physics"`
	Scene       SceneConfig       `toml:"scene"`
	Diagnostics DiagnosticsConfig `toml:"diagnostics"`
	Logging     LoggingConfig     `toml:"logging"`
}

type RemoteConfig struct {
	URL         string `toml:"url"`
	Token       string `toml:"token"`
	Namespace   string `toml:"namespace"`
	RootSlot    string `toml:"root_slot"`
	NamePrefix  string `toml:"name_prefix"`
	RootDepth   int    `toml:"root_depth"`
	ExpandDepth int    `toml:"expand_depth"`
	BatchSize   int    `toml:"batch_size"`
}

type LoopConfig struct {
	TargetFrameMillis int `toml:"target_frame_millis"`
	MinStepMillis     int `toml:"min_step_millis"`
	Workers           int `toml:"workers"`
}

type PhysicsConfig struct {
	GravityY      float64 `toml:"gravity_y"`
	LinearDamping float64 `toml:"linear_damping"`
	Restitution   float64 `toml:"restitution"`
	SleepVelocity float64 `toml:"sleep_velocity"`
	SleepTicks    int     `toml:"sleep_ticks"`
	Density       float64 `toml:"density"`
}

type SceneConfig struct {
	Seed          string `toml:"seed"`
	MaterialCount int    `toml:"material_count"`
	Metallic      bool   `toml:"metallic"`
	LayoutPath    string `toml:"layout_path"`
	ScenarioPath  string `toml:"scenario_path"`
}

type DiagnosticsConfig struct {
	ListenAddress  string        `toml:"listen_address"`
	JournalRecords int           `toml:"journal_records"`
	JournalMaxAge  time.Duration `toml:"journal_max_age"`
}

type LoggingConfig struct {
	Level       string `toml:"level"`
	Format      string `toml:"format"` // "json" or "console"
	Development bool   `toml:"development"`
}

// Load reads the TOML file at path over Default, applies environment
// overrides, and normalizes the result. An empty path skips the file and
// yields the overridden defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	normalized := cfg.normalized()
	return &normalized, nil
}

// Default returns the configuration the bridge runs with when no file and no
// overrides are present.
func Default() *Config {
	return &Config{
		Remote: RemoteConfig{
			URL:         "ws://localhost:7025/bridge",
			Namespace:   "ballpit",
			RootSlot:    "Root",
			NamePrefix:  "Reso",
			RootDepth:   2,
			ExpandDepth: 16,
			BatchSize:   50,
		},
		Loop: LoopConfig{
			TargetFrameMillis: 16,
			MinStepMillis:     8,
			Workers:           1,
		},
		Physics: PhysicsConfig{
			GravityY:      -9.81,
			LinearDamping: 0.1,
			Restitution:   0.3,
			SleepVelocity: 0.12,
			SleepTicks:    20,
			Density:       5,
		},
		Scene: SceneConfig{
			Seed:          world.DefaultSeed,
			MaterialCount: 4,
			Metallic:      true,
		},
		Diagnostics: DiagnosticsConfig{
			JournalRecords: 32,
			JournalMaxAge:  10 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func (cfg *Config) applyEnv() {
	if env := strings.TrimSpace(os.Getenv("BRIDGE_REMOTE_URL")); env != "" {
		cfg.Remote.URL = env
	}
	if env := strings.TrimSpace(os.Getenv("BRIDGE_REMOTE_TOKEN")); env != "" {
		cfg.Remote.Token = env
	}
	if env := strings.TrimSpace(os.Getenv("BRIDGE_DIAG_ADDR")); env != "" {
		cfg.Diagnostics.ListenAddress = env
	}
	if env := strings.TrimSpace(os.Getenv("BRIDGE_SEED")); env != "" {
		cfg.Scene.Seed = env
	}
}

// normalized returns a config with defaults applied to out-of-range values.
func (cfg Config) normalized() Config {
	normalized := cfg
	fallback := Default()

	normalized.Remote.URL = strings.TrimSpace(normalized.Remote.URL)
	normalized.Remote.Namespace = strings.TrimSpace(normalized.Remote.Namespace)
	if normalized.Remote.Namespace == "" {
		normalized.Remote.Namespace = fallback.Remote.Namespace
	}
	if normalized.Remote.RootSlot == "" {
		normalized.Remote.RootSlot = fallback.Remote.RootSlot
	}
	if normalized.Remote.NamePrefix == "" {
		normalized.Remote.NamePrefix = fallback.Remote.NamePrefix
	}
	if normalized.Remote.RootDepth < 1 {
		normalized.Remote.RootDepth = fallback.Remote.RootDepth
	}
	if normalized.Remote.ExpandDepth < 1 {
		normalized.Remote.ExpandDepth = fallback.Remote.ExpandDepth
	}
	if normalized.Remote.BatchSize < 1 {
		normalized.Remote.BatchSize = fallback.Remote.BatchSize
	}

	if normalized.Loop.TargetFrameMillis < 1 {
		normalized.Loop.TargetFrameMillis = fallback.Loop.TargetFrameMillis
	}
	if normalized.Loop.MinStepMillis < 1 {
		normalized.Loop.MinStepMillis = fallback.Loop.MinStepMillis
	}
	if normalized.Loop.Workers < 1 {
		normalized.Loop.Workers = fallback.Loop.Workers
	}

	if normalized.Physics.LinearDamping < 0 {
		normalized.Physics.LinearDamping = 0
	}
	if normalized.Physics.Restitution < 0 {
		normalized.Physics.Restitution = 0
	}
	if normalized.Physics.Restitution > 1 {
		normalized.Physics.Restitution = 1
	}
	if normalized.Physics.SleepVelocity <= 0 {
		normalized.Physics.SleepVelocity = fallback.Physics.SleepVelocity
	}
	if normalized.Physics.SleepTicks < 1 {
		normalized.Physics.SleepTicks = fallback.Physics.SleepTicks
	}
	if normalized.Physics.Density <= 0 {
		normalized.Physics.Density = fallback.Physics.Density
	}

	normalized.Scene.Seed = strings.TrimSpace(normalized.Scene.Seed)
	if normalized.Scene.Seed == "" {
		normalized.Scene.Seed = world.DefaultSeed
	}
	if normalized.Scene.MaterialCount < 0 {
		normalized.Scene.MaterialCount = 0
	}

	if normalized.Diagnostics.JournalRecords < 0 {
		normalized.Diagnostics.JournalRecords = 0
	}
	if normalized.Diagnostics.JournalMaxAge < 0 {
		normalized.Diagnostics.JournalMaxAge = 0
	}

	if normalized.Logging.Level == "" {
		normalized.Logging.Level = fallback.Logging.Level
	}
	if normalized.Logging.Format != "json" && normalized.Logging.Format != "console" {
		normalized.Logging.Format = fallback.Logging.Format
	}

	return normalized
}
