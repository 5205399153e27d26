// Package app is the composition root: it loads configuration, connects to
// the scene host, builds the local simulation, and drives the replication
// loop until cancellation. Every component is wired explicitly here; nothing
// lives in package-level state.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ballpit/bridge/internal/config"
	"ballpit/bridge/internal/data"
	"ballpit/bridge/internal/discovery"
	"ballpit/bridge/internal/ident"
	"ballpit/bridge/internal/journal"
	bridgenet "ballpit/bridge/internal/net"
	"ballpit/bridge/internal/net/ws"
	"ballpit/bridge/internal/physics"
	"ballpit/bridge/internal/registry"
	"ballpit/bridge/internal/scenario"
	"ballpit/bridge/internal/scene"
	"ballpit/bridge/internal/sim"
	"ballpit/bridge/internal/telemetry"
	"ballpit/bridge/internal/world"
)

type Config struct {
	ConfigPath string
}

// Run executes one bridge lifetime: connect, populate, replicate, tear down.
// A canceled context is a clean shutdown; any other error is fatal and the
// caller should exit non-zero.
func Run(ctx context.Context, runCfg Config) error {
	cfg, err := config.Load(runCfg.ConfigPath)
	if err != nil {
		return err
	}

	zlog, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer zlog.Sync()

	logger := telemetry.WrapZap(zlog)
	counters := telemetry.NewCounters()
	startedAt := time.Now()

	token := cfg.Remote.Token
	if token == "" {
		token = ident.ProcessToken()
	}

	// Connection failure is fatal and there is nothing to tear down yet.
	client, err := ws.Dial(ctx, ws.Options{
		URL:     cfg.Remote.URL,
		Token:   token,
		Logger:  logger,
		Metrics: counters,
	})
	if err != nil {
		return fmt.Errorf("connect %s: %w", cfg.Remote.URL, err)
	}
	defer client.Close()
	zlog.Info("connected to scene host",
		zap.String("url", cfg.Remote.URL),
		zap.String("session", client.SessionID()),
	)

	ids := ident.NewAllocator(cfg.Remote.Namespace, client.SessionID())
	pool := scene.NewPool(ids, world.NewDeterministicRNG(cfg.Scene.Seed, "materials"))
	engine := physics.NewEngine(physics.Config{
		Gravity:       world.Vec3{Y: cfg.Physics.GravityY},
		LinearDamping: cfg.Physics.LinearDamping,
		Restitution:   cfg.Physics.Restitution,
		SleepVelocity: cfg.Physics.SleepVelocity,
		SleepTicks:    cfg.Physics.SleepTicks,
	})
	reg := registry.New(counters)
	submissions := journal.New(cfg.Diagnostics.JournalRecords, cfg.Diagnostics.JournalMaxAge)
	batcher := sim.NewBatcher(client, cfg.Remote.BatchSize, submissions, counters)

	// From here on every exit path removes what the run created. Teardown
	// uses a fresh context so a canceled run still cleans up remotely.
	cleanup := sim.NewTeardown(reg, pool, batcher, logger, counters)
	defer cleanup.Run(context.Background())

	layout, err := loadLayout(cfg.Scene.LayoutPath)
	if err != nil {
		return err
	}
	schedule, err := loadSchedule(cfg.Scene.ScenarioPath, zlog)
	if err != nil {
		return err
	}

	builderRNG := world.NewDeterministicRNG(cfg.Scene.Seed, "builder")
	builder := scene.NewBuilder(ids, pool, engine, builderRNG, cfg.Physics.Density)
	for _, box := range layout.Boxes {
		builder.BuildStaticBox(box.Position.Vec(), box.Size.Vec(), box.Rotation())
	}

	var initial []scene.Operation
	for i := 0; i < cfg.Scene.MaterialCount; i++ {
		ops, _ := pool.CreateMaterial(cfg.Scene.Metallic)
		initial = append(initial, ops...)
	}
	for _, spawn := range schedule.Spawns {
		ops, descriptor := builder.BuildBall(spawn.Position, spawn.Radius)
		initial = append(initial, ops...)
		handle := engine.CreateDynamicBody(
			physics.Sphere{Radius: spawn.Radius},
			descriptor.Mass,
			physics.Pose{Position: descriptor.Position, Rotation: world.Identity()},
		)
		reg.Register(handle, descriptor.SlotID, descriptor.Position, world.Identity())
	}
	zlog.Info("local scene ready",
		zap.String("layout", layout.Name),
		zap.String("schedule", schedule.Name),
		zap.Int("balls", len(schedule.Spawns)),
		zap.Int("materials", pool.Count()),
	)

	walker := discovery.NewWalker(client, engine, discovery.Config{
		RootID:      cfg.Remote.RootSlot,
		NamePrefix:  cfg.Remote.NamePrefix,
		RootDepth:   cfg.Remote.RootDepth,
		ExpandDepth: cfg.Remote.ExpandDepth,
	}, logger, counters)
	walker.Run(ctx)

	if err := batcher.Submit(ctx, initial); err != nil {
		return fmt.Errorf("submit initial scene: %w", err)
	}
	zlog.Info("initial scene submitted", zap.Int("operations", len(initial)))

	loop := sim.NewLoop(engine, reg, batcher, sim.LoopConfig{
		TargetFrameMillis: cfg.Loop.TargetFrameMillis,
		MinStepMillis:     cfg.Loop.MinStepMillis,
		Workers:           cfg.Loop.Workers,
	}, sim.LoopHooks{}, sim.Deps{
		Logger:  logger,
		Metrics: counters,
	})

	if cfg.Diagnostics.ListenAddress != "" {
		handler := bridgenet.NewHTTPHandler(&bridgeStatus{
			client:   client,
			loop:     loop,
			registry: reg,
			engine:   engine,
			counters: counters,
		}, bridgenet.HTTPHandlerConfig{
			Logger:    zap.NewStdLog(zlog),
			Journal:   submissions,
			StartedAt: startedAt,
		})
		diag := &http.Server{Addr: cfg.Diagnostics.ListenAddress, Handler: handler}
		go func() {
			if err := diag.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				zlog.Warn("diagnostics server stopped", zap.Error(err))
			}
		}()
		defer diag.Close()
		zlog.Info("diagnostics listening", zap.String("addr", cfg.Diagnostics.ListenAddress))
	}

	zlog.Info("replication loop started",
		zap.Int("targetFrameMillis", cfg.Loop.TargetFrameMillis),
		zap.Int("workers", cfg.Loop.Workers),
	)
	if err := loop.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			zlog.Info("shutting down", zap.Uint64("ticks", loop.Ticks()))
			return nil
		}
		return fmt.Errorf("replication loop: %w", err)
	}
	return nil
}

func loadLayout(path string) (*data.Layout, error) {
	if path == "" {
		return data.DefaultLayout(), nil
	}
	return data.LoadLayout(path)
}

func loadSchedule(path string, zlog *zap.Logger) (scenario.Schedule, error) {
	if path == "" {
		return scenario.Default(), nil
	}
	return scenario.Load(path, zlog)
}

// bridgeStatus adapts the live components to the diagnostics endpoint.
type bridgeStatus struct {
	client   *ws.Client
	loop     *sim.Loop
	registry *registry.Registry
	engine   *physics.Engine
	counters *telemetry.Counters
}

func (s *bridgeStatus) SessionID() string { return s.client.SessionID() }

func (s *bridgeStatus) Phase() string { return s.loop.Phase().String() }

func (s *bridgeStatus) Ticks() uint64 { return s.loop.Ticks() }

func (s *bridgeStatus) TrackedBodies() int { return s.registry.Len() }

func (s *bridgeStatus) StaticBodies() int { return s.engine.StaticCount() }

func (s *bridgeStatus) CountersSnapshot() map[string]uint64 { return s.counters.Snapshot() }

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
	zapCfg.Development = cfg.Development

	return zapCfg.Build()
}
