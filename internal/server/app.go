package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"CoopDungeons/internal/dag"
	"CoopDungeons/internal/game"
	"CoopDungeons/internal/i18n"
	"CoopDungeons/internal/sched"
	"CoopDungeons/internal/session"
	"CoopDungeons/internal/telemetry"
	"CoopDungeons/internal/world"
	"CoopDungeons/internal/zone"
)

const shutdownTimeout = 5 * time.Second

// App owns every long-lived component of the server.
type App struct {
	Config   AppConfig
	Settings Settings
	Log      *zap.Logger
	Loop     *sched.Loop
	World    *world.World
	Zones    *zone.Pool
	Catalog  *game.Catalog
	Sessions *session.Manager
	Hub      *Hub
	Gateway  *Gateway
}

func resolveSettings(cfg AppConfig, overrides TuningOverrides, log *zap.Logger) Settings {
	settings := DefaultSettings()
	loaded, err := loadSettingsFromFile(cfg.TuningFile, settings)
	if err != nil {
		log.Warn("tuning config (using defaults)", zap.Error(err))
	} else {
		settings = loaded
	}
	return overrides.apply(settings)
}

// NewApp wires the loop, world, zone pool, catalog and session manager.
func NewApp(cfg AppConfig, settings Settings, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	a := &App{Config: cfg, Settings: settings, Log: log}
	a.Loop = sched.NewLoop(log)
	a.World = world.New(cfg.Home(), a.Loop, log)
	a.Zones = zone.NewPool(cfg.Layout(), a.World, log)

	catalog, err := game.NewCatalog(dag.ValidateDungeon, game.BuiltinDefinitions()...)
	if err != nil {
		return nil, fmt.Errorf("builtin dungeons: %w", err)
	}
	if cfg.DungeonsFile != "" {
		n, err := catalog.LoadFile(cfg.DungeonsFile)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			log.Info("no dungeon definitions file", zap.String("path", cfg.DungeonsFile))
		case err != nil:
			return nil, err
		default:
			log.Info("dungeon definitions loaded", zap.String("path", cfg.DungeonsFile), zap.Int("count", n))
		}
	}
	a.Catalog = catalog

	loc, err := i18n.New()
	if err != nil {
		return nil, fmt.Errorf("locales: %w", err)
	}
	a.Hub = NewHub(loc, log)
	a.Sessions = session.NewManager(a.Loop, session.Options{
		Catalog:   catalog,
		Zones:     a.Zones,
		Units:     a.World,
		Builders:  a.World,
		Messenger: a.Hub,
		Tuning:    settings.Tuning,
		Rewards:   settings.Rewards,
		Home:      cfg.Home(),
		Log:       log,
	})
	a.World.OnKill(a.Sessions.OnUnitKilled)
	a.World.OnPlayerSpawned(a.Sessions.OnPlayerUnitSpawned)
	a.Loop.Every(game.Dt, func() { a.World.Step(game.Dt) })
	a.Gateway = NewGateway(a.Loop, a.World, a.Sessions, a.Hub, loc, log)
	return a, nil
}

// Run serves until ctx is cancelled, then closes every open session.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.Loop.Run(gctx)
	})
	g.Go(func() error {
		a.Log.Info("starting web server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	err := g.Wait()
	// the loop has stopped; finish the last commands here
	a.Loop.Drain()
	a.Sessions.OnGameStateChanged(session.GameOver)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// onLoop runs fn on the loop goroutine and waits for it.
func (a *App) onLoop(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	a.Loop.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StartApp builds the logger and tracer, resolves settings and serves until
// ctx ends.
func StartApp(ctx context.Context, cfg AppConfig, overrides TuningOverrides) error {
	log, err := telemetry.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	shutdown, err := telemetry.SetupTracing(ctx, "coop-dungeons", cfg.OtelEndpoint)
	if err != nil {
		log.Warn("tracing disabled", zap.Error(err))
	}
	defer func() { _ = shutdown(context.Background()) }()

	settings := resolveSettings(cfg, overrides, log)
	app, err := NewApp(cfg, settings, log)
	if err != nil {
		return err
	}
	log.Info("coop dungeons ready",
		zap.Int("zones", app.Zones.Capacity()),
		zap.Int("dungeons", app.Catalog.Len()),
		zap.Duration("enter_delay", settings.Tuning.EnterDelay),
		zap.Duration("empty_grace", settings.Tuning.EmptyGrace),
		zap.Int("reward_base", settings.Rewards.Base),
	)
	return app.Run(ctx)
}
