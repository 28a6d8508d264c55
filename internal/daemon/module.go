package daemon

import (
	"context"
	"fmt"

	"github.com/feirahq/feirachat/internal/bus"
	"github.com/feirahq/feirachat/internal/config"
	"github.com/feirahq/feirachat/internal/engine"
	"github.com/feirahq/feirachat/internal/item"
	"github.com/feirahq/feirachat/internal/lock"
	"github.com/feirahq/feirachat/internal/logging"
	"github.com/feirahq/feirachat/internal/push"
	"github.com/feirahq/feirachat/internal/rest"
	"github.com/feirahq/feirachat/internal/session"
	"github.com/feirahq/feirachat/internal/status"
	"github.com/feirahq/feirachat/internal/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved session configuration passed to the fx module.
type Params struct {
	SessionName string
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideStore,
			provideRESTClient,
			provideItemCache,
			providePushAdapter,
			provideEngine,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig() (*config.Config, error) {
	cfg, err := config.Load(session.ConfigPath())
	if err != nil {
		return nil, fmt.Errorf("load config (run setup first?): %w", err)
	}
	if cfg.APIBaseURL == "" || cfg.PushURL == "" {
		return nil, fmt.Errorf("config missing api_base_url or push_url")
	}
	return cfg, nil
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(session.LogPath(p.SessionName), p.SessionName)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := session.EnsureDir(p.SessionName); err != nil {
		return nil, err
	}
	logger.Info("acquiring session lock", zap.String("session", p.SessionName))
	l, err := lock.Acquire(session.Dir(p.SessionName))
	if err != nil {
		return nil, err
	}
	logger.Info("session lock acquired")
	return l, nil
}

func provideStore(p Params, logger *zap.Logger) (*store.DB, error) {
	dbPath := session.DBPath(p.SessionName)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideRESTClient(cfg *config.Config) *rest.Client {
	return rest.NewClient(cfg.APIBaseURL, cfg.AuthToken)
}

func provideItemCache(c *rest.Client, logger *zap.Logger) *item.Cache {
	return item.NewCache(c, logger)
}

func providePushAdapter(cfg *config.Config, m *status.Machine, b *bus.Bus, logger *zap.Logger) *push.Adapter {
	return push.NewAdapter(cfg.PushURL, m, b, logger)
}

func provideEngine(cfg *config.Config, c *rest.Client, adapter *push.Adapter, cache *item.Cache, db *store.DB, b *bus.Bus, logger *zap.Logger) *engine.Engine {
	return engine.New(
		engine.Config{UserID: cfg.UserID, AuthToken: cfg.AuthToken},
		&restBackend{c}, adapter, cache, db, b, logger,
	)
}

func registerLifecycle(lc fx.Lifecycle, lk *lock.Lock, eng *engine.Engine, adapter *push.Adapter, db *store.DB, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// Start engine (subscribes to push.* bus events).
			eng.Start(context.Background())

			// Activation does its own degradation; never blocks startup.
			go eng.Activate(context.Background())

			return nil
		},
		OnStop: func(_ context.Context) error {
			eng.Stop()
			adapter.Close()
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}
