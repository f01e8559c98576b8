// Package daemon wires the application together with fx and owns the
// process lifecycle: config, lock, storage backend, sync engine, reconciler
// and the periodic refresher.
package daemon

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/feedplex/feedplex/internal/atp"
	"github.com/feedplex/feedplex/internal/bus"
	"github.com/feedplex/feedplex/internal/config"
	"github.com/feedplex/feedplex/internal/cursor"
	"github.com/feedplex/feedplex/internal/kvstore"
	"github.com/feedplex/feedplex/internal/logging"
	"github.com/feedplex/feedplex/internal/masto"
	"github.com/feedplex/feedplex/internal/model"
	"github.com/feedplex/feedplex/internal/normalize"
	"github.com/feedplex/feedplex/internal/session"
	"github.com/feedplex/feedplex/internal/store"
	intsync "github.com/feedplex/feedplex/internal/sync"
	"github.com/feedplex/feedplex/internal/tasks"
	"github.com/feedplex/feedplex/internal/timeline"
)

const defaultRefreshSeconds = 120

// Params holds the resolved profile configuration passed to the fx module.
type Params struct {
	Profile string
}

// Module returns the fx module for the daemon, composing all providers and
// lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideConfig,
			provideBus,
			provideLock,
			provideBackend,
			provideStore,
			provideCursorManager,
			provideNormalizer,
			provideTracker,
			provideTasks,
			provideRegistry,
			provideEngine,
			provideReconciler,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(session.LogPath(p.Profile), p.Profile)
}

func provideConfig(logger *zap.Logger) (*config.Config, error) {
	path := session.ConfigPath()
	cfg, err := config.Load(path)
	if os.IsNotExist(err) {
		logger.Warn("no config file, using defaults", zap.String("path", path))
		return &config.Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideLock(p Params, logger *zap.Logger) (*session.Lock, error) {
	if err := session.EnsureDir(p.Profile); err != nil {
		return nil, err
	}
	logger.Info("acquiring profile lock", zap.String("profile", p.Profile))
	l, err := session.AcquireLock(session.Dir(p.Profile))
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired")
	return l, nil
}

// provideBackend opens the cache database. The lock dependency orders this
// after lock acquisition.
func provideBackend(p Params, cfg *config.Config, _ *session.Lock, logger *zap.Logger) (kvstore.Store, error) {
	dbPath := session.DBPath(p.Profile)
	var (
		kv  kvstore.Store
		err error
	)
	switch cfg.Storage.Backend {
	case "", "bolt":
		kv, err = kvstore.OpenBolt(dbPath)
	case "sqlite":
		kv, err = kvstore.OpenSQLite(dbPath)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	if err != nil {
		return nil, err
	}
	logger.Info("cache database opened",
		zap.String("path", dbPath),
		zap.String("backend", cfg.Storage.Backend))
	return kv, nil
}

func provideStore(kv kvstore.Store) *store.Store {
	return store.New(kv)
}

func provideCursorManager(st *store.Store, cfg *config.Config) *cursor.Manager {
	return cursor.NewManager(st, cfg.NetworkOnly())
}

func provideNormalizer(cfg *config.Config) *normalize.Normalizer {
	return normalize.New(cfg.LabelTable())
}

func provideTracker(b *bus.Bus) *timeline.Tracker {
	return timeline.NewTracker(b)
}

func provideTasks(logger *zap.Logger) *tasks.Queue {
	return tasks.NewQueue(64, logger)
}

// provideRegistry builds protocol clients for every configured account.
func provideRegistry(cfg *config.Config, logger *zap.Logger) (*session.Registry, error) {
	reg := session.NewRegistry()
	for _, a := range cfg.Accounts {
		ctx := session.Context{
			ID:       a.ID,
			Host:     a.Host,
			Handle:   a.Handle,
			ViewerID: a.ViewerID,
		}
		switch model.Protocol(a.Protocol) {
		case model.ProtocolMastodon:
			client, err := masto.NewHTTPClient(a.Host, a.AccessToken)
			if err != nil {
				return nil, fmt.Errorf("account %q: %w", a.ID, err)
			}
			reg.RegisterMastodon(ctx, client)
		case model.ProtocolBluesky:
			reg.RegisterBluesky(ctx, atp.NewXRPCAgent(a.Host, a.Handle, a.AppPassword))
		default:
			return nil, fmt.Errorf("account %q: unknown protocol %q", a.ID, a.Protocol)
		}
		logger.Info("account registered",
			zap.String("account", a.ID),
			zap.String("protocol", a.Protocol))
	}
	return reg, nil
}

func provideEngine(reg *session.Registry, st *store.Store, cur *cursor.Manager, norm *normalize.Normalizer, tracker *timeline.Tracker, b *bus.Bus, q *tasks.Queue, logger *zap.Logger) *intsync.Engine {
	return intsync.NewEngine(reg, st, cur, norm, tracker, b, q, logger)
}

func provideReconciler(reg *session.Registry, st *store.Store, norm *normalize.Normalizer, b *bus.Bus, logger *zap.Logger) *intsync.Reconciler {
	return intsync.NewReconciler(reg, st, norm, b, logger)
}

func registerLifecycle(lc fx.Lifecycle, p Params, cfg *config.Config, lk *session.Lock, kv kvstore.Store, q *tasks.Queue, engine *intsync.Engine, reg *session.Registry, b *bus.Bus, logger *zap.Logger) {
	interval := time.Duration(cfg.RefreshSeconds) * time.Second
	if cfg.RefreshSeconds <= 0 {
		interval = defaultRefreshSeconds * time.Second
	}

	refreshCtx, cancelRefresh := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			q.Start(context.Background())

			go refreshLoop(refreshCtx, interval, engine, reg, b, logger)

			logger.Info("daemon started",
				zap.String("profile", p.Profile),
				zap.Duration("refresh_interval", interval))
			return nil
		},
		OnStop: func(_ context.Context) error {
			logger.Info("daemon stopping")
			cancelRefresh()
			q.Stop()
			if err := kv.Close(); err != nil {
				logger.Error("closing cache database", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Error("releasing profile lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}

// refreshLoop refreshes every account's home timeline on a fixed interval.
// Failures fall back to cache inside the engine; only auth errors surface
// here, and those are logged for the user to act on.
func refreshLoop(ctx context.Context, interval time.Duration, engine *intsync.Engine, reg *session.Registry, b *bus.Bus, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, acct := range reg.Accounts() {
				result, err := engine.FetchAndMergeTimeline(ctx, acct.ID, timeline.NameHome)
				if err != nil {
					logger.Warn("background refresh failed",
						zap.String("account", acct.ID),
						zap.Error(err))
					continue
				}
				if result.Stale {
					logger.Debug("background refresh served cache",
						zap.String("account", acct.ID))
					continue
				}
				b.Emit(bus.KindAccountRefreshed, acct.ID)
			}
		}
	}
}
