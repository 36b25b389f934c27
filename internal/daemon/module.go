package daemon

import (
	"context"
	"os"
	"time"

	"github.com/matheus3301/wppbot/internal/api"
	"github.com/matheus3301/wppbot/internal/bus"
	"github.com/matheus3301/wppbot/internal/config"
	"github.com/matheus3301/wppbot/internal/engine"
	"github.com/matheus3301/wppbot/internal/httpapi"
	"github.com/matheus3301/wppbot/internal/lock"
	"github.com/matheus3301/wppbot/internal/logging"
	"github.com/matheus3301/wppbot/internal/relay"
	"github.com/matheus3301/wppbot/internal/session"
	"github.com/matheus3301/wppbot/internal/status"
	"github.com/matheus3301/wppbot/internal/store"
	"github.com/matheus3301/wppbot/internal/wa"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved session configuration passed to the fx module.
type Params struct {
	SessionName string
	SocketPath  string // optional override for testing; empty = use default
	ConfigPath  string // optional override; empty = ~/.wppbot/config.toml
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
			provideAdapter,
			provideEngine,
			provideBotServer,
			provideHTTP,
			provideRelay,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig(p Params) (*config.Config, error) {
	path := p.ConfigPath
	if path == "" {
		path = session.ConfigPath()
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(session.EnvPath(p.SessionName)); err != nil {
		return nil, err
	}
	return cfg, nil
}

func provideLogger(p Params, cfg *config.Config) (*zap.Logger, error) {
	return logging.New(session.LogPath(p.SessionName), p.SessionName, cfg.Log.Level)
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

// provideStore depends on the lock so two daemons never migrate the same file.
func provideStore(p Params, _ *lock.Lock, logger *zap.Logger) (*store.DB, error) {
	dbPath := session.AppDBPath(p.SessionName)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed() {
		logger.Info("migrations applied", zap.Uint("from", result.From), zap.Uint("to", result.To))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.To))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideAdapter(p Params, cfg *config.Config, _ *lock.Lock, logger *zap.Logger) (*wa.Adapter, error) {
	return wa.NewAdapter(context.Background(), p.SessionName, wa.Options{
		RatePerSecond: cfg.Send.RatePerSecond,
		Burst:         cfg.Send.Burst,
		CacheTTL:      5 * time.Minute,
	}, logger.Named("wa"))
}

func provideEngine(cfg *config.Config, adapter *wa.Adapter, db *store.DB, m *status.Machine, b *bus.Bus, logger *zap.Logger) *engine.Engine {
	return engine.New(adapter, db, m, b, logger.Named("engine"), engine.Options{
		Addressing: engine.Addressing{
			CountryCode: cfg.Address.CountryCode,
			TrunkPrefix: cfg.Address.TrunkPrefix,
			Suffix:      cfg.Address.Suffix,
		},
		SyncPolicy: cfg.Sync.Policy,
	})
}

func provideBotServer(p Params, e *engine.Engine, b *bus.Bus, logger *zap.Logger) *api.BotServer {
	return api.NewBotServer(p.SessionName, e, b, logger.Named("api"))
}

// provideHTTP returns nil when the dashboard API is disabled.
func provideHTTP(cfg *config.Config, e *engine.Engine, b *bus.Bus, logger *zap.Logger) *httpapi.Server {
	if cfg.HTTP.Addr == "" {
		return nil
	}
	return httpapi.New(cfg.HTTP.Addr, e, b, logger.Named("http"))
}

func provideRelay(cfg *config.Config, b *bus.Bus, logger *zap.Logger) *relay.Relay {
	log := logger.Named("relay")
	var pubs []relay.Publisher
	if cfg.Relay.AMQPURL != "" {
		pub, err := relay.DialAMQP(cfg.Relay.AMQPURL, cfg.Relay.AMQPQueue)
		if err != nil {
			log.Warn("amqp relay disabled", zap.Error(err))
		} else {
			pubs = append(pubs, pub)
		}
	}
	if cfg.Relay.WebhookURL != "" {
		pubs = append(pubs, relay.NewWebhook(cfg.Relay.WebhookURL, 10*time.Second))
	}
	return relay.New(b, log, pubs...)
}

// seedDefaults are written to the config table only for missing keys.
func seedDefaults(cfg *config.Config) map[string]string {
	return map[string]string{
		store.ConfigAutoReply:      "true",
		store.ConfigSaveMessages:   "true",
		store.ConfigAdminNumbers:   "",
		store.ConfigBotName:        cfg.Bot.Name,
		store.ConfigWelcomeMessage: cfg.Bot.WelcomeMessage,
	}
}

type lifecycleDeps struct {
	fx.In

	Config  *config.Config
	Server  *Server
	HTTP    *httpapi.Server
	Relay   *relay.Relay
	Lock    *lock.Lock
	DB      *store.DB
	Adapter *wa.Adapter
	Engine  *engine.Engine
	Logger  *zap.Logger
}

func registerLifecycle(lc fx.Lifecycle, d lifecycleDeps) {
	var (
		cancel  context.CancelFunc
		stopped = make(chan struct{})
	)
	logger := d.Logger

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := d.Engine.Bootstrap(ctx, seedDefaults(d.Config)); err != nil {
				return err
			}

			var runCtx context.Context
			runCtx, cancel = context.WithCancel(context.Background())
			go func() {
				d.Engine.Run(runCtx)
				close(stopped)
			}()

			handler := wa.NewEventHandler(d.Engine, logger.Named("wa"))
			d.Adapter.RegisterEventHandler(handler.Handle)

			go func() {
				if err := d.Server.Start(); err != nil {
					logger.Error("gRPC server error", zap.Error(err))
				}
			}()
			if d.HTTP != nil {
				go func() {
					if err := d.HTTP.Start(); err != nil {
						logger.Error("http server error", zap.Error(err))
					}
				}()
			}
			d.Relay.Start(runCtx)

			if d.Adapter.IsLoggedIn() {
				go func() {
					if err := d.Adapter.Connect(); err != nil {
						logger.Error("auto-connect failed", zap.Error(err))
						d.Engine.Post(engine.Disconnected{Reason: err.Error()})
					}
				}()
			} else {
				logger.Info("no credentials found, pairing required")
				go func() {
					if err := d.Adapter.Pair(runCtx, d.Engine, os.Stderr); err != nil && runCtx.Err() == nil {
						logger.Error("pairing failed", zap.Error(err))
					}
				}()
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			d.Relay.Stop()
			if d.HTTP != nil {
				if err := d.HTTP.Stop(ctx); err != nil {
					logger.Warn("http shutdown", zap.Error(err))
				}
			}
			if err := d.Adapter.Close(); err != nil {
				logger.Warn("error closing transport", zap.Error(err))
			}
			d.Server.Stop(ctx)
			if cancel != nil {
				cancel()
				select {
				case <-stopped:
				case <-ctx.Done():
				}
			}
			if err := d.DB.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := d.Lock.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}
