package setup

import (
	"context"
	"fmt"
	"time"

	"github.com/authpractice/userauth/internal/config"
	"github.com/authpractice/userauth/internal/handler"
	"github.com/authpractice/userauth/internal/logger"
	"github.com/authpractice/userauth/internal/markdown"
	"github.com/authpractice/userauth/internal/middleware"
	"github.com/authpractice/userauth/internal/service"
	"github.com/authpractice/userauth/internal/session"
	"github.com/authpractice/userauth/internal/storage/pg"
	"github.com/authpractice/userauth/internal/utils"
	"github.com/redis/go-redis/v9"
)

const (
	janitorInterval = time.Minute
	connectTimeout  = 10 * time.Second
)

// Dependencies struct to hold all initialized dependencies.
type Dependencies struct {
	Config     *config.Config
	Storage    *pg.Storage
	Redis      *redis.Client // nil for the in-memory session store
	Sessions   *session.Manager
	Handler    *handler.Handler
	Guard      *middleware.Guard
	CancelFunc context.CancelFunc
}

// SetupDependencies initializes all dependencies required for the application.
// Background tasks stop when ctx is done or Cleanup is called.
func SetupDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	ctx, cancel := context.WithCancel(ctx)

	storage, err := NewStorage(ctx, cfg)
	if err != nil {
		cancel()
		return nil, err
	}
	if err := storage.Migrate(ctx); err != nil {
		cancel()
		storage.Cleanup()
		return nil, err
	}

	store, rdb, err := NewSessionStore(ctx, cfg)
	if err != nil {
		cancel()
		storage.Cleanup()
		return nil, err
	}
	sessions := session.NewManager(store, cfg.Public.SessionTTL, cfg.Public.SecureCookies)

	auth := service.NewAuth(
		storage,
		utils.NewPasswordHasher(cfg.Public.BcryptCost),
		utils.NewEmailValidator(),
		cfg.Public.PasswordMinLen,
	)

	welcome, err := markdown.New().Render(cfg.Public.WelcomeMarkdown)
	if err != nil {
		cancel()
		storage.Cleanup()
		return nil, fmt.Errorf("failed to render welcome page: %w", err)
	}

	h := handler.New(handler.MustLoadTemplates(), auth, sessions, welcome, map[string]handler.Pinger{
		"postgres": storage,
		"sessions": sessions,
	})
	guard := middleware.NewGuard(sessions, storage, h.RenderStatus)

	return &Dependencies{
		Config:     cfg,
		Storage:    storage,
		Redis:      rdb,
		Sessions:   sessions,
		Handler:    h,
		Guard:      guard,
		CancelFunc: cancel,
	}, nil
}

// NewStorage connects to PostgreSQL without applying migrations.
func NewStorage(ctx context.Context, cfg *config.Config) (*pg.Storage, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	storage, err := pg.New(ctx, cfg.Private.Pg.DSN(), pg.DefaultConnectionConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return storage, nil
}

// NewSessionStore builds the store selected by session_store. The redis
// client is returned so the caller can close it.
func NewSessionStore(ctx context.Context, cfg *config.Config) (session.Store, *redis.Client, error) {
	switch cfg.Public.SessionStore {
	case config.SessionStoreMemory:
		logger.Log.Warn("using in-memory session store, sessions are lost on restart")
		store := session.NewMemoryStore()
		store.StartJanitor(ctx, janitorInterval)
		return store, nil, nil
	case config.SessionStoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Public.Redis.Addr,
			Password: cfg.Private.RedisPassword,
			DB:       cfg.Public.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		logger.Log.Info("connected to redis", "addr", cfg.Public.Redis.Addr)
		return session.NewRedisStore(rdb), rdb, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store %q", cfg.Public.SessionStore)
	}
}

// Cleanup stops background tasks and closes connections.
func (d *Dependencies) Cleanup() {
	d.CancelFunc()
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			logger.Log.Error("failed to close redis", "error", err)
		}
	}
	if err := d.Storage.Cleanup(); err != nil {
		logger.Log.Error("failed to close postgres", "error", err)
	}
}
