package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/wiseman-psychedelics/wiseman-api/internal/auth"
	"github.com/wiseman-psychedelics/wiseman-api/internal/observability"
	"github.com/wiseman-psychedelics/wiseman-api/internal/platform/db"
	"github.com/wiseman-psychedelics/wiseman-api/internal/ratelimit"
	"github.com/wiseman-psychedelics/wiseman-api/internal/users"
)

// Deps are the long-lived collaborators the HTTP surface is built from.
type Deps struct {
	Logger    *slog.Logger
	Config    *Config
	Directory users.Directory
	// Redis is optional; without it rate limit counters stay in process.
	Redis   *redis.Client
	Metrics *observability.Metrics
}

// NewHandler wires the core services and returns the root handler.
func NewHandler(deps Deps) (http.Handler, error) {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tokens, err := auth.NewTokenService(cfg.SecretKey, cfg.Algorithm, cfg.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	policies, err := cfg.RateLimitPolicies()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	limits := ratelimit.New(policies, ratelimit.Options{
		Redis:  deps.Redis,
		Logger: logger,
		OnReject: func(class ratelimit.Class) {
			deps.Metrics.RateLimited(string(class))
		},
	})

	hasher := auth.NewHasher(cfg.BcryptCost)
	authService := auth.NewService(deps.Directory, hasher, tokens)
	authHandler := auth.NewHandler(logger, authService, auth.Limits{
		Register: limits.Middleware(ratelimit.ClassRegister),
		Login:    limits.Middleware(ratelimit.ClassLogin),
	})

	guard := auth.NewGuard(tokens, deps.Directory, logger)
	usersHandler := users.NewHandler(logger, users.NewService(deps.Directory), guard, limits.Middleware(ratelimit.ClassGeneral))

	return NewRouter(RouterParams{
		Logger:       logger,
		Config:       cfg,
		AuthHandler:  authHandler,
		UsersHandler: usersHandler,
		Metrics:      deps.Metrics,
	}), nil
}

// OpenDirectory returns the account directory selected by DATABASE_URL and
// a function releasing it. PostgreSQL schemas are migrated before use.
func OpenDirectory(ctx context.Context, cfg *Config, logger *slog.Logger) (users.Directory, func(), error) {
	if cfg.UsesMemoryStore() {
		logger.Warn("using in-memory account directory; data is lost on restart")
		return users.NewMemoryDirectory(), func() {}, nil
	}
	pool, err := db.New(ctx, cfg.DatabaseURL, cfg.DBTimeout)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return users.NewRepository(pool, cfg.DBTimeout), pool.Close, nil
}
