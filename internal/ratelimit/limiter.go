package ratelimit

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/httprate"
	"github.com/redis/go-redis/v9"

	"github.com/wiseman-psychedelics/wiseman-api/internal/platform/httpx"
	"github.com/wiseman-psychedelics/wiseman-api/internal/shared"
)

// Options configures a Set.
type Options struct {
	// Redis shares counters between instances. Nil keeps them in process.
	Redis *redis.Client
	// Prefix namespaces Redis keys.
	Prefix string
	Logger *slog.Logger
	// OnReject is called once per rejected request.
	OnReject func(Class)
}

// Set holds one limiter per endpoint class. Counters of different classes
// never interact.
type Set struct {
	limiters map[Class]*httprate.RateLimiter
	logger   *slog.Logger
}

// New builds a limiter for every class in policies, keyed by client IP.
func New(policies map[Class]Policy, opts Options) *Set {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "wiseman:ratelimit"
	}
	set := &Set{limiters: make(map[Class]*httprate.RateLimiter, len(policies)), logger: logger}
	for class, policy := range policies {
		class := class
		options := []httprate.Option{
			httprate.WithKeyByIP(),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				logger.Warn("rate limit exceeded",
					slog.String("class", string(class)),
					slog.String("path", r.URL.Path),
				)
				if opts.OnReject != nil {
					opts.OnReject(class)
				}
				httpx.RespondError(w, shared.ErrRateLimited)
			}),
		}
		if opts.Redis != nil {
			options = append(options, httprate.WithLimitCounter(NewRedisCounter(opts.Redis, prefix+":"+string(class), logger)))
		}
		set.limiters[class] = httprate.NewRateLimiter(policy.Limit, policy.Window, options...)
	}
	return set
}

// Middleware returns the throttle for class. An unknown class is a wiring
// mistake and is passed through with an error log.
func (s *Set) Middleware(class Class) func(http.Handler) http.Handler {
	limiter, ok := s.limiters[class]
	if !ok {
		s.logger.Error("no rate limit policy for class", slog.String("class", string(class)))
		return func(next http.Handler) http.Handler { return next }
	}
	return limiter.Handler
}
