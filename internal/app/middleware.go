package app

import (
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/unrolled/secure"

	"github.com/wiseman-psychedelics/wiseman-api/internal/observability"
	"github.com/wiseman-psychedelics/wiseman-api/internal/platform/httpx"
)

const contentSecurityPolicy = "default-src 'self'; " +
	"script-src 'self' 'unsafe-inline' 'unsafe-eval'; " +
	"style-src 'self' 'unsafe-inline'; " +
	"img-src 'self' data: https:; " +
	"font-src 'self' data:; " +
	"connect-src 'self' https:; " +
	"frame-ancestors 'none';"

var (
	developmentOrigins = []string{
		"http://localhost:3000",
		"http://127.0.0.1:3000",
		"https://localhost:3000",
		"https://127.0.0.1:3000",
	}
	previewOrigin = regexp.MustCompile(`^https://[a-z0-9-]+(\.[a-z0-9-]+)*\.vercel\.app$`)
)

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics
}

// MiddlewareStack installs the global middleware chain.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	production := cfg.Config.IsProduction()

	options := secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		PermissionsPolicy:     "geolocation=(), microphone=(), camera=()",
		ContentSecurityPolicy: contentSecurityPolicy,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
	}
	if production {
		options.STSSeconds = 31536000
		options.STSIncludeSubdomains = true
		options.ForceSTSHeader = true
		options.AllowedHosts = cfg.Config.TrustedHosts
	}
	secureMiddleware := secure.New(options)
	secureMiddleware.SetBadHostHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid host header")
	}))

	corsMiddleware := cors.Handler(cors.Options{
		AllowOriginFunc:  allowOrigin(cfg.Config),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	timeout := 30 * time.Second
	if cfg.Config != nil && cfg.Config.AppRequestTimeout > 0 {
		timeout = cfg.Config.AppRequestTimeout
	}

	var middlewares []func(http.Handler) http.Handler
	// Forwarding headers are client controlled unless a proxy rewrites them.
	// Without a trusted proxy the socket peer keys the rate limiter.
	if cfg.Config != nil && cfg.Config.TrustedProxy {
		middlewares = append(middlewares, middleware.RealIP)
	}
	middlewares = append(middlewares,
		middleware.RequestID,
		middleware.Recoverer,
		middleware.Timeout(timeout),
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := secureMiddleware.Process(w, r); err != nil {
					// The bad host handler has already answered.
					logger.Warn("secure headers blocked request", slog.String("host", r.Host), slog.Any("error", err))
					return
				}
				next.ServeHTTP(w, r)
			})
		},
		corsMiddleware,
	)
	if cfg.Metrics != nil {
		middlewares = append(middlewares, cfg.Metrics.Middleware)
	}
	return middlewares
}

// allowOrigin admits the configured frontend and vercel preview deployments
// everywhere, plus localhost outside production.
func allowOrigin(cfg *Config) func(r *http.Request, origin string) bool {
	allowed := make(map[string]struct{})
	if cfg != nil && cfg.FrontendURL != "" {
		allowed[cfg.FrontendURL] = struct{}{}
	}
	if !cfg.IsProduction() {
		for _, o := range developmentOrigins {
			allowed[o] = struct{}{}
		}
	}
	return func(r *http.Request, origin string) bool {
		if _, ok := allowed[origin]; ok {
			return true
		}
		return previewOrigin.MatchString(origin)
	}
}
