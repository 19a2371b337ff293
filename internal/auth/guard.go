package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/wiseman-psychedelics/wiseman-api/internal/platform/httpx"
	"github.com/wiseman-psychedelics/wiseman-api/internal/shared"
	"github.com/wiseman-psychedelics/wiseman-api/internal/users"
)

// TokenValidator extracts the subject from a bearer token.
type TokenValidator interface {
	Validate(token string) (string, error)
}

// Guard resolves bearer tokens to accounts and enforces roles.
type Guard struct {
	tokens    TokenValidator
	directory users.Directory
	logger    *slog.Logger
}

// NewGuard constructs a Guard.
func NewGuard(tokens TokenValidator, directory users.Directory, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{tokens: tokens, directory: directory, logger: logger}
}

// Resolve walks the Authorization header through token validation and
// account lookup, then checks role. Every token or lookup miss yields
// shared.ErrUnauthenticated; a role miss yields shared.ErrForbidden along
// with the resolved account.
func (g *Guard) Resolve(ctx context.Context, authorization string, role users.Role) (*users.User, error) {
	raw, ok := bearerToken(authorization)
	if !ok {
		return nil, shared.ErrUnauthenticated
	}
	subject, err := g.tokens.Validate(raw)
	if err != nil {
		g.logger.Debug("bearer token rejected", slog.String("reason", err.Error()))
		return nil, shared.ErrUnauthenticated
	}
	user, err := g.directory.FindByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUnauthenticated
		}
		return nil, err
	}
	if !role.Permits(user) {
		return user, shared.ErrForbidden
	}
	return user, nil
}

// Require returns middleware admitting only requests whose token resolves
// to an account satisfying role.
func (g *Guard) Require(role users.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := g.Resolve(r.Context(), r.Header.Get("Authorization"), role)
			if err != nil {
				if errors.Is(err, shared.ErrForbidden) && user != nil {
					g.logger.Warn("role check failed",
						slog.String("path", r.URL.Path),
						slog.String("role", role.String()),
						slog.Int64("user_id", user.ID),
					)
				} else if !errors.Is(err, shared.ErrUnauthenticated) {
					g.logger.Error("resolve bearer token", slog.Any("error", err))
				}
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(users.ContextWithUser(r.Context(), user)))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

var _ users.Gate = (*Guard)(nil)
