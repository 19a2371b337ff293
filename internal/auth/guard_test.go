package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wiseman-psychedelics/wiseman-api/internal/shared"
	"github.com/wiseman-psychedelics/wiseman-api/internal/users"
)

type guardFixture struct {
	guard  *Guard
	tokens *TokenService
	dir    *users.MemoryDirectory
}

func newGuardFixture(t *testing.T) guardFixture {
	t.Helper()
	tokens, err := NewTokenService(testSecret, "HS256", 30*time.Minute)
	require.NoError(t, err)
	dir := users.NewMemoryDirectory()
	for _, u := range []users.User{
		{Name: "Reader", Email: "reader@x.com", PasswordHash: "h"},
		{Name: "Admin", Email: "admin@x.com", PasswordHash: "h"},
	} {
		_, err := dir.Insert(context.Background(), u)
		require.NoError(t, err)
	}
	require.NoError(t, dir.SetAdmin("admin@x.com", true))
	return guardFixture{guard: NewGuard(tokens, dir, nil), tokens: tokens, dir: dir}
}

func (f guardFixture) bearer(t *testing.T, subject string) string {
	t.Helper()
	token, err := f.tokens.Issue(subject)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestResolveStates(t *testing.T) {
	f := newGuardFixture(t)
	ctx := context.Background()

	forged, err := NewTokenService("ffffffffffffffffffffffffffffffff", "HS256", time.Hour)
	require.NoError(t, err)
	forgedToken, err := forged.Issue("reader@x.com")
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		role   users.Role
		want   error
	}{
		{"missing header", "", users.RoleUser, shared.ErrUnauthenticated},
		{"wrong scheme", "Basic abc", users.RoleUser, shared.ErrUnauthenticated},
		{"empty bearer", "Bearer ", users.RoleUser, shared.ErrUnauthenticated},
		{"garbage token", "Bearer nonsense", users.RoleUser, shared.ErrUnauthenticated},
		{"forged token", "Bearer " + forgedToken, users.RoleUser, shared.ErrUnauthenticated},
		{"deleted account", f.bearer(t, "ghost@x.com"), users.RoleUser, shared.ErrUnauthenticated},
		{"non admin on admin route", f.bearer(t, "reader@x.com"), users.RoleAdmin, shared.ErrForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.guard.Resolve(ctx, tc.header, tc.role)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestResolveAuthorizes(t *testing.T) {
	f := newGuardFixture(t)

	user, err := f.guard.Resolve(context.Background(), f.bearer(t, "reader@x.com"), users.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, "reader@x.com", user.Email)

	admin, err := f.guard.Resolve(context.Background(), f.bearer(t, "admin@x.com"), users.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)

	lower, err := f.guard.Resolve(context.Background(), "bearer "+f.bearer(t, "admin@x.com")[len("Bearer "):], users.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, "admin@x.com", lower.Email)
}

type failingDirectory struct {
	users.Directory
}

func (failingDirectory) FindByEmail(context.Context, string) (*users.User, error) {
	return nil, shared.ErrUnavailable
}

func TestResolveSurfacesStorageOutage(t *testing.T) {
	f := newGuardFixture(t)
	guard := NewGuard(f.tokens, failingDirectory{}, nil)

	_, err := guard.Resolve(context.Background(), f.bearer(t, "reader@x.com"), users.RoleUser)
	assert.ErrorIs(t, err, shared.ErrUnavailable)
	assert.NotErrorIs(t, err, shared.ErrUnauthenticated)
}

func TestRequireMiddleware(t *testing.T) {
	f := newGuardFixture(t)
	var seen *users.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = users.FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	adminOnly := f.guard.Require(users.RoleAdmin)(next)

	t.Run("no token", func(t *testing.T) {
		rr := httptest.NewRecorder()
		adminOnly.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/newsletter", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "Bearer", rr.Header().Get("WWW-Authenticate"))

		var problem map[string]any
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&problem))
		assert.Equal(t, "Could not validate credentials", problem["detail"])
	})

	t.Run("regular user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/newsletter", nil)
		req.Header.Set("Authorization", f.bearer(t, "reader@x.com"))
		rr := httptest.NewRecorder()
		adminOnly.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Empty(t, rr.Header().Get("WWW-Authenticate"))
	})

	t.Run("admin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/newsletter", nil)
		req.Header.Set("Authorization", f.bearer(t, "admin@x.com"))
		rr := httptest.NewRecorder()
		adminOnly.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusNoContent, rr.Code)
		require.NotNil(t, seen)
		assert.Equal(t, "admin@x.com", seen.Email)
	})
}

func TestBearerToken(t *testing.T) {
	token, ok := bearerToken("  Bearer   abc.def.ghi ")
	assert.True(t, ok)
	assert.Equal(t, "abc.def.ghi", token)

	_, ok = bearerToken("Bearer")
	assert.False(t, ok)
	_, ok = bearerToken("Token abc")
	assert.False(t, ok)
}
