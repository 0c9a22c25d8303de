package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidehaven/authportal/internal/cache"
	"github.com/tidehaven/authportal/internal/config"
	"github.com/tidehaven/authportal/internal/oidc"
	"github.com/tidehaven/authportal/internal/session"
)

type testEnv struct {
	cfg    config.ServerConfig
	store  *session.Store
	client *oidc.Client
	logger *slog.Logger
}

func newTestEnv(t *testing.T, providerDomain string) *testEnv {
	t.Helper()

	mc := cache.NewMemoryCache()
	t.Cleanup(func() { mc.Close() })
	store := session.NewStore(mc, time.Hour)

	serverCfg := config.ServerConfig{
		BaseURL:        "http://localhost:8080",
		CookieName:     "authportal-session",
		CookieHTTPOnly: true,
		CookieSameSite: "lax",
		SessionTTL:     time.Hour,
	}

	providerCfg := config.ProviderConfig{
		Domain:                providerDomain,
		ClientID:              "test-client",
		ClientSecret:          "test-secret",
		RedirectURL:           "http://localhost:8080/auth/callback",
		PostLogoutRedirectURL: "http://localhost:8080",
		Scopes:                []string{"openid", "profile", "email"},
		Timeout:               5 * time.Second,
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &testEnv{
		cfg:    serverCfg,
		store:  store,
		client: oidc.NewClient(providerCfg, store, logger),
		logger: logger,
	}
}

// stubTokenEndpoint serves a minimal successful token response.
func stubTokenEndpoint(t *testing.T) string {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "test-access-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server.URL
}

func sessionRequest(target string, cfg config.ServerConfig, sess *session.Session) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if sess != nil {
		req.AddCookie(&http.Cookie{Name: cfg.CookieName, Value: sess.ID})
	}
	return req
}

func TestCallbackHandler(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("provider-error-redirects-home-with-notice", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		env := newTestEnv(t, "https://idp.example.com")
		sess, err := env.store.New(ctx)
		require.NoError(err)

		h := NewCallbackHandler(env.cfg, env.store, env.client, env.logger)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, sessionRequest("/auth/callback?error=access_denied&error_description=User+cancelled", env.cfg, sess))

		assert.Equal(http.StatusFound, rec.Code)
		assert.Equal("/", rec.Header().Get("Location"))

		stored, err := env.store.Get(ctx, sess.ID)
		require.NoError(err)
		require.Len(stored.Flashes, 1)
		assert.Equal(session.FlashError, stored.Flashes[0].Level)
		assert.Contains(stored.Flashes[0].Message, "access_denied")
		assert.Contains(stored.Flashes[0].Message, "User cancelled")
	})

	t.Run("provider-error-without-cookie-still-flashes", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		env := newTestEnv(t, "https://idp.example.com")

		h := NewCallbackHandler(env.cfg, env.store, env.client, env.logger)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, sessionRequest("/auth/callback?error=access_denied&error_description=User+cancelled", env.cfg, nil))

		assert.Equal(http.StatusFound, rec.Code)
		assert.Equal("/", rec.Header().Get("Location"))

		// A session is created on the spot so the notice survives the redirect.
		var sessionID string
		for _, c := range rec.Result().Cookies() {
			if c.Name == env.cfg.CookieName {
				sessionID = c.Value
			}
		}
		require.NotEmpty(sessionID, "a session cookie must be set")

		stored, err := env.store.Get(ctx, sessionID)
		require.NoError(err)
		require.Len(stored.Flashes, 1)
		assert.Contains(stored.Flashes[0].Message, "access_denied")
		assert.Contains(stored.Flashes[0].Message, "User cancelled")
	})

	t.Run("missing-code-without-cookie-still-flashes", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		env := newTestEnv(t, "https://idp.example.com")

		h := NewCallbackHandler(env.cfg, env.store, env.client, env.logger)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, sessionRequest("/auth/callback", env.cfg, nil))

		assert.Equal(http.StatusFound, rec.Code)

		var sessionID string
		for _, c := range rec.Result().Cookies() {
			if c.Name == env.cfg.CookieName {
				sessionID = c.Value
			}
		}
		require.NotEmpty(sessionID, "a session cookie must be set")

		stored, err := env.store.Get(ctx, sessionID)
		require.NoError(err)
		require.Len(stored.Flashes, 1)
		assert.Contains(stored.Flashes[0].Message, "No authorization code")
	})

	t.Run("provider-error-without-description-uses-default", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		env := newTestEnv(t, "https://idp.example.com")
		sess, err := env.store.New(ctx)
		require.NoError(err)

		h := NewCallbackHandler(env.cfg, env.store, env.client, env.logger)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, sessionRequest("/auth/callback?error=server_error", env.cfg, sess))

		stored, err := env.store.Get(ctx, sess.ID)
		require.NoError(err)
		require.Len(stored.Flashes, 1)
		assert.Contains(stored.Flashes[0].Message, "Authentication failed")
	})

	t.Run("missing-code-redirects-home-with-notice", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		env := newTestEnv(t, "https://idp.example.com")
		sess, err := env.store.New(ctx)
		require.NoError(err)

		h := NewCallbackHandler(env.cfg, env.store, env.client, env.logger)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, sessionRequest("/auth/callback", env.cfg, sess))

		assert.Equal(http.StatusFound, rec.Code)
		assert.Equal("/", rec.Header().Get("Location"))

		stored, err := env.store.Get(ctx, sess.ID)
		require.NoError(err)
		require.Len(stored.Flashes, 1)
		assert.Contains(stored.Flashes[0].Message, "No authorization code")
	})

	t.Run("valid-code-authenticates-and-redirects-to-dashboard", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		env := newTestEnv(t, stubTokenEndpoint(t))
		sess, err := env.store.New(ctx)
		require.NoError(err)

		_, err = env.client.AuthorizationURL(ctx, sess, oidc.IntentLogin, nil)
		require.NoError(err)
		state := sess.AuthState

		h := NewCallbackHandler(env.cfg, env.store, env.client, env.logger)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, sessionRequest("/auth/callback?code=valid-code&state="+state, env.cfg, sess))

		assert.Equal(http.StatusFound, rec.Code)
		assert.Equal("/dashboard", rec.Header().Get("Location"))

		stored, err := env.store.Get(ctx, sess.ID)
		require.NoError(err)
		assert.True(env.client.IsAuthenticated(stored))
		require.Len(stored.Flashes, 1)
		assert.Equal(session.FlashSuccess, stored.Flashes[0].Level)
		assert.Equal("Successfully logged in!", stored.Flashes[0].Message)
	})

	t.Run("valid-code-consumes-intended-url", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		env := newTestEnv(t, stubTokenEndpoint(t))
		sess, err := env.store.New(ctx)
		require.NoError(err)

		_, err = env.client.AuthorizationURL(ctx, sess, oidc.IntentLogin, nil)
		require.NoError(err)
		state := sess.AuthState
		require.NoError(env.store.SetIntendedURL(ctx, sess, "http://localhost:8080/dashboard?tab=keys"))

		h := NewCallbackHandler(env.cfg, env.store, env.client, env.logger)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, sessionRequest("/auth/callback?code=valid-code&state="+state, env.cfg, sess))

		assert.Equal(http.StatusFound, rec.Code)
		assert.Equal("http://localhost:8080/dashboard?tab=keys", rec.Header().Get("Location"))

		stored, err := env.store.Get(ctx, sess.ID)
		require.NoError(err)
		assert.Empty(stored.IntendedURL)
	})

	t.Run("mismatched-state-redirects-home", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		env := newTestEnv(t, stubTokenEndpoint(t))
		sess, err := env.store.New(ctx)
		require.NoError(err)

		_, err = env.client.AuthorizationURL(ctx, sess, oidc.IntentLogin, nil)
		require.NoError(err)

		h := NewCallbackHandler(env.cfg, env.store, env.client, env.logger)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, sessionRequest("/auth/callback?code=valid-code&state=forged", env.cfg, sess))

		assert.Equal(http.StatusFound, rec.Code)
		assert.Equal("/", rec.Header().Get("Location"))

		stored, err := env.store.Get(ctx, sess.ID)
		require.NoError(err)
		assert.False(env.client.IsAuthenticated(stored))
	})
}
