package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tidehaven/authportal/internal/config"
	"github.com/tidehaven/authportal/internal/oidc"
	"github.com/tidehaven/authportal/internal/session"
	"github.com/tidehaven/authportal/pkg/security"
)

type contextKey string

const SessionContextKey contextKey = "session"

// Auth gates protected routes. Each request is evaluated fresh: either the
// session holds a valid token and the request proceeds, or the request is
// turned away — as a login redirect for browsers, as a 401 for clients
// expecting JSON.
type Auth struct {
	cfg    config.ServerConfig
	store  *session.Store
	client *oidc.Client
	logger *slog.Logger
}

func NewAuth(cfg config.ServerConfig, store *session.Store, client *oidc.Client, logger *slog.Logger) *Auth {
	return &Auth{
		cfg:    cfg,
		store:  store,
		client: client,
		logger: logger,
	}
}

func (am *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := am.loadSession(r)

		if am.client.IsAuthenticated(sess) {
			ctx := context.WithValue(r.Context(), SessionContextKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		if expectsJSON(r) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Unauthenticated"})
			return
		}

		if sess == nil {
			var err error
			sess, err = am.store.New(r.Context())
			if err != nil {
				am.logger.Error("failed to create session", "error", err)
				http.Redirect(w, r, "/auth/login", http.StatusFound)
				return
			}
			http.SetCookie(w, security.CreateSessionCookie(am.cfg, sess.ID, am.cfg.SessionTTL))
		}

		if r.Method == http.MethodGet {
			if err := am.store.SetIntendedURL(r.Context(), sess, am.cfg.BaseURL+r.URL.RequestURI()); err != nil {
				am.logger.Warn("failed to record intended URL", "error", err)
			}
		}

		if err := am.store.AddFlash(r.Context(), sess, session.FlashError, "Please log in to access this page."); err != nil {
			am.logger.Warn("failed to add flash", "error", err)
		}

		http.Redirect(w, r, "/auth/login", http.StatusFound)
	})
}

func (am *Auth) loadSession(r *http.Request) *session.Session {
	cookie, err := security.GetSessionCookie(r, am.cfg.CookieName)
	if err != nil {
		return nil
	}

	sess, err := am.store.Get(r.Context(), cookie.Value)
	if err != nil {
		am.logger.Debug("session not found", "session_id", cookie.Value)
		return nil
	}

	return sess
}

// GetSession returns the authenticated session attached by RequireAuth.
func GetSession(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(SessionContextKey).(*session.Session)
	return sess, ok
}

// expectsJSON reports whether the client wants a structured response
// rather than a browser redirect.
func expectsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return r.Header.Get("X-Requested-With") == "XMLHttpRequest"
}
