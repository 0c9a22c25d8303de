package handlers

import (
	"log/slog"
	"net/http"

	"github.com/tidehaven/authportal/internal/config"
	"github.com/tidehaven/authportal/internal/session"
	"github.com/tidehaven/authportal/pkg/security"
)

// loadSession resolves the request's session from its cookie. Returns nil
// when there is no cookie or the session has expired out of the store.
func loadSession(r *http.Request, cfg config.ServerConfig, store *session.Store) *session.Session {
	cookie, err := security.GetSessionCookie(r, cfg.CookieName)
	if err != nil {
		return nil
	}

	sess, err := store.Get(r.Context(), cookie.Value)
	if err != nil {
		return nil
	}

	return sess
}

// ensureSession resolves the request's session, creating one and setting
// its cookie when none exists yet.
func ensureSession(w http.ResponseWriter, r *http.Request, cfg config.ServerConfig, store *session.Store) (*session.Session, error) {
	if sess := loadSession(r, cfg, store); sess != nil {
		return sess, nil
	}

	sess, err := store.New(r.Context())
	if err != nil {
		return nil, err
	}

	http.SetCookie(w, security.CreateSessionCookie(cfg, sess.ID, cfg.SessionTTL))
	return sess, nil
}

// flashAndRedirect queues a notice and sends the browser on. Used for the
// post-callback and gate paths where the user sees the notice on arrival.
func flashAndRedirect(w http.ResponseWriter, r *http.Request, store *session.Store, sess *session.Session, logger *slog.Logger, level, message, target string) {
	if sess != nil {
		if err := store.AddFlash(r.Context(), sess, level, message); err != nil {
			logger.Warn("failed to add flash", "error", err)
		}
	}
	http.Redirect(w, r, target, http.StatusFound)
}
