package handlers

import (
	"log/slog"
	"net/http"

	"github.com/tidehaven/authportal/internal/config"
	"github.com/tidehaven/authportal/internal/oidc"
	"github.com/tidehaven/authportal/internal/session"
	"github.com/tidehaven/authportal/pkg/security"
)

// LogoutHandler ends the local session and hands the browser to the
// provider's logout endpoint. The local logout is effective immediately,
// whether or not the provider redirect completes.
type LogoutHandler struct {
	cfg    config.ServerConfig
	store  *session.Store
	client *oidc.Client
	logger *slog.Logger
}

func NewLogoutHandler(cfg config.ServerConfig, store *session.Store, client *oidc.Client, logger *slog.Logger) *LogoutHandler {
	return &LogoutHandler{
		cfg:    cfg,
		store:  store,
		client: client,
		logger: logger,
	}
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sess := loadSession(r, h.cfg, h.store)
	if sess == nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	logoutURL, err := h.client.LogoutURL(r.Context(), sess)
	if err != nil {
		h.logger.Error("failed to build logout URL", "error", err)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	if err := h.store.Delete(r.Context(), sess.ID); err != nil {
		h.logger.Warn("failed to delete session", "session_id", sess.ID, "error", err)
	}
	http.SetCookie(w, security.ClearSessionCookie(h.cfg))

	h.logger.Info("user logged out", "session_id", sess.ID)

	http.Redirect(w, r, logoutURL, http.StatusFound)
}
