package handlers

import (
	"log/slog"
	"net/http"

	"github.com/tidehaven/authportal/internal/config"
	"github.com/tidehaven/authportal/internal/oidc"
	"github.com/tidehaven/authportal/internal/session"
)

// HomeHandler serves the landing page: authenticated users go straight to
// the dashboard, everyone else gets the welcome page.
type HomeHandler struct {
	cfg    config.ServerConfig
	store  *session.Store
	client *oidc.Client
	view   *View
	logger *slog.Logger
}

func NewHomeHandler(cfg config.ServerConfig, store *session.Store, client *oidc.Client, view *View, logger *slog.Logger) *HomeHandler {
	return &HomeHandler{
		cfg:    cfg,
		store:  store,
		client: client,
		view:   view,
		logger: logger,
	}
}

func (h *HomeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sess := loadSession(r, h.cfg, h.store)

	if h.client.IsAuthenticated(sess) {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}

	data := PageData{Title: "Welcome"}
	if sess != nil {
		flashes, err := h.store.ConsumeFlashes(r.Context(), sess)
		if err != nil {
			h.logger.Warn("failed to consume flashes", "error", err)
		}
		data.Flashes = flashes
	}

	if err := h.view.Render(w, "welcome", data); err != nil {
		h.logger.Error("failed to render welcome page", "error", err)
	}
}
