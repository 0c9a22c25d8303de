package handlers

import (
	"log/slog"
	"net/http"

	"github.com/tidehaven/authportal/internal/middleware"
	"github.com/tidehaven/authportal/internal/oidc"
	"github.com/tidehaven/authportal/internal/session"
)

// DashboardHandler renders the protected dashboard. It runs behind the
// auth gate, so the session in context is always authenticated; the
// profile may still be absent if the userinfo fetch failed.
type DashboardHandler struct {
	store  *session.Store
	client *oidc.Client
	view   *View
	logger *slog.Logger
}

func NewDashboardHandler(store *session.Store, client *oidc.Client, view *View, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		store:  store,
		client: client,
		view:   view,
		logger: logger,
	}
}

func (h *DashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		http.Redirect(w, r, "/auth/login", http.StatusFound)
		return
	}

	flashes, err := h.store.ConsumeFlashes(r.Context(), sess)
	if err != nil {
		h.logger.Warn("failed to consume flashes", "error", err)
	}

	data := PageData{
		Title:           "Dashboard",
		IsAuthenticated: true,
		Profile:         h.client.UserProfile(r.Context(), sess),
		Flashes:         flashes,
	}

	if err := h.view.Render(w, "dashboard", data); err != nil {
		h.logger.Error("failed to render dashboard", "error", err)
	}
}
