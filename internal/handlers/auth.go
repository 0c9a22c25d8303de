package handlers

import (
	"log/slog"
	"net/http"

	"github.com/tidehaven/authportal/internal/config"
	"github.com/tidehaven/authportal/internal/oidc"
	"github.com/tidehaven/authportal/internal/session"
)

// AuthHandler initiates the authorization-code flow by redirecting to the
// provider's hosted login or registration page.
type AuthHandler struct {
	cfg    config.ServerConfig
	store  *session.Store
	client *oidc.Client
	logger *slog.Logger
}

func NewAuthHandler(cfg config.ServerConfig, store *session.Store, client *oidc.Client, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		cfg:    cfg,
		store:  store,
		client: client,
		logger: logger,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.initiate(w, r, oidc.IntentLogin)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	h.initiate(w, r, oidc.IntentRegister)
}

func (h *AuthHandler) initiate(w http.ResponseWriter, r *http.Request, intent oidc.Intent) {
	sess, err := ensureSession(w, r, h.cfg, h.store)
	if err != nil {
		h.logger.Error("failed to create session", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	authURL, err := h.client.AuthorizationURL(r.Context(), sess, intent, nil)
	if err != nil {
		h.logger.Error("failed to build authorization URL", "intent", intent, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}
