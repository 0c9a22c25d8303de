package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tidehaven/authportal/internal/config"
	"github.com/tidehaven/authportal/internal/oidc"
	"github.com/tidehaven/authportal/internal/session"
)

// CallbackHandler completes the authorization-code flow. Provider-reported
// errors and missing codes short-circuit before any token exchange; a
// failed exchange sends the user home with a generic notice while the
// specific failure is logged.
type CallbackHandler struct {
	cfg    config.ServerConfig
	store  *session.Store
	client *oidc.Client
	logger *slog.Logger
}

func NewCallbackHandler(cfg config.ServerConfig, store *session.Store, client *oidc.Client, logger *slog.Logger) *CallbackHandler {
	return &CallbackHandler{
		cfg:    cfg,
		store:  store,
		client: client,
		logger: logger,
	}
}

func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	// Visitors can land here without a cookie (bookmarked callback URL,
	// cleared cookies mid-flow); the notice still needs somewhere to live.
	sess, err := ensureSession(w, r, h.cfg, h.store)
	if err != nil {
		h.logger.Error("failed to create session", "error", err)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	if errCode := query.Get("error"); errCode != "" {
		description := query.Get("error_description")
		if description == "" {
			description = "Authentication failed"
		}

		h.logger.Warn("provider returned error on callback", "error", errCode, "description", description)
		flashAndRedirect(w, r, h.store, sess, h.logger, session.FlashError,
			fmt.Sprintf("Authentication error: %s - %s", errCode, description), "/")
		return
	}

	code := query.Get("code")
	if code == "" {
		h.logger.Warn("callback missing authorization code", "error", oidc.ErrMissingCode)
		flashAndRedirect(w, r, h.store, sess, h.logger, session.FlashError,
			"No authorization code received from the provider", "/")
		return
	}

	if err := h.client.Exchange(r.Context(), sess, code, query.Get("state")); err != nil {
		h.logger.Error("code exchange failed", "error", err)
		flashAndRedirect(w, r, h.store, sess, h.logger, session.FlashError,
			"Failed to authenticate with the identity provider", "/")
		return
	}

	target, err := h.store.ConsumeIntendedURL(r.Context(), sess)
	if err != nil {
		h.logger.Warn("failed to consume intended URL", "error", err)
	}
	if target == "" {
		target = "/dashboard"
	}

	flashAndRedirect(w, r, h.store, sess, h.logger, session.FlashSuccess,
		"Successfully logged in!", target)
}
