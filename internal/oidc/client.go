package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/hashicorp/go-cleanhttp"
	"golang.org/x/oauth2"

	"github.com/tidehaven/authportal/internal/config"
	"github.com/tidehaven/authportal/internal/session"
)

// Intent selects which hosted page the provider presents first.
type Intent string

const (
	IntentLogin    Intent = "login"
	IntentRegister Intent = "register"
)

func (i Intent) startPage() string {
	if i == IntentRegister {
		return "registration"
	}
	return "login"
}

// Client drives the authorization-code flow against a single hosted
// provider. It holds no per-user state itself; everything it tracks lives
// in the session store.
type Client struct {
	cfg      config.ProviderConfig
	store    *session.Store
	oauth    oauth2.Config
	verifier *gooidc.IDTokenVerifier
	http     *http.Client
	logger   *slog.Logger

	userinfoURL string
	logoutURL   string
}

func NewClient(cfg config.ProviderConfig, store *session.Store, logger *slog.Logger) *Client {
	httpClient := cleanhttp.DefaultPooledClient()
	httpClient.Timeout = cfg.Timeout

	keySet := gooidc.NewRemoteKeySet(
		gooidc.ClientContext(context.Background(), httpClient),
		cfg.Domain+"/.well-known/jwks",
	)

	return &Client{
		cfg:   cfg,
		store: store,
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.Domain + "/oauth2/auth",
				TokenURL: cfg.Domain + "/oauth2/token",
			},
		},
		verifier: gooidc.NewVerifier(cfg.Domain, keySet, &gooidc.Config{
			ClientID: cfg.ClientID,
		}),
		http:        httpClient,
		logger:      logger,
		userinfoURL: cfg.Domain + "/oauth2/user_profile",
		logoutURL:   cfg.Domain + "/logout",
	}
}

// AuthorizationURL builds the provider's authorize URL for the given intent.
// A fresh state value is generated and persisted on the session before the
// URL is returned; a second call replaces the pending state.
func (c *Client) AuthorizationURL(ctx context.Context, sess *session.Session, intent Intent, extra map[string]string) (string, error) {
	state := uuid.New().String()

	sess.AuthState = state
	sess.AuthIntent = string(intent)
	if err := c.store.Put(ctx, sess); err != nil {
		return "", fmt.Errorf("failed to persist auth state: %w", err)
	}

	opts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("start_page", intent.startPage()),
	}
	for k, v := range extra {
		opts = append(opts, oauth2.SetAuthURLParam(k, v))
	}

	return c.oauth.AuthCodeURL(state, opts...), nil
}

// Exchange trades an authorization code for tokens. The state must match
// the session's pending value; on mismatch no network call is made. On
// success the token set is persisted and the pending state cleared, so a
// replay of the same callback fails the state check.
//
// A failed exchange must not be retried with the same code; the provider
// invalidates a code on first use.
func (c *Client) Exchange(ctx context.Context, sess *session.Session, code, state string) error {
	if sess.AuthState == "" || state != sess.AuthState {
		return ErrStateMismatch
	}

	token, err := c.oauth.Exchange(gooidc.ClientContext(ctx, c.http), code)
	if err != nil {
		return classifyExchangeError(err)
	}

	if token.AccessToken == "" {
		return fmt.Errorf("no access token in response: %w", ErrMalformedResponse)
	}

	if rawIDToken, ok := token.Extra("id_token").(string); ok && rawIDToken != "" {
		idToken, err := c.verifier.Verify(gooidc.ClientContext(ctx, c.http), rawIDToken)
		if err != nil {
			return fmt.Errorf("ID token verification failed: %w", ErrMalformedResponse)
		}

		var profile session.Profile
		if err := idToken.Claims(&profile); err == nil && profile.Subject != "" {
			sess.Profile = &profile
		}
		sess.IDToken = rawIDToken
	}

	sess.AccessToken = token.AccessToken
	sess.RefreshToken = token.RefreshToken
	sess.TokenExpiry = token.Expiry
	sess.AuthState = ""
	sess.AuthIntent = ""

	if err := c.store.Put(ctx, sess); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	return nil
}

// IsAuthenticated reports whether the session holds a non-expired access
// token. Purely local; never touches the network.
func (c *Client) IsAuthenticated(sess *session.Session) bool {
	if sess == nil || sess.AccessToken == "" {
		return false
	}
	if !sess.TokenExpiry.IsZero() && time.Now().After(sess.TokenExpiry) {
		return false
	}
	return true
}

// UserProfile returns the identity claims for an authenticated session,
// fetching and caching them from the userinfo endpoint on first use.
// Returns nil when unauthenticated or when the fetch fails; the two cases
// are deliberately indistinguishable to callers.
func (c *Client) UserProfile(ctx context.Context, sess *session.Session) *session.Profile {
	if !c.IsAuthenticated(sess) {
		return nil
	}

	if sess.Profile != nil {
		return sess.Profile
	}

	profile, err := c.fetchUserinfo(ctx, sess.AccessToken)
	if err != nil {
		c.logger.Debug("userinfo fetch failed", "error", err)
		return nil
	}

	sess.Profile = profile
	if err := c.store.Put(ctx, sess); err != nil {
		c.logger.Debug("failed to cache profile in session", "error", err)
	}

	return profile
}

// HasPermission reports whether the session's access token grants the
// named permission. False for unauthenticated sessions without any
// network call; any lookup failure also yields false, never an error.
func (c *Client) HasPermission(ctx context.Context, sess *session.Session, permission string) bool {
	if !c.IsAuthenticated(sess) {
		return false
	}

	// The access token came first-hand from the token endpoint over TLS,
	// so its permissions claim is read without re-verifying the signature.
	var claims accessTokenClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(sess.AccessToken, &claims); err != nil {
		c.logger.Debug("permission check failed", "permission", permission, "error", err)
		return false
	}

	return slices.Contains(claims.Permissions, permission)
}

// LogoutURL builds the provider's logout URL with the post-logout redirect.
// The session's tokens are cleared immediately; the local logout does not
// depend on the user completing the provider-side redirect.
func (c *Client) LogoutURL(ctx context.Context, sess *session.Session) (string, error) {
	sess.ClearTokens()
	if err := c.store.Put(ctx, sess); err != nil {
		return "", fmt.Errorf("failed to persist session: %w", err)
	}

	u, err := url.Parse(c.logoutURL)
	if err != nil {
		return "", fmt.Errorf("invalid logout URL: %w", err)
	}

	q := u.Query()
	q.Set("redirect", c.cfg.PostLogoutRedirectURL)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

type accessTokenClaims struct {
	jwt.RegisteredClaims
	Permissions []string `json:"permissions"`
}

func (c *Client) fetchUserinfo(ctx context.Context, accessToken string) (*session.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userinfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo endpoint returned %d", resp.StatusCode)
	}

	var profile session.Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo response: %w", err)
	}

	return &profile, nil
}

func classifyExchangeError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		if retrieveErr.ErrorCode != "" {
			return &ProviderError{
				Code:        retrieveErr.ErrorCode,
				Description: retrieveErr.ErrorDescription,
			}
		}
		return fmt.Errorf("token endpoint returned %d: %w", retrieveErr.Response.StatusCode, ErrMalformedResponse)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%v: %w", urlErr, ErrNetworkFailure)
	}

	return fmt.Errorf("%v: %w", err, ErrMalformedResponse)
}
