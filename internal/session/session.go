package session

import "time"

// Profile is the identity claims snapshot cached after login.
type Profile struct {
	Subject    string `json:"sub"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Email      string `json:"email"`
	Picture    string `json:"picture,omitempty"`
}

func (p Profile) FullName() string {
	switch {
	case p.GivenName != "" && p.FamilyName != "":
		return p.GivenName + " " + p.FamilyName
	case p.GivenName != "":
		return p.GivenName
	default:
		return p.FamilyName
	}
}

// Flash is a one-shot notice rendered on the next page view.
type Flash struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

const (
	FlashSuccess = "success"
	FlashError   = "error"
)

type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	IDToken      string    `json:"id_token,omitempty"`
	TokenExpiry  time.Time `json:"token_expiry,omitempty"`

	// AuthState is the anti-forgery value for the login attempt in flight;
	// empty when no authorization request is pending.
	AuthState  string `json:"auth_state,omitempty"`
	AuthIntent string `json:"auth_intent,omitempty"`

	Profile *Profile `json:"profile,omitempty"`

	IntendedURL string  `json:"intended_url,omitempty"`
	Flashes     []Flash `json:"flashes,omitempty"`
}

// ClearTokens drops everything tied to the authenticated state. The session
// record itself survives so flashes set during logout still render.
func (s *Session) ClearTokens() {
	s.AccessToken = ""
	s.RefreshToken = ""
	s.IDToken = ""
	s.TokenExpiry = time.Time{}
	s.Profile = nil
}
