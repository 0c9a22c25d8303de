package oidc

import (
	"errors"
	"fmt"
)

// Authentication-critical failures surfaced by the code exchange and the
// callback triage. Callers branch with errors.Is; the concrete kind is for
// logging, the end user only ever sees a generic notice.
var (
	// ErrStateMismatch reports a callback whose state parameter does not
	// match the value stored for the initiating session.
	ErrStateMismatch = errors.New("state parameter does not match session")

	// ErrMissingCode reports a callback carrying neither a code nor an
	// error parameter.
	ErrMissingCode = errors.New("no authorization code in callback")

	// ErrProviderRejected reports an OAuth error response from the
	// provider. Wrapped by ProviderError, which carries the details.
	ErrProviderRejected = errors.New("provider rejected the request")

	// ErrNetworkFailure reports a transport-level failure reaching the
	// provider.
	ErrNetworkFailure = errors.New("provider unreachable")

	// ErrMalformedResponse reports a provider response that could not be
	// parsed into a token set.
	ErrMalformedResponse = errors.New("malformed provider response")
)

// ProviderError carries the provider's OAuth error code and description.
type ProviderError struct {
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("provider rejected the request: %s", e.Code)
	}
	return fmt.Sprintf("provider rejected the request: %s - %s", e.Code, e.Description)
}

func (e *ProviderError) Is(target error) bool {
	return target == ErrProviderRejected
}
