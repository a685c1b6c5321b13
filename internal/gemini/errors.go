package gemini

import (
	"errors"
	"fmt"
)

// Kind classifies adapter failures so callers can branch on a structured
// error code instead of matching upstream message text.
type Kind string

const (
	// KindGeneration means the capability answered but returned no usable
	// media payload.
	KindGeneration Kind = "generation"
	// KindTransport covers network and HTTP failures reaching the capability.
	KindTransport Kind = "transport"
	// KindCredentialExpired marks the upstream rejection that indicates the
	// selected API key is invalid or its session has expired.
	KindCredentialExpired Kind = "credential_expired"
	// KindTimeout marks a render that outlived its deadline.
	KindTimeout Kind = "timeout"
)

// Error wraps a failure of one adapter operation with its classification.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("gemini: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the classification from an error chain. It returns the
// empty Kind for errors that did not originate in this package.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return ""
}
