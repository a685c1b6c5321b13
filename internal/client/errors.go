package client

import "errors"

// Kind mirrors the machine codes the gateway attaches to failure payloads.
type Kind string

const (
	KindValidation        Kind = "bad_request"
	KindGeneration        Kind = "generation"
	KindTransport         Kind = "transport"
	KindCredentialExpired Kind = "credential_expired"
	KindTimeout           Kind = "timeout"
)

// Error carries a user-presentable message plus its classification.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the classification from an error chain, or the empty Kind
// for errors that did not come from this package.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}
