package adapter

import (
	"errors"
	"fmt"
)

// CredentialEnvVar is the environment variable consulted when no explicit
// credential is configured.
const CredentialEnvVar = "OPENAI_API_KEY"

var (
	// ErrMissingCredential is returned by New when neither the configuration
	// nor the environment yields an API key. The adapter is not constructed.
	ErrMissingCredential = errors.New("no API credential found: set " + CredentialEnvVar + " or pass Config.APIKey")

	// ErrInvalidInputType is matched by every InputTypeError.
	ErrInvalidInputType = errors.New("invalid input type")

	// ErrEmptyChoices is returned when the remote reply has no choices.
	ErrEmptyChoices = errors.New("completion reply contains no choices")
)

// InputTypeError reports an Invoke input that is not a string, a
// domain.Message or a []domain.Message.
type InputTypeError struct {
	// Got is the Go type of the rejected input.
	Got string

	// Index is the offending element for sequence inputs, -1 otherwise.
	Index int
}

func (e *InputTypeError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s: element %d is %s, want domain.Message", ErrInvalidInputType, e.Index, e.Got)
	}
	return fmt.Sprintf("%s %s: want string, domain.Message or []domain.Message", ErrInvalidInputType, e.Got)
}

func (e *InputTypeError) Unwrap() error {
	return ErrInvalidInputType
}

// IsInvalidInputType checks if an error was caused by an unsupported input shape.
func IsInvalidInputType(err error) bool {
	return errors.Is(err, ErrInvalidInputType)
}

// IsMissingCredential checks if an error is ErrMissingCredential.
func IsMissingCredential(err error) bool {
	return errors.Is(err, ErrMissingCredential)
}
