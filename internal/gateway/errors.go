// Package gateway maps payloads from external collaborators (payment provider
// notifications and receipt OCR output) into the engine's integer-cent types.
// Nothing past this package sees a floating-point amount.
package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSignature is returned when a payment notification fails verification.
	ErrInvalidSignature = errors.New("invalid notification signature")

	// ErrMalformedPayload marks a payload the caller supplied that cannot be
	// mapped. Retrying the same payload cannot succeed.
	ErrMalformedPayload = errors.New("malformed payload")
)

// ExternalServiceError wraps a failure that originated in a collaborator.
// The engine never retries these.
type ExternalServiceError struct {
	Service string
	Op      string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Service, e.Op, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }
