package calculator

import "fmt"

// Reason classifies a ValidationError.
type Reason string

const (
	ReasonNoParticipants        Reason = "NoParticipants"
	ReasonInvalidTotal          Reason = "InvalidTotal"
	ReasonPercentageSumMismatch Reason = "PercentageSumMismatch"
	ReasonInvalidPercentage     Reason = "InvalidPercentage"
	ReasonSumMismatch           Reason = "SumMismatch"
	ReasonNegativeShare         Reason = "NegativeShare"
	ReasonDuplicateParticipant  Reason = "DuplicateParticipant"
	ReasonUnknownParticipant    Reason = "UnknownParticipant"
	ReasonMissingShare          Reason = "MissingShare"
	ReasonUnassignedItem        Reason = "UnassignedItem"
	ReasonInvalidItem           Reason = "InvalidItem"
	ReasonSubtotalMismatch      Reason = "SubtotalMismatch"
	ReasonUnknownMethod         Reason = "UnknownMethod"
	ReasonInvalidPayment        Reason = "InvalidPayment"
	ReasonMissingEventID        Reason = "MissingEventID"
)

// ValidationError reports input that cannot produce a consistent split.
// It is always surfaced to the caller and never corrected silently.
type ValidationError struct {
	Reason Reason
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Reason, e.Detail)
}

// Is matches any ValidationError with the same reason, so
// errors.Is(err, ErrUnassignedItem) works regardless of detail.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Reason == e.Reason
}

func invalid(reason Reason, format string, args ...any) *ValidationError {
	return &ValidationError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

var (
	ErrNoParticipants        = &ValidationError{Reason: ReasonNoParticipants}
	ErrInvalidTotal          = &ValidationError{Reason: ReasonInvalidTotal}
	ErrPercentageSumMismatch = &ValidationError{Reason: ReasonPercentageSumMismatch}
	ErrInvalidPercentage     = &ValidationError{Reason: ReasonInvalidPercentage}
	ErrSumMismatch           = &ValidationError{Reason: ReasonSumMismatch}
	ErrNegativeShare         = &ValidationError{Reason: ReasonNegativeShare}
	ErrDuplicateParticipant  = &ValidationError{Reason: ReasonDuplicateParticipant}
	ErrUnknownParticipant    = &ValidationError{Reason: ReasonUnknownParticipant}
	ErrMissingShare          = &ValidationError{Reason: ReasonMissingShare}
	ErrUnassignedItem        = &ValidationError{Reason: ReasonUnassignedItem}
	ErrInvalidItem           = &ValidationError{Reason: ReasonInvalidItem}
	ErrSubtotalMismatch      = &ValidationError{Reason: ReasonSubtotalMismatch}
	ErrUnknownMethod         = &ValidationError{Reason: ReasonUnknownMethod}
	ErrInvalidPayment        = &ValidationError{Reason: ReasonInvalidPayment}
	ErrMissingEventID        = &ValidationError{Reason: ReasonMissingEventID}
)
