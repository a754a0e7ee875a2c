package settlement

import (
	"fmt"

	"github.com/mmynk/splitsettle/internal/storage"
)

// NotFoundError reports a payment for a split or participant that does not exist.
type NotFoundError struct {
	Kind string // "split" or "participant"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return storage.ErrNotFound }

// ConcurrencyError reports that a participant changed between read and write.
// The caller may reload and retry.
type ConcurrencyError struct {
	SplitID       string
	ParticipantID string
}

func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("concurrent update to participant %s in split %s", e.ParticipantID, e.SplitID)
}

func (e *ConcurrencyError) Unwrap() error { return storage.ErrStaleWrite }
