package models

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when a status would move backward or skip a step.
var ErrInvalidTransition = errors.New("invalid status transition")

// Method selects how a split's total is divided among its participants.
type Method string

const (
	MethodEqual      Method = "equal"
	MethodCustom     Method = "custom"
	MethodPercentage Method = "percentage"
	MethodReceipt    Method = "receipt"
)

// Valid reports whether m is one of the supported methods.
func (m Method) Valid() bool {
	switch m {
	case MethodEqual, MethodCustom, MethodPercentage, MethodReceipt:
		return true
	}
	return false
}

// SplitStatus is the lifecycle state of a split.
type SplitStatus string

const (
	SplitDraft   SplitStatus = "draft"
	SplitActive  SplitStatus = "active"
	SplitSettled SplitStatus = "settled"
)

func (s SplitStatus) rank() int {
	switch s {
	case SplitDraft:
		return 0
	case SplitActive:
		return 1
	case SplitSettled:
		return 2
	}
	return -1
}

// CanAdvanceTo reports whether moving from s to next is a single forward step.
// Re-applying the current status is allowed so repeated settlement checks stay idempotent.
func (s SplitStatus) CanAdvanceTo(next SplitStatus) bool {
	from, to := s.rank(), next.rank()
	if from < 0 || to < 0 {
		return false
	}
	return to == from || to == from+1
}

// ParticipantStatus is the payment state of one participant.
type ParticipantStatus string

const (
	ParticipantPending ParticipantStatus = "pending"
	ParticipantPaid    ParticipantStatus = "paid"
)

// Split represents a single bill-sharing transaction.
type Split struct {
	// ID is the unique identifier for the split (UUID format).
	ID string

	// Title is the human-readable name for the split.
	// Auto-generated from participants when left empty.
	Title string

	// TotalCents is the full bill amount in minor currency units.
	TotalCents int64

	// Method is the allocation method used to derive each participant's share.
	Method Method

	// CreatorID is the user who created the split.
	CreatorID string

	// Status is draft while being composed, active once persisted and settled
	// once every participant has paid.
	Status SplitStatus

	// CreatedAt is the Unix timestamp when the split was created.
	CreatedAt int64

	// Participants is the ordered list of obligated people.
	Participants []Participant

	// Receipt holds the itemized input for receipt splits; nil for other methods.
	Receipt *Receipt
}

// Participant is one person obligated by a split.
type Participant struct {
	// ID maps to a registered user or an unregistered invitee.
	ID string

	// DisplayName is shown to other participants.
	DisplayName string

	// AmountOwed is this participant's share in cents.
	AmountOwed int64

	// AmountPaid is the total received from this participant in cents.
	// It keeps overpayments for audit and never decreases.
	AmountPaid int64

	// Status flips from pending to paid once AmountPaid >= AmountOwed.
	Status ParticipantStatus

	// Version is incremented by every persisted update and used for compare-and-set.
	Version int64

	// UpdatedAt is the Unix timestamp of the last persisted update.
	UpdatedAt int64
}

// ParticipantIDs returns the participant ids in split order.
func (s *Split) ParticipantIDs() []string {
	ids := make([]string, len(s.Participants))
	for i, p := range s.Participants {
		ids[i] = p.ID
	}
	return ids
}

// Participant returns the participant with the given id, or nil.
func (s *Split) Participant(id string) *Participant {
	for i := range s.Participants {
		if s.Participants[i].ID == id {
			return &s.Participants[i]
		}
	}
	return nil
}

// Advance moves the split to next, refusing backward or skipping transitions.
func (s *Split) Advance(next SplitStatus) error {
	if !s.Status.CanAdvanceTo(next) {
		return fmt.Errorf("%w: split %s from %s to %s", ErrInvalidTransition, s.ID, s.Status, next)
	}
	s.Status = next
	return nil
}
