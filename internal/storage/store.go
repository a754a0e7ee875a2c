// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splitsettle/internal/models"
)

var (
	// ErrNotFound is returned when a split or participant does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStaleWrite is returned when a compare-and-set finds a newer version.
	ErrStaleWrite = errors.New("stale write")

	// ErrDuplicateEvent is returned when a payment event id was already recorded.
	ErrDuplicateEvent = errors.New("duplicate payment event")
)

// PaymentUpdate is one atomic payment application: the audit record is
// inserted and the participant row is compare-and-set in the same transaction.
type PaymentUpdate struct {
	Event models.PaymentEvent

	// Participant carries the new AmountPaid and Status.
	Participant models.Participant

	// ExpectedVersion is the Version the participant had when it was read.
	ExpectedVersion int64
}

// Store defines the interface for split storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	// CreateSplit persists a validated split together with its participants
	// and receipt. split.ID and split.CreatedAt are populated when empty.
	CreateSplit(ctx context.Context, split *models.Split) error

	// GetSplit retrieves a split with participants in their original order.
	// Returns an error wrapping ErrNotFound if the split does not exist.
	GetSplit(ctx context.Context, splitID string) (*models.Split, error)

	// ListSplitsByCreator returns the creator's splits, newest first.
	ListSplitsByCreator(ctx context.Context, creatorID string) ([]*models.Split, error)

	// ApplyPayment records the event and updates the participant atomically.
	// Returns ErrDuplicateEvent if the event id exists and ErrStaleWrite if
	// the participant's version moved.
	ApplyPayment(ctx context.Context, update PaymentUpdate) error

	// MarkSettled moves an active split to settled. It is a no-op for a split
	// that is already settled.
	MarkSettled(ctx context.Context, splitID string) error

	// HasPayment reports whether an event id has been recorded.
	HasPayment(ctx context.Context, eventID string) (bool, error)

	// ListPayments returns the payment audit trail for a split, oldest first.
	ListPayments(ctx context.Context, splitID string) ([]*models.Payment, error)

	// Close releases any resources held by the store.
	Close() error
}
