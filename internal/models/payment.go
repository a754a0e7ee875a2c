package models

// PaymentEvent is a payment-completion notification for one participant.
// EventID is the provider's idempotency key; re-delivery of the same id is a no-op.
type PaymentEvent struct {
	EventID       string
	SplitID       string
	ParticipantID string
	AmountCents   int64

	// ReceivedAt is the Unix timestamp reported by the provider (or arrival time).
	ReceivedAt int64

	// Source names the channel the event came from (e.g., "midtrans", "manual").
	Source string
}

// Payment is the persisted audit record of an applied PaymentEvent.
type Payment struct {
	// ID is the unique identifier for the record (UUID format).
	ID string

	EventID       string
	SplitID       string
	ParticipantID string
	AmountCents   int64
	ReceivedAt    int64
	Source        string

	// CreatedAt is the Unix timestamp when the payment was recorded.
	CreatedAt int64
}
