package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmynk/splitsettle/internal/calculator"
	"github.com/mmynk/splitsettle/internal/idempotency"
	"github.com/mmynk/splitsettle/internal/metrics"
	"github.com/mmynk/splitsettle/internal/models"
	"github.com/mmynk/splitsettle/internal/storage"
)

// Tracker records payment events against persisted splits.
//
// It keeps no state of its own. Each participant update is a compare-and-set
// in the store, and settlement is recomputed from the full participant set
// after every write and on every read.
type Tracker struct {
	store   storage.Store
	guard   idempotency.Guard
	metrics *metrics.Metrics
}

// NewTracker creates a Tracker. guard and m may be nil.
func NewTracker(store storage.Store, guard idempotency.Guard, m *metrics.Metrics) *Tracker {
	return &Tracker{store: store, guard: guard, metrics: m}
}

// RecordPayment applies ev to its participant and returns the resulting split.
//
// A re-delivered event id is a no-op that returns the current split. A
// *ConcurrencyError means the participant moved underneath us; nothing was
// written and the caller may retry.
func (t *Tracker) RecordPayment(ctx context.Context, ev models.PaymentEvent) (*models.Split, error) {
	if ev.EventID == "" {
		t.metrics.Payment(metrics.OutcomeRejected)
		return nil, &calculator.ValidationError{Reason: calculator.ReasonMissingEventID, Detail: "payment event has no id"}
	}
	if ev.AmountCents <= 0 {
		t.metrics.Payment(metrics.OutcomeRejected)
		return nil, &calculator.ValidationError{
			Reason: calculator.ReasonInvalidPayment,
			Detail: fmt.Sprintf("amount must be positive, got %d", ev.AmountCents),
		}
	}

	if t.seen(ctx, ev.EventID) {
		slog.Debug("duplicate payment event", "event_id", ev.EventID, "split_id", ev.SplitID)
		t.metrics.Payment(metrics.OutcomeDuplicate)
		return t.Snapshot(ctx, ev.SplitID)
	}

	split, err := t.load(ctx, ev.SplitID)
	if err != nil {
		return nil, err
	}
	if split.Status == models.SplitDraft {
		t.metrics.Payment(metrics.OutcomeRejected)
		return nil, &calculator.ValidationError{
			Reason: calculator.ReasonInvalidPayment,
			Detail: fmt.Sprintf("split %s is still a draft", split.ID),
		}
	}

	current := split.Participant(ev.ParticipantID)
	if current == nil {
		t.metrics.Payment(metrics.OutcomeRejected)
		return nil, &NotFoundError{Kind: "participant", ID: ev.ParticipantID}
	}

	err = t.store.ApplyPayment(ctx, storage.PaymentUpdate{
		Event:           ev,
		Participant:     ApplyPayment(*current, ev.AmountCents),
		ExpectedVersion: current.Version,
	})
	switch {
	case errors.Is(err, storage.ErrDuplicateEvent):
		slog.Debug("duplicate payment event", "event_id", ev.EventID, "split_id", ev.SplitID)
		t.metrics.Payment(metrics.OutcomeDuplicate)
		t.mark(ctx, ev.EventID)
		return t.Snapshot(ctx, ev.SplitID)
	case errors.Is(err, storage.ErrStaleWrite):
		t.metrics.Payment(metrics.OutcomeStale)
		return nil, &ConcurrencyError{SplitID: ev.SplitID, ParticipantID: ev.ParticipantID}
	case err != nil:
		t.metrics.Payment(metrics.OutcomeError)
		return nil, fmt.Errorf("failed to apply payment %s: %w", ev.EventID, err)
	}

	t.metrics.Payment(metrics.OutcomeApplied)
	t.mark(ctx, ev.EventID)
	slog.Info("payment applied",
		"event_id", ev.EventID,
		"split_id", ev.SplitID,
		"participant_id", ev.ParticipantID,
		"amount_cents", ev.AmountCents,
	)

	return t.Snapshot(ctx, ev.SplitID)
}

// Snapshot loads the split and settles it if every participant has paid.
// Settlement only ever moves forward, so a snapshot taken after a late or
// re-delivered event never reopens a settled split.
func (t *Tracker) Snapshot(ctx context.Context, splitID string) (*models.Split, error) {
	split, err := t.load(ctx, splitID)
	if err != nil {
		return nil, err
	}
	if err := t.reconcile(ctx, split); err != nil {
		return nil, err
	}
	return split, nil
}

func (t *Tracker) reconcile(ctx context.Context, split *models.Split) error {
	if split.Status != models.SplitActive || !IsSettled(split.Participants) {
		return nil
	}
	if err := t.store.MarkSettled(ctx, split.ID); err != nil {
		return fmt.Errorf("failed to settle split %s: %w", split.ID, err)
	}
	if err := split.Advance(models.SplitSettled); err != nil {
		return err
	}
	t.metrics.SplitSettled()
	slog.Info("split settled", "split_id", split.ID, "total_cents", split.TotalCents)
	return nil
}

func (t *Tracker) load(ctx context.Context, splitID string) (*models.Split, error) {
	split, err := t.store.GetSplit(ctx, splitID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, &NotFoundError{Kind: "split", ID: splitID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load split %s: %w", splitID, err)
	}
	return split, nil
}

// seen asks the guard, or the store when there is no guard or the guard
// failed. A false answer is not final: the store's unique event id still
// rejects the duplicate on write.
func (t *Tracker) seen(ctx context.Context, eventID string) bool {
	if t.guard != nil {
		seen, err := t.guard.Seen(ctx, eventID)
		if err == nil {
			return seen
		}
		slog.Warn("idempotency guard lookup failed, asking store", "event_id", eventID, "error", err)
	}
	seen, err := t.store.HasPayment(ctx, eventID)
	if err != nil {
		slog.Warn("payment lookup failed", "event_id", eventID, "error", err)
		return false
	}
	return seen
}

func (t *Tracker) mark(ctx context.Context, eventID string) {
	if t.guard == nil {
		return
	}
	if err := t.guard.Mark(ctx, eventID); err != nil {
		slog.Warn("failed to mark payment event", "event_id", eventID, "error", err)
	}
}
