package settlement

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/mmynk/splitsettle/internal/calculator"
	"github.com/mmynk/splitsettle/internal/idempotency"
	"github.com/mmynk/splitsettle/internal/models"
	"github.com/mmynk/splitsettle/internal/storage"
	"github.com/mmynk/splitsettle/internal/storage/sqlite"
)

func setupTracker(t *testing.T, guard idempotency.Guard) (*Tracker, storage.Store) {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewTracker(store, guard, nil), store
}

// createSplit persists an active $100 split owed 50/50 by alice and bob.
func createSplit(t *testing.T, store storage.Store) *models.Split {
	t.Helper()
	split := &models.Split{
		Title:      "Dinner",
		TotalCents: 10000,
		Method:     models.MethodEqual,
		CreatorID:  "alice",
		Status:     models.SplitActive,
		Participants: []models.Participant{
			{ID: "alice", DisplayName: "Alice", AmountOwed: 5000, Status: models.ParticipantPending},
			{ID: "bob", DisplayName: "Bob", AmountOwed: 5000, Status: models.ParticipantPending},
		},
	}
	if err := store.CreateSplit(context.Background(), split); err != nil {
		t.Fatalf("CreateSplit failed: %v", err)
	}
	return split
}

func event(id, splitID, participantID string, amount int64) models.PaymentEvent {
	return models.PaymentEvent{EventID: id, SplitID: splitID, ParticipantID: participantID, AmountCents: amount, Source: "manual"}
}

func TestTracker_RecordPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("settles after last participant pays", func(t *testing.T) {
		tracker, store := setupTracker(t, nil)
		split := createSplit(t, store)

		got, err := tracker.RecordPayment(ctx, event("evt-1", split.ID, "alice", 5000))
		if err != nil {
			t.Fatalf("RecordPayment failed: %v", err)
		}
		if got.Status != models.SplitActive {
			t.Errorf("status = %s after one payment, want active", got.Status)
		}
		if p := got.Participant("alice"); p.Status != models.ParticipantPaid || p.Version != 1 {
			t.Errorf("alice = %+v", p)
		}

		got, err = tracker.RecordPayment(ctx, event("evt-2", split.ID, "bob", 5000))
		if err != nil {
			t.Fatalf("RecordPayment failed: %v", err)
		}
		if got.Status != models.SplitSettled {
			t.Errorf("status = %s, want settled", got.Status)
		}

		stored, _ := store.GetSplit(ctx, split.ID)
		if stored.Status != models.SplitSettled {
			t.Errorf("stored status = %s, want settled", stored.Status)
		}
	})

	t.Run("duplicate event id is not double counted", func(t *testing.T) {
		tracker, store := setupTracker(t, nil)
		split := createSplit(t, store)

		for range 3 {
			if _, err := tracker.RecordPayment(ctx, event("evt-dup", split.ID, "bob", 2000)); err != nil {
				t.Fatalf("RecordPayment failed: %v", err)
			}
		}

		got, _ := store.GetSplit(ctx, split.ID)
		if paid := got.Participant("bob").AmountPaid; paid != 2000 {
			t.Errorf("bob paid %d, want 2000", paid)
		}
		payments, _ := store.ListPayments(ctx, split.ID)
		if len(payments) != 1 {
			t.Errorf("recorded %d payments, want 1", len(payments))
		}
	})

	t.Run("guard short-circuits known events", func(t *testing.T) {
		guard := idempotency.NewMemoryGuard(0)
		tracker, store := setupTracker(t, guard)
		split := createSplit(t, store)

		if _, err := tracker.RecordPayment(ctx, event("evt-g", split.ID, "alice", 1000)); err != nil {
			t.Fatal(err)
		}
		if seen, _ := guard.Seen(ctx, "evt-g"); !seen {
			t.Error("applied event was not marked")
		}

		// An id the guard already knows never reaches the store.
		_ = guard.Mark(ctx, "evt-external")
		got, err := tracker.RecordPayment(ctx, event("evt-external", split.ID, "alice", 4000))
		if err != nil {
			t.Fatalf("RecordPayment failed: %v", err)
		}
		if paid := got.Participant("alice").AmountPaid; paid != 1000 {
			t.Errorf("alice paid %d, want 1000", paid)
		}
	})

	t.Run("overpayment is kept and progress clamps", func(t *testing.T) {
		tracker, store := setupTracker(t, nil)
		split := createSplit(t, store)

		got, err := tracker.RecordPayment(ctx, event("evt-over", split.ID, "alice", 7000))
		if err != nil {
			t.Fatal(err)
		}
		if paid := got.Participant("alice").AmountPaid; paid != 7000 {
			t.Errorf("alice paid %d, want 7000", paid)
		}
		progress := calculator.ComputeProgress(got)
		if progress.TotalCollected != 5000 || progress.PaidCount != 1 || progress.IsSettled {
			t.Errorf("progress = %+v", progress)
		}
	})

	t.Run("late event keeps split settled", func(t *testing.T) {
		tracker, store := setupTracker(t, nil)
		split := createSplit(t, store)

		_, _ = tracker.RecordPayment(ctx, event("a", split.ID, "alice", 5000))
		_, _ = tracker.RecordPayment(ctx, event("b", split.ID, "bob", 5000))
		got, err := tracker.RecordPayment(ctx, event("c", split.ID, "bob", 100))
		if err != nil {
			t.Fatalf("RecordPayment on settled split failed: %v", err)
		}
		if got.Status != models.SplitSettled {
			t.Errorf("status = %s, want settled", got.Status)
		}
	})

	t.Run("rejects invalid events", func(t *testing.T) {
		tracker, store := setupTracker(t, nil)
		split := createSplit(t, store)

		tests := []struct {
			name string
			ev   models.PaymentEvent
			want error
		}{
			{"missing event id", event("", split.ID, "alice", 100), calculator.ErrMissingEventID},
			{"zero amount", event("z", split.ID, "alice", 0), calculator.ErrInvalidPayment},
			{"negative amount", event("n", split.ID, "alice", -5), calculator.ErrInvalidPayment},
			{"unknown split", event("u", "nope", "alice", 100), storage.ErrNotFound},
			{"unknown participant", event("p", split.ID, "mallory", 100), storage.ErrNotFound},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := tracker.RecordPayment(ctx, tt.ev)
				if !errors.Is(err, tt.want) {
					t.Errorf("err = %v, want %v", err, tt.want)
				}
			})
		}

		var nf *NotFoundError
		_, err := tracker.RecordPayment(ctx, event("p2", split.ID, "mallory", 100))
		if !errors.As(err, &nf) || nf.Kind != "participant" {
			t.Errorf("expected participant NotFoundError, got %v", err)
		}
	})

	t.Run("rejects payments on draft splits", func(t *testing.T) {
		tracker, store := setupTracker(t, nil)
		draft := &models.Split{
			TotalCents: 100, Method: models.MethodCustom, CreatorID: "alice", Status: models.SplitDraft,
			Participants: []models.Participant{{ID: "alice", AmountOwed: 100, Status: models.ParticipantPending}},
		}
		if err := store.CreateSplit(ctx, draft); err != nil {
			t.Fatal(err)
		}
		_, err := tracker.RecordPayment(ctx, event("d", draft.ID, "alice", 100))
		if !errors.Is(err, calculator.ErrInvalidPayment) {
			t.Errorf("err = %v, want InvalidPayment", err)
		}
	})
}

// staleStore fails every payment write as if another writer got there first.
type staleStore struct {
	storage.Store
}

func (s staleStore) ApplyPayment(context.Context, storage.PaymentUpdate) error {
	return fmt.Errorf("participant moved: %w", storage.ErrStaleWrite)
}

// brokenGuard fails every lookup.
type brokenGuard struct{}

func (brokenGuard) Seen(context.Context, string) (bool, error) {
	return false, errors.New("cache unavailable")
}

func (brokenGuard) Mark(context.Context, string) error {
	return errors.New("cache unavailable")
}

// countingStore counts payment writes and can hide recorded events from HasPayment.
type countingStore struct {
	storage.Store
	writes     int
	hideEvents bool
}

func (s *countingStore) ApplyPayment(ctx context.Context, u storage.PaymentUpdate) error {
	s.writes++
	return s.Store.ApplyPayment(ctx, u)
}

func (s *countingStore) HasPayment(ctx context.Context, eventID string) (bool, error) {
	if s.hideEvents {
		return false, nil
	}
	return s.Store.HasPayment(ctx, eventID)
}

func TestTracker_DuplicateDetection(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		guard      idempotency.Guard
		hideEvents bool
		wantWrites int
	}{
		{name: "store answers without a guard", wantWrites: 1},
		{name: "store answers when guard fails", guard: brokenGuard{}, wantWrites: 1},
		{name: "unique event id catches what lookups miss", hideEvents: true, wantWrites: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, base := setupTracker(t, nil)
			split := createSplit(t, base)
			store := &countingStore{Store: base, hideEvents: tt.hideEvents}
			tracker := NewTracker(store, tt.guard, nil)

			for range 2 {
				got, err := tracker.RecordPayment(ctx, event("evt-dup", split.ID, "bob", 2000))
				if err != nil {
					t.Fatalf("RecordPayment failed: %v", err)
				}
				if paid := got.Participant("bob").AmountPaid; paid != 2000 {
					t.Errorf("bob paid %d, want 2000", paid)
				}
			}
			if store.writes != tt.wantWrites {
				t.Errorf("writes = %d, want %d", store.writes, tt.wantWrites)
			}
		})
	}
}

func TestTracker_StaleWrite(t *testing.T) {
	ctx := context.Background()
	_, store := setupTracker(t, nil)
	split := createSplit(t, store)

	tracker := NewTracker(staleStore{store}, nil, nil)
	_, err := tracker.RecordPayment(ctx, event("evt-1", split.ID, "alice", 100))

	var cerr *ConcurrencyError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConcurrencyError, got %v", err)
	}
	if cerr.SplitID != split.ID || cerr.ParticipantID != "alice" {
		t.Errorf("ConcurrencyError = %+v", cerr)
	}
	if !errors.Is(err, storage.ErrStaleWrite) {
		t.Error("ConcurrencyError should unwrap to ErrStaleWrite")
	}
}

func TestTracker_Snapshot(t *testing.T) {
	ctx := context.Background()
	tracker, store := setupTracker(t, nil)

	// Persisted fully paid but still active, e.g. after a crash between writes.
	split := &models.Split{
		TotalCents: 100, Method: models.MethodCustom, CreatorID: "alice", Status: models.SplitActive,
		Participants: []models.Participant{{ID: "alice", AmountOwed: 100, AmountPaid: 100, Status: models.ParticipantPaid}},
	}
	if err := store.CreateSplit(ctx, split); err != nil {
		t.Fatal(err)
	}

	got, err := tracker.Snapshot(ctx, split.ID)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if got.Status != models.SplitSettled {
		t.Errorf("status = %s, want settled", got.Status)
	}

	if _, err := tracker.Snapshot(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
