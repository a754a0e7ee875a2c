package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitsettle/internal/models"
	"github.com/mmynk/splitsettle/internal/storage"
)

// ApplyPayment inserts the payment record and compare-and-sets the participant
// in one transaction.
func (s *SQLiteStore) ApplyPayment(ctx context.Context, update storage.PaymentUpdate) error {
	now := time.Now().Unix()
	ev := update.Event
	if ev.ReceivedAt == 0 {
		ev.ReceivedAt = now
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO payments (id, event_id, split_id, participant_id, amount_cents, received_at, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(event_id) DO NOTHING`,
		uuid.New().String(), ev.EventID, ev.SplitID, ev.ParticipantID, ev.AmountCents, ev.ReceivedAt, ev.Source, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to check payment insert: %w", err)
	} else if n == 0 {
		return fmt.Errorf("event %s: %w", ev.EventID, storage.ErrDuplicateEvent)
	}

	p := update.Participant
	res, err = tx.ExecContext(ctx,
		`UPDATE participants
		 SET amount_paid = ?, status = ?, version = version + 1, updated_at = ?
		 WHERE split_id = ? AND participant_id = ? AND version = ? AND amount_paid <= ?`,
		p.AmountPaid, string(p.Status), now,
		ev.SplitID, p.ID, update.ExpectedVersion, p.AmountPaid,
	)
	if err != nil {
		return fmt.Errorf("failed to update participant: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to check participant update: %w", err)
	} else if n == 0 {
		return fmt.Errorf("participant %s at version %d: %w", p.ID, update.ExpectedVersion, storage.ErrStaleWrite)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// MarkSettled moves an active split to settled.
func (s *SQLiteStore) MarkSettled(ctx context.Context, splitID string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE splits SET status = ? WHERE id = ? AND status = ?",
		string(models.SplitSettled), splitID, string(models.SplitActive),
	)
	if err != nil {
		return fmt.Errorf("failed to mark split settled: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to check settle update: %w", err)
	} else if n > 0 {
		return nil
	}

	// Nothing changed: either already settled or missing.
	var status string
	err = s.db.QueryRowContext(ctx, "SELECT status FROM splits WHERE id = ?", splitID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("split %s: %w", splitID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to get split status: %w", err)
	}
	if models.SplitStatus(status) != models.SplitSettled {
		return fmt.Errorf("split %s is %s: %w", splitID, status, models.ErrInvalidTransition)
	}
	return nil
}

// HasPayment reports whether the event id has been recorded.
func (s *SQLiteStore) HasPayment(ctx context.Context, eventID string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM payments WHERE event_id = ?", eventID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check payment: %w", err)
	}
	return exists > 0, nil
}

// ListPayments retrieves the payment audit trail for a split.
func (s *SQLiteStore) ListPayments(ctx context.Context, splitID string) ([]*models.Payment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, event_id, split_id, participant_id, amount_cents, received_at, source, created_at
		 FROM payments WHERE split_id = ? ORDER BY created_at, rowid`,
		splitID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		p := &models.Payment{}
		if err := rows.Scan(&p.ID, &p.EventID, &p.SplitID, &p.ParticipantID, &p.AmountCents,
			&p.ReceivedAt, &p.Source, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}

	return payments, nil
}
