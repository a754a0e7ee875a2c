// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/splitsettle/internal/models"
	"github.com/mmynk/splitsettle/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows one writer; a single connection keeps transactions serialized.
	db.SetMaxOpenConns(1)

	if err := runMigrations(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateSplit persists a new split, its participants and its receipt.
func (s *SQLiteStore) CreateSplit(ctx context.Context, split *models.Split) error {
	if split.ID == "" {
		split.ID = uuid.New().String()
	}
	if split.CreatedAt == 0 {
		split.CreatedAt = time.Now().Unix()
	}
	if split.Title == "" {
		split.Title = storage.GenerateTitle(split.Participants)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var taxTip models.TaxTipAllocation
	var confidence float64
	if split.Receipt != nil {
		taxTip = split.Receipt.TaxTip
		confidence = split.Receipt.Confidence
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO splits (id, title, total_cents, method, creator_id, status, created_at,
		                     subtotal_cents, tax_cents, tip_cents, confidence)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		split.ID, split.Title, split.TotalCents, string(split.Method), split.CreatorID, string(split.Status),
		split.CreatedAt, taxTip.SubtotalCents, taxTip.TaxCents, taxTip.TipCents, confidence,
	)
	if err != nil {
		return fmt.Errorf("failed to insert split: %w", err)
	}

	for i := range split.Participants {
		p := &split.Participants[i]
		if p.UpdatedAt == 0 {
			p.UpdatedAt = split.CreatedAt
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO participants (split_id, participant_id, position, display_name,
			                           amount_owed, amount_paid, status, version, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			split.ID, p.ID, i, p.DisplayName, p.AmountOwed, p.AmountPaid, string(p.Status), p.Version, p.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}
	}

	if split.Receipt != nil {
		for i := range split.Receipt.Items {
			item := &split.Receipt.Items[i]
			if item.ID == "" {
				item.ID = uuid.New().String()
			}
			_, err = tx.ExecContext(ctx,
				"INSERT INTO receipt_items (id, split_id, position, name, price_cents, quantity) VALUES (?, ?, ?, ?, ?, ?)",
				item.ID, split.ID, i, item.Name, item.PriceCents, item.Quantity,
			)
			if err != nil {
				return fmt.Errorf("failed to insert receipt item: %w", err)
			}

			for j, participantID := range item.ClaimedBy {
				_, err = tx.ExecContext(ctx,
					"INSERT INTO item_claims (item_id, participant_id, position) VALUES (?, ?, ?)",
					item.ID, participantID, j,
				)
				if err != nil {
					return fmt.Errorf("failed to insert item claim: %w", err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetSplit retrieves a split by ID, including participants and receipt.
func (s *SQLiteStore) GetSplit(ctx context.Context, splitID string) (*models.Split, error) {
	split := &models.Split{}
	var method, status string
	var taxTip models.TaxTipAllocation
	var confidence float64

	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, total_cents, method, creator_id, status, created_at,
		        subtotal_cents, tax_cents, tip_cents, confidence
		 FROM splits WHERE id = ?`,
		splitID,
	).Scan(&split.ID, &split.Title, &split.TotalCents, &method, &split.CreatorID, &status, &split.CreatedAt,
		&taxTip.SubtotalCents, &taxTip.TaxCents, &taxTip.TipCents, &confidence)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("split %s: %w", splitID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get split: %w", err)
	}
	split.Method = models.Method(method)
	split.Status = models.SplitStatus(status)

	split.Participants, err = s.getParticipants(ctx, splitID)
	if err != nil {
		return nil, err
	}

	if split.Method == models.MethodReceipt {
		items, err := s.getReceiptItems(ctx, splitID)
		if err != nil {
			return nil, err
		}
		split.Receipt = &models.Receipt{Items: items, TaxTip: taxTip, Confidence: confidence}
	}

	return split, nil
}

// ListSplitsByCreator retrieves all splits created by a user, newest first.
func (s *SQLiteStore) ListSplitsByCreator(ctx context.Context, creatorID string) ([]*models.Split, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id FROM splits WHERE creator_id = ? ORDER BY created_at DESC, id",
		creatorID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list splits: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan split id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}

	// Rows are drained before loading children: the pool holds a single connection.
	splits := make([]*models.Split, 0, len(ids))
	for _, id := range ids {
		split, err := s.GetSplit(ctx, id)
		if err != nil {
			return nil, err
		}
		splits = append(splits, split)
	}
	return splits, nil
}

func (s *SQLiteStore) getParticipants(ctx context.Context, splitID string) ([]models.Participant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT participant_id, display_name, amount_owed, amount_paid, status, version, updated_at
		 FROM participants WHERE split_id = ? ORDER BY position`,
		splitID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	var participants []models.Participant
	for rows.Next() {
		var p models.Participant
		var status string
		if err := rows.Scan(&p.ID, &p.DisplayName, &p.AmountOwed, &p.AmountPaid, &status, &p.Version, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		p.Status = models.ParticipantStatus(status)
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}
	return participants, nil
}

func (s *SQLiteStore) getReceiptItems(ctx context.Context, splitID string) ([]models.ReceiptItem, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, price_cents, quantity FROM receipt_items WHERE split_id = ? ORDER BY position",
		splitID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt items: %w", err)
	}

	var items []models.ReceiptItem
	for rows.Next() {
		var item models.ReceiptItem
		if err := rows.Scan(&item.ID, &item.Name, &item.PriceCents, &item.Quantity); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan receipt item: %w", err)
		}
		items = append(items, item)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate receipt items: %w", err)
	}

	for i := range items {
		claimRows, err := s.db.QueryContext(ctx,
			"SELECT participant_id FROM item_claims WHERE item_id = ? ORDER BY position",
			items[i].ID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to get item claims: %w", err)
		}
		for claimRows.Next() {
			var participantID string
			if err := claimRows.Scan(&participantID); err != nil {
				claimRows.Close()
				return nil, fmt.Errorf("failed to scan item claim: %w", err)
			}
			items[i].ClaimedBy = append(items[i].ClaimedBy, participantID)
		}
		claimRows.Close()
		if err := claimRows.Err(); err != nil {
			return nil, fmt.Errorf("failed to iterate item claims: %w", err)
		}
	}

	return items, nil
}
