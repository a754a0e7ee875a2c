// Package postgres provides a PostgreSQL implementation of storage.Store on top of gorm.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/mmynk/splitsettle/internal/models"
	"github.com/mmynk/splitsettle/internal/storage"
)

var _ storage.Store = (*PostgresStore)(nil)

// PostgresStore implements storage.Store using PostgreSQL.
type PostgresStore struct {
	db *gorm.DB
}

// New connects to dsn, configures the pool and migrates the schema.
func New(dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(
		&splitRecord{},
		&participantRecord{},
		&receiptItemRecord{},
		&itemClaimRecord{},
		&paymentRecord{},
	); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("postgres connection established")
	return &PostgresStore{db: db}, nil
}

// Close closes the underlying connection pool.
func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateSplit persists a new split, its participants and its receipt.
func (s *PostgresStore) CreateSplit(ctx context.Context, split *models.Split) error {
	if split.ID == "" {
		split.ID = uuid.New().String()
	}
	if split.CreatedAt == 0 {
		split.CreatedAt = time.Now().Unix()
	}
	if split.Title == "" {
		split.Title = storage.GenerateTitle(split.Participants)
	}

	rec := splitRecord{
		ID:         split.ID,
		Title:      split.Title,
		TotalCents: split.TotalCents,
		Method:     string(split.Method),
		CreatorID:  split.CreatorID,
		Status:     string(split.Status),
		CreatedAt:  split.CreatedAt,
	}
	if split.Receipt != nil {
		rec.SubtotalCents = split.Receipt.TaxTip.SubtotalCents
		rec.TaxCents = split.Receipt.TaxTip.TaxCents
		rec.TipCents = split.Receipt.TaxTip.TipCents
		rec.Confidence = split.Receipt.Confidence
	}

	participants := make([]participantRecord, len(split.Participants))
	for i := range split.Participants {
		p := &split.Participants[i]
		if p.UpdatedAt == 0 {
			p.UpdatedAt = split.CreatedAt
		}
		participants[i] = participantRecord{
			SplitID:       split.ID,
			ParticipantID: p.ID,
			Position:      i,
			DisplayName:   p.DisplayName,
			AmountOwed:    p.AmountOwed,
			AmountPaid:    p.AmountPaid,
			Status:        string(p.Status),
			Version:       p.Version,
			UpdatedAt:     p.UpdatedAt,
		}
	}

	var items []receiptItemRecord
	var claims []itemClaimRecord
	if split.Receipt != nil {
		for i := range split.Receipt.Items {
			item := &split.Receipt.Items[i]
			if item.ID == "" {
				item.ID = uuid.New().String()
			}
			items = append(items, receiptItemRecord{
				ID:         item.ID,
				SplitID:    split.ID,
				Position:   i,
				Name:       item.Name,
				PriceCents: item.PriceCents,
				Quantity:   item.Quantity,
			})
			for j, participantID := range item.ClaimedBy {
				claims = append(claims, itemClaimRecord{ItemID: item.ID, ParticipantID: participantID, Position: j})
			}
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return fmt.Errorf("failed to insert split: %w", err)
		}
		if len(participants) > 0 {
			if err := tx.Create(&participants).Error; err != nil {
				return fmt.Errorf("failed to insert participants: %w", err)
			}
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return fmt.Errorf("failed to insert receipt items: %w", err)
			}
		}
		if len(claims) > 0 {
			if err := tx.Create(&claims).Error; err != nil {
				return fmt.Errorf("failed to insert item claims: %w", err)
			}
		}
		return nil
	})
	return err
}

// GetSplit retrieves a split by ID, including participants and receipt.
func (s *PostgresStore) GetSplit(ctx context.Context, splitID string) (*models.Split, error) {
	db := s.db.WithContext(ctx)

	var rec splitRecord
	err := db.First(&rec, "id = ?", splitID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("split %s: %w", splitID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get split: %w", err)
	}

	split := &models.Split{
		ID:         rec.ID,
		Title:      rec.Title,
		TotalCents: rec.TotalCents,
		Method:     models.Method(rec.Method),
		CreatorID:  rec.CreatorID,
		Status:     models.SplitStatus(rec.Status),
		CreatedAt:  rec.CreatedAt,
	}

	var participants []participantRecord
	if err := db.Where("split_id = ?", splitID).Order("position").Find(&participants).Error; err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	for _, p := range participants {
		split.Participants = append(split.Participants, models.Participant{
			ID:          p.ParticipantID,
			DisplayName: p.DisplayName,
			AmountOwed:  p.AmountOwed,
			AmountPaid:  p.AmountPaid,
			Status:      models.ParticipantStatus(p.Status),
			Version:     p.Version,
			UpdatedAt:   p.UpdatedAt,
		})
	}

	if split.Method == models.MethodReceipt {
		items, err := s.getReceiptItems(db, splitID)
		if err != nil {
			return nil, err
		}
		split.Receipt = &models.Receipt{
			Items: items,
			TaxTip: models.TaxTipAllocation{
				TaxCents:      rec.TaxCents,
				TipCents:      rec.TipCents,
				SubtotalCents: rec.SubtotalCents,
			},
			Confidence: rec.Confidence,
		}
	}

	return split, nil
}

func (s *PostgresStore) getReceiptItems(db *gorm.DB, splitID string) ([]models.ReceiptItem, error) {
	var recs []receiptItemRecord
	if err := db.Where("split_id = ?", splitID).Order("position").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to get receipt items: %w", err)
	}
	if len(recs) == 0 {
		return nil, nil
	}

	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}
	var claims []itemClaimRecord
	if err := db.Where("item_id IN ?", ids).Order("item_id, position").Find(&claims).Error; err != nil {
		return nil, fmt.Errorf("failed to get item claims: %w", err)
	}
	claimedBy := make(map[string][]string, len(recs))
	for _, c := range claims {
		claimedBy[c.ItemID] = append(claimedBy[c.ItemID], c.ParticipantID)
	}

	items := make([]models.ReceiptItem, len(recs))
	for i, r := range recs {
		items[i] = models.ReceiptItem{
			ID:         r.ID,
			Name:       r.Name,
			PriceCents: r.PriceCents,
			Quantity:   r.Quantity,
			ClaimedBy:  claimedBy[r.ID],
		}
	}
	return items, nil
}

// ListSplitsByCreator retrieves all splits created by a user, newest first.
func (s *PostgresStore) ListSplitsByCreator(ctx context.Context, creatorID string) ([]*models.Split, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&splitRecord{}).
		Where("creator_id = ?", creatorID).
		Order("created_at DESC, id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list splits: %w", err)
	}

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

// ApplyPayment inserts the payment record and compare-and-sets the participant
// in one transaction.
func (s *PostgresStore) ApplyPayment(ctx context.Context, update storage.PaymentUpdate) error {
	now := time.Now().Unix()
	ev := update.Event
	if ev.ReceivedAt == 0 {
		ev.ReceivedAt = now
	}
	p := update.Participant

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := paymentRecord{
			ID:            uuid.New().String(),
			EventID:       ev.EventID,
			SplitID:       ev.SplitID,
			ParticipantID: ev.ParticipantID,
			AmountCents:   ev.AmountCents,
			ReceivedAt:    ev.ReceivedAt,
			Source:        ev.Source,
			CreatedAt:     now,
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).Create(&rec)
		if res.Error != nil {
			return fmt.Errorf("failed to insert payment: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("event %s: %w", ev.EventID, storage.ErrDuplicateEvent)
		}

		res = tx.Model(&participantRecord{}).
			Where("split_id = ? AND participant_id = ? AND version = ? AND amount_paid <= ?",
				ev.SplitID, p.ID, update.ExpectedVersion, p.AmountPaid).
			Updates(map[string]any{
				"amount_paid": p.AmountPaid,
				"status":      string(p.Status),
				"version":     gorm.Expr("version + 1"),
				"updated_at":  now,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to update participant: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("participant %s at version %d: %w", p.ID, update.ExpectedVersion, storage.ErrStaleWrite)
		}
		return nil
	})
}

// MarkSettled moves an active split to settled.
func (s *PostgresStore) MarkSettled(ctx context.Context, splitID string) error {
	db := s.db.WithContext(ctx)

	res := db.Model(&splitRecord{}).
		Where("id = ? AND status = ?", splitID, string(models.SplitActive)).
		Update("status", string(models.SplitSettled))
	if res.Error != nil {
		return fmt.Errorf("failed to mark split settled: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var rec splitRecord
	err := db.Select("status").First(&rec, "id = ?", splitID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("split %s: %w", splitID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to get split status: %w", err)
	}
	if models.SplitStatus(rec.Status) != models.SplitSettled {
		return fmt.Errorf("split %s is %s: %w", splitID, rec.Status, models.ErrInvalidTransition)
	}
	return nil
}

// HasPayment reports whether the event id has been recorded.
func (s *PostgresStore) HasPayment(ctx context.Context, eventID string) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&paymentRecord{}).Where("event_id = ?", eventID).Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to check payment: %w", err)
	}
	return n > 0, nil
}

// ListPayments retrieves the payment audit trail for a split.
func (s *PostgresStore) ListPayments(ctx context.Context, splitID string) ([]*models.Payment, error) {
	var recs []paymentRecord
	err := s.db.WithContext(ctx).
		Where("split_id = ?", splitID).
		Order("created_at, received_at").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	payments := make([]*models.Payment, len(recs))
	for i, r := range recs {
		payments[i] = &models.Payment{
			ID:            r.ID,
			EventID:       r.EventID,
			SplitID:       r.SplitID,
			ParticipantID: r.ParticipantID,
			AmountCents:   r.AmountCents,
			ReceivedAt:    r.ReceivedAt,
			Source:        r.Source,
			CreatedAt:     r.CreatedAt,
		}
	}
	return payments, nil
}
