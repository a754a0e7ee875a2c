package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/splitsettle/internal/calculator"
	"github.com/mmynk/splitsettle/internal/gateway"
	"github.com/mmynk/splitsettle/internal/metrics"
	"github.com/mmynk/splitsettle/internal/middleware"
	"github.com/mmynk/splitsettle/internal/models"
	"github.com/mmynk/splitsettle/internal/settlement"
	"github.com/mmynk/splitsettle/internal/storage"
	splitv1 "github.com/mmynk/splitsettle/pkg/api/splitv1"
	"github.com/mmynk/splitsettle/pkg/api/splitv1/splitv1connect"
)

// SourceManual tags payments recorded through the RPC API.
const SourceManual = "manual"

// SplitService implements the Connect SplitService
type SplitService struct {
	splitv1connect.UnimplementedSplitServiceHandler
	store      storage.Store
	tracker    *settlement.Tracker
	metrics    *metrics.Metrics
	retryLimit int
}

// Option configures a SplitService.
type Option func(*SplitService)

// WithMetrics records split and validation counters on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *SplitService) { s.metrics = m }
}

// WithRetryLimit sets how many times a payment is retried after a concurrent update.
func WithRetryLimit(n int) Option {
	return func(s *SplitService) { s.retryLimit = n }
}

// NewSplitService creates a new SplitService with the given storage backend.
func NewSplitService(store storage.Store, tracker *settlement.Tracker, opts ...Option) *SplitService {
	s := &SplitService{store: store, tracker: tracker, retryLimit: 3}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// buildSplit resolves the request into a draft split with owed amounts set.
func (s *SplitService) buildSplit(in splitv1.SplitInput) (*models.Split, error) {
	split, resolverIn := draftFromInput(in)
	if !split.Method.Valid() {
		return nil, &calculator.ValidationError{Reason: calculator.ReasonUnknownMethod, Detail: in.Method}
	}
	if split.Method == models.MethodReceipt && split.Receipt == nil {
		return nil, &calculator.ValidationError{Reason: calculator.ReasonInvalidItem, Detail: "receipt split needs a receipt"}
	}

	shares, err := calculator.Resolve(split.TotalCents, split.Method, resolverIn)
	if err != nil {
		return nil, err
	}
	if err := calculator.ValidateShares(split.TotalCents, split.ParticipantIDs(), shares); err != nil {
		return nil, err
	}

	owed := shares.Map()
	for i := range split.Participants {
		p := &split.Participants[i]
		p.AmountOwed = owed[p.ID]
		if p.AmountOwed == 0 {
			p.Status = models.ParticipantPaid
		}
	}
	return split, nil
}

// authorize allows the split's creator and its participants.
func authorize(userID string, split *models.Split) error {
	if userID == split.CreatorID || split.Participant(userID) != nil {
		return nil
	}
	return connect.NewError(connect.CodePermissionDenied, errForbidden)
}

// loadAuthorized returns the split with settlement re-derived, if the caller may see it.
func (s *SplitService) loadAuthorized(ctx context.Context, splitID string) (*models.Split, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, errUnauthenticated)
	}
	split, err := s.tracker.Snapshot(ctx, splitID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := authorize(userID, split); err != nil {
		return nil, err
	}
	return split, nil
}

// CreateSplit computes, validates and persists a new active split.
func (s *SplitService) CreateSplit(ctx context.Context, req *connect.Request[splitv1.CreateSplitRequest]) (*connect.Response[splitv1.CreateSplitResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, errUnauthenticated)
	}

	split, err := s.buildSplit(req.Msg.SplitInput)
	if err != nil {
		s.metrics.ValidationFailed(err)
		slog.Warn("CreateSplit validation failed", "method", req.Msg.Method, "error", err)
		return nil, toConnectError(err)
	}
	split.CreatorID = userID

	if err := calculator.ValidateSplit(split); err != nil {
		s.metrics.ValidationFailed(err)
		return nil, toConnectError(err)
	}
	if err := split.Advance(models.SplitActive); err != nil {
		return nil, toConnectError(err)
	}

	if err := s.store.CreateSplit(ctx, split); err != nil {
		slog.Error("CreateSplit failed", "error", err)
		return nil, toConnectError(err)
	}
	s.metrics.SplitCreated(string(split.Method))

	slog.Info("Split created",
		"split_id", split.ID,
		"method", split.Method,
		"total_cents", split.TotalCents,
		"participants", len(split.Participants),
	)

	return connect.NewResponse(&splitv1.CreateSplitResponse{Split: splitToAPI(split)}), nil
}

// GetSplit returns a split with its current progress.
func (s *SplitService) GetSplit(ctx context.Context, req *connect.Request[splitv1.GetSplitRequest]) (*connect.Response[splitv1.GetSplitResponse], error) {
	split, err := s.loadAuthorized(ctx, req.Msg.SplitID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&splitv1.GetSplitResponse{Split: splitToAPI(split)}), nil
}

// ListSplits returns the caller's splits, newest first.
func (s *SplitService) ListSplits(ctx context.Context, req *connect.Request[splitv1.ListSplitsRequest]) (*connect.Response[splitv1.ListSplitsResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, errUnauthenticated)
	}

	splits, err := s.store.ListSplitsByCreator(ctx, userID)
	if err != nil {
		slog.Error("ListSplits failed", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*splitv1.Split, len(splits))
	for i, split := range splits {
		out[i] = splitToAPI(split)
	}
	return connect.NewResponse(&splitv1.ListSplitsResponse{Splits: out}), nil
}

// PreviewSplit computes shares without persisting anything.
func (s *SplitService) PreviewSplit(ctx context.Context, req *connect.Request[splitv1.PreviewSplitRequest]) (*connect.Response[splitv1.PreviewSplitResponse], error) {
	split, err := s.buildSplit(req.Msg.SplitInput)
	if err != nil {
		slog.Debug("PreviewSplit rejected", "method", req.Msg.Method, "error", err)
		return nil, toConnectError(err)
	}

	shares := make(calculator.Shares, len(split.Participants))
	for i, p := range split.Participants {
		shares[i] = calculator.Share{ParticipantID: p.ID, Cents: p.AmountOwed}
	}
	return connect.NewResponse(&splitv1.PreviewSplitResponse{Shares: sharesToAPI(shares)}), nil
}

// RecordPayment applies a manually reported payment. The caller must be the
// split's creator or the paying participant.
func (s *SplitService) RecordPayment(ctx context.Context, req *connect.Request[splitv1.RecordPaymentRequest]) (*connect.Response[splitv1.RecordPaymentResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, errUnauthenticated)
	}

	split, err := s.tracker.Snapshot(ctx, req.Msg.SplitID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if userID != split.CreatorID && userID != req.Msg.ParticipantID {
		return nil, connect.NewError(connect.CodePermissionDenied, errForbidden)
	}

	split, err = recordWithRetry(ctx, s.tracker, models.PaymentEvent{
		EventID:       req.Msg.EventID,
		SplitID:       req.Msg.SplitID,
		ParticipantID: req.Msg.ParticipantID,
		AmountCents:   req.Msg.AmountCents,
		ReceivedAt:    time.Now().Unix(),
		Source:        SourceManual,
	}, s.retryLimit)
	if err != nil {
		s.metrics.ValidationFailed(err)
		slog.Warn("RecordPayment failed", "split_id", req.Msg.SplitID, "event_id", req.Msg.EventID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&splitv1.RecordPaymentResponse{Split: splitToAPI(split)}), nil
}

// GetProgress returns settlement progress and what each participant still owes.
func (s *SplitService) GetProgress(ctx context.Context, req *connect.Request[splitv1.GetProgressRequest]) (*connect.Response[splitv1.GetProgressResponse], error) {
	split, err := s.loadAuthorized(ctx, req.Msg.SplitID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&splitv1.GetProgressResponse{
		Progress:    progressToAPI(calculator.ComputeProgress(split)),
		Outstanding: sharesToAPI(calculator.Outstanding(split)),
	}), nil
}

// ListPayments returns the payment audit trail for a split.
func (s *SplitService) ListPayments(ctx context.Context, req *connect.Request[splitv1.ListPaymentsRequest]) (*connect.Response[splitv1.ListPaymentsResponse], error) {
	if _, err := s.loadAuthorized(ctx, req.Msg.SplitID); err != nil {
		return nil, err
	}

	payments, err := s.store.ListPayments(ctx, req.Msg.SplitID)
	if err != nil {
		slog.Error("ListPayments failed", "split_id", req.Msg.SplitID, "error", err)
		return nil, toConnectError(err)
	}

	out := make([]splitv1.Payment, len(payments))
	for i, p := range payments {
		out[i] = paymentToAPI(p)
	}
	return connect.NewResponse(&splitv1.ListPaymentsResponse{Payments: out}), nil
}

// ParseReceipt maps raw OCR output to integer cents for the client to review
// and claim before creating a receipt split.
func (s *SplitService) ParseReceipt(ctx context.Context, req *connect.Request[splitv1.ParseReceiptRequest]) (*connect.Response[splitv1.ParseReceiptResponse], error) {
	raw := bytes.TrimSpace(req.Msg.OCRResult)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("ocr_result is required"))
	}

	parsed, err := gateway.ParseReceipt(raw)
	if err != nil {
		slog.Warn("ParseReceipt failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Debug("Receipt parsed", "items", len(parsed.Items), "total_cents", parsed.TotalCents, "confidence", parsed.Confidence)
	return connect.NewResponse(&splitv1.ParseReceiptResponse{Receipt: parsedReceiptToAPI(parsed)}), nil
}

// recordWithRetry retries a payment that lost a compare-and-set race. The
// tracker reloads the participant on every attempt.
func recordWithRetry(ctx context.Context, tracker *settlement.Tracker, ev models.PaymentEvent, limit int) (*models.Split, error) {
	for attempt := 0; ; attempt++ {
		split, err := tracker.RecordPayment(ctx, ev)
		var cerr *settlement.ConcurrencyError
		if !errors.As(err, &cerr) || attempt >= limit {
			return split, err
		}
		slog.Debug("Retrying payment after concurrent update",
			"event_id", ev.EventID,
			"participant_id", ev.ParticipantID,
			"attempt", attempt+1,
		)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
}
