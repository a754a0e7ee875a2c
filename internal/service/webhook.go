package service

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmynk/splitsettle/internal/calculator"
	"github.com/mmynk/splitsettle/internal/gateway"
	"github.com/mmynk/splitsettle/internal/settlement"
	"github.com/mmynk/splitsettle/internal/storage"
	"github.com/mmynk/splitsettle/pkg/response"
)

const maxNotificationBytes = 1 << 20

// PaymentWebhook receives payment provider notifications.
type PaymentWebhook struct {
	notifier   *gateway.PaymentNotifier
	tracker    *settlement.Tracker
	retryLimit int
}

// NewPaymentWebhook creates a webhook handler.
func NewPaymentWebhook(notifier *gateway.PaymentNotifier, tracker *settlement.Tracker, retryLimit int) *PaymentWebhook {
	return &PaymentWebhook{notifier: notifier, tracker: tracker, retryLimit: retryLimit}
}

// Routes returns the router for webhook endpoints
func (h *PaymentWebhook) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/payments", h.HandlePayment)
	return r
}

type webhookResult struct {
	Status      string `json:"status"`
	SplitID     string `json:"split_id,omitempty"`
	SplitStatus string `json:"split_status,omitempty"`
}

// HandlePayment handles POST /webhooks/payments.
//
// Non-2xx responses make the provider redeliver, so only failures that a
// retry could fix (concurrency, storage) return 409 or 500. Notifications
// that are not completed payments are acknowledged and ignored.
func (h *PaymentWebhook) HandlePayment(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxNotificationBytes))
	if err != nil {
		response.BadRequest(w, "failed to read body")
		return
	}

	notif, err := h.notifier.Decode(body)
	if errors.Is(err, gateway.ErrInvalidSignature) {
		slog.Warn("Payment notification rejected", "error", err)
		response.Unauthorized(w, "invalid signature")
		return
	}
	if err != nil {
		slog.Warn("Payment notification malformed", "error", err)
		response.BadRequest(w, err.Error())
		return
	}

	if !gateway.IsCompleted(notif) {
		slog.Info("Payment notification ignored",
			"order_id", notif.OrderID,
			"transaction_status", notif.TransactionStatus,
			"fraud_status", notif.FraudStatus,
		)
		response.JSON(w, http.StatusOK, webhookResult{Status: "ignored"})
		return
	}

	ev, err := h.notifier.ToPaymentEvent(notif)
	if err != nil {
		slog.Warn("Payment notification unmappable", "order_id", notif.OrderID, "error", err)
		response.BadRequest(w, err.Error())
		return
	}

	split, err := recordWithRetry(r.Context(), h.tracker, ev, h.retryLimit)
	var (
		verr *calculator.ValidationError
		cerr *settlement.ConcurrencyError
	)
	switch {
	case err == nil:
	case errors.As(err, &verr):
		slog.Warn("Payment rejected", "event_id", ev.EventID, "error", err)
		response.Unprocessable(w, err.Error())
		return
	case errors.Is(err, storage.ErrNotFound):
		slog.Error("Payment for unknown split or participant", "event_id", ev.EventID, "order_id", notif.OrderID, "error", err)
		response.NotFound(w, err.Error())
		return
	case errors.As(err, &cerr):
		slog.Warn("Payment retries exhausted", "event_id", ev.EventID, "error", err)
		response.Conflict(w, err.Error())
		return
	default:
		slog.Error("Payment processing failed", "event_id", ev.EventID, "error", err)
		response.InternalError(w, "failed to record payment")
		return
	}

	response.JSON(w, http.StatusOK, webhookResult{
		Status:      "recorded",
		SplitID:     split.ID,
		SplitStatus: string(split.Status),
	})
}
