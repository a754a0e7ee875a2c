package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/mmynk/splitsettle/internal/gateway"
	"github.com/mmynk/splitsettle/internal/idempotency"
	"github.com/mmynk/splitsettle/internal/models"
	"github.com/mmynk/splitsettle/internal/settlement"
	"github.com/mmynk/splitsettle/internal/storage"
	"github.com/mmynk/splitsettle/internal/storage/sqlite"
)

const webhookServerKey = "SB-Mid-server-webhook"

func setupWebhook(t *testing.T) (http.Handler, storage.Store, *models.Split) {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "webhook.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	split := &models.Split{
		TotalCents: 10000,
		Method:     models.MethodEqual,
		CreatorID:  "alice",
		Status:     models.SplitActive,
		Participants: []models.Participant{
			{ID: "alice", AmountOwed: 5000, Status: models.ParticipantPending},
			{ID: "bob", AmountOwed: 5000, Status: models.ParticipantPending},
		},
	}
	if err := store.CreateSplit(context.Background(), split); err != nil {
		t.Fatalf("CreateSplit failed: %v", err)
	}

	tracker := settlement.NewTracker(store, idempotency.NewMemoryGuard(0), nil)
	hook := NewPaymentWebhook(gateway.NewPaymentNotifier(webhookServerKey), tracker, 3)
	return hook.Routes(), store, split
}

type notification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	TransactionID     string `json:"transaction_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status,omitempty"`
	SignatureKey      string `json:"signature_key"`
}

func signed(n notification) notification {
	if n.StatusCode == "" {
		n.StatusCode = "200"
	}
	n.SignatureKey = gateway.Signature(n.OrderID, n.StatusCode, n.GrossAmount, webhookServerKey)
	return n
}

func post(t *testing.T, h http.Handler, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var raw []byte
	switch b := body.(type) {
	case []byte:
		raw = b
	default:
		var err error
		if raw, err = json.Marshal(b); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(http.MethodPost, "/payments", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	return rec, decoded
}

func TestPaymentWebhook_RecordsAndSettles(t *testing.T) {
	h, store, split := setupWebhook(t)

	bob := signed(notification{
		OrderID:           gateway.OrderID(split.ID, "bob"),
		GrossAmount:       "50.00",
		TransactionID:     "tx-bob",
		TransactionStatus: "settlement",
	})
	rec, body := post(t, h, bob)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	data := body["data"].(map[string]any)
	if data["status"] != "recorded" || data["split_status"] != string(models.SplitActive) {
		t.Errorf("response = %v", data)
	}

	// Provider redelivery.
	if rec, _ := post(t, h, bob); rec.Code != http.StatusOK {
		t.Fatalf("redelivery status = %d", rec.Code)
	}

	alice := signed(notification{
		OrderID:           gateway.OrderID(split.ID, "alice"),
		GrossAmount:       "50.00",
		TransactionID:     "tx-alice",
		TransactionStatus: "capture",
		FraudStatus:       "accept",
	})
	rec, body = post(t, h, alice)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if data := body["data"].(map[string]any); data["split_status"] != string(models.SplitSettled) {
		t.Errorf("response = %v", data)
	}

	got, err := store.GetSplit(context.Background(), split.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Participant("bob").AmountPaid != 5000 {
		t.Errorf("bob paid %d, want 5000", got.Participant("bob").AmountPaid)
	}
	payments, err := store.ListPayments(context.Background(), split.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(payments) != 2 || payments[0].EventID != "midtrans:tx-bob" || payments[0].Source != gateway.SourceMidtrans {
		t.Errorf("payments = %+v", payments)
	}
}

func TestPaymentWebhook_Rejections(t *testing.T) {
	h, store, split := setupWebhook(t)

	tests := []struct {
		name   string
		body   any
		status int
	}{
		{
			name: "pending is ignored",
			body: signed(notification{
				OrderID: gateway.OrderID(split.ID, "bob"), GrossAmount: "50.00",
				TransactionID: "tx-1", TransactionStatus: "pending", StatusCode: "201",
			}),
			status: http.StatusOK,
		},
		{
			name: "challenged capture is ignored",
			body: signed(notification{
				OrderID: gateway.OrderID(split.ID, "bob"), GrossAmount: "50.00",
				TransactionID: "tx-2", TransactionStatus: "capture", FraudStatus: "challenge",
			}),
			status: http.StatusOK,
		},
		{
			name: "bad signature",
			body: notification{
				OrderID: gateway.OrderID(split.ID, "bob"), StatusCode: "200", GrossAmount: "50.00",
				TransactionID: "tx-3", TransactionStatus: "settlement", SignatureKey: "deadbeef",
			},
			status: http.StatusUnauthorized,
		},
		{
			name:   "malformed body",
			body:   []byte("{not json"),
			status: http.StatusBadRequest,
		},
		{
			name: "unparseable order id",
			body: signed(notification{
				OrderID: "no-dots", GrossAmount: "50.00",
				TransactionID: "tx-4", TransactionStatus: "settlement",
			}),
			status: http.StatusBadRequest,
		},
		{
			name: "unknown split",
			body: signed(notification{
				OrderID: gateway.OrderID("missing", "bob"), GrossAmount: "50.00",
				TransactionID: "tx-5", TransactionStatus: "settlement",
			}),
			status: http.StatusNotFound,
		},
		{
			name: "unknown participant",
			body: signed(notification{
				OrderID: gateway.OrderID(split.ID, "zed"), GrossAmount: "50.00",
				TransactionID: "tx-6", TransactionStatus: "settlement",
			}),
			status: http.StatusNotFound,
		},
		{
			name: "zero amount",
			body: signed(notification{
				OrderID: gateway.OrderID(split.ID, "bob"), GrossAmount: "0.00",
				TransactionID: "tx-7", TransactionStatus: "settlement",
			}),
			status: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := post(t, h, tt.body)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}

	payments, err := store.ListPayments(context.Background(), split.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(payments) != 0 {
		t.Errorf("rejected notifications recorded %d payments", len(payments))
	}
}
