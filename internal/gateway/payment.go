package gateway

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/midtrans/midtrans-go/coreapi"

	"github.com/mmynk/splitsettle/internal/models"
)

// SourceMidtrans tags payment events that arrived through the provider webhook.
const SourceMidtrans = "midtrans"

// Provider timestamps are reported in Western Indonesia Time.
var providerZone = time.FixedZone("WIB", 7*60*60)

// PaymentNotifier decodes and verifies payment provider notifications.
type PaymentNotifier struct {
	serverKey string
	now       func() time.Time
}

// NewPaymentNotifier creates a notifier that verifies signatures with serverKey.
// An empty key disables verification, which is only meant for local testing.
func NewPaymentNotifier(serverKey string) *PaymentNotifier {
	return &PaymentNotifier{serverKey: serverKey, now: time.Now}
}

// OrderID builds the provider order id for one participant's payment.
// The trailing nonce lets a participant pay in several transactions.
func OrderID(splitID, participantID string) string {
	nonce := strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	return splitID + "." + participantID + "." + nonce
}

// ParseOrderID extracts the split and participant ids from an order id made by OrderID.
func ParseOrderID(orderID string) (splitID, participantID string, err error) {
	first := strings.Index(orderID, ".")
	last := strings.LastIndex(orderID, ".")
	if first <= 0 || last <= first+1 || last == len(orderID)-1 {
		return "", "", fmt.Errorf("malformed order id %q", orderID)
	}
	return orderID[:first], orderID[first+1 : last], nil
}

// Decode parses a notification body and verifies its signature.
func (n *PaymentNotifier) Decode(body []byte) (*coreapi.TransactionStatusResponse, error) {
	var notif coreapi.TransactionStatusResponse
	if err := json.Unmarshal(body, &notif); err != nil {
		return nil, &ExternalServiceError{Service: SourceMidtrans, Op: "decode notification", Err: err}
	}
	if err := n.Verify(&notif); err != nil {
		return nil, err
	}
	return &notif, nil
}

// Verify checks SHA512(order_id + status_code + gross_amount + server key).
func (n *PaymentNotifier) Verify(notif *coreapi.TransactionStatusResponse) error {
	if n.serverKey == "" {
		return nil
	}
	want := Signature(notif.OrderID, notif.StatusCode, notif.GrossAmount, n.serverKey)
	if subtle.ConstantTimeCompare([]byte(want), []byte(strings.ToLower(notif.SignatureKey))) != 1 {
		return fmt.Errorf("order %s: %w", notif.OrderID, ErrInvalidSignature)
	}
	return nil
}

// Signature computes the provider's notification signature.
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// IsCompleted reports whether the notification means money was received.
// Card captures count only once the provider's fraud check accepted them.
func IsCompleted(notif *coreapi.TransactionStatusResponse) bool {
	switch notif.TransactionStatus {
	case "settlement":
		return true
	case "capture":
		return notif.FraudStatus == "" || notif.FraudStatus == "accept"
	}
	return false
}

// ToPaymentEvent maps a completed notification to a PaymentEvent. The
// provider's transaction id is the idempotency key, so repeated deliveries of
// the same transaction collapse into one event.
func (n *PaymentNotifier) ToPaymentEvent(notif *coreapi.TransactionStatusResponse) (models.PaymentEvent, error) {
	splitID, participantID, err := ParseOrderID(notif.OrderID)
	if err != nil {
		return models.PaymentEvent{}, &ExternalServiceError{Service: SourceMidtrans, Op: "map notification", Err: err}
	}
	if notif.TransactionID == "" {
		return models.PaymentEvent{}, &ExternalServiceError{
			Service: SourceMidtrans, Op: "map notification",
			Err: fmt.Errorf("order %s has no transaction id", notif.OrderID),
		}
	}
	amount, err := exactCents(notif.GrossAmount)
	if err != nil {
		return models.PaymentEvent{}, &ExternalServiceError{Service: SourceMidtrans, Op: "map notification", Err: err}
	}

	return models.PaymentEvent{
		EventID:       SourceMidtrans + ":" + notif.TransactionID,
		SplitID:       splitID,
		ParticipantID: participantID,
		AmountCents:   amount,
		ReceivedAt:    n.receivedAt(notif),
		Source:        SourceMidtrans,
	}, nil
}

func (n *PaymentNotifier) receivedAt(notif *coreapi.TransactionStatusResponse) int64 {
	for _, ts := range []string{notif.SettlementTime, notif.TransactionTime} {
		if ts == "" {
			continue
		}
		if t, err := time.ParseInLocation(time.DateTime, ts, providerZone); err == nil {
			return t.Unix()
		}
	}
	return n.now().Unix()
}
