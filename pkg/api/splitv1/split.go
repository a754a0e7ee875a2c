// Package splitv1 defines the request and response messages of the
// splitsettle.v1.SplitService API. Amounts are integer cents; percentages are
// decimals so they never pass through a float.
package splitv1

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Allocation methods accepted in CreateSplitRequest.Method.
const (
	MethodEqual      = "equal"
	MethodCustom     = "custom"
	MethodPercentage = "percentage"
	MethodReceipt    = "receipt"
)

type Participant struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
}

type PercentageShare struct {
	ParticipantID string          `json:"participant_id"`
	Percent       decimal.Decimal `json:"percent"`
}

type AmountShare struct {
	ParticipantID string `json:"participant_id"`
	AmountCents   int64  `json:"amount_cents"`
}

type ReceiptItem struct {
	ID         string   `json:"id,omitempty"`
	Name       string   `json:"name"`
	PriceCents int64    `json:"price_cents"`
	Quantity   int64    `json:"quantity"`
	ClaimedBy  []string `json:"claimed_by"`
}

type Receipt struct {
	Items         []ReceiptItem `json:"items"`
	SubtotalCents int64         `json:"subtotal_cents"`
	TaxCents      int64         `json:"tax_cents"`
	TipCents      int64         `json:"tip_cents"`
	Confidence    float64       `json:"confidence,omitempty"`
}

// SplitInput describes a split to compute. Only the field matching Method is read.
type SplitInput struct {
	Title        string            `json:"title,omitempty"`
	TotalCents   int64             `json:"total_cents"`
	Method       string            `json:"method"`
	Participants []Participant     `json:"participants"`
	Percentages  []PercentageShare `json:"percentages,omitempty"`
	Amounts      []AmountShare     `json:"amounts,omitempty"`

	// Receipt is required for the receipt method. A zero TotalCents is then
	// taken from subtotal + tax + tip.
	Receipt *Receipt `json:"receipt,omitempty"`
}

type ParticipantState struct {
	ID               string `json:"id"`
	DisplayName      string `json:"display_name,omitempty"`
	AmountOwedCents  int64  `json:"amount_owed_cents"`
	AmountPaidCents  int64  `json:"amount_paid_cents"`
	OutstandingCents int64  `json:"outstanding_cents"`
	Status           string `json:"status"`
	Version          int64  `json:"version"`
}

type Progress struct {
	PaidCount           int   `json:"paid_count"`
	TotalCount          int   `json:"total_count"`
	TotalCollectedCents int64 `json:"total_collected_cents"`
	IsSettled           bool  `json:"is_settled"`
}

type Split struct {
	ID           string             `json:"id"`
	Title        string             `json:"title"`
	TotalCents   int64              `json:"total_cents"`
	Method       string             `json:"method"`
	CreatorID    string             `json:"creator_id"`
	Status       string             `json:"status"`
	CreatedAt    int64              `json:"created_at"`
	Participants []ParticipantState `json:"participants"`
	Receipt      *Receipt           `json:"receipt,omitempty"`
	Progress     Progress           `json:"progress"`
}

type Payment struct {
	ID            string `json:"id"`
	EventID       string `json:"event_id"`
	ParticipantID string `json:"participant_id"`
	AmountCents   int64  `json:"amount_cents"`
	Source        string `json:"source"`
	ReceivedAt    int64  `json:"received_at"`
}

type ParsedItem struct {
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Quantity   int64  `json:"quantity"`
}

type ParsedReceipt struct {
	Items         []ParsedItem `json:"items"`
	SubtotalCents int64        `json:"subtotal_cents"`
	TaxCents      int64        `json:"tax_cents"`
	TipCents      int64        `json:"tip_cents"`
	TotalCents    int64        `json:"total_cents"`
	Confidence    float64      `json:"confidence"`
}

type CreateSplitRequest struct {
	SplitInput
}

type CreateSplitResponse struct {
	Split *Split `json:"split"`
}

type GetSplitRequest struct {
	SplitID string `json:"split_id"`
}

type GetSplitResponse struct {
	Split *Split `json:"split"`
}

type ListSplitsRequest struct{}

type ListSplitsResponse struct {
	Splits []*Split `json:"splits"`
}

type PreviewSplitRequest struct {
	SplitInput
}

type PreviewSplitResponse struct {
	Shares []AmountShare `json:"shares"`
}

type RecordPaymentRequest struct {
	EventID       string `json:"event_id"`
	SplitID       string `json:"split_id"`
	ParticipantID string `json:"participant_id"`
	AmountCents   int64  `json:"amount_cents"`
}

type RecordPaymentResponse struct {
	Split *Split `json:"split"`
}

type GetProgressRequest struct {
	SplitID string `json:"split_id"`
}

type GetProgressResponse struct {
	Progress    Progress      `json:"progress"`
	Outstanding []AmountShare `json:"outstanding"`
}

type ListPaymentsRequest struct {
	SplitID string `json:"split_id"`
}

type ListPaymentsResponse struct {
	Payments []Payment `json:"payments"`
}

// ParseReceiptRequest carries the OCR collaborator's raw JSON output.
type ParseReceiptRequest struct {
	OCRResult json.RawMessage `json:"ocr_result,omitempty"`
}

type ParseReceiptResponse struct {
	Receipt ParsedReceipt `json:"receipt"`
}
