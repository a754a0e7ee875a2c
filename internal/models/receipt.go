package models

// ReceiptItem is a single line on an itemized receipt.
type ReceiptItem struct {
	// ID is the unique identifier for the item (UUID format).
	ID string

	// Name is the description printed on the receipt (e.g., "Pizza").
	Name string

	// PriceCents is the unit price in cents.
	PriceCents int64

	// Quantity is the number of units; the line total is PriceCents × Quantity.
	Quantity int64

	// ClaimedBy lists the participant ids sharing this item, in claim order.
	// Claim order is the tie-break order when the line total does not divide evenly.
	ClaimedBy []string
}

// LineTotal returns the price of the whole line in cents. It does not check
// for overflow; AllocateReceiptSplit rejects lines that would wrap.
func (i ReceiptItem) LineTotal() int64 {
	return i.PriceCents * i.Quantity
}

// TaxTipAllocation carries the receipt-level amounts spread proportionally
// over claimed subtotals.
type TaxTipAllocation struct {
	TaxCents      int64
	TipCents      int64
	SubtotalCents int64
}

// Total returns subtotal + tax + tip.
func (a TaxTipAllocation) Total() int64 {
	return a.SubtotalCents + a.TaxCents + a.TipCents
}

// Receipt is the itemized input stored with a receipt split.
type Receipt struct {
	Items  []ReceiptItem
	TaxTip TaxTipAllocation

	// Confidence is the OCR confidence score passed through as metadata.
	// It never influences allocation.
	Confidence float64
}

// ParsedItem is one OCR line after boundary mapping.
type ParsedItem struct {
	Name       string
	PriceCents int64
	Quantity   int64
}

// ParsedReceipt is the OCR collaborator's output expressed in integer cents.
type ParsedReceipt struct {
	Items         []ParsedItem
	SubtotalCents int64
	TaxCents      int64
	TipCents      int64
	TotalCents    int64
	Confidence    float64
}
