package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitsettle/internal/models"
)

const SourceOCR = "ocr"

// looseAmount accepts a JSON number, a numeric string like "$1,234.50" or null.
type looseAmount struct {
	raw   string
	valid bool
}

func (a *looseAmount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = looseAmount{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		*a = looseAmount{raw: s, valid: s != ""}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("amount must be a number or string: %w", err)
	}
	*a = looseAmount{raw: n.String(), valid: true}
	return nil
}

func (a looseAmount) cents() (int64, error) {
	if !a.valid {
		return 0, nil
	}
	return toCents(a.raw)
}

type ocrItem struct {
	Name     string      `json:"name"`
	Price    looseAmount `json:"price"`
	Quantity looseAmount `json:"quantity"`
}

type ocrPayload struct {
	Items      []ocrItem   `json:"items"`
	Subtotal   looseAmount `json:"subtotal"`
	Tax        looseAmount `json:"tax"`
	Tip        looseAmount `json:"tip"`
	Total      looseAmount `json:"total"`
	Confidence float64     `json:"confidence"`
}

// ParseReceipt maps raw OCR output to a ParsedReceipt in cents.
//
// Prices are in major units and rounded half-to-even to the cent. A missing
// quantity means one unit. A fractional quantity (1.5 kg) is folded into a
// single unit priced at the rounded line total. Missing subtotal or total are
// derived from the items. Confidence is clamped to [0, 1] and otherwise
// passed through untouched.
func ParseReceipt(raw []byte) (*models.ParsedReceipt, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, malformedReceipt(fmt.Errorf("empty OCR result"))
	}

	var payload ocrPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, malformedReceipt(err)
	}

	out := &models.ParsedReceipt{Confidence: min(max(payload.Confidence, 0), 1)}
	var itemsTotal int64
	for i, it := range payload.Items {
		item, err := mapItem(it)
		if err != nil {
			return nil, malformedReceipt(fmt.Errorf("item %d: %w", i, err))
		}
		if item.PriceCents > 0 && item.Quantity > math.MaxInt64/item.PriceCents {
			return nil, malformedReceipt(fmt.Errorf("item %d: line total overflows", i))
		}
		line := item.PriceCents * item.Quantity
		if line > math.MaxInt64-itemsTotal {
			return nil, malformedReceipt(fmt.Errorf("item %d: items total overflows", i))
		}
		out.Items = append(out.Items, item)
		itemsTotal += line
	}

	var err error
	amounts := []struct {
		src *looseAmount
		dst *int64
	}{
		{&payload.Subtotal, &out.SubtotalCents},
		{&payload.Tax, &out.TaxCents},
		{&payload.Tip, &out.TipCents},
		{&payload.Total, &out.TotalCents},
	}
	for _, a := range amounts {
		if *a.dst, err = a.src.cents(); err != nil {
			return nil, malformedReceipt(err)
		}
	}

	if !payload.Subtotal.valid {
		out.SubtotalCents = itemsTotal
	}
	if !payload.Total.valid {
		out.TotalCents = out.SubtotalCents + out.TaxCents + out.TipCents
	}
	return out, nil
}

func malformedReceipt(err error) error {
	return &ExternalServiceError{Service: SourceOCR, Op: "parse receipt", Err: fmt.Errorf("%w: %w", ErrMalformedPayload, err)}
}

func mapItem(it ocrItem) (models.ParsedItem, error) {
	name := strings.TrimSpace(it.Name)
	if !it.Price.valid {
		return models.ParsedItem{}, fmt.Errorf("%q has no price", name)
	}
	price, err := parseDecimal(it.Price.raw)
	if err != nil {
		return models.ParsedItem{}, err
	}

	qty := decimal.NewFromInt(1)
	if it.Quantity.valid {
		if qty, err = parseDecimal(it.Quantity.raw); err != nil {
			return models.ParsedItem{}, err
		}
		if !qty.IsPositive() {
			return models.ParsedItem{}, fmt.Errorf("%q has quantity %s", name, qty)
		}
	}

	if qty.IsInteger() {
		return models.ParsedItem{
			Name:       name,
			PriceCents: price.Shift(2).RoundBank(0).IntPart(),
			Quantity:   qty.IntPart(),
		}, nil
	}
	return models.ParsedItem{
		Name:       fmt.Sprintf("%s (%s)", name, qty),
		PriceCents: price.Mul(qty).Shift(2).RoundBank(0).IntPart(),
		Quantity:   1,
	}, nil
}
