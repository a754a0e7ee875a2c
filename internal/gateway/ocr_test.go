package gateway

import (
	"errors"
	"testing"

	"github.com/mmynk/splitsettle/internal/models"
)

func TestParseReceipt(t *testing.T) {
	t.Run("numbers and strings", func(t *testing.T) {
		raw := `{
			"items": [
				{"name": " Burger ", "price": 12.5, "quantity": 2},
				{"name": "Fries", "price": "$3.99"},
				{"name": "Wine", "price": "1,024.00", "quantity": "1"}
			],
			"subtotal": 1052.99,
			"tax": "84.24",
			"tip": null,
			"total": 1137.23,
			"confidence": 0.92
		}`
		got, err := ParseReceipt([]byte(raw))
		if err != nil {
			t.Fatalf("ParseReceipt failed: %v", err)
		}
		want := []models.ParsedItem{
			{Name: "Burger", PriceCents: 1250, Quantity: 2},
			{Name: "Fries", PriceCents: 399, Quantity: 1},
			{Name: "Wine", PriceCents: 102400, Quantity: 1},
		}
		if len(got.Items) != len(want) {
			t.Fatalf("items = %+v", got.Items)
		}
		for i := range want {
			if got.Items[i] != want[i] {
				t.Errorf("item %d = %+v, want %+v", i, got.Items[i], want[i])
			}
		}
		if got.SubtotalCents != 105299 || got.TaxCents != 8424 || got.TipCents != 0 || got.TotalCents != 113723 {
			t.Errorf("amounts = %+v", got)
		}
		if got.Confidence != 0.92 {
			t.Errorf("confidence = %v", got.Confidence)
		}
	})

	t.Run("derives missing subtotal and total", func(t *testing.T) {
		got, err := ParseReceipt([]byte(`{"items":[{"name":"A","price":1.10,"quantity":3}],"tax":0.30,"tip":"1"}`))
		if err != nil {
			t.Fatal(err)
		}
		if got.SubtotalCents != 330 || got.TotalCents != 460 {
			t.Errorf("subtotal = %d total = %d", got.SubtotalCents, got.TotalCents)
		}
	})

	t.Run("rounds half to even", func(t *testing.T) {
		got, err := ParseReceipt([]byte(`{"items":[{"name":"A","price":0.125},{"name":"B","price":0.135}]}`))
		if err != nil {
			t.Fatal(err)
		}
		if got.Items[0].PriceCents != 12 || got.Items[1].PriceCents != 14 {
			t.Errorf("items = %+v", got.Items)
		}
	})

	t.Run("fractional quantity folds into one unit", func(t *testing.T) {
		got, err := ParseReceipt([]byte(`{"items":[{"name":"Cheese","price":"10.00","quantity":1.5}]}`))
		if err != nil {
			t.Fatal(err)
		}
		item := got.Items[0]
		if item.PriceCents != 1500 || item.Quantity != 1 || item.Name != "Cheese (1.5)" {
			t.Errorf("item = %+v", item)
		}
	})

	t.Run("confidence is clamped", func(t *testing.T) {
		got, _ := ParseReceipt([]byte(`{"confidence": 7}`))
		if got.Confidence != 1 {
			t.Errorf("confidence = %v, want 1", got.Confidence)
		}
	})

	errorCases := map[string]string{
		"not json":      `[1,2`,
		"missing price": `{"items":[{"name":"A"}]}`,
		"zero quantity": `{"items":[{"name":"A","price":1,"quantity":0}]}`,
		"bad tax":       `{"tax":"n/a"}`,
		"object amount": `{"total":{"value":1}}`,
		"null":          `null`,
		"empty":         `  `,
		"line overflow": `{"items":[{"name":"A","price":"92233720368547758.07","quantity":2}]}`,
		"sum overflow":  `{"items":[{"name":"A","price":50000000000000000},{"name":"B","price":50000000000000000}]}`,
	}
	for name, raw := range errorCases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseReceipt([]byte(raw))
			var ext *ExternalServiceError
			if !errors.As(err, &ext) || ext.Service != SourceOCR {
				t.Errorf("expected OCR ExternalServiceError, got %v", err)
			}
			if !errors.Is(err, ErrMalformedPayload) {
				t.Errorf("expected ErrMalformedPayload, got %v", err)
			}
		})
	}
}
