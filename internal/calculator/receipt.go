package calculator

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitsettle/internal/models"
)

// AllocateReceiptSplit computes what each participant owes from itemized claims.
//
// Each item's line total is divided evenly among its claimants (claim order
// breaks ties). Tax and tip are then spread proportionally to each
// participant's claimed subtotal:
//
//	person_tax = tax × person_subtotal / bill_subtotal
//
// Items, tax and tip are each apportioned separately so every component sums
// exactly. Participants who claimed nothing owe zero.
func AllocateReceiptSplit(items []models.ReceiptItem, alloc models.TaxTipAllocation, participantIDs []string) (Shares, error) {
	if len(participantIDs) == 0 {
		return nil, ErrNoParticipants
	}
	if alloc.TaxCents < 0 || alloc.TipCents < 0 || alloc.SubtotalCents < 0 {
		return nil, invalid(ReasonInvalidTotal, "tax %d, tip %d, subtotal %d", alloc.TaxCents, alloc.TipCents, alloc.SubtotalCents)
	}
	if alloc.SubtotalCents > math.MaxInt64-alloc.TaxCents || alloc.SubtotalCents+alloc.TaxCents > math.MaxInt64-alloc.TipCents {
		return nil, invalid(ReasonInvalidTotal, "receipt total overflows")
	}
	if alloc.Total() <= 0 {
		return nil, invalid(ReasonInvalidTotal, "receipt total must be positive, got %d", alloc.Total())
	}

	index := make(map[string]int, len(participantIDs))
	for i, id := range participantIDs {
		if _, dup := index[id]; dup {
			return nil, invalid(ReasonDuplicateParticipant, "%s", id)
		}
		index[id] = i
	}

	subtotals := make([]int64, len(participantIDs))
	var itemsTotal int64
	for _, item := range items {
		if item.PriceCents < 0 || item.Quantity <= 0 {
			return nil, invalid(ReasonInvalidItem, "item %s: price %d, quantity %d", item.ID, item.PriceCents, item.Quantity)
		}
		if len(item.ClaimedBy) == 0 {
			return nil, invalid(ReasonUnassignedItem, "%s", item.ID)
		}

		claimed := make(map[string]bool, len(item.ClaimedBy))
		for _, id := range item.ClaimedBy {
			if _, ok := index[id]; !ok {
				return nil, invalid(ReasonUnknownParticipant, "item %s claimed by %s", item.ID, id)
			}
			if claimed[id] {
				return nil, invalid(ReasonDuplicateParticipant, "item %s claimed twice by %s", item.ID, id)
			}
			claimed[id] = true
		}

		if item.PriceCents > 0 && item.Quantity > math.MaxInt64/item.PriceCents {
			return nil, invalid(ReasonInvalidItem, "item %s: %d x %d overflows", item.ID, item.PriceCents, item.Quantity)
		}
		line := item.LineTotal()
		if line > math.MaxInt64-itemsTotal {
			return nil, invalid(ReasonInvalidItem, "item %s: items total overflows", item.ID)
		}
		parts, err := Apportion(line, item.ClaimedBy, equalWeights(len(item.ClaimedBy)))
		if err != nil {
			return nil, err
		}
		for _, p := range parts {
			subtotals[index[p.ParticipantID]] += p.Cents
		}
		itemsTotal += line
	}

	if itemsTotal != alloc.SubtotalCents {
		return nil, invalid(ReasonSubtotalMismatch, "items sum to %d, receipt subtotal is %d", itemsTotal, alloc.SubtotalCents)
	}

	weights := make([]decimal.Decimal, len(subtotals))
	for i, s := range subtotals {
		weights[i] = decimal.NewFromInt(s)
	}

	taxes, err := spreadProportionally(alloc.TaxCents, participantIDs, weights, itemsTotal)
	if err != nil {
		return nil, err
	}
	tips, err := spreadProportionally(alloc.TipCents, participantIDs, weights, itemsTotal)
	if err != nil {
		return nil, err
	}

	shares := make(Shares, len(participantIDs))
	for i, id := range participantIDs {
		shares[i] = Share{
			ParticipantID: id,
			Cents:         subtotals[i] + taxes[i].Cents + tips[i].Cents,
		}
	}
	return shares, nil
}

// spreadProportionally apportions amount by claimed subtotal. A zero amount
// yields zeros; a positive amount over a zero subtotal has no basis.
func spreadProportionally(amount int64, ids []string, weights []decimal.Decimal, subtotal int64) (Shares, error) {
	if amount == 0 {
		return make(Shares, len(ids)), nil
	}
	if subtotal == 0 {
		return nil, invalid(ReasonInvalidTotal, "cannot spread %d over a zero subtotal", amount)
	}
	return Apportion(amount, ids, weights)
}
