package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitsettle/internal/models"
)

// percentTolerance is how far a percentage map may drift from 100 before it is rejected.
var percentTolerance = decimal.RequireFromString("0.01")

var hundred = decimal.NewFromInt(100)

// PercentageShare assigns a percentage of the total to one participant.
type PercentageShare struct {
	ParticipantID string
	Percent       decimal.Decimal
}

// Input carries the method-specific arguments for Resolve.
// Only the field matching the method is read.
type Input struct {
	ParticipantIDs []string
	Percentages    []PercentageShare
	Amounts        Shares
	Items          []models.ReceiptItem
	TaxTip         models.TaxTipAllocation
}

// Resolve computes per-participant shares for any supported method.
// Receipt splits take their total from TaxTip; other methods use totalCents.
func Resolve(totalCents int64, method models.Method, in Input) (Shares, error) {
	switch method {
	case models.MethodEqual:
		return ResolveEqualSplit(totalCents, in.ParticipantIDs)
	case models.MethodPercentage:
		return ResolvePercentageSplit(totalCents, in.Percentages)
	case models.MethodCustom:
		return ResolveCustomSplit(totalCents, in.Amounts)
	case models.MethodReceipt:
		if in.TaxTip.Total() != totalCents {
			return nil, invalid(ReasonSumMismatch, "receipt total %d does not match split total %d", in.TaxTip.Total(), totalCents)
		}
		return AllocateReceiptSplit(in.Items, in.TaxTip, in.ParticipantIDs)
	default:
		return nil, invalid(ReasonUnknownMethod, "%q", method)
	}
}

// ResolveEqualSplit divides totalCents evenly. Leftover cents go to the
// earliest participants in input order.
func ResolveEqualSplit(totalCents int64, participantIDs []string) (Shares, error) {
	if err := checkTotalAndIDs(totalCents, participantIDs); err != nil {
		return nil, err
	}
	return Apportion(totalCents, participantIDs, equalWeights(len(participantIDs)))
}

// ResolvePercentageSplit divides totalCents by percentage. The percentages
// must sum to 100 within 0.01; each exact share is taken relative to the
// actual sum and the rounding leftover is apportioned by largest remainder.
func ResolvePercentageSplit(totalCents int64, pcts []PercentageShare) (Shares, error) {
	ids := make([]string, len(pcts))
	weights := make([]decimal.Decimal, len(pcts))
	sum := decimal.Zero
	for i, p := range pcts {
		if p.Percent.IsNegative() {
			return nil, invalid(ReasonInvalidPercentage, "%s has %s%%", p.ParticipantID, p.Percent)
		}
		ids[i] = p.ParticipantID
		weights[i] = p.Percent
		sum = sum.Add(p.Percent)
	}
	if err := checkTotalAndIDs(totalCents, ids); err != nil {
		return nil, err
	}
	if sum.Sub(hundred).Abs().GreaterThan(percentTolerance) {
		return nil, invalid(ReasonPercentageSumMismatch, "percentages sum to %s", sum)
	}
	return Apportion(totalCents, ids, weights)
}

// ResolveCustomSplit accepts caller-entered amounts as they are. No rounding
// correction is applied: any mismatch with totalCents is rejected.
func ResolveCustomSplit(totalCents int64, amounts Shares) (Shares, error) {
	ids := make([]string, len(amounts))
	for i, a := range amounts {
		ids[i] = a.ParticipantID
	}
	if err := checkTotalAndIDs(totalCents, ids); err != nil {
		return nil, err
	}
	out := make(Shares, len(amounts))
	copy(out, amounts)
	if err := ValidateShares(totalCents, ids, out); err != nil {
		return nil, err
	}
	return out, nil
}

func checkTotalAndIDs(totalCents int64, ids []string) error {
	if len(ids) == 0 {
		return ErrNoParticipants
	}
	if totalCents <= 0 {
		return invalid(ReasonInvalidTotal, "total must be positive, got %d", totalCents)
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return invalid(ReasonDuplicateParticipant, "%s", id)
		}
		seen[id] = true
	}
	return nil
}
