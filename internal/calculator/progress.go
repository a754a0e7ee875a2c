package calculator

import "github.com/mmynk/splitsettle/internal/models"

// Progress summarizes how far a split is from settlement.
type Progress struct {
	PaidCount  int
	TotalCount int

	// TotalCollected sums min(paid, owed) per participant, so an overpayment
	// never shows as more than the split total.
	TotalCollected int64

	IsSettled bool
}

// ComputeProgress derives progress from the participants' current amounts.
// It is recomputed on every call and never cached.
func ComputeProgress(split *models.Split) Progress {
	p := Progress{TotalCount: len(split.Participants)}
	for _, part := range split.Participants {
		if part.AmountPaid >= part.AmountOwed {
			p.PaidCount++
		}
		p.TotalCollected += min(part.AmountPaid, part.AmountOwed)
	}
	p.IsSettled = p.TotalCount > 0 && p.PaidCount == p.TotalCount
	return p
}

// Outstanding returns what each participant still owes, clamped at zero.
func Outstanding(split *models.Split) Shares {
	out := make(Shares, len(split.Participants))
	for i, part := range split.Participants {
		out[i] = Share{ParticipantID: part.ID, Cents: max(part.AmountOwed-part.AmountPaid, 0)}
	}
	return out
}
