// Package settlement applies payment events to split participants and
// derives when a split is fully settled.
package settlement

import "github.com/mmynk/splitsettle/internal/models"

// ApplyPayment returns p with amount added to what it has paid. The status
// flips to paid once the paid amount covers the owed amount and never flips back.
// Overpayments are kept as received.
func ApplyPayment(p models.Participant, amount int64) models.Participant {
	p.AmountPaid += amount
	if p.AmountPaid >= p.AmountOwed {
		p.Status = models.ParticipantPaid
	}
	return p
}

// IsSettled reports whether every participant has paid at least what they owe.
// An empty participant list is never settled.
func IsSettled(participants []models.Participant) bool {
	if len(participants) == 0 {
		return false
	}
	for _, p := range participants {
		if p.AmountPaid < p.AmountOwed {
			return false
		}
	}
	return true
}
