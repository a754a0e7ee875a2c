package calculator

import "github.com/mmynk/splitsettle/internal/models"

// ValidateShares checks a candidate share list against the split's
// participants before it may be persisted. Checks run in a fixed order and
// stop at the first violation:
//
//  1. shares sum exactly to totalCents
//  2. no share is negative
//  3. every participant has exactly one share and no share names a stranger
//  4. there is at least one participant
//  5. totalCents is positive
//
// The inputs are never modified.
func ValidateShares(totalCents int64, participantIDs []string, shares Shares) error {
	if sum := shares.Total(); sum != totalCents {
		return invalid(ReasonSumMismatch, "shares sum to %d, total is %d", sum, totalCents)
	}

	for _, s := range shares {
		if s.Cents < 0 {
			return invalid(ReasonNegativeShare, "%s owes %d", s.ParticipantID, s.Cents)
		}
	}

	known := make(map[string]bool, len(participantIDs))
	for _, id := range participantIDs {
		if known[id] {
			return invalid(ReasonDuplicateParticipant, "%s listed twice", id)
		}
		known[id] = true
	}
	seen := make(map[string]bool, len(shares))
	for _, s := range shares {
		if !known[s.ParticipantID] {
			return invalid(ReasonUnknownParticipant, "%s", s.ParticipantID)
		}
		if seen[s.ParticipantID] {
			return invalid(ReasonDuplicateParticipant, "%s has more than one share", s.ParticipantID)
		}
		seen[s.ParticipantID] = true
	}
	for _, id := range participantIDs {
		if !seen[id] {
			return invalid(ReasonMissingShare, "%s", id)
		}
	}

	if len(participantIDs) == 0 {
		return ErrNoParticipants
	}

	if totalCents <= 0 {
		return invalid(ReasonInvalidTotal, "total must be positive, got %d", totalCents)
	}
	return nil
}

// ValidateSplit checks the owed amounts stored on a split's participants.
func ValidateSplit(split *models.Split) error {
	shares := make(Shares, len(split.Participants))
	for i, p := range split.Participants {
		shares[i] = Share{ParticipantID: p.ID, Cents: p.AmountOwed}
	}
	return ValidateShares(split.TotalCents, split.ParticipantIDs(), shares)
}
