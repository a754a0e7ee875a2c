package service

import (
	"github.com/mmynk/splitsettle/internal/calculator"
	"github.com/mmynk/splitsettle/internal/models"
	splitv1 "github.com/mmynk/splitsettle/pkg/api/splitv1"
)

// draftFromInput turns a request into a draft split and the resolver input.
func draftFromInput(in splitv1.SplitInput) (*models.Split, calculator.Input) {
	split := &models.Split{
		Title:      in.Title,
		TotalCents: in.TotalCents,
		Method:     models.Method(in.Method),
		Status:     models.SplitDraft,
	}

	resolverIn := calculator.Input{ParticipantIDs: make([]string, len(in.Participants))}
	for i, p := range in.Participants {
		resolverIn.ParticipantIDs[i] = p.ID
		split.Participants = append(split.Participants, models.Participant{
			ID:          p.ID,
			DisplayName: p.DisplayName,
			Status:      models.ParticipantPending,
		})
	}

	for _, p := range in.Percentages {
		resolverIn.Percentages = append(resolverIn.Percentages, calculator.PercentageShare{
			ParticipantID: p.ParticipantID,
			Percent:       p.Percent,
		})
	}
	for _, a := range in.Amounts {
		resolverIn.Amounts = append(resolverIn.Amounts, calculator.Share{ParticipantID: a.ParticipantID, Cents: a.AmountCents})
	}

	if in.Receipt != nil {
		receipt := receiptFromAPI(in.Receipt)
		resolverIn.Items = receipt.Items
		resolverIn.TaxTip = receipt.TaxTip
		if split.Method == models.MethodReceipt {
			split.Receipt = receipt
			if split.TotalCents == 0 {
				split.TotalCents = receipt.TaxTip.Total()
			}
		}
	}

	return split, resolverIn
}

func receiptFromAPI(r *splitv1.Receipt) *models.Receipt {
	receipt := &models.Receipt{
		TaxTip: models.TaxTipAllocation{
			TaxCents:      r.TaxCents,
			TipCents:      r.TipCents,
			SubtotalCents: r.SubtotalCents,
		},
		Confidence: r.Confidence,
	}
	for _, it := range r.Items {
		receipt.Items = append(receipt.Items, models.ReceiptItem{
			ID:         it.ID,
			Name:       it.Name,
			PriceCents: it.PriceCents,
			Quantity:   it.Quantity,
			ClaimedBy:  append([]string(nil), it.ClaimedBy...),
		})
	}
	return receipt
}

func receiptToAPI(r *models.Receipt) *splitv1.Receipt {
	if r == nil {
		return nil
	}
	out := &splitv1.Receipt{
		SubtotalCents: r.TaxTip.SubtotalCents,
		TaxCents:      r.TaxTip.TaxCents,
		TipCents:      r.TaxTip.TipCents,
		Confidence:    r.Confidence,
	}
	for _, it := range r.Items {
		out.Items = append(out.Items, splitv1.ReceiptItem{
			ID:         it.ID,
			Name:       it.Name,
			PriceCents: it.PriceCents,
			Quantity:   it.Quantity,
			ClaimedBy:  it.ClaimedBy,
		})
	}
	return out
}

func splitToAPI(split *models.Split) *splitv1.Split {
	outstanding := calculator.Outstanding(split)
	out := &splitv1.Split{
		ID:         split.ID,
		Title:      split.Title,
		TotalCents: split.TotalCents,
		Method:     string(split.Method),
		CreatorID:  split.CreatorID,
		Status:     string(split.Status),
		CreatedAt:  split.CreatedAt,
		Receipt:    receiptToAPI(split.Receipt),
		Progress:   progressToAPI(calculator.ComputeProgress(split)),
	}
	for i, p := range split.Participants {
		out.Participants = append(out.Participants, splitv1.ParticipantState{
			ID:               p.ID,
			DisplayName:      p.DisplayName,
			AmountOwedCents:  p.AmountOwed,
			AmountPaidCents:  p.AmountPaid,
			OutstandingCents: outstanding[i].Cents,
			Status:           string(p.Status),
			Version:          p.Version,
		})
	}
	return out
}

func progressToAPI(p calculator.Progress) splitv1.Progress {
	return splitv1.Progress{
		PaidCount:           p.PaidCount,
		TotalCount:          p.TotalCount,
		TotalCollectedCents: p.TotalCollected,
		IsSettled:           p.IsSettled,
	}
}

func sharesToAPI(shares calculator.Shares) []splitv1.AmountShare {
	out := make([]splitv1.AmountShare, len(shares))
	for i, s := range shares {
		out[i] = splitv1.AmountShare{ParticipantID: s.ParticipantID, AmountCents: s.Cents}
	}
	return out
}

func paymentToAPI(p *models.Payment) splitv1.Payment {
	return splitv1.Payment{
		ID:            p.ID,
		EventID:       p.EventID,
		ParticipantID: p.ParticipantID,
		AmountCents:   p.AmountCents,
		Source:        p.Source,
		ReceivedAt:    p.ReceivedAt,
	}
}

func parsedReceiptToAPI(r *models.ParsedReceipt) splitv1.ParsedReceipt {
	out := splitv1.ParsedReceipt{
		Items:         make([]splitv1.ParsedItem, len(r.Items)),
		SubtotalCents: r.SubtotalCents,
		TaxCents:      r.TaxCents,
		TipCents:      r.TipCents,
		TotalCents:    r.TotalCents,
		Confidence:    r.Confidence,
	}
	for i, it := range r.Items {
		out.Items[i] = splitv1.ParsedItem{Name: it.Name, PriceCents: it.PriceCents, Quantity: it.Quantity}
	}
	return out
}
