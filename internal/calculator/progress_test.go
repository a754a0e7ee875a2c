package calculator

import (
	"testing"

	"github.com/mmynk/splitsettle/internal/models"
)

func TestComputeProgress(t *testing.T) {
	tests := []struct {
		name         string
		participants []models.Participant
		want         Progress
	}{
		{
			name: "nothing paid",
			participants: []models.Participant{
				{ID: "a", AmountOwed: 500},
				{ID: "b", AmountOwed: 500},
			},
			want: Progress{TotalCount: 2},
		},
		{
			name: "partial payment counts toward collected",
			participants: []models.Participant{
				{ID: "a", AmountOwed: 500, AmountPaid: 200},
				{ID: "b", AmountOwed: 500, AmountPaid: 500, Status: models.ParticipantPaid},
			},
			want: Progress{PaidCount: 1, TotalCount: 2, TotalCollected: 700},
		},
		{
			name: "overpayment clamped",
			participants: []models.Participant{
				{ID: "a", AmountOwed: 500, AmountPaid: 900, Status: models.ParticipantPaid},
				{ID: "b", AmountOwed: 500, AmountPaid: 500, Status: models.ParticipantPaid},
			},
			want: Progress{PaidCount: 2, TotalCount: 2, TotalCollected: 1000, IsSettled: true},
		},
		{
			name: "zero share is settled without payment",
			participants: []models.Participant{
				{ID: "a", AmountOwed: 0},
				{ID: "b", AmountOwed: 1000, AmountPaid: 1000},
			},
			want: Progress{PaidCount: 2, TotalCount: 2, TotalCollected: 1000, IsSettled: true},
		},
		{
			name: "empty split is never settled",
			want: Progress{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeProgress(&models.Split{Participants: tt.participants})
			if got != tt.want {
				t.Errorf("ComputeProgress() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestOutstanding(t *testing.T) {
	split := &models.Split{Participants: []models.Participant{
		{ID: "a", AmountOwed: 500, AmountPaid: 200},
		{ID: "b", AmountOwed: 500, AmountPaid: 800},
	}}
	got := Outstanding(split)
	if got[0].Cents != 300 {
		t.Errorf("a outstanding = %d, want 300", got[0].Cents)
	}
	if got[1].Cents != 0 {
		t.Errorf("b outstanding = %d, want 0", got[1].Cents)
	}
}
