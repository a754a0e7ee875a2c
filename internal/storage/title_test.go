package storage

import (
	"strings"
	"testing"

	"github.com/mmynk/splitsettle/internal/models"
)

func TestGenerateTitle(t *testing.T) {
	people := func(names ...string) []models.Participant {
		out := make([]models.Participant, len(names))
		for i, n := range names {
			out[i] = models.Participant{ID: strings.ToLower(n), DisplayName: n}
		}
		return out
	}

	tests := []struct {
		participants []models.Participant
		wantContains string
	}{
		{nil, "Split -"},
		{people("Alice"), "Split with Alice"},
		{people("Alice", "Bob"), "Split with Alice, Bob"},
		{people("Alice", "Bob", "Charlie"), "Split with Alice, Bob, Charlie"},
		{people("Alice", "Bob", "Charlie", "Diana"), "and 2 others"},
		{[]models.Participant{{ID: "inv-42"}}, "Split with inv-42"},
	}

	for _, tt := range tests {
		t.Run(tt.wantContains, func(t *testing.T) {
			got := GenerateTitle(tt.participants)
			if !strings.Contains(got, tt.wantContains) {
				t.Errorf("GenerateTitle() = %q, want to contain %q", got, tt.wantContains)
			}
		})
	}
}
