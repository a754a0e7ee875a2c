package calculator

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
)

func ints(vals ...int64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(vals))
	for i, v := range vals {
		out[i] = decimal.NewFromInt(v)
	}
	return out
}

func TestApportion(t *testing.T) {
	tests := []struct {
		name    string
		total   int64
		keys    []string
		weights []decimal.Decimal
		want    []int64
		wantErr error
	}{
		{
			name:    "even division needs no leftover",
			total:   900,
			keys:    []string{"a", "b", "c"},
			weights: ints(1, 1, 1),
			want:    []int64{300, 300, 300},
		},
		{
			name:    "leftover goes to earliest on ties",
			total:   10000,
			keys:    []string{"a", "b", "c"},
			weights: ints(1, 1, 1),
			want:    []int64{3334, 3333, 3333},
		},
		{
			name:    "two leftover cents",
			total:   5,
			keys:    []string{"a", "b", "c"},
			weights: ints(1, 1, 1),
			want:    []int64{2, 2, 1},
		},
		{
			name:    "largest remainder wins over input order",
			total:   10,
			keys:    []string{"a", "b"},
			weights: ints(1, 2),
			// exact shares 3.33 and 6.67: b has the larger remainder
			want: []int64{3, 7},
		},
		{
			name:    "zero weight gets nothing",
			total:   100,
			keys:    []string{"a", "b"},
			weights: ints(0, 5),
			want:    []int64{0, 100},
		},
		{
			name:    "zero total over zero weights",
			total:   0,
			keys:    []string{"a", "b"},
			weights: ints(0, 0),
			want:    []int64{0, 0},
		},
		{
			name:    "positive total over zero weights",
			total:   1,
			keys:    []string{"a"},
			weights: ints(0),
			wantErr: ErrInvalidTotal,
		},
		{
			name:    "no keys",
			total:   1,
			wantErr: ErrNoParticipants,
		},
		{
			name:    "negative weight",
			total:   10,
			keys:    []string{"a", "b"},
			weights: ints(-1, 2),
			wantErr: ErrNegativeShare,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apportion(tt.total, tt.keys, tt.weights)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Apportion() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Apportion() unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d shares, want %d", len(got), len(tt.want))
			}
			for i, w := range tt.want {
				if got[i].ParticipantID != tt.keys[i] {
					t.Errorf("share %d: id = %s, want %s", i, got[i].ParticipantID, tt.keys[i])
				}
				if got[i].Cents != w {
					t.Errorf("share %d (%s) = %d, want %d", i, tt.keys[i], got[i].Cents, w)
				}
			}
		})
	}
}

func TestApportion_MismatchedLengths(t *testing.T) {
	if _, err := Apportion(10, []string{"a"}, ints(1, 2)); err == nil {
		t.Error("expected error for mismatched keys and weights")
	}
}

// TestApportion_LeftoverBounds checks that every key gets its floor plus at
// most one cent and the awarded cents equal total minus the floors.
func TestApportion_LeftoverBounds(t *testing.T) {
	weightSets := [][]int64{
		{1, 1, 1, 1, 1, 1, 1},
		{3, 5, 7, 11},
		{1, 1000, 999, 2},
		{33, 33, 34},
	}
	for _, ws := range weightSets {
		for _, total := range []int64{1, 7, 99, 1001, 123457} {
			t.Run(fmt.Sprintf("%v/%d", ws, total), func(t *testing.T) {
				keys := make([]string, len(ws))
				var sum int64
				for i, w := range ws {
					keys[i] = fmt.Sprintf("p%d", i)
					sum += w
				}
				got, err := Apportion(total, keys, ints(ws...))
				if err != nil {
					t.Fatalf("Apportion() error: %v", err)
				}
				if got.Total() != total {
					t.Fatalf("sum = %d, want %d", got.Total(), total)
				}
				var floors int64
				for i, w := range ws {
					floor := total * w / sum
					floors += floor
					extra := got[i].Cents - floor
					if extra < 0 || extra > 1 {
						t.Errorf("key %s got %d extra cents", keys[i], extra)
					}
				}
				var awarded int64
				for i, w := range ws {
					awarded += got[i].Cents - total*w/sum
				}
				if awarded != total-floors {
					t.Errorf("awarded %d cents, want %d", awarded, total-floors)
				}
			})
		}
	}
}

func TestApportion_Deterministic(t *testing.T) {
	keys := []string{"a", "b", "c", "d", "e", "f"}
	first, err := Apportion(1001, keys, ints(1, 1, 1, 1, 1, 1))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		again, _ := Apportion(1001, keys, ints(1, 1, 1, 1, 1, 1))
		for j := range first {
			if first[j] != again[j] {
				t.Fatalf("run %d differs at %d: %v vs %v", i, j, first[j], again[j])
			}
		}
	}
}
