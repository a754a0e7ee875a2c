package calculator

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Share is one participant's portion of a total in cents.
type Share struct {
	ParticipantID string
	Cents         int64
}

// Shares is an ordered list of per-participant amounts.
// Order follows the input order that produced it.
type Shares []Share

// Total returns the sum of all shares.
func (s Shares) Total() int64 {
	var sum int64
	for _, sh := range s {
		sum += sh.Cents
	}
	return sum
}

// Map returns the shares keyed by participant id.
func (s Shares) Map() map[string]int64 {
	m := make(map[string]int64, len(s))
	for _, sh := range s {
		m[sh.ParticipantID] = sh.Cents
	}
	return m
}

// Get returns the share of id and whether it is present.
func (s Shares) Get(id string) (int64, bool) {
	for _, sh := range s {
		if sh.ParticipantID == id {
			return sh.Cents, true
		}
	}
	return 0, false
}

// Apportion divides total across keys proportionally to weights using the
// largest-remainder (Hamilton) method.
//
// Each exact share total×w/Σw is truncated, then the total−Σtruncated leftover
// cents go one each to the keys with the largest discarded remainders. Ties
// keep input order, so identical input always yields identical output. The
// quotient and remainder are computed exactly, so no key ever receives more
// than one extra cent and the result always sums to total.
func Apportion(total int64, keys []string, weights []decimal.Decimal) (Shares, error) {
	if len(keys) != len(weights) {
		return nil, fmt.Errorf("apportion: %d keys but %d weights", len(keys), len(weights))
	}
	if len(keys) == 0 {
		return nil, ErrNoParticipants
	}
	if total < 0 {
		return nil, invalid(ReasonInvalidTotal, "cannot apportion negative total %d", total)
	}

	sum := decimal.Zero
	for i, w := range weights {
		if w.IsNegative() {
			return nil, invalid(ReasonNegativeShare, "negative weight for %s", keys[i])
		}
		sum = sum.Add(w)
	}

	shares := make(Shares, len(keys))
	for i, k := range keys {
		shares[i].ParticipantID = k
	}
	if sum.IsZero() {
		if total == 0 {
			return shares, nil
		}
		return nil, invalid(ReasonInvalidTotal, "cannot apportion %d over zero weight", total)
	}

	remainders := make([]decimal.Decimal, len(keys))
	dTotal := decimal.NewFromInt(total)
	var floored int64
	for i, w := range weights {
		q, r := dTotal.Mul(w).QuoRem(sum, 0)
		shares[i].Cents = q.IntPart()
		remainders[i] = r
		floored += shares[i].Cents
	}

	leftover := total - floored
	if leftover < 0 || leftover > int64(len(keys)) {
		return nil, fmt.Errorf("apportion: leftover %d outside [0,%d]", leftover, len(keys))
	}

	order := make([]int, len(keys))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]].GreaterThan(remainders[order[b]])
	})
	for _, idx := range order[:leftover] {
		shares[idx].Cents++
	}

	return shares, nil
}

// equalWeights returns n weights of one.
func equalWeights(n int) []decimal.Decimal {
	w := make([]decimal.Decimal, n)
	for i := range w {
		w[i] = decimal.NewFromInt(1)
	}
	return w
}
