package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/splitsettle/internal/calculator"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.SplitCreated("equal")
	m.SplitCreated("equal")
	m.ValidationFailed(&calculator.ValidationError{Reason: calculator.ReasonSumMismatch})
	m.ValidationFailed(errors.New("not a validation error"))
	m.Payment(OutcomeDuplicate)
	m.SplitSettled()

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{
		`splitsettle_splits_created_total{method="equal"} 2`,
		`splitsettle_validation_failures_total{reason="SumMismatch"} 1`,
		`splitsettle_payments_total{outcome="duplicate"} 1`,
		`splitsettle_splits_settled_total 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.SplitCreated("equal")
	m.ValidationFailed(calculator.ErrSumMismatch)
	m.Payment(OutcomeApplied)
	m.SplitSettled()
}
