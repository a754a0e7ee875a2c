package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"connectrpc.com/connect"

	"github.com/mmynk/splitsettle/internal/calculator"
	"github.com/mmynk/splitsettle/internal/gateway"
	"github.com/mmynk/splitsettle/internal/settlement"
	"github.com/mmynk/splitsettle/internal/storage"
)

func TestToConnectError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want connect.Code
	}{
		{"validation", calculator.ErrNoParticipants, connect.CodeInvalidArgument},
		{"malformed client payload", &gateway.ExternalServiceError{
			Service: gateway.SourceOCR, Op: "parse receipt",
			Err: fmt.Errorf("%w: bad", gateway.ErrMalformedPayload),
		}, connect.CodeInvalidArgument},
		{"collaborator outage", &gateway.ExternalServiceError{
			Service: gateway.SourceMidtrans, Op: "fetch status", Err: errors.New("connection refused"),
		}, connect.CodeUnavailable},
		{"not found", &settlement.NotFoundError{Kind: "split", ID: "x"}, connect.CodeNotFound},
		{"concurrency", &settlement.ConcurrencyError{SplitID: "x", ParticipantID: "p"}, connect.CodeAborted},
		{"stale write", fmt.Errorf("update: %w", storage.ErrStaleWrite), connect.CodeAborted},
		{"canceled", context.Canceled, connect.CodeCanceled},
		{"unknown", errors.New("boom"), connect.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := connect.CodeOf(toConnectError(tt.err)); got != tt.want {
				t.Errorf("code = %v, want %v", got, tt.want)
			}
		})
	}
}
