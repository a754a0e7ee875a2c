package service

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/splitsettle/internal/calculator"
	"github.com/mmynk/splitsettle/internal/gateway"
	"github.com/mmynk/splitsettle/internal/models"
	"github.com/mmynk/splitsettle/internal/settlement"
	"github.com/mmynk/splitsettle/internal/storage"
)

var (
	errUnauthenticated = errors.New("authentication required")
	errForbidden       = errors.New("not a participant or creator of this split")
)

// toConnectError maps engine errors onto Connect codes.
func toConnectError(err error) error {
	var (
		verr *calculator.ValidationError
		cerr *settlement.ConcurrencyError
		xerr *gateway.ExternalServiceError
	)
	switch {
	case errors.As(err, &verr), errors.Is(err, gateway.ErrMalformedPayload):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.As(err, &cerr), errors.Is(err, storage.ErrStaleWrite):
		return connect.NewError(connect.CodeAborted, err)
	case errors.Is(err, models.ErrInvalidTransition):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.As(err, &xerr):
		return connect.NewError(connect.CodeUnavailable, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}
