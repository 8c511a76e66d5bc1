package rpc

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-layout-service/internal/model"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Code maps a domain error onto a gRPC status code.
func Code(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, model.ErrNotFound):
		return codes.NotFound
	case errors.Is(err, model.ErrInvalidGeometry),
		errors.Is(err, model.ErrInvalidInput),
		errors.Is(err, model.ErrInvalidTarget):
		return codes.InvalidArgument
	case errors.Is(err, model.ErrExclusivityConflict),
		errors.Is(err, model.ErrOptimisticLock):
		return codes.Aborted
	case errors.Is(err, model.ErrStoreUnavailable):
		return codes.Unavailable
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	default:
		return codes.Internal
	}
}

func Error(err error) error {
	if err == nil {
		return nil
	}
	return status.Error(Code(err), err.Error())
}
