package grpcserver

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"hftwire/codec/order"
	"hftwire/codec/wire"
	"hftwire/infra/store"
	"hftwire/service"
)

// toStatus maps service and codec errors onto gRPC codes.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var code codes.Code
	switch {
	case errors.Is(err, store.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, store.ErrExists):
		code = codes.AlreadyExists
	case errors.Is(err, wire.ErrInvalidStateTransition):
		code = codes.FailedPrecondition
	case errors.Is(err, service.ErrInvalidOrder),
		errors.Is(err, service.ErrRaggedBatch),
		errors.Is(err, order.ErrNegativeFill),
		errors.Is(err, wire.ErrFieldWidthOverflow),
		errors.Is(err, wire.ErrTruncatedRecord),
		errors.Is(err, wire.ErrShortBatch):
		code = codes.InvalidArgument
	case errors.Is(err, service.ErrBackpressure):
		code = codes.ResourceExhausted
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	default:
		code = codes.Internal
	}
	return status.Error(code, err.Error())
}
