package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/whistles/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps service errors to gRPC statuses. Only validation messages
// reach the caller verbatim; everything else gets a fixed message.
func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrInvalidSecret):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrDecryption):
		return status.Error(codes.PermissionDenied, common.ErrDecryption.Error())
	case errors.Is(err, common.ErrNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	case errors.Is(err, common.ErrUnauthorized), errors.Is(err, common.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, "unauthorized")
	case errors.Is(err, common.ErrUpstreamUnavailable):
		return status.Error(codes.Unavailable, "upstream unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "canceled")
	}
	return status.Error(codes.Internal, "internal error")
}

func (s *GRPCServer) fail(ctx context.Context, method string, err error) error {
	st := toStatus(err)
	switch status.Code(st) {
	case codes.Internal, codes.Unavailable:
		s.logger.Error(ctx, "request failed", "method", method, "error", err.Error())
	default:
		s.logger.Debug(ctx, "request rejected", "method", method, "code", status.Code(st).String())
	}
	return st
}
