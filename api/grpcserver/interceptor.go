package grpcserver

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// LoggingInterceptor logs every call with its code and latency. Client
// errors log at info, server errors at error.
func LoggingInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	log = log.Named("grpc")
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		st, _ := status.FromError(err)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.Stringer("code", st.Code()),
			zap.Duration("latency", time.Since(start)),
		}
		switch {
		case err == nil:
			log.Debug("call", fields...)
		case isServerFault(st.Code()):
			log.Error("call", append(fields, zap.Error(err))...)
		default:
			log.Info("call", append(fields, zap.Error(err))...)
		}
		return resp, err
	}
}

func isServerFault(c codes.Code) bool {
	switch c {
	case codes.Internal, codes.Unknown, codes.DataLoss, codes.Unavailable:
		return true
	}
	return false
}
