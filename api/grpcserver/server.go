// Package grpcserver exposes the record services over gRPC.
package grpcserver

import (
	"context"
	"math"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"hftwire/codec/marketdata"
	"hftwire/codec/order"
	"hftwire/domain/message"
	"hftwire/infra/logger"
	"hftwire/service"
)

// Server adapts OrderService and QuoteService to gRPC.
type Server struct {
	orders *service.OrderService
	quotes *service.QuoteService
	log    *zap.Logger
}

var _ RecordServiceServer = (*Server)(nil)

func NewServer(orders *service.OrderService, quotes *service.QuoteService, log *zap.Logger) *Server {
	return &Server{orders: orders, quotes: quotes, log: logger.OrNop(log).Named("grpc")}
}

// -------------------- Commands --------------------

func (s *Server) PlaceOrder(ctx context.Context, req *wrapperspb.BytesValue) (*wrapperspb.Int64Value, error) {
	id, err := s.orders.PlaceRecord(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Int64(id), nil
}

func (s *Server) FillOrder(ctx context.Context, req *structpb.Struct) (*wrapperspb.BytesValue, error) {
	id, err := intField(req, "order_id", math.MinInt64, math.MaxInt64)
	if err != nil {
		return nil, err
	}
	qty, err := intField(req, "quantity", math.MinInt32, math.MaxInt32)
	if err != nil {
		return nil, err
	}

	o, trade, err := s.orders.Fill(ctx, id, int32(qty))
	if err != nil {
		return nil, toStatus(err)
	}
	if trade.Quantity > 0 {
		s.log.Info("fill", zap.Int64("order_id", id), zap.Int32("qty", trade.Quantity), zap.Float64("notional", trade.Notional()))
	}
	return encodeOrder(o)
}

func (s *Server) CancelOrder(ctx context.Context, req *wrapperspb.Int64Value) (*wrapperspb.BytesValue, error) {
	o, err := s.orders.Cancel(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeOrder(o)
}

func (s *Server) PublishQuotes(ctx context.Context, req *wrapperspb.BytesValue) (*structpb.Struct, error) {
	batch := req.GetValue()
	first, last, err := s.quotes.PublishPacked(ctx, batch)
	if err != nil {
		return nil, toStatus(err)
	}
	out, err := structpb.NewStruct(map[string]any{
		"count":     len(batch) / marketdata.RecordSize,
		"first_seq": first,
		"last_seq":  last,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// -------------------- Queries --------------------

func (s *Server) GetOrder(ctx context.Context, req *wrapperspb.Int64Value) (*wrapperspb.BytesValue, error) {
	rec := make([]byte, order.RecordSize)
	if err := s.orders.Record(ctx, req.GetValue(), rec); err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Bytes(rec), nil
}

func (s *Server) GetTop(_ context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	top, ok := s.quotes.Top(req.GetValue())
	if !ok {
		return nil, status.Errorf(codes.NotFound, "no quote for %q", req.GetValue())
	}
	out, err := structpb.NewStruct(map[string]any{
		"symbol":     top.Symbol,
		"bid":        top.Bid,
		"ask":        top.Ask,
		"bid_size":   top.BidSize,
		"ask_size":   top.AskSize,
		"mid":        top.Mid,
		"spread_bps": top.SpreadBps,
		"sequence":   top.Sequence,
		"timestamp":  top.Timestamp,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// -------------------- Converters --------------------

// encodeOrder returns the record image of o. Stored symbols are already
// within the field width, so this matches the stored bytes exactly.
func encodeOrder(o message.Order) (*wrapperspb.BytesValue, error) {
	rec := make([]byte, order.RecordSize)
	if err := order.Encode(o, rec); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return wrapperspb.Bytes(rec), nil
}

// intField reads an integral number field within [lo, hi].
func intField(req *structpb.Struct, name string, lo, hi float64) (int64, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s is required", name)
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a number", name)
	}
	f := n.NumberValue
	// hi+1 rounds to 2^63 for int64, which is itself out of range.
	if f != math.Trunc(f) || f < lo || f >= hi+1 {
		return 0, status.Errorf(codes.InvalidArgument, "%s: %v is not an integer in range", name, f)
	}
	return int64(f), nil
}
