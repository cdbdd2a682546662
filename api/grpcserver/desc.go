package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name. Messages are
// protobuf well-known types, so no generated code is needed and record
// bytes travel untouched inside BytesValue.
const ServiceName = "hftwire.RecordService"

// RecordServiceServer is the server API for hftwire.RecordService.
type RecordServiceServer interface {
	// PlaceOrder takes one 64-byte order record and returns its order id.
	PlaceOrder(context.Context, *wrapperspb.BytesValue) (*wrapperspb.Int64Value, error)
	// GetOrder returns the stored 64-byte record.
	GetOrder(context.Context, *wrapperspb.Int64Value) (*wrapperspb.BytesValue, error)
	// FillOrder takes {order_id, quantity} and returns the updated record.
	FillOrder(context.Context, *structpb.Struct) (*wrapperspb.BytesValue, error)
	// CancelOrder returns the updated record.
	CancelOrder(context.Context, *wrapperspb.Int64Value) (*wrapperspb.BytesValue, error)
	// PublishQuotes takes a packed market-data batch and returns
	// {count, first_seq, last_seq}.
	PublishQuotes(context.Context, *wrapperspb.BytesValue) (*structpb.Struct, error)
	// GetTop returns the latest consumed quote for a symbol.
	GetTop(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

func unary[Req, Resp any](method string, call func(RecordServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	full := "/" + ServiceName + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(RecordServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: full}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(RecordServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RecordServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("PlaceOrder", RecordServiceServer.PlaceOrder),
		unary("GetOrder", RecordServiceServer.GetOrder),
		unary("FillOrder", RecordServiceServer.FillOrder),
		unary("CancelOrder", RecordServiceServer.CancelOrder),
		unary("PublishQuotes", RecordServiceServer.PublishQuotes),
		unary("GetTop", RecordServiceServer.GetTop),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "hftwire/record_service",
}

func Register(s grpc.ServiceRegistrar, srv RecordServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client is the client side of hftwire.RecordService.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, c *Client, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) PlaceOrder(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.Int64Value, error) {
	return invoke[wrapperspb.Int64Value](ctx, c, "PlaceOrder", in, opts)
}

func (c *Client) GetOrder(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	return invoke[wrapperspb.BytesValue](ctx, c, "GetOrder", in, opts)
}

func (c *Client) FillOrder(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	return invoke[wrapperspb.BytesValue](ctx, c, "FillOrder", in, opts)
}

func (c *Client) CancelOrder(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	return invoke[wrapperspb.BytesValue](ctx, c, "CancelOrder", in, opts)
}

func (c *Client) PublishQuotes(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c, "PublishQuotes", in, opts)
}

func (c *Client) GetTop(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c, "GetTop", in, opts)
}
