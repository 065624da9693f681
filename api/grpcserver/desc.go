package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const serviceName = "rbtree.v1.TreeService"

// TreeServer is the server API of rbtree.v1.TreeService. Messages are
// protobuf well-known types, so no generated code is involved.
type TreeServer interface {
	Insert(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	Delete(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	Search(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Traverse(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error)
	Snapshot(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// ServiceDesc describes rbtree.v1.TreeService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*TreeServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("Insert", newString, TreeServer.Insert),
		unaryMethod("Delete", newString, TreeServer.Delete),
		unaryMethod("Search", newString, TreeServer.Search),
		unaryMethod("Traverse", newString, TreeServer.Traverse),
		unaryMethod("Snapshot", newEmpty, TreeServer.Snapshot),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rbtree/v1/tree.proto",
}

// Register attaches srv to s.
func Register(s grpc.ServiceRegistrar, srv TreeServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func fullMethod(name string) string { return "/" + serviceName + "/" + name }

func newString() *wrapperspb.StringValue { return new(wrapperspb.StringValue) }
func newEmpty() *emptypb.Empty           { return new(emptypb.Empty) }

func unaryMethod[Req, Resp proto.Message](
	name string,
	newReq func() Req,
	call func(TreeServer, context.Context, Req) (Resp, error),
) grpc.MethodDesc {
	full := fullMethod(name)
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(TreeServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: full}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(TreeServer), ctx, req.(Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
