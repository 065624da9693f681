// Package grpcserver exposes the tree service over gRPC and provides a
// typed client for it.
package grpcserver

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"rbtengine/domain/rbtree"
	"rbtengine/service"
)

// Server adapts TreeService to gRPC.
type Server struct {
	svc *service.TreeService
}

func NewServer(svc *service.TreeService) *Server {
	return &Server{svc: svc}
}

// -------------------- Commands --------------------

func (s *Server) Insert(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if err := s.svc.Insert(ctx, req.GetValue()); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) Delete(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if err := s.svc.Delete(ctx, req.GetValue()); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

// -------------------- Queries --------------------

func (s *Server) Search(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	n, err := s.svc.Search(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"key":   structpb.NewStringValue(n.Key),
		"color": structpb.NewStringValue(n.Color.String()),
	}}, nil
}

// Traverse takes the order name ("in", "pre", "post"); empty means in-order.
func (s *Server) Traverse(ctx context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error) {
	order := rbtree.InOrder
	if name := req.GetValue(); name != "" {
		var err error
		if order, err = rbtree.ParseOrder(name); err != nil {
			return nil, toStatus(err)
		}
	}
	keys, err := s.svc.Traverse(ctx, order)
	if err != nil {
		return nil, toStatus(err)
	}
	out := &structpb.ListValue{Values: make([]*structpb.Value, len(keys))}
	for i, k := range keys {
		out.Values[i] = structpb.NewStringValue(k)
	}
	return out, nil
}

func (s *Server) Snapshot(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	shape, err := s.svc.Snapshot(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	if shape == nil {
		return &structpb.Struct{Fields: map[string]*structpb.Value{}}, nil
	}
	return shapeToStruct(shape), nil
}

// -------------------- Interceptors --------------------

// LoggingInterceptor logs every unary call with its outcome and latency.
func LoggingInterceptor(log logrus.FieldLogger) grpc.UnaryServerInterceptor {
	log = log.WithField("component", "grpc")
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		entry := log.WithFields(logrus.Fields{
			"method":   info.FullMethod,
			"code":     status.Code(err).String(),
			"duration": time.Since(start),
		})
		if err != nil && status.Code(err) == codes.Internal {
			entry.WithError(err).Error("call failed")
		} else {
			entry.Debug("call")
		}
		return resp, err
	}
}

// -------------------- Converters --------------------

func toStatus(err error) error {
	var code codes.Code
	switch {
	case errors.Is(err, rbtree.ErrDuplicateKey):
		code = codes.AlreadyExists
	case errors.Is(err, rbtree.ErrKeyNotFound):
		code = codes.NotFound
	case errors.Is(err, rbtree.ErrUnknownOrder), errors.Is(err, service.ErrEmptyKey):
		code = codes.InvalidArgument
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	default:
		code = codes.Internal
	}
	return status.Error(code, err.Error())
}

func shapeToStruct(s *rbtree.Shape[string]) *structpb.Struct {
	fields := map[string]*structpb.Value{
		"key":   structpb.NewStringValue(s.Key),
		"color": structpb.NewStringValue(s.Color.String()),
		"left":  structpb.NewNullValue(),
		"right": structpb.NewNullValue(),
	}
	if s.Left != nil {
		fields["left"] = structpb.NewStructValue(shapeToStruct(s.Left))
	}
	if s.Right != nil {
		fields["right"] = structpb.NewStructValue(shapeToStruct(s.Right))
	}
	return &structpb.Struct{Fields: fields}
}
