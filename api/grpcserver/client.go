package grpcserver

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"rbtengine/domain/rbtree"
	"rbtengine/service"
)

// Client calls rbtree.v1.TreeService. Errors carrying AlreadyExists or
// NotFound match rbtree.ErrDuplicateKey / rbtree.ErrKeyNotFound with
// errors.Is; InvalidArgument matches rbtree.ErrUnknownOrder or
// service.ErrEmptyKey.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Found is a search hit.
type Found struct {
	Key   string
	Color rbtree.Color
}

func (c *Client) Insert(ctx context.Context, key string) error {
	return fromStatus(c.cc.Invoke(ctx, fullMethod("Insert"), wrapperspb.String(key), new(emptypb.Empty)))
}

func (c *Client) Delete(ctx context.Context, key string) error {
	return fromStatus(c.cc.Invoke(ctx, fullMethod("Delete"), wrapperspb.String(key), new(emptypb.Empty)))
}

func (c *Client) Search(ctx context.Context, key string) (Found, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod("Search"), wrapperspb.String(key), out); err != nil {
		return Found{}, fromStatus(err)
	}
	f := out.GetFields()
	return Found{
		Key:   f["key"].GetStringValue(),
		Color: parseColor(f["color"].GetStringValue()),
	}, nil
}

func (c *Client) Traverse(ctx context.Context, order rbtree.Order) ([]string, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, fullMethod("Traverse"), wrapperspb.String(order.String()), out); err != nil {
		return nil, fromStatus(err)
	}
	keys := make([]string, len(out.GetValues()))
	for i, v := range out.GetValues() {
		keys[i] = v.GetStringValue()
	}
	return keys, nil
}

// Snapshot returns the remote tree's shape; nil when it is empty.
func (c *Client) Snapshot(ctx context.Context) (*rbtree.Shape[string], error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod("Snapshot"), new(emptypb.Empty), out); err != nil {
		return nil, fromStatus(err)
	}
	return structToShape(out), nil
}

func fromStatus(err error) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.AlreadyExists:
		return errors.Mark(err, rbtree.ErrDuplicateKey)
	case codes.NotFound:
		return errors.Mark(err, rbtree.ErrKeyNotFound)
	case codes.InvalidArgument:
		if strings.Contains(status.Convert(err).Message(), rbtree.ErrUnknownOrder.Error()) {
			return errors.Mark(err, rbtree.ErrUnknownOrder)
		}
		return errors.Mark(err, service.ErrEmptyKey)
	default:
		return err
	}
}

func structToShape(s *structpb.Struct) *rbtree.Shape[string] {
	f := s.GetFields()
	key, ok := f["key"]
	if !ok {
		return nil
	}
	return &rbtree.Shape[string]{
		Key:   key.GetStringValue(),
		Color: parseColor(f["color"].GetStringValue()),
		Left:  structToShape(f["left"].GetStructValue()),
		Right: structToShape(f["right"].GetStructValue()),
	}
}

func parseColor(s string) rbtree.Color {
	if s == rbtree.Red.String() {
		return rbtree.Red
	}
	return rbtree.Black
}
