package service

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"rbtengine/domain/rbtree"
	"rbtengine/infra/sequence"
)

// ErrEmptyKey is returned for an empty key; the tree never sees it.
var ErrEmptyKey = errors.New("service: empty key")

// Outbox receives one encoded event per committed mutation.
type Outbox interface {
	Append(seq uint64, payload []byte) error
}

// Options wires optional collaborators. Zero values get working defaults.
type Options struct {
	Outbox     Outbox
	Sequencer  *sequence.Sequencer
	Registerer prometheus.Registerer
	Logger     logrus.FieldLogger
	Now        func() time.Time
}

// Stats summarizes the tree shape.
type Stats struct {
	Keys        int
	Height      int
	BlackHeight int
}

/*
TreeService owns the tree. Every read and write goes through its mutex,
so the core never observes concurrent calls.

Mutations are checked first, then the event is appended to the outbox,
then the tree is changed: an outbox failure leaves the tree untouched.
*/
type TreeService struct {
	mu      sync.Mutex
	tree    *rbtree.Tree[string]
	seq     *sequence.Sequencer
	outbox  Outbox
	metrics *metrics
	log     logrus.FieldLogger
	now     func() time.Time
}

// NewTreeService wires all dependencies around an empty tree.
func NewTreeService(opts Options) *TreeService {
	if opts.Sequencer == nil {
		opts.Sequencer = sequence.New(0)
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &TreeService{
		tree:   rbtree.New[string](),
		seq:    opts.Sequencer,
		outbox: opts.Outbox,
		log:    opts.Logger.WithField("component", "service"),
		now:    opts.Now,
	}
	s.metrics = newMetrics(opts.Registerer, s)
	return s
}

//
// ──────────────────────────────────────────────────────────
// Commands
// ──────────────────────────────────────────────────────────
//

// Insert adds key. A present key yields an error wrapping
// rbtree.ErrDuplicateKey and no event.
func (s *TreeService) Insert(ctx context.Context, key string) error {
	const op = "insert"
	if err := s.precheck(ctx, op, key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tree.Contains(key) {
		s.metrics.observe(op, resultDuplicate)
		s.log.WithField("key", key).Debug("insert ignored: duplicate key")
		return errors.Wrapf(rbtree.ErrDuplicateKey, "insert %q", key)
	}
	seq, err := s.record(EventInserted, key)
	if err != nil {
		s.metrics.observe(op, resultError)
		return errors.Wrapf(err, "insert %q", key)
	}
	if err := s.tree.Insert(key); err != nil {
		// Contains said no under the same lock.
		return errors.Wrapf(err, "insert %q", key)
	}

	s.metrics.observe(op, resultOK)
	s.log.WithFields(logrus.Fields{"key": key, "seq": seq, "size": s.tree.Len()}).Debug("inserted")
	return nil
}

// Delete removes key. An absent key yields an error wrapping
// rbtree.ErrKeyNotFound and no event.
func (s *TreeService) Delete(ctx context.Context, key string) error {
	const op = "delete"
	if err := s.precheck(ctx, op, key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.tree.Contains(key) {
		s.metrics.observe(op, resultNotFound)
		s.log.WithField("key", key).Debug("delete ignored: key not found")
		return errors.Wrapf(rbtree.ErrKeyNotFound, "delete %q", key)
	}
	seq, err := s.record(EventDeleted, key)
	if err != nil {
		s.metrics.observe(op, resultError)
		return errors.Wrapf(err, "delete %q", key)
	}
	if err := s.tree.Delete(key); err != nil {
		return errors.Wrapf(err, "delete %q", key)
	}

	s.metrics.observe(op, resultOK)
	s.log.WithFields(logrus.Fields{"key": key, "seq": seq, "size": s.tree.Len()}).Debug("deleted")
	return nil
}

// record numbers a mutation and hands it to the outbox. Without an outbox
// the sequence still advances so log lines stay ordered.
func (s *TreeService) record(typ EventType, key string) (uint64, error) {
	seq := s.seq.Next()
	if s.outbox == nil {
		return seq, nil
	}
	ev := Event{Seq: seq, Type: typ, Key: key, At: s.now()}
	if err := s.outbox.Append(seq, ev.Marshal()); err != nil {
		return 0, errors.Wrapf(err, "outbox append seq %d", seq)
	}
	return seq, nil
}

func (s *TreeService) precheck(ctx context.Context, op, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		s.metrics.observe(op, resultInvalid)
		return errors.Wrap(ErrEmptyKey, op)
	}
	return nil
}

//
// ──────────────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────────────
//

// Search returns the node holding key, or an error wrapping
// rbtree.ErrKeyNotFound.
func (s *TreeService) Search(ctx context.Context, key string) (rbtree.Node[string], error) {
	const op = "search"
	if err := s.precheck(ctx, op, key); err != nil {
		return rbtree.Node[string]{}, err
	}

	s.mu.Lock()
	n, ok := s.tree.Search(key)
	s.mu.Unlock()

	if !ok {
		s.metrics.observe(op, resultNotFound)
		return rbtree.Node[string]{}, errors.Wrapf(rbtree.ErrKeyNotFound, "search %q", key)
	}
	s.metrics.observe(op, resultOK)
	return n, nil
}

// Traverse returns every key in the given order.
func (s *TreeService) Traverse(ctx context.Context, order rbtree.Order) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.observe("traverse", resultOK)
	return s.tree.Traverse(order), nil
}

// Keys returns the current key set in increasing order. Front ends use it
// as their list of known keys instead of tracking one themselves.
func (s *TreeService) Keys(ctx context.Context) ([]string, error) {
	return s.Traverse(ctx, rbtree.InOrder)
}

// Snapshot returns a detached copy of the tree shape; nil when empty.
func (s *TreeService) Snapshot(ctx context.Context) (*rbtree.Shape[string], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.observe("snapshot", resultOK)
	return s.tree.StructureSnapshot(), nil
}

// Stats reports size and heights.
func (s *TreeService) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		Keys:        s.tree.Len(),
		Height:      s.tree.Height(),
		BlackHeight: s.tree.BlackHeight(),
	}
}

// Validate runs the tree's invariant checks.
func (s *TreeService) Validate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.tree.Validate()
}

// LastSeq returns the sequence number of the latest committed mutation.
func (s *TreeService) LastSeq() uint64 { return s.seq.Last() }
