// Package broadcaster drains the event outbox into Kafka.
package broadcaster

import (
	"context"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"rbtengine/infra/kafka"
	"rbtengine/infra/outbox"
)

// Store is the part of the outbox the broadcaster needs.
type Store interface {
	ScanPending(fn func(outbox.Record) error) error
	UpdateState(seq uint64, state outbox.State, retries uint32) error
	PurgeAcked() (int, error)
}

type Config struct {
	// Interval between drain passes.
	Interval time.Duration
	// MaxRetries after which a FAILED row is left alone.
	MaxRetries uint32
}

// Result counts what one drain pass did.
type Result struct {
	Published int
	Failed    int
	Skipped   int
	Purged    int
}

type Broadcaster struct {
	store Store
	pub   kafka.Publisher
	cfg   Config
	log   logrus.FieldLogger
}

// ------------------------------------------------
// CONSTRUCTOR
// ------------------------------------------------

func New(store Store, pub kafka.Publisher, cfg Config, log logrus.FieldLogger) *Broadcaster {
	if cfg.Interval <= 0 {
		cfg.Interval = 250 * time.Millisecond
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 5
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Broadcaster{
		store: store,
		pub:   pub,
		cfg:   cfg,
		log:   log.WithField("component", "broadcaster"),
	}
}

// ------------------------------------------------
// LOOP
// ------------------------------------------------

// Run drains the outbox every Interval until ctx is done.
func (b *Broadcaster) Run(ctx context.Context) {
	b.log.WithField("interval", b.cfg.Interval).Info("started")
	defer b.log.Info("stopped")

	ticker := time.NewTicker(b.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res, err := b.DrainOnce(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				b.log.WithError(err).Warn("drain pass aborted")
			}
			if res.Published > 0 || res.Failed > 0 {
				b.log.WithFields(logrus.Fields{
					"published": res.Published,
					"failed":    res.Failed,
					"skipped":   res.Skipped,
				}).Debug("drain pass")
			}
		}
	}
}

// ------------------------------------------------
// DRAIN
// ------------------------------------------------

// DrainOnce publishes every pending row once, in sequence order.
// Delivered rows are marked ACKED and purged at the end of the pass; failed
// ones are marked FAILED with one more retry and picked up again by the next
// pass.
func (b *Broadcaster) DrainOnce(ctx context.Context) (Result, error) {
	var res Result
	err := b.store.ScanPending(func(rec outbox.Record) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if rec.State == outbox.StateFailed && rec.Retries >= b.cfg.MaxRetries {
			res.Skipped++
			return nil
		}

		if err := b.store.UpdateState(rec.Seq, outbox.StateSent, rec.Retries); err != nil {
			return errors.Wrapf(err, "mark seq %d sent", rec.Seq)
		}

		key := []byte(strconv.FormatUint(rec.Seq, 10))
		if err := b.pub.Publish(ctx, key, rec.Payload); err != nil {
			res.Failed++
			retries := rec.Retries + 1
			b.log.WithError(err).WithFields(logrus.Fields{
				"seq":     rec.Seq,
				"retries": retries,
			}).Warn("publish failed")
			if retries >= b.cfg.MaxRetries {
				b.log.WithField("seq", rec.Seq).Error("giving up on event")
			}
			return errors.Wrapf(
				b.store.UpdateState(rec.Seq, outbox.StateFailed, retries),
				"mark seq %d failed", rec.Seq)
		}

		res.Published++
		return errors.Wrapf(
			b.store.UpdateState(rec.Seq, outbox.StateAcked, rec.Retries),
			"mark seq %d acked", rec.Seq)
	})
	if err != nil || res.Published == 0 {
		return res, err
	}

	res.Purged, err = b.store.PurgeAcked()
	return res, errors.Wrap(err, "purge acked rows")
}

// Close releases the publisher.
func (b *Broadcaster) Close() error {
	return b.pub.Close()
}
