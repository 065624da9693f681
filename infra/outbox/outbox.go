// Package outbox is a durable queue of tree mutation events waiting to be
// published. Rows are written by the service as mutations commit and
// drained by the broadcaster.
package outbox

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

// -------------------- State --------------------

type State uint8

const (
	StateNew State = iota
	StateSent
	StateAcked
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// ErrCorruptRecord is returned when a stored row cannot be decoded.
var ErrCorruptRecord = errors.New("outbox: corrupt record")

// -------------------- Record --------------------

// Record is one pending event.
type Record struct {
	Seq         uint64
	State       State
	Retries     uint32
	LastAttempt time.Time
	Payload     []byte
}

const headerLen = 1 + 4 + 8 + 4

// value layout: [state:1][retries:4][lastAttempt:8][crc32(payload):4][payload...]
func encodeRecord(r Record) []byte {
	buf := make([]byte, headerLen+len(r.Payload))
	buf[0] = byte(r.State)
	binary.BigEndian.PutUint32(buf[1:5], r.Retries)
	var at int64
	if !r.LastAttempt.IsZero() {
		at = r.LastAttempt.UnixNano()
	}
	binary.BigEndian.PutUint64(buf[5:13], uint64(at))
	binary.BigEndian.PutUint32(buf[13:17], crc32.ChecksumIEEE(r.Payload))
	copy(buf[headerLen:], r.Payload)
	return buf
}

func decodeRecord(seq uint64, b []byte) (Record, error) {
	if len(b) < headerLen {
		return Record{}, errors.Wrapf(ErrCorruptRecord, "seq %d: %d bytes", seq, len(b))
	}
	payload := b[headerLen:]
	if crc32.ChecksumIEEE(payload) != binary.BigEndian.Uint32(b[13:17]) {
		return Record{}, errors.Wrapf(ErrCorruptRecord, "seq %d: crc mismatch", seq)
	}
	r := Record{
		Seq:     seq,
		State:   State(b[0]),
		Retries: binary.BigEndian.Uint32(b[1:5]),
		Payload: append([]byte(nil), payload...),
	}
	if at := int64(binary.BigEndian.Uint64(b[5:13])); at != 0 {
		r.LastAttempt = time.Unix(0, at)
	}
	return r, nil
}

// -------------------- Outbox --------------------

// Options tune how the underlying store is opened.
type Options struct {
	// InMemory keeps everything in memory; used by tests and the REPL.
	InMemory bool
	// NoSync skips fsync on every write.
	NoSync bool
}

type Outbox struct {
	db        *pebble.DB
	writeOpts *pebble.WriteOptions
}

// Open opens (or creates) the outbox stored in dir.
func Open(dir string, opts Options) (*Outbox, error) {
	popts := &pebble.Options{}
	if opts.InMemory {
		popts.FS = vfs.NewMem()
	}
	db, err := pebble.Open(dir, popts)
	if err != nil {
		return nil, errors.Wrapf(err, "open outbox %s", dir)
	}
	wo := pebble.Sync
	if opts.NoSync {
		wo = pebble.NoSync
	}
	return &Outbox{db: db, writeOpts: wo}, nil
}

func (o *Outbox) Close() error {
	return o.db.Close()
}

// Append stores a NEW row for event seq.
func (o *Outbox) Append(seq uint64, payload []byte) error {
	rec := Record{Seq: seq, State: StateNew, Payload: payload}
	return o.db.Set(keyFor(seq), encodeRecord(rec), o.writeOpts)
}

// UpdateState records a delivery attempt outcome for seq, keeping its
// payload.
func (o *Outbox) UpdateState(seq uint64, state State, retries uint32) error {
	rec, err := o.Get(seq)
	if err != nil {
		return err
	}
	rec.State = state
	rec.Retries = retries
	rec.LastAttempt = time.Now()
	return o.db.Set(keyFor(seq), encodeRecord(rec), o.writeOpts)
}

// Get returns the row for seq. A missing row yields pebble.ErrNotFound.
func (o *Outbox) Get(seq uint64) (Record, error) {
	val, closer, err := o.db.Get(keyFor(seq))
	if err != nil {
		return Record{}, err
	}
	defer closer.Close()

	return decodeRecord(seq, val)
}

// PurgeAcked deletes delivered rows in one batch and returns how many went.
// The newest row is always kept so LastSeq still resumes the sequencer after
// a restart.
func (o *Outbox) PurgeAcked() (int, error) {
	iter, err := o.newIter()
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	if !iter.Last() {
		return 0, iter.Error()
	}
	last, err := parseKey(iter.Key())
	if err != nil {
		return 0, err
	}

	batch := o.db.NewBatch()
	defer batch.Close()

	purged := 0
	for iter.First(); iter.Valid(); iter.Next() {
		seq, err := parseKey(iter.Key())
		if err != nil {
			return 0, err
		}
		if seq == last {
			break
		}
		rec, err := decodeRecord(seq, iter.Value())
		if err != nil {
			return 0, err
		}
		if rec.State != StateAcked {
			continue
		}
		if err := batch.Delete(iter.Key(), nil); err != nil {
			return 0, err
		}
		purged++
	}
	if err := iter.Error(); err != nil {
		return 0, err
	}
	if purged == 0 {
		return 0, nil
	}
	if err := batch.Commit(o.writeOpts); err != nil {
		return 0, errors.Wrap(err, "purge acked rows")
	}
	return purged, nil
}

// -------------------- Scan --------------------

// ScanPending calls fn, in sequence order, for every row that is not yet
// ACKED. Returning an error from fn stops the scan.
func (o *Outbox) ScanPending(fn func(Record) error) error {
	iter, err := o.newIter()
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		seq, err := parseKey(iter.Key())
		if err != nil {
			return err
		}
		rec, err := decodeRecord(seq, iter.Value())
		if err != nil {
			return err
		}
		if rec.State == StateAcked {
			continue
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return iter.Error()
}

// LastSeq returns the highest stored sequence number, or 0 when empty.
func (o *Outbox) LastSeq() (uint64, error) {
	iter, err := o.newIter()
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	if !iter.Last() {
		return 0, iter.Error()
	}
	return parseKey(iter.Key())
}

func (o *Outbox) newIter() (*pebble.Iterator, error) {
	return o.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "~"),
	})
}

// -------------------- Helpers --------------------

const keyPrefix = "event/"

func keyFor(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", keyPrefix, seq))
}

func parseKey(b []byte) (uint64, error) {
	s := string(b)
	if len(s) <= len(keyPrefix) || s[:len(keyPrefix)] != keyPrefix {
		return 0, errors.Wrapf(ErrCorruptRecord, "key %q", s)
	}
	seq, err := strconv.ParseUint(s[len(keyPrefix):], 10, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrCorruptRecord, "key %q", s)
	}
	return seq, nil
}
