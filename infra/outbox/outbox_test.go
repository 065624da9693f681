package outbox

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMem(t *testing.T) *Outbox {
	t.Helper()
	o, err := Open("outbox", Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = o.Close() })
	return o
}

func TestAppendAndGet(t *testing.T) {
	o := openMem(t)
	require.NoError(t, o.Append(7, []byte("payload")))

	rec, err := o.Get(7)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), rec.Seq)
	assert.Equal(t, StateNew, rec.State)
	assert.Equal(t, []byte("payload"), rec.Payload)
	assert.True(t, rec.LastAttempt.IsZero())
}

func TestUpdateStateKeepsPayload(t *testing.T) {
	o := openMem(t)
	require.NoError(t, o.Append(1, []byte("x")))
	require.NoError(t, o.UpdateState(1, StateFailed, 3))

	rec, err := o.Get(1)
	require.NoError(t, err)
	assert.Equal(t, StateFailed, rec.State)
	assert.Equal(t, uint32(3), rec.Retries)
	assert.Equal(t, []byte("x"), rec.Payload)
	assert.False(t, rec.LastAttempt.IsZero())
}

func TestScanPendingSkipsAckedInOrder(t *testing.T) {
	o := openMem(t)
	for _, seq := range []uint64{3, 1, 10, 2} {
		require.NoError(t, o.Append(seq, nil))
	}
	require.NoError(t, o.UpdateState(2, StateAcked, 0))

	var seen []uint64
	require.NoError(t, o.ScanPending(func(r Record) error {
		seen = append(seen, r.Seq)
		return nil
	}))
	assert.Equal(t, []uint64{1, 3, 10}, seen)
}

func TestScanPendingStopsOnError(t *testing.T) {
	o := openMem(t)
	require.NoError(t, o.Append(1, nil))
	require.NoError(t, o.Append(2, nil))

	stop := errors.New("stop")
	calls := 0
	err := o.ScanPending(func(Record) error {
		calls++
		return stop
	})
	require.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestLastSeq(t *testing.T) {
	o := openMem(t)
	last, err := o.LastSeq()
	require.NoError(t, err)
	assert.Zero(t, last)

	require.NoError(t, o.Append(4, nil))
	require.NoError(t, o.Append(12, nil))
	last, err = o.LastSeq()
	require.NoError(t, err)
	assert.Equal(t, uint64(12), last)
}

func TestPurgeAckedKeepsNewestRow(t *testing.T) {
	o := openMem(t)
	n, err := o.PurgeAcked()
	require.NoError(t, err)
	assert.Zero(t, n)

	for seq := uint64(1); seq <= 4; seq++ {
		require.NoError(t, o.Append(seq, []byte{byte(seq)}))
	}
	for _, seq := range []uint64{1, 2, 4} {
		require.NoError(t, o.UpdateState(seq, StateAcked, 0))
	}

	n, err = o.PurgeAcked()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = o.Get(1)
	require.ErrorIs(t, err, pebble.ErrNotFound)
	_, err = o.Get(2)
	require.ErrorIs(t, err, pebble.ErrNotFound)
	rec, err := o.Get(3)
	require.NoError(t, err)
	assert.Equal(t, StateNew, rec.State)
	rec, err = o.Get(4)
	require.NoError(t, err)
	assert.Equal(t, StateAcked, rec.State)

	last, err := o.LastSeq()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), last)

	var pending []uint64
	require.NoError(t, o.ScanPending(func(r Record) error {
		pending = append(pending, r.Seq)
		return nil
	}))
	assert.Equal(t, []uint64{3}, pending)
}

func TestParseKeyRejectsForeignKeys(t *testing.T) {
	_, err := parseKey([]byte("snapshot/00000000000000000001"))
	require.ErrorIs(t, err, ErrCorruptRecord)
	seq, err := parseKey(keyFor(99))
	require.NoError(t, err)
	assert.Equal(t, uint64(99), seq)
}

func TestDecodeDetectsCorruptPayload(t *testing.T) {
	val := encodeRecord(Record{Seq: 1, State: StateNew, Payload: []byte("event")})
	val[len(val)-1] ^= 0xff

	_, err := decodeRecord(1, val)
	require.ErrorIs(t, err, ErrCorruptRecord)

	_, err = decodeRecord(1, val[:5])
	require.ErrorIs(t, err, ErrCorruptRecord)
}
