package service

import (
	"time"

	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

type EventType uint8

const (
	EventInserted EventType = 1
	EventDeleted  EventType = 2
)

func (t EventType) String() string {
	switch t {
	case EventInserted:
		return "inserted"
	case EventDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Event describes one committed mutation.
type Event struct {
	Seq  uint64
	Type EventType
	Key  string
	At   time.Time
}

// ErrBadEvent is returned when an encoded event cannot be decoded.
var ErrBadEvent = errors.New("service: malformed event")

// protobuf field numbers
const (
	fieldSeq  protowire.Number = 1
	fieldType protowire.Number = 2
	fieldKey  protowire.Number = 3
	fieldAt   protowire.Number = 4
)

// Marshal encodes e in protobuf wire format.
func (e Event) Marshal() []byte {
	b := make([]byte, 0, 24+len(e.Key))
	b = protowire.AppendTag(b, fieldSeq, protowire.VarintType)
	b = protowire.AppendVarint(b, e.Seq)
	b = protowire.AppendTag(b, fieldType, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(e.Type))
	b = protowire.AppendTag(b, fieldKey, protowire.BytesType)
	b = protowire.AppendString(b, e.Key)
	b = protowire.AppendTag(b, fieldAt, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(e.At.UnixNano()))
	return b
}

// UnmarshalEvent decodes an event written by Marshal. Unknown fields are
// skipped.
func UnmarshalEvent(b []byte) (Event, error) {
	var e Event
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Event{}, errors.Mark(protowire.ParseError(n), ErrBadEvent)
		}
		b = b[n:]

		switch {
		case num == fieldSeq && typ == protowire.VarintType:
			e.Seq, n = protowire.ConsumeVarint(b)
		case num == fieldType && typ == protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(b)
			e.Type = EventType(v)
		case num == fieldKey && typ == protowire.BytesType:
			var v []byte
			v, n = protowire.ConsumeBytes(b)
			e.Key = string(v)
		case num == fieldAt && typ == protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(b)
			e.At = time.Unix(0, int64(v))
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return Event{}, errors.Mark(errors.Wrapf(protowire.ParseError(n), "field %d", num), ErrBadEvent)
		}
		b = b[n:]
	}
	if e.Type != EventInserted && e.Type != EventDeleted {
		return Event{}, errors.Wrapf(ErrBadEvent, "event type %d", e.Type)
	}
	return e, nil
}
