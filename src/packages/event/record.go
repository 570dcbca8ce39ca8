package event

import (
	"errors"
	"maps"
	"sync/atomic"
)

// MaxTimestampLen is the longest timestamp text a record can hold, the buffer
// carries one extra byte like the native event meta does.
const MaxTimestampLen = 32

// TimestampLayout is RFC 3339 in UTC with milliseconds
const TimestampLayout = "2006-01-02T15:04:05.000Z"

var ErrReleased = errors.New("event record released")

var ErrSignatureSize = errors.New("event signature size")

// Signature is an optional object signature.
//
// Size is always len(Signature), zero when there is none
type Signature struct {
	Signature []byte
	Size      int
}

// Counters are named integer counters, see CurrentCounter and CumulativeCounter
type Counters map[string]uint64

func CurrentCounter(direction string) string {
	return "lc_curr_" + direction
}

func CumulativeCounter(direction string) string {
	return "lc_cum_" + direction
}

func (c Counters) Clone() Counters {
	if c == nil {
		return Counters{}
	}
	return maps.Clone(c)
}

type Record struct {
	MessageID string
	SensorStr string
	SourceID  uint32
	FrameID   uint64

	// buffer owned by the record, nil after release
	Timestamp []byte

	ObjSignature Signature
	Counters     Counters

	released atomic.Bool
}

func (r *Record) TimestampString() string {
	return string(r.Timestamp)
}

func (r *Record) IsReleased() bool {
	return r.released.Load()
}

// Counter returns 0 for unknown names
func (r *Record) Counter(name string) uint64 {
	return r.Counters[name]
}

func (r *Record) HasSignature() bool {
	return r.ObjSignature.Size > 0
}
