package event

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Manager owns the lifecycle of event records.
//
// Created -> Duplicated -> Released, or Created -> Released. Duplicate and
// Release may run concurrently on different records.
type Manager interface {
	Create(sensorID string, counters Counters) (*Record, error)
	Duplicate(src *Record) (*Record, error)
	Release(rec *Record)
}

type Lifecycle struct {
	allocator Allocator

	now func() time.Time
}

func NewLifecycle(allocator Allocator) *Lifecycle {
	if allocator == nil {
		allocator = NewBudgetAllocator(0)
	}

	return &Lifecycle{
		allocator: allocator,
		now:       time.Now,
	}
}

// SetClock replaces the time source used to stamp new records
func (l *Lifecycle) SetClock(now func() time.Time) {
	l.now = now
}

func (l *Lifecycle) stamp() ([]byte, error) {
	b, err := l.allocator.Alloc(MaxTimestampLen + 1)
	if err != nil {
		return nil, err
	}

	n := copy(b[:MaxTimestampLen], l.now().UTC().Format(TimestampLayout))

	return b[:n], nil
}

func (l *Lifecycle) Create(sensorID string, counters Counters) (*Record, error) {
	ts, err := l.stamp()
	if err != nil {
		return nil, fmt.Errorf("event create timestamp: %w", err)
	}

	return &Record{
		MessageID: uuid.New().String(),
		SensorStr: sensorID,
		Timestamp: ts,
		Counters:  counters.Clone(),
	}, nil
}

// AttachSignature copies sig into a buffer owned by rec.
//
// An empty sig leaves the record unsigned.
func (l *Lifecycle) AttachSignature(rec *Record, sig []byte) error {
	if rec.IsReleased() {
		return ErrReleased
	}
	if len(sig) == 0 {
		return nil
	}

	b, err := l.allocator.Alloc(len(sig))
	if err != nil {
		return fmt.Errorf("event attach signature: %w", err)
	}
	copy(b, sig)

	// replace an older signature
	if rec.ObjSignature.Size > 0 {
		l.allocator.Free(rec.ObjSignature.Signature)
	}
	rec.ObjSignature = Signature{Signature: b, Size: len(b)}

	return nil
}

// Duplicate deep copies src. On failure nothing is left allocated and no
// record is returned.
func (l *Lifecycle) Duplicate(src *Record) (*Record, error) {
	if src == nil {
		return nil, fmt.Errorf("event duplicate null record")
	}
	if src.IsReleased() {
		return nil, ErrReleased
	}
	if src.ObjSignature.Size < 0 || src.ObjSignature.Size > len(src.ObjSignature.Signature) {
		return nil, fmt.Errorf(
			"%w %d over %d bytes",
			ErrSignatureSize, src.ObjSignature.Size, len(src.ObjSignature.Signature),
		)
	}

	dst := &Record{
		MessageID: src.MessageID,
		SensorStr: src.SensorStr,
		SourceID:  src.SourceID,
		FrameID:   src.FrameID,
		Counters:  src.Counters.Clone(),
	}

	if src.Timestamp != nil {
		b, err := l.allocator.Alloc(MaxTimestampLen + 1)
		if err != nil {
			return nil, fmt.Errorf("event duplicate timestamp: %w", err)
		}
		n := copy(b, src.Timestamp)
		dst.Timestamp = b[:n]
	}

	if src.ObjSignature.Size > 0 {
		b, err := l.allocator.Alloc(src.ObjSignature.Size)
		if err != nil {
			l.allocator.Free(dst.Timestamp)
			dst.Timestamp = nil
			return nil, fmt.Errorf("event duplicate signature: %w", err)
		}
		copy(b, src.ObjSignature.Signature[:src.ObjSignature.Size])
		dst.ObjSignature = Signature{Signature: b, Size: src.ObjSignature.Size}
	}

	return dst, nil
}

// Release frees the buffers owned by rec. Calling it again is a no-op.
func (l *Lifecycle) Release(rec *Record) {
	if rec == nil || rec.released.Swap(true) {
		return
	}

	if rec.Timestamp != nil {
		l.allocator.Free(rec.Timestamp)
		rec.Timestamp = nil
	}

	if rec.ObjSignature.Size > 0 {
		l.allocator.Free(rec.ObjSignature.Signature)
		rec.ObjSignature.Signature = nil
		rec.ObjSignature.Size = 0
	}
}
