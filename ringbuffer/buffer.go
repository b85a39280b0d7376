// Package ringbuffer implements the bounded record log served by aesdsocket.
//
// A Buffer is a fixed number of slots filled in arrival order. Once every
// slot has been used, each append evicts the oldest record. Bytes are
// addressed with a global offset: the position a byte would have if all live
// records were concatenated oldest to newest. Eviction shifts that address
// space, so offsets and record indices are only valid until the next append
// past capacity.
//
// A Buffer does no locking of its own. Concurrent users go through a Gate.
package ringbuffer

import (
	"github.com/pkg/errors"
)

var (
	// ErrAllocation is returned when a record cannot be stored.
	ErrAllocation = errors.New("record storage allocation failed")
	// ErrInvalidSeek is returned for a record index or byte offset that does
	// not address a live byte.
	ErrInvalidSeek = errors.New("invalid seek position")
	// ErrNotFound is returned by Find for offsets at or past the end of the log.
	ErrNotFound = errors.New("offset not found")
	// ErrReleased is returned by every operation on a released buffer.
	ErrReleased = errors.New("record buffer released")
)

// Buffer is a ring of capacity record slots.
type Buffer struct {
	entries [][]byte
	// in is the slot the next record goes to, out the oldest live slot.
	in, out int
	full    bool
	size    int

	maxRecordSize int
	released      bool
}

// Option configures a Buffer.
type Option func(*Buffer)

// WithMaxRecordSize rejects records longer than n bytes with ErrAllocation.
// Zero means unlimited.
func WithMaxRecordSize(n int) Option {
	return func(b *Buffer) {
		b.maxRecordSize = n
	}
}

// New creates an empty buffer. capacity must be positive.
func New(capacity int, opts ...Option) *Buffer {
	if capacity < 1 {
		panic("ringbuffer: capacity must be positive")
	}
	b := &Buffer{
		entries: make([][]byte, capacity),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Cap returns the number of slots.
func (b *Buffer) Cap() int {
	return len(b.entries)
}

// Len returns the number of live records.
func (b *Buffer) Len() int {
	if b.full {
		return len(b.entries)
	}
	return b.in - b.out
}

// TotalSize returns the sum of the lengths of all live records.
func (b *Buffer) TotalSize() int {
	return b.size
}

// slot maps a live record index (0 is the oldest) to its slot.
func (b *Buffer) slot(index int) int {
	return (b.out + index) % len(b.entries)
}

// Append stores a copy of rec as the newest record. If the buffer was full
// the oldest record is evicted and returned. On error the buffer is left
// unchanged.
func (b *Buffer) Append(rec []byte) (evicted []byte, err error) {
	if b.released {
		return nil, ErrReleased
	}
	if b.maxRecordSize > 0 && len(rec) > b.maxRecordSize {
		return nil, errors.Wrapf(ErrAllocation, "record of %d bytes exceeds limit of %d",
			len(rec), b.maxRecordSize)
	}

	stored := make([]byte, len(rec))
	copy(stored, rec)

	if b.full {
		evicted = b.entries[b.in]
		b.size -= len(evicted)
	}

	b.entries[b.in] = stored
	b.size += len(stored)
	b.in = (b.in + 1) % len(b.entries)
	if b.in == b.out || b.full {
		b.full = true
		b.out = b.in
	}
	return evicted, nil
}

// Entry returns the live record at index, oldest first. The returned slice
// must not be modified.
func (b *Buffer) Entry(index int) ([]byte, error) {
	if b.released {
		return nil, ErrReleased
	}
	if index < 0 || index >= b.Len() {
		return nil, errors.Wrapf(ErrInvalidSeek, "record index %d out of range [0,%d)", index, b.Len())
	}
	return b.entries[b.slot(index)], nil
}

// Records returns the live records, oldest first.
func (b *Buffer) Records() [][]byte {
	n := b.Len()
	out := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, b.entries[b.slot(i)])
	}
	return out
}

// Find returns the index of the record containing globalOffset and the
// offset of that byte within the record.
func (b *Buffer) Find(globalOffset int) (index, inner int, err error) {
	if b.released {
		return 0, 0, ErrReleased
	}
	if globalOffset < 0 || globalOffset >= b.size {
		return 0, 0, errors.Wrapf(ErrNotFound, "offset %d, log size %d", globalOffset, b.size)
	}

	acc := 0
	for i := 0; i < b.Len(); i++ {
		n := len(b.entries[b.slot(i)])
		if acc+n > globalOffset {
			return i, globalOffset - acc, nil
		}
		acc += n
	}
	// unreachable while size matches the live records
	return 0, 0, errors.Wrapf(ErrNotFound, "offset %d", globalOffset)
}

// SeekTo converts a (record index, byte offset in record) pair into a global
// offset. The byte offset must address an existing byte of the record.
func (b *Buffer) SeekTo(index, offset int) (int, error) {
	if b.released {
		return 0, ErrReleased
	}
	if index < 0 || index >= b.Len() {
		return 0, errors.Wrapf(ErrInvalidSeek, "record index %d, %d live records", index, b.Len())
	}

	global := 0
	for i := 0; i < index; i++ {
		global += len(b.entries[b.slot(i)])
	}

	n := len(b.entries[b.slot(index)])
	if offset < 0 || offset >= n {
		return 0, errors.Wrapf(ErrInvalidSeek, "byte offset %d, record %d has %d bytes", offset, index, n)
	}
	return global + offset, nil
}

// SnapshotFrom captures the log from globalOffset to the current end. An
// offset equal to TotalSize yields an empty snapshot.
func (b *Buffer) SnapshotFrom(globalOffset int) (*Snapshot, error) {
	if b.released {
		return nil, ErrReleased
	}
	if globalOffset < 0 || globalOffset > b.size {
		return nil, errors.Wrapf(ErrInvalidSeek, "offset %d, log size %d", globalOffset, b.size)
	}

	s := &Snapshot{offset: globalOffset}
	skip := globalOffset
	for i := 0; i < b.Len(); i++ {
		rec := b.entries[b.slot(i)]
		if skip >= len(rec) {
			skip -= len(rec)
			continue
		}
		chunk := rec[skip:]
		skip = 0
		s.chunks = append(s.chunks, chunk)
		s.size += len(chunk)
	}
	return s, nil
}

// Release drops every record. Later operations fail with ErrReleased.
func (b *Buffer) Release() {
	for i := range b.entries {
		b.entries[i] = nil
	}
	b.in, b.out, b.size = 0, 0, 0
	b.full = false
	b.released = true
}
