package ringbuffer

import (
	"sync"
)

// Observer is notified, under the gate, after every successful append. rec
// is the stored record and must not be modified.
type Observer interface {
	RecordAppended(rec []byte, evicted bool, live, totalSize int)
}

// Observers notifies each of its members in order.
type Observers []Observer

func (obs Observers) RecordAppended(rec []byte, evicted bool, live, totalSize int) {
	for _, o := range obs {
		o.RecordAppended(rec, evicted, live, totalSize)
	}
}

// Gate is the single exclusive region in front of a Buffer. Every append,
// every seek whose result feeds a read, and every snapshot goes through it,
// which totally orders mutations of the log.
type Gate struct {
	mu       sync.Mutex
	buf      *Buffer
	observer Observer
}

// NewGate takes ownership of buf. observer may be nil.
func NewGate(buf *Buffer, observer Observer) *Gate {
	return &Gate{buf: buf, observer: observer}
}

// Do runs fn with exclusive access to the buffer.
func (g *Gate) Do(fn func(b *Buffer) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn(g.buf)
}

func (g *Gate) appendLocked(rec []byte) error {
	evicted, err := g.buf.Append(rec)
	if err != nil {
		return err
	}
	if g.observer != nil {
		stored, _ := g.buf.Entry(g.buf.Len() - 1)
		g.observer.RecordAppended(stored, evicted != nil, g.buf.Len(), g.buf.TotalSize())
	}
	return nil
}

// Append stores rec, discarding any evicted record.
func (g *Gate) Append(rec []byte) error {
	return g.Do(func(*Buffer) error {
		return g.appendLocked(rec)
	})
}

// AppendAndSnapshot stores rec and captures the whole log, including rec,
// without releasing the gate in between.
func (g *Gate) AppendAndSnapshot(rec []byte) (*Snapshot, error) {
	var snap *Snapshot
	err := g.Do(func(b *Buffer) error {
		if err := g.appendLocked(rec); err != nil {
			return err
		}
		var err error
		snap, err = b.SnapshotFrom(0)
		return err
	})
	return snap, err
}

// SeekAndSnapshot resolves (index, offset) to a global offset and captures
// the log from there to the end.
func (g *Gate) SeekAndSnapshot(index, offset int) (*Snapshot, error) {
	var snap *Snapshot
	err := g.Do(func(b *Buffer) error {
		pos, err := b.SeekTo(index, offset)
		if err != nil {
			return err
		}
		snap, err = b.SnapshotFrom(pos)
		return err
	})
	return snap, err
}

// Snapshot captures the log from globalOffset to the end.
func (g *Gate) Snapshot(globalOffset int) (*Snapshot, error) {
	var snap *Snapshot
	err := g.Do(func(b *Buffer) error {
		var err error
		snap, err = b.SnapshotFrom(globalOffset)
		return err
	})
	return snap, err
}

// Release frees every record. It must only be called once no worker can
// reach the gate anymore.
func (g *Gate) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.buf.Release()
}
