package frontend

import (
	"bufio"
	"net"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/metrics"
	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/ringbuffer"
	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/utils/log"
)

const readBufferSize = 256

// WorkItem is the state of one accepted connection. It is owned by the
// Supervisor until its worker has finished and been joined.
type WorkItem struct {
	ID   uint64
	conn net.Conn
	gate *ringbuffer.Gate

	maxRecordSize int
	accepted      time.Time

	finished atomic.Bool
	done     chan struct{}
	// err is the outcome, readable once done is closed.
	err error
}

func newWorkItem(id uint64, conn net.Conn, gate *ringbuffer.Gate, maxRecordSize int) *WorkItem {
	return &WorkItem{
		ID:            id,
		conn:          conn,
		gate:          gate,
		maxRecordSize: maxRecordSize,
		accepted:      time.Now(),
		done:          make(chan struct{}),
	}
}

// Finished reports whether the worker has completed, without blocking.
func (w *WorkItem) Finished() bool {
	return w.finished.Load()
}

// Join waits for the worker to terminate and returns its outcome.
func (w *WorkItem) Join() error {
	<-w.done
	return w.err
}

// start runs the worker on its own goroutine.
func (w *WorkItem) start() {
	go w.run()
}

func (w *WorkItem) run() {
	peer := w.conn.RemoteAddr().String()
	log.Info("accepted connection from %s", peer)

	err := w.serve(peer)
	if cerr := w.conn.Close(); cerr != nil && err == nil {
		err = &TransportError{Op: "close", Err: cerr}
	}
	log.Info("closed connection from %s", peer)

	metrics.ConnectionDuration.Observe(time.Since(w.accepted).Seconds())
	if err != nil {
		metrics.WorkerFailuresTotal.WithLabelValues(FailureReason(err)).Inc()
	}

	w.err = err
	w.finished.Store(true)
	close(w.done)
}

// serve receives one line, applies it to the log and streams the log back.
func (w *WorkItem) serve(peer string) error {
	line, err := readRecord(bufio.NewReaderSize(w.conn, readBufferSize), w.maxRecordSize)
	if err != nil {
		return err
	}
	log.Info("received %d bytes from %s", len(line), peer)

	directive, isSeek, err := ParseSeekDirective(line)
	if err != nil {
		return err
	}

	var snap *ringbuffer.Snapshot
	if isSeek {
		log.Info("seek to record %d offset %d requested by %s", directive.Index, directive.Offset, peer)
		snap, err = w.gate.SeekAndSnapshot(directive.Index, directive.Offset)
		if err != nil {
			return err
		}
	} else {
		snap, err = w.gate.AppendAndSnapshot(line)
		if err != nil {
			return err
		}
		metrics.RecordsAppendedTotal.WithLabelValues("client").Inc()
		log.Debug("record of %d bytes from %s appended", len(line), peer)
	}

	// The snapshot is streamed without holding the gate.
	if _, err := snap.WriteTo(w.conn); err != nil {
		return &TransportError{Op: "send", Err: err}
	}
	log.Debug("sent %d bytes to %s", snap.Len(), peer)
	return nil
}

// FailureReason classifies a worker outcome for logs and metrics.
func FailureReason(err error) string {
	var te *TransportError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &te):
		return "transport"
	case errors.Is(err, ErrPartialRecord):
		return "partial_record"
	case errors.Is(err, ErrMalformedDirective):
		return "malformed_directive"
	case errors.Is(err, ringbuffer.ErrInvalidSeek):
		return "invalid_seek"
	case errors.Is(err, ringbuffer.ErrAllocation):
		return "allocation"
	case errors.Is(err, ringbuffer.ErrReleased):
		return "released"
	default:
		return "other"
	}
}
