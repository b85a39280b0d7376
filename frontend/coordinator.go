package frontend

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/plugins/bgworker"
	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/ringbuffer"
	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/utils/log"
)

// ErrAborted is returned by Coordinator.Run when a connection worker or a
// background worker reported a failure during the run.
var ErrAborted = errors.New("run finished with failures")

// State is the lifecycle stage of a Coordinator.
type State int32

const (
	Running State = iota
	Draining
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Coordinator owns the lifetime of a serving instance: it runs the
// supervisor and the background workers, and on shutdown drains them in
// order before releasing the record log.
type Coordinator struct {
	gate       *ringbuffer.Gate
	supervisor *Supervisor
	workers    []bgworker.BgWorker

	state atomic.Int32
}

// NewCoordinator wires a coordinator. workers may be empty.
func NewCoordinator(gate *ringbuffer.Gate, supervisor *Supervisor, workers ...bgworker.BgWorker) *Coordinator {
	return &Coordinator{
		gate:       gate,
		supervisor: supervisor,
		workers:    workers,
	}
}

// State returns the current lifecycle stage.
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// Run serves until ctx is canceled or accepting fails, then stops accepting,
// stops the background workers and waits for them, joins every connection
// worker and releases the log. Connection workers are not interrupted: the
// drain lasts as long as the slowest in-flight client.
func (c *Coordinator) Run(ctx context.Context) error {
	c.state.Store(int32(Running))

	bgCtx, stopBg := context.WithCancel(context.Background())
	defer stopBg()
	bgDone := make(chan error, len(c.workers))
	for _, w := range c.workers {
		go func(w bgworker.BgWorker) {
			bgDone <- w.Run(bgCtx)
		}(w)
	}

	acceptErr := c.supervisor.Run(ctx)

	c.state.Store(int32(Draining))
	log.Info("initiating graceful shutdown...")

	stopBg()
	var bgErr error
	for range c.workers {
		if err := <-bgDone; err != nil {
			bgErr = multierr.Append(bgErr, errors.Wrap(err, "background worker"))
		}
	}

	c.supervisor.JoinAll()

	c.gate.Release()
	c.state.Store(int32(Stopped))
	log.Info("record log released")

	err := multierr.Combine(acceptErr, bgErr)
	if n, first := c.supervisor.Failures(); n > 0 {
		err = multierr.Append(err, errors.Wrapf(first, "%d connection workers failed, first", n))
	}
	if err != nil {
		return multierr.Append(ErrAborted, err)
	}
	return nil
}
