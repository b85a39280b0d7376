package frontend

import (
	"context"
	"net"
	"time"

	"github.com/pkg/errors"

	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/metrics"
	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/ringbuffer"
	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/utils/log"
)

const defaultAcceptPollInterval = 100 * time.Millisecond

// deadlineListener is satisfied by *net.TCPListener and *net.UnixListener.
type deadlineListener interface {
	SetDeadline(t time.Time) error
}

// SupervisorConfig tunes a Supervisor.
type SupervisorConfig struct {
	// AcceptPollInterval bounds how long one accept attempt may block.
	AcceptPollInterval time.Duration
	// MaxRecordSize limits a client record, 0 means unlimited.
	MaxRecordSize int
}

// Supervisor accepts connections, runs one worker per connection and reaps
// the finished ones. The registry is only touched from the goroutine running
// Run and JoinAll, so it needs no lock.
type Supervisor struct {
	ln   net.Listener
	gate *ringbuffer.Gate
	cfg  SupervisorConfig

	registry map[*WorkItem]struct{}
	nextID   uint64

	failures int
	firstErr error
}

// NewSupervisor takes ownership of ln.
func NewSupervisor(ln net.Listener, gate *ringbuffer.Gate, cfg SupervisorConfig) *Supervisor {
	if cfg.AcceptPollInterval <= 0 {
		cfg.AcceptPollInterval = defaultAcceptPollInterval
	}
	return &Supervisor{
		ln:       ln,
		gate:     gate,
		cfg:      cfg,
		registry: map[*WorkItem]struct{}{},
	}
}

// Addr returns the listening address.
func (s *Supervisor) Addr() net.Addr {
	return s.ln.Addr()
}

// Run accepts connections until ctx is canceled, then closes the listener.
// Workers still running are left in the registry for JoinAll. A non-nil
// error means accepting failed for a reason other than shutdown.
func (s *Supervisor) Run(ctx context.Context) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			// unblocks an Accept on listeners without deadline support
			_ = s.ln.Close()
		case <-stop:
		}
	}()
	defer s.ln.Close()

	for ctx.Err() == nil {
		conn, err := s.accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Error("accept: %v", err)
			return errors.Wrap(err, "accept")
		}
		if conn != nil {
			s.spawn(conn)
		}
		s.reap()
	}
	log.Info("stopped accepting connections")
	return nil
}

// accept waits at most one poll interval for a connection. A nil conn with
// a nil error means none arrived.
func (s *Supervisor) accept() (net.Conn, error) {
	if dl, ok := s.ln.(deadlineListener); ok {
		if err := dl.SetDeadline(time.Now().Add(s.cfg.AcceptPollInterval)); err != nil {
			return nil, err
		}
	}
	conn, err := s.ln.Accept()
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return nil, nil
		}
		return nil, err
	}
	return conn, nil
}

func (s *Supervisor) spawn(conn net.Conn) {
	s.nextID++
	item := newWorkItem(s.nextID, conn, s.gate, s.cfg.MaxRecordSize)
	s.registry[item] = struct{}{}
	metrics.ConnectionsTotal.Inc()
	metrics.ActiveWorkers.Set(float64(len(s.registry)))
	item.start()
}

// reap joins and removes every finished worker without blocking on the
// running ones.
func (s *Supervisor) reap() {
	for item := range s.registry {
		if item.Finished() {
			s.collect(item)
		}
	}
}

func (s *Supervisor) collect(item *WorkItem) {
	err := item.Join()
	delete(s.registry, item)
	metrics.ActiveWorkers.Set(float64(len(s.registry)))
	if err != nil {
		log.Error("connection worker %d finished with error (%s): %v", item.ID, FailureReason(err), err)
		s.failures++
		if s.firstErr == nil {
			s.firstErr = err
		}
	}
}

// JoinAll blocks until every registered worker has terminated.
func (s *Supervisor) JoinAll() {
	if len(s.registry) > 0 {
		log.Info("waiting for %d connection workers to finish...", len(s.registry))
	}
	for item := range s.registry {
		s.collect(item)
	}
}

// Pending returns the number of workers not yet reaped.
func (s *Supervisor) Pending() int {
	return len(s.registry)
}

// Failures returns how many workers ended with an error and the first of them.
func (s *Supervisor) Failures() (int, error) {
	return s.failures, s.firstErr
}
