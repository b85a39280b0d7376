package frontend_test

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/frontend"
	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/frontend/client"
	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/plugins/bgworker"
	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/ringbuffer"
)

type testServer struct {
	addr   string
	gate   *ringbuffer.Gate
	coord  *frontend.Coordinator
	cancel context.CancelFunc
	done   chan error
}

func startServer(t *testing.T, capacity int, workers ...bgworker.BgWorker) *testServer {
	t.Helper()
	return startServerWithGate(t, ringbuffer.NewGate(ringbuffer.New(capacity), nil), workers...)
}

func startServerWithGate(t *testing.T, gate *ringbuffer.Gate, workers ...bgworker.BgWorker) *testServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	sup := frontend.NewSupervisor(ln, gate, frontend.SupervisorConfig{AcceptPollInterval: 10 * time.Millisecond})
	coord := frontend.NewCoordinator(gate, sup, workers...)

	ctx, cancel := context.WithCancel(context.Background())
	s := &testServer{
		addr:   ln.Addr().String(),
		gate:   gate,
		coord:  coord,
		cancel: cancel,
		done:   make(chan error, 1),
	}
	go func() { s.done <- coord.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-s.done
	})
	return s
}

// stop triggers shutdown and returns the coordinator's outcome.
func (s *testServer) stop(t *testing.T) error {
	t.Helper()
	s.cancel()
	select {
	case err := <-s.done:
		s.done <- err // keep Cleanup from blocking
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("coordinator did not stop")
		return nil
	}
}

func (s *testServer) records(t *testing.T) [][]byte {
	t.Helper()
	var recs [][]byte
	require.NoError(t, s.gate.Do(func(b *ringbuffer.Buffer) error {
		recs = b.Records()
		return nil
	}))
	return recs
}

func TestCoordinator_SequentialSubmissions(t *testing.T) {
	t.Parallel()

	// --- given ---
	s := startServer(t, 10)
	c := client.NewClient(s.addr)
	ctx := context.Background()

	// --- when / then ---
	var want []byte
	for ch := byte('a'); ch <= 'j'; ch++ {
		rec := []byte{ch, '\n'}
		want = append(want, rec...)
		got, err := c.Send(ctx, rec)
		require.NoError(t, err)
		assert.Equal(t, string(want), string(got))
	}

	// the 11th submission evicts "a\n"
	got, err := c.Send(ctx, []byte("k\n"))
	require.NoError(t, err)
	assert.Equal(t, "b\nc\nd\ne\nf\ng\nh\ni\nj\nk\n", string(got))

	assert.NoError(t, s.stop(t))
	assert.Equal(t, frontend.Stopped, s.coord.State())
}

func TestCoordinator_SeekDirective(t *testing.T) {
	t.Parallel()

	// --- given ---
	s := startServer(t, 10)
	c := client.NewClient(s.addr)
	ctx := context.Background()
	for ch := byte('a'); ch <= 'j'; ch++ {
		_, err := c.Send(ctx, []byte{ch, '\n'})
		require.NoError(t, err)
	}

	// --- when ---
	got, err := c.SeekTo(ctx, 3, 1)

	// --- then ---
	require.NoError(t, err)
	assert.Equal(t, "\ne\nf\ng\nh\ni\nj\n", string(got))
	// a seek never stores the directive
	assert.Len(t, s.records(t), 10)
	assert.Equal(t, []byte("a\n"), s.records(t)[0])

	assert.NoError(t, s.stop(t))
}

func TestCoordinator_InvalidSeekClosesWithoutData(t *testing.T) {
	t.Parallel()

	tests := map[string]func(c *client.Client) ([]byte, error){
		"ng/ index past live records": func(c *client.Client) ([]byte, error) {
			return c.SeekTo(context.Background(), 5, 0)
		},
		"ng/ offset equal to record length": func(c *client.Client) ([]byte, error) {
			return c.SeekTo(context.Background(), 0, 2)
		},
		"ng/ malformed directive": func(c *client.Client) ([]byte, error) {
			return c.Send(context.Background(), []byte(frontend.SeekDirectivePrefix+"one,two\n"))
		},
	}

	for name := range tests {
		send := tests[name]
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			// --- given ---
			s := startServer(t, 10)
			c := client.NewClient(s.addr)
			_, err := c.Send(context.Background(), []byte("a\n"))
			require.NoError(t, err)

			// --- when ---
			got, err := send(c)

			// --- then ---
			require.NoError(t, err)
			assert.Empty(t, got)
			assert.Equal(t, [][]byte{[]byte("a\n")}, s.records(t))

			// the failure is reported at shutdown
			err = s.stop(t)
			assert.True(t, errors.Is(err, frontend.ErrAborted))
		})
	}
}

func TestCoordinator_PartialRecordIsNotStored(t *testing.T) {
	t.Parallel()

	// --- given ---
	s := startServer(t, 10)

	// --- when ---
	conn, err := net.Dial("tcp", s.addr)
	require.NoError(t, err)
	_, err = conn.Write([]byte("no newline"))
	require.NoError(t, err)
	require.NoError(t, conn.Close())
	// connections are accepted in order, so once this one is answered the
	// partial one is registered with the supervisor
	resp, err := client.NewClient(s.addr).Send(context.Background(), []byte("a\n"))
	require.NoError(t, err)
	assert.Equal(t, "a\n", string(resp))

	// --- then ---
	err = s.stop(t)
	assert.True(t, errors.Is(err, frontend.ErrAborted))
	assert.True(t, errors.Is(err, frontend.ErrPartialRecord))
}

func TestCoordinator_ConcurrentConnections(t *testing.T) {
	t.Parallel()

	const (
		capacity = 10
		clients  = 40
	)

	// --- given ---
	s := startServer(t, capacity)
	c := client.NewClient(s.addr)

	// --- when ---
	var wg sync.WaitGroup
	sent := make([][]byte, clients)
	for i := 0; i < clients; i++ {
		sent[i] = []byte(fmt.Sprintf("client %02d %s\n", i, bytes.Repeat([]byte{'x'}, 500+i)))
		wg.Add(1)
		go func(rec []byte) {
			defer wg.Done()
			resp, err := c.Send(context.Background(), rec)
			assert.NoError(t, err)
			// the response holds the submitter's own record
			assert.True(t, bytes.Contains(resp, rec))
		}(sent[i])
	}
	wg.Wait()

	// --- then ---
	recs := s.records(t)
	assert.Len(t, recs, capacity)
	valid := map[string]bool{}
	for _, r := range sent {
		valid[string(r)] = true
	}
	var got []string
	for _, r := range recs {
		assert.True(t, valid[string(r)], "corrupted record %q", r)
		got = append(got, string(r))
	}
	sort.Strings(got)
	for i := 1; i < len(got); i++ {
		assert.NotEqual(t, got[i-1], got[i])
	}

	assert.NoError(t, s.stop(t))
}

func TestCoordinator_TimestampsInterleaveWithClients(t *testing.T) {
	t.Parallel()

	// --- given ---
	gate := ringbuffer.NewGate(ringbuffer.New(10), nil)
	ts := bgworker.NewTimestamper(gate, 20*time.Millisecond)
	s := startServerWithGate(t, gate, ts)
	c := client.NewClient(s.addr)

	// --- when ---
	require.Eventually(t, func() bool {
		resp, err := c.SeekTo(context.Background(), 0, 0)
		return err == nil && bytes.HasPrefix(resp, []byte("timestamp:"))
	}, 3*time.Second, 25*time.Millisecond)
	resp, err := c.Send(context.Background(), []byte("hello\n"))

	// --- then ---
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(resp, []byte("timestamp:")))
	// the snapshot is taken right after the append, under the gate
	assert.True(t, bytes.HasSuffix(resp, []byte("hello\n")))
}

type failingWorker struct{}

func (failingWorker) Run(context.Context) error { return errors.New("timer failed") }

func TestCoordinator_BackgroundFailureDoesNotStopServing(t *testing.T) {
	t.Parallel()

	// --- given ---
	s := startServer(t, 10, failingWorker{})
	c := client.NewClient(s.addr)

	// --- when ---
	resp, err := c.Send(context.Background(), []byte("still here\n"))

	// --- then ---
	require.NoError(t, err)
	assert.Equal(t, "still here\n", string(resp))
	err = s.stop(t)
	assert.True(t, errors.Is(err, frontend.ErrAborted))
}

func TestCoordinator_DrainWaitsForInFlightWorkers(t *testing.T) {
	t.Parallel()

	// --- given ---
	s := startServer(t, 10)
	conn, err := net.Dial("tcp", s.addr)
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Write([]byte("slow "))
	require.NoError(t, err)
	// make sure the connection has been accepted before shutting down
	time.Sleep(100 * time.Millisecond)

	// --- when ---
	s.cancel()
	require.Eventually(t, func() bool {
		return s.coord.State() == frontend.Draining
	}, 2*time.Second, 5*time.Millisecond)

	// --- then ---
	select {
	case <-s.done:
		t.Fatal("coordinator stopped before the in-flight worker finished")
	case <-time.After(100 * time.Millisecond):
	}

	_, err = conn.Write([]byte("client\n"))
	require.NoError(t, err)
	buf := make([]byte, 64)
	n, _ := conn.Read(buf)
	assert.Equal(t, "slow client\n", string(buf[:n]))

	select {
	case err := <-s.done:
		s.done <- err
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("coordinator did not stop")
	}
	assert.Equal(t, frontend.Stopped, s.coord.State())

	// new connections are refused once draining started
	_, err = net.DialTimeout("tcp", s.addr, time.Second)
	assert.Error(t, err)
}
