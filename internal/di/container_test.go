package di_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/frontend"
	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/frontend/client"
	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/internal/di"
	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/utils"
)

func testConfig() *utils.ServerConfig {
	cfg := utils.NewDefaultConfig()
	cfg.ListenAddress = "127.0.0.1:0"
	cfg.Capacity = 3
	cfg.AcceptPollInterval = 10 * time.Millisecond
	return cfg
}

func TestContainer_BuildsEachComponentOnce(t *testing.T) {
	t.Parallel()

	// --- given ---
	c := di.NewContainer(testConfig())

	// --- when ---
	coord, err := c.GetCoordinator()
	require.NoError(t, err)
	coord2, err := c.GetCoordinator()
	require.NoError(t, err)
	ln, err := c.GetListener()
	require.NoError(t, err)
	defer ln.Close()

	// --- then ---
	assert.Same(t, coord, coord2)
	assert.Same(t, c.GetGate(), c.GetGate())
	assert.Equal(t, 3, c.GetBuffer().Cap())
	assert.Len(t, c.GetBgWorkers(), 1)
}

func TestContainer_TimestampsDisabled(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.TimestampInterval = 0

	assert.Empty(t, di.NewContainer(cfg).GetBgWorkers())
}

func TestContainer_ListenFailure(t *testing.T) {
	t.Parallel()

	// --- given ---
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()
	cfg := testConfig()
	cfg.ListenAddress = busy.Addr().String()

	// --- when ---
	_, err = di.NewContainer(cfg).GetCoordinator()

	// --- then ---
	assert.Error(t, err)
}

func TestContainer_ServesOnInjectedListener(t *testing.T) {
	t.Parallel()

	// --- given ---
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	c := di.NewContainer(testConfig())
	c.InjectListener(ln)
	coord, err := c.GetCoordinator()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- coord.Run(ctx) }()

	// --- when ---
	cl := client.NewClient(ln.Addr().String())
	for _, rec := range []string{"a\n", "b\n", "c\n"} {
		_, err = cl.Send(context.Background(), []byte(rec))
		require.NoError(t, err)
	}
	resp, err := cl.Send(context.Background(), []byte("d\n"))

	// --- then ---
	require.NoError(t, err)
	assert.Equal(t, "b\nc\nd\n", string(resp))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("coordinator did not stop")
	}
	assert.Equal(t, frontend.Stopped, coord.State())
}

func TestContainer_StreamHubNeedsMetricsServer(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	assert.Nil(t, di.NewContainer(cfg).GetStreamHub())

	cfg = testConfig()
	cfg.MetricsListenAddress = "127.0.0.1:0"
	c := di.NewContainer(cfg)
	require.NotNil(t, c.GetStreamHub())
	assert.Same(t, c.GetStreamHub(), c.GetStreamHub())
	assert.Len(t, c.GetBgWorkers(), 2)
}

func TestContainer_MetricsListener(t *testing.T) {
	t.Parallel()

	// --- given ---
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { busy.Close() })

	tests := map[string]struct {
		addr    string
		wantLn  bool
		wantErr bool
	}{
		"ok/disabled":     {addr: "", wantLn: false},
		"ok/bound":        {addr: "127.0.0.1:0", wantLn: true},
		"ng/address_busy": {addr: busy.Addr().String(), wantErr: true},
	}
	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig()
			cfg.MetricsListenAddress = tt.addr
			c := di.NewContainer(cfg)

			// --- when ---
			ln, err := c.GetMetricsListener()

			// --- then ---
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if !tt.wantLn {
				assert.Nil(t, ln)
				return
			}
			require.NotNil(t, ln)
			defer ln.Close()
			ln2, err := c.GetMetricsListener()
			require.NoError(t, err)
			assert.Same(t, ln, ln2)
		})
	}
}
