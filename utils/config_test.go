package utils_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/utils"
	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/utils/log"
)

func TestParseConfig(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		yaml    string
		check   func(t *testing.T, cfg *utils.ServerConfig)
		wantErr bool
	}{
		"ok/ empty document keeps the defaults": {
			yaml: "",
			check: func(t *testing.T, cfg *utils.ServerConfig) {
				assert.Equal(t, ":9000", cfg.ListenAddress)
				assert.Equal(t, 10, cfg.Capacity)
				assert.Equal(t, 10*time.Second, cfg.TimestampInterval)
				assert.Equal(t, 100*time.Millisecond, cfg.AcceptPollInterval)
				assert.Equal(t, 0, cfg.MaxRecordSize)
				assert.Equal(t, log.INFO, cfg.LogLevel)
			},
		},
		"ok/ every field is overridden": {
			yaml: `
listen_address: 127.0.0.1:9100
capacity: 3
max_record_size: 4096
timestamp_interval: 2
accept_poll_interval: 20
log_level: DEBUG
log_file: /tmp/aesd.log
metrics_listen_address: :9101
`,
			check: func(t *testing.T, cfg *utils.ServerConfig) {
				assert.Equal(t, "127.0.0.1:9100", cfg.ListenAddress)
				assert.Equal(t, 3, cfg.Capacity)
				assert.Equal(t, 4096, cfg.MaxRecordSize)
				assert.Equal(t, 2*time.Second, cfg.TimestampInterval)
				assert.Equal(t, 20*time.Millisecond, cfg.AcceptPollInterval)
				assert.Equal(t, log.DEBUG, cfg.LogLevel)
				assert.Equal(t, "/tmp/aesd.log", cfg.LogFile)
				assert.Equal(t, ":9101", cfg.MetricsListenAddress)
			},
		},
		"ok/ explicit zero interval disables timestamps": {
			yaml: "timestamp_interval: 0\n",
			check: func(t *testing.T, cfg *utils.ServerConfig) {
				assert.Equal(t, time.Duration(0), cfg.TimestampInterval)
			},
		},
		"ng/ zero capacity": {
			yaml:    "capacity: 0\n",
			wantErr: true,
		},
		"ng/ negative record size": {
			yaml:    "max_record_size: -1\n",
			wantErr: true,
		},
		"ng/ broken yaml": {
			yaml:    "capacity: [\n",
			wantErr: true,
		},
	}

	for name := range tests {
		tt := tests[name]
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			// --- when ---
			cfg, err := utils.ParseConfig([]byte(tt.yaml))

			// --- then ---
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Parallel()

	cfg, err := utils.LoadConfig(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
	assert.Equal(t, utils.DefaultCapacity, cfg.Capacity)
}

func TestLoadConfig_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "aesdsocket.yml")
	require.NoError(t, os.WriteFile(path, []byte("capacity: 4\n"), 0o600))

	cfg, err := utils.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Capacity)
}

func TestLoadConfig_RelativeLogFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "aesdsocket.yml")
	require.NoError(t, os.WriteFile(path, []byte("log_file: logs/aesdsocket.log\n"), 0o600))

	cfg, err := utils.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "logs", "aesdsocket.log"), cfg.LogFile)
}
