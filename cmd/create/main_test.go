package create

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/utils"
)

func TestWriteDefaultConfig(t *testing.T) {
	t.Parallel()

	// --- given ---
	path := filepath.Join(t.TempDir(), defaultConfigFileName)

	// --- when ---
	err := writeDefaultConfig(path)

	// --- then ---
	require.NoError(t, err)
	cfg, err := utils.LoadConfig(path)
	require.NoError(t, err)
	want := utils.NewDefaultConfig()
	assert.Equal(t, want.ListenAddress, cfg.ListenAddress)
	assert.Equal(t, want.Capacity, cfg.Capacity)
	assert.Equal(t, want.TimestampInterval, cfg.TimestampInterval)
	assert.Equal(t, want.AcceptPollInterval, cfg.AcceptPollInterval)
	assert.Equal(t, want.LogLevel, cfg.LogLevel)
	assert.Empty(t, cfg.LogFile)
	assert.Empty(t, cfg.MetricsListenAddress)
}

func TestWriteDefaultConfig_KeepsExistingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), defaultConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("capacity: 3\n"), 0o600))

	assert.Error(t, writeDefaultConfig(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "capacity: 3\n", string(data))
}
