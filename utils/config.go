package utils

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/utils/log"
)

const (
	DefaultListenAddress      = ":9000"
	DefaultCapacity           = 10
	DefaultTimestampInterval  = 10 * time.Second
	DefaultAcceptPollInterval = 100 * time.Millisecond
)

// ServerConfig holds the settings of a running aesdsocket instance.
type ServerConfig struct {
	ListenAddress        string
	Capacity             int
	MaxRecordSize        int
	TimestampInterval    time.Duration
	AcceptPollInterval   time.Duration
	LogLevel             log.Level
	LogFile              string
	MetricsListenAddress string
	StartTime            time.Time
}

// NewDefaultConfig returns the configuration used when no file is given.
func NewDefaultConfig() *ServerConfig {
	return &ServerConfig{
		ListenAddress:      DefaultListenAddress,
		Capacity:           DefaultCapacity,
		TimestampInterval:  DefaultTimestampInterval,
		AcceptPollInterval: DefaultAcceptPollInterval,
		LogLevel:           log.INFO,
		StartTime:          time.Now(),
	}
}

// ParseConfig parses YAML configuration data on top of the defaults.
func ParseConfig(data []byte) (*ServerConfig, error) {
	m := NewDefaultConfig()
	if err := m.Parse(data); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadConfig reads the configuration file at path. A missing file is not an
// error: the defaults are returned instead. A relative log_file is resolved
// against the directory of the configuration file.
func LoadConfig(path string) (*ServerConfig, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.Info("configuration file %s not found, using defaults", path)
		return NewDefaultConfig(), nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read configuration file %s", path)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse configuration file %s", path)
	}
	if cfg.LogFile != "" && !filepath.IsAbs(cfg.LogFile) {
		dir, err := filepath.Abs(filepath.Dir(path))
		if err != nil {
			return nil, errors.Wrap(err, "failed to resolve the configuration directory")
		}
		cfg.LogFile = filepath.Join(dir, cfg.LogFile)
	}
	return cfg, nil
}

func (m *ServerConfig) Parse(data []byte) error {
	var aux struct {
		ListenAddress        string `yaml:"listen_address"`
		Capacity             *int   `yaml:"capacity"`
		MaxRecordSize        int    `yaml:"max_record_size"`
		TimestampInterval    *int   `yaml:"timestamp_interval"`
		AcceptPollInterval   int    `yaml:"accept_poll_interval"`
		LogLevel             string `yaml:"log_level"`
		LogFile              string `yaml:"log_file"`
		MetricsListenAddress string `yaml:"metrics_listen_address"`
	}

	if err := yaml.Unmarshal(data, &aux); err != nil {
		return errors.Wrap(err, "invalid yaml")
	}

	if aux.ListenAddress != "" {
		m.ListenAddress = aux.ListenAddress
	}

	if aux.Capacity != nil {
		if *aux.Capacity < 1 {
			return errors.Errorf("invalid capacity: %d", *aux.Capacity)
		}
		m.Capacity = *aux.Capacity
	}

	if aux.MaxRecordSize < 0 {
		return errors.Errorf("invalid max_record_size: %d", aux.MaxRecordSize)
	}
	m.MaxRecordSize = aux.MaxRecordSize

	// 0 disables the timestamp writer, so an explicit zero must survive.
	if aux.TimestampInterval != nil {
		if *aux.TimestampInterval < 0 {
			return errors.Errorf("invalid timestamp_interval: %d", *aux.TimestampInterval)
		}
		m.TimestampInterval = time.Duration(*aux.TimestampInterval) * time.Second
	}

	if aux.AcceptPollInterval > 0 {
		m.AcceptPollInterval = time.Duration(aux.AcceptPollInterval) * time.Millisecond
	}

	if aux.LogLevel != "" {
		m.LogLevel = log.ParseLevel(strings.ToLower(aux.LogLevel))
	}

	m.LogFile = aux.LogFile
	m.MetricsListenAddress = aux.MetricsListenAddress

	return nil
}
