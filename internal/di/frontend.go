package di

import (
	"net"

	"github.com/pkg/errors"

	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/frontend"
	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/utils/log"
)

// InjectListener makes the container use ln instead of binding
// ListenAddress, e.g. a listener inherited from a parent process.
func (c *Container) InjectListener(ln net.Listener) {
	c.listener = ln
}

// GetListener binds the configured address on first use.
func (c *Container) GetListener() (net.Listener, error) {
	if c.listener != nil {
		return c.listener, nil
	}
	ln, err := net.Listen("tcp", c.serverConfig.ListenAddress)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to listen on %s", c.serverConfig.ListenAddress)
	}
	log.Info("listening on %s", ln.Addr())
	c.listener = ln
	return c.listener, nil
}

// InjectMetricsListener is InjectListener for MetricsListenAddress.
func (c *Container) InjectMetricsListener(ln net.Listener) {
	c.metricsLn = ln
}

// GetMetricsListener binds MetricsListenAddress on first use. It returns a
// nil listener when the address is empty.
func (c *Container) GetMetricsListener() (net.Listener, error) {
	if c.metricsLn != nil || c.serverConfig.MetricsListenAddress == "" {
		return c.metricsLn, nil
	}
	ln, err := net.Listen("tcp", c.serverConfig.MetricsListenAddress)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to listen on %s", c.serverConfig.MetricsListenAddress)
	}
	c.metricsLn = ln
	return c.metricsLn, nil
}

func (c *Container) GetSupervisor() (*frontend.Supervisor, error) {
	if c.supervisor != nil {
		return c.supervisor, nil
	}
	ln, err := c.GetListener()
	if err != nil {
		return nil, err
	}
	c.supervisor = frontend.NewSupervisor(ln, c.GetGate(), frontend.SupervisorConfig{
		AcceptPollInterval: c.serverConfig.AcceptPollInterval,
		MaxRecordSize:      c.serverConfig.MaxRecordSize,
	})
	return c.supervisor, nil
}

func (c *Container) GetCoordinator() (*frontend.Coordinator, error) {
	if c.coordinator != nil {
		return c.coordinator, nil
	}
	sup, err := c.GetSupervisor()
	if err != nil {
		return nil, err
	}
	c.coordinator = frontend.NewCoordinator(c.GetGate(), sup, c.GetBgWorkers()...)
	return c.coordinator, nil
}
