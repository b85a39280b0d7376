package di

import (
	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/frontend/stream"
	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/metrics"
	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/ringbuffer"
)

func (c *Container) GetBuffer() *ringbuffer.Buffer {
	if c.buffer != nil {
		return c.buffer
	}
	c.buffer = ringbuffer.New(c.serverConfig.Capacity,
		ringbuffer.WithMaxRecordSize(c.serverConfig.MaxRecordSize),
	)
	return c.buffer
}

// GetGate returns the gate every component appends and reads through.
func (c *Container) GetGate() *ringbuffer.Gate {
	if c.gate != nil {
		return c.gate
	}
	observers := ringbuffer.Observers{metrics.NewStoreObserver()}
	if hub := c.GetStreamHub(); hub != nil {
		observers = append(observers, hub)
	}
	c.gate = ringbuffer.NewGate(c.GetBuffer(), observers)
	return c.gate
}

// GetStreamHub returns the websocket record feed, or nil when there is no
// HTTP server to expose it on.
func (c *Container) GetStreamHub() *stream.Hub {
	if c.streamHub != nil || c.serverConfig.MetricsListenAddress == "" {
		return c.streamHub
	}
	c.streamHub = stream.NewHub()
	return c.streamHub
}
