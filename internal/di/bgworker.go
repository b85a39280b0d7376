package di

import (
	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/plugins/bgworker"
	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/utils/log"
)

// GetBgWorkers returns the background workers to run next to the server.
// The timestamper is left out when timestamp_interval is 0.
func (c *Container) GetBgWorkers() []bgworker.BgWorker {
	if c.bgWorkers != nil {
		return c.bgWorkers
	}
	c.bgWorkers = []bgworker.BgWorker{}
	if interval := c.serverConfig.TimestampInterval; interval > 0 {
		c.bgWorkers = append(c.bgWorkers, bgworker.NewTimestamper(c.GetGate(), interval))
	} else {
		log.Info("timestamp records are disabled")
	}
	if hub := c.GetStreamHub(); hub != nil {
		c.bgWorkers = append(c.bgWorkers, hub)
	}
	return c.bgWorkers
}
