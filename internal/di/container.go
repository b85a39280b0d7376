package di

import (
	"net"

	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/frontend"
	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/frontend/stream"
	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/plugins/bgworker"
	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/ringbuffer"
	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/utils"
)

// Container builds the components of a server lazily, each at most once.
type Container struct {
	serverConfig *utils.ServerConfig
	listener     net.Listener
	metricsLn    net.Listener
	buffer       *ringbuffer.Buffer
	gate         *ringbuffer.Gate
	streamHub    *stream.Hub
	supervisor   *frontend.Supervisor
	bgWorkers    []bgworker.BgWorker
	coordinator  *frontend.Coordinator
}

func NewContainer(cfg *utils.ServerConfig) *Container {
	return &Container{serverConfig: cfg}
}

func (c *Container) GetServerConfig() *utils.ServerConfig {
	return c.serverConfig
}
