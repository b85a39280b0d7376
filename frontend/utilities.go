package frontend

import (
	"encoding/json"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/metrics"
	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/utils"
	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/utils/log"
)

type HeartbeatMessage struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	GitHash string `json:"git_hash"`
	Uptime  string `json:"uptime"`
}

// StateReporter is implemented by *Coordinator.
type StateReporter interface {
	State() State
}

type utilityAPIHandlers struct {
	state     StateReporter
	startTime time.Time
}

func NewUtilityAPIHandlers(state StateReporter, startTime time.Time) *utilityAPIHandlers {
	return &utilityAPIHandlers{state: state, startTime: startTime}
}

// Routes returns the heartbeat and profiling endpoints, served next to the
// prometheus metrics.
func (uah *utilityAPIHandlers) Routes() []metrics.Route {
	return []metrics.Route{
		{Pattern: "/heartbeat", Handler: http.HandlerFunc(uah.heartbeat)},
		{Pattern: "/pprof/", Handler: http.HandlerFunc(pprof.Index)},
		{Pattern: "/pprof/cmdline", Handler: http.HandlerFunc(pprof.Cmdline)},
		{Pattern: "/pprof/profile", Handler: http.HandlerFunc(pprof.Profile)},
		{Pattern: "/pprof/symbol", Handler: http.HandlerFunc(pprof.Symbol)},
		{Pattern: "/pprof/trace", Handler: http.HandlerFunc(pprof.Trace)},
		{Pattern: "/pprof/heap", Handler: pprof.Handler("heap")},
		{Pattern: "/pprof/goroutine", Handler: pprof.Handler("goroutine")},
	}
}

// heartbeat answers 200 while connections are accepted and 503 once the
// server is draining.
func (uah *utilityAPIHandlers) heartbeat(rw http.ResponseWriter, _ *http.Request) {
	state := uah.state.State()
	status := http.StatusOK
	if state != Running {
		status = http.StatusServiceUnavailable
	}

	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	err := json.NewEncoder(rw).Encode(HeartbeatMessage{
		Status:  state.String(),
		Version: utils.Tag,
		GitHash: utils.GitHash,
		Uptime:  time.Since(uah.startTime).Truncate(time.Second).String(),
	})
	if err != nil {
		log.Error("Failed to write heartbeat message - Error: %v", err)
	}
}
