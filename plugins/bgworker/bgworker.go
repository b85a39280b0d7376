// Package bgworker provides the interface for background workers and the
// timestamp writer that runs next to the connection supervisor.
//
// Background workers are started by the shutdown coordinator once signal
// delivery has been arranged, run under their own goroutine independently
// of client traffic, and are stopped through their context before the
// connection workers are drained.
//
// Configuration is as follows.
//
//	timestamp_interval: 10 # seconds, 0 disables the timestamp writer
package bgworker

import "context"

// BgWorker implements Run(). It will be running under a separate goroutine
// and must return once ctx is done. A non-nil error is a failure outcome.
type BgWorker interface {
	Run(ctx context.Context) error
}

// Appender stores one record in the log.
type Appender interface {
	Append(rec []byte) error
}
