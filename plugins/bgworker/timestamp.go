package bgworker

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/metrics"
	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/utils/log"
)

// TimestampLayout renders as "timestamp:%Y_%m_%d_%H:%M:%S\n".
const TimestampLayout = "timestamp:2006_01_02_15:04:05\n"

// Timestamper appends a timestamp record to the log at a fixed interval.
// The first record is written one full interval after Run starts.
type Timestamper struct {
	dst      Appender
	interval time.Duration
	now      func() time.Time
}

// NewTimestamper returns a worker appending to dst every interval.
func NewTimestamper(dst Appender, interval time.Duration) *Timestamper {
	return &Timestamper{
		dst:      dst,
		interval: interval,
		now:      time.Now,
	}
}

// Run writes timestamps until ctx is done.
func (t *Timestamper) Run(ctx context.Context) error {
	if t.interval <= 0 {
		return errors.Errorf("invalid timestamp interval %v", t.interval)
	}

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown timestamp writer...")
			return nil
		case <-ticker.C:
			if err := t.write(); err != nil {
				log.Error("timestamp writer: %v", err)
				return err
			}
		}
	}
}

func (t *Timestamper) write() error {
	rec := []byte(t.now().Local().Format(TimestampLayout))
	if err := t.dst.Append(rec); err != nil {
		return errors.Wrap(err, "append timestamp")
	}
	metrics.RecordsAppendedTotal.WithLabelValues("timestamp").Inc()
	log.Debug("wrote %q", rec)
	return nil
}
