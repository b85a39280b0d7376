package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var namespace = "aesd"
var subsystem = "aesdsocket"

var (
	// StartupTime stores how long the startup took (in seconds)
	StartupTime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "startup_seconds",
			Help:      "Seconds taken by the startup",
		},
	)

	// ConnectionsTotal stores the number of accepted client connections
	ConnectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "connections_total",
		Help:      "Number of client connections accepted",
	})

	// ActiveWorkers stores the number of connection workers not yet reaped
	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "active_workers",
		Help:      "Number of connection workers not yet reaped by the supervisor",
	})

	// WorkerFailuresTotal stores the number of failed workers partitioned by reason
	WorkerFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "worker_failures_total",
		Help:      "Number of connection workers that ended with a failure, partitioned by reason",
	}, []string{"reason"})

	// ConnectionDuration stores the lifetime of every connection worker
	ConnectionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "connection_duration_seconds",
		Help:      "Time from accept to close for every connection",
	})

	// RecordsAppendedTotal stores the number of records stored in the log
	RecordsAppendedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "records_appended_total",
		Help:      "Number of records appended to the log",
	}, []string{"source"})

	// RecordsEvictedTotal stores the number of records evicted from the log
	RecordsEvictedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "records_evicted_total",
		Help:      "Number of records evicted to make room for newer ones",
	})

	// LiveRecords stores the number of records currently held by the log
	LiveRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "live_records",
		Help:      "Number of records currently held by the log",
	})

	// LiveBytes stores the total size of the records currently held by the log
	LiveBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "live_bytes",
		Help:      "Total size in bytes of the records currently held by the log",
	})
)
