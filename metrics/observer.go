package metrics

// Setter is an interface for prometheus metrics to improve unit-testability.
type Setter interface {
	Set(m float64)
}

// Incrementer is the counter counterpart of Setter.
type Incrementer interface {
	Inc()
}

// StoreObserver mirrors the state of the record log into gauges and counters.
// It satisfies ringbuffer.Observer.
type StoreObserver struct {
	Evicted Incrementer
	Records Setter
	Bytes   Setter
}

// NewStoreObserver returns an observer bound to the package collectors.
func NewStoreObserver() *StoreObserver {
	return &StoreObserver{
		Evicted: RecordsEvictedTotal,
		Records: LiveRecords,
		Bytes:   LiveBytes,
	}
}

func (o *StoreObserver) RecordAppended(_ []byte, evicted bool, live, totalSize int) {
	if evicted {
		o.Evicted.Inc()
	}
	o.Records.Set(float64(live))
	o.Bytes.Set(float64(totalSize))
}
