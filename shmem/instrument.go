package shmem

import (
	"time"

	"github.com/sandialabs/goshmem/diag"
	"github.com/sandialabs/goshmem/metrics"
)

// instrument wraps a collective's body with the call-count/latency metrics
// and the optional diagnostic journal entry spec.md §9 calls for, shared by
// every public collective entry point. rt.journal is nil unless
// cfg.DiagCapacity > 0; with diagnostics off no entry is recorded.
func (rt *Runtime) instrument(kind string, start, stride, size int, fn func() error) error {
	begin := time.Now()
	err := fn()
	elapsed := time.Since(begin)

	metrics.CollectiveCalls.WithLabelValues(kind).Inc()
	metrics.CollectiveLatency.WithLabelValues(kind).Observe(elapsed.Seconds())

	if rt.journal != nil {
		e := diag.Entry{
			Kind:      kind,
			PEStart:   start,
			PEStride:  stride,
			PESize:    size,
			StartedAt: begin,
			Duration:  elapsed,
			OK:        err == nil,
		}
		if err != nil {
			e.Err = err.Error()
		}
		rt.journal.Record(e)
	}
	return err
}
