package asyncrt

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

// runtimeMetrics is the optional OTel instrument set wired through
// WithMetrics. It is the one piece of the domain stack dedicated purely
// to observability, off by default and touched from the worker loop only
// on the already-cold steal/global-pull paths, never on the local-pop hot
// path.
type runtimeMetrics struct {
	steals      metric.Int64Counter
	globalPulls metric.Int64Counter
	queueDepth  metric.Registration
}

func newRuntimeMetrics(rt *Runtime, meter metric.Meter) (*runtimeMetrics, error) {
	steals, err := meter.Int64Counter(
		"asyncrt.worker.steals",
		metric.WithDescription("successful work-stealing attempts across all workers"),
	)
	if err != nil {
		return nil, err
	}
	globalPulls, err := meter.Int64Counter(
		"asyncrt.worker.global_pulls",
		metric.WithDescription("non-empty pulls from the global injection queue"),
	)
	if err != nil {
		return nil, err
	}
	localDepth, err := meter.Int64ObservableGauge(
		"asyncrt.queue.local_depth",
		metric.WithDescription("total tasks currently queued across every worker's local run queue"),
	)
	if err != nil {
		return nil, err
	}
	globalDepth, err := meter.Int64ObservableGauge(
		"asyncrt.queue.global_depth",
		metric.WithDescription("tasks currently queued on the global injection queue"),
	)
	if err != nil {
		return nil, err
	}

	reg, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		var local int64
		for _, w := range rt.workers {
			local += int64(w.local.len())
		}
		o.ObserveInt64(localDepth, local)
		o.ObserveInt64(globalDepth, int64(rt.global.len()))
		return nil
	}, localDepth, globalDepth)
	if err != nil {
		return nil, err
	}

	return &runtimeMetrics{steals: steals, globalPulls: globalPulls, queueDepth: reg}, nil
}

func (m *runtimeMetrics) recordSteal() {
	if m == nil {
		return
	}
	m.steals.Add(context.Background(), 1)
}

func (m *runtimeMetrics) recordGlobalPull() {
	if m == nil {
		return
	}
	m.globalPulls.Add(context.Background(), 1)
}

func (m *runtimeMetrics) close() {
	if m == nil || m.queueDepth == nil {
		return
	}
	_ = m.queueDepth.Unregister()
}
