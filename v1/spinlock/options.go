package spinlock

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a lock at construction time. The same options apply to
// BareSpinLock and SpinLock.
type Option func(*BareSpinLock)

// WithBackoff replaces the hook invoked after the bounded spin budget is
// exhausted. The default yields the processor. Platform-specific fairness or
// backoff policies (pause instructions, exponential delays) plug in here.
func WithBackoff(f func()) Option {
	return func(l *BareSpinLock) {
		if f != nil {
			l.backoff = f
		}
	}
}

// WithTracing enables OpenTelemetry spans around the acquisition wait in
// Lock. Intended for diagnosing contention, not for hot critical sections.
func WithTracing() Option {
	return func(l *BareSpinLock) {
		l.traceEnabled = true
	}
}

// WithMetrics enables Prometheus metrics collection for the lock using the
// provided registerer. The name labels the collectors so several locks can
// share one registry.
func WithMetrics(reg prometheus.Registerer, name string) Option {
	return func(l *BareSpinLock) {
		labels := prometheus.Labels{"lock": name}
		m := &lockMetrics{
			acquisitions: prometheus.NewCounter(prometheus.CounterOpts{
				Name:        "pigweed_lock_acquisitions_total",
				Help:        "Total number of successful lock acquisitions",
				ConstLabels: labels,
			}),
			contention: prometheus.NewCounter(prometheus.CounterOpts{
				Name:        "pigweed_lock_contention_total",
				Help:        "Total number of contended acquisitions and rejected try-locks",
				ConstLabels: labels,
			}),
			held: prometheus.NewGauge(prometheus.GaugeOpts{
				Name:        "pigweed_lock_held",
				Help:        "Whether the lock is currently held",
				ConstLabels: labels,
			}),
			wait: prometheus.NewHistogram(prometheus.HistogramOpts{
				Name:        "pigweed_lock_wait_seconds",
				Help:        "Time spent spinning for the lock",
				ConstLabels: labels,
				Buckets:     prometheus.ExponentialBuckets(1e-7, 10, 8),
			}),
		}
		reg.MustRegister(m.acquisitions, m.contention, m.held, m.wait)
		l.metrics = m
	}
}

type lockMetrics struct {
	acquisitions prometheus.Counter
	contention   prometheus.Counter
	held         prometheus.Gauge
	wait         prometheus.Histogram
}

func (m *lockMetrics) acquired(contended bool, waited time.Duration) {
	m.acquisitions.Inc()
	if contended {
		m.contention.Inc()
	}
	m.held.Set(1)
	if waited > 0 {
		m.wait.Observe(waited.Seconds())
	}
}

func (m *lockMetrics) rejected() {
	m.contention.Inc()
}

func (m *lockMetrics) releasedGuard() {
	m.held.Set(0)
}
