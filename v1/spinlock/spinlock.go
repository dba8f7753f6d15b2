package spinlock

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/Tiggerlaboratoriet/pigweed/v1/spinlock")

const (
	unlocked uint32 = 0
	locked   uint32 = 1

	// maxSpins bounds how many times the state is re-tested before the
	// backoff hook runs. Matches the common test-test-and-set tuning for
	// short critical sections.
	maxSpins = 16
)

// BareSpinLock is a binary lock with no protected payload, used when the
// critical section itself is the resource being serialized. The zero value
// is not ready for use; construct with NewBare.
type BareSpinLock struct {
	state atomic.Uint32

	backoff      func()
	traceEnabled bool
	metrics      *lockMetrics
}

// Guard proves current ownership of a BareSpinLock. Releasing it is the sole
// way the lock ever transitions back to unlocked.
type Guard struct {
	lock     *BareSpinLock
	released atomic.Bool
}

// NewBare returns an unlocked BareSpinLock.
func NewBare(opts ...Option) *BareSpinLock {
	l := &BareSpinLock{backoff: runtime.Gosched}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Lock busy-waits until the lock transitions from unlocked to locked in a
// single atomic step, then returns the guard bound to this lock. There is no
// timeout and no cancellation; liveness is the caller's responsibility.
func (l *BareSpinLock) Lock() *Guard {
	var span trace.Span
	if l.traceEnabled {
		_, span = tracer.Start(context.Background(), "BareSpinLock.Lock")
		defer span.End()
	}
	var start time.Time
	if l.metrics != nil {
		start = time.Now()
	}

	contended := false
	spins := 0
	for {
		for l.state.Load() == locked {
			contended = true
			spins++
			if spins > maxSpins {
				spins = 0
				l.backoff()
			}
		}
		if l.state.CompareAndSwap(unlocked, locked) {
			break
		}
		contended = true
	}

	if l.traceEnabled {
		span.SetAttributes(attribute.Bool("lock.contended", contended))
	}
	if l.metrics != nil {
		l.metrics.acquired(contended, time.Since(start))
	}
	return &Guard{lock: l}
}

// TryLock performs one atomic test-and-set attempt. It returns the guard and
// true when the lock was unlocked and is now held by the caller; otherwise it
// returns nil and false with no side effects. TryLock never blocks.
func (l *BareSpinLock) TryLock() (*Guard, bool) {
	if !l.state.CompareAndSwap(unlocked, locked) {
		if l.metrics != nil {
			l.metrics.rejected()
		}
		return nil, false
	}
	if l.metrics != nil {
		l.metrics.acquired(false, 0)
	}
	return &Guard{lock: l}, true
}

// Release unlocks the lock the guard was issued from. Exactly the first call
// performs the transition; further calls are no-ops.
func (g *Guard) Release() {
	if g.released.Swap(true) {
		return
	}
	g.lock.state.Store(unlocked)
	if g.lock.metrics != nil {
		g.lock.metrics.releasedGuard()
	}
}

// Held reports whether the guard still owns its lock.
func (g *Guard) Held() bool {
	return !g.released.Load()
}
