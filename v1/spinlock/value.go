package spinlock

import "runtime"

// SpinLock couples a BareSpinLock with exactly one value of T. The value is
// only reachable through a live ValueGuard, so unsynchronized access to it is
// impossible by construction. T itself carries no concurrency obligations;
// the lock is the sole access gate.
type SpinLock[T any] struct {
	lk    BareSpinLock
	value T
}

// ValueGuard proves ownership of a SpinLock and grants read and write access
// to the protected value for as long as it is held.
type ValueGuard[T any] struct {
	inner *Guard
	lock  *SpinLock[T]
}

// New returns an unlocked SpinLock protecting initial.
func New[T any](initial T, opts ...Option) *SpinLock[T] {
	l := &SpinLock[T]{value: initial}
	l.lk.backoff = runtime.Gosched
	for _, opt := range opts {
		opt(&l.lk)
	}
	return l
}

// Lock busy-waits until the lock is acquired, then returns a guard exposing
// the protected value. Same blocking semantics as BareSpinLock.Lock.
func (l *SpinLock[T]) Lock() *ValueGuard[T] {
	return &ValueGuard[T]{inner: l.lk.Lock(), lock: l}
}

// TryLock performs one atomic acquisition attempt. It returns nil and false
// when the lock is already held.
func (l *SpinLock[T]) TryLock() (*ValueGuard[T], bool) {
	inner, ok := l.lk.TryLock()
	if !ok {
		return nil, false
	}
	return &ValueGuard[T]{inner: inner, lock: l}, true
}

// Get returns the protected value. Panics if the guard was already released.
func (g *ValueGuard[T]) Get() T {
	g.mustBeHeld()
	return g.lock.value
}

// Set replaces the protected value. The write becomes visible to whichever
// acquirer next obtains the lock. Panics if the guard was already released.
func (g *ValueGuard[T]) Set(v T) {
	g.mustBeHeld()
	g.lock.value = v
}

// Update applies f to a pointer to the protected value while the guard is
// held, for read-modify-write sequences on larger types.
func (g *ValueGuard[T]) Update(f func(*T)) {
	g.mustBeHeld()
	f(&g.lock.value)
}

// Release unlocks the lock. Exactly the first call performs the transition;
// further calls are no-ops. The guard grants no value access afterwards.
func (g *ValueGuard[T]) Release() {
	g.inner.Release()
}

// Held reports whether the guard still owns its lock.
func (g *ValueGuard[T]) Held() bool {
	return g.inner.Held()
}

func (g *ValueGuard[T]) mustBeHeld() {
	if g.inner.released.Load() {
		panic("spinlock: value access through a released guard")
	}
}
