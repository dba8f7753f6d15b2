package console

import (
	"github.com/Tiggerlaboratoriet/pigweed/v1/metrics"
	"github.com/Tiggerlaboratoriet/pigweed/v1/spinlock"
)

// Console serializes concurrent writers over one backend. The backend is
// owned by a guarded spin lock, so it is only ever touched while holding the
// guard; interleaved output from concurrent writers is impossible.
type Console struct {
	backend *spinlock.SpinLock[Backend]
}

// New returns a Console writing to b. Lock options apply to the internal
// guarded lock. A nil b means a standard-output backend.
func New(b Backend, opts ...spinlock.Option) *Console {
	if b == nil {
		b = NewStdio(nil)
	}
	return &Console{backend: spinlock.New[Backend](b, opts...)}
}

// Write sends p to the backend as one uninterrupted unit.
func (c *Console) Write(p []byte) (int, error) {
	g := c.backend.Lock()
	defer g.Release()

	n, err := g.Get().Write(p)
	metrics.ConsoleWriteCounter.Inc()
	metrics.ConsoleWriteBytes.Add(float64(n))
	if err != nil {
		metrics.ConsoleErrorCounter.Inc()
	}
	return n, err
}

// Flush pushes buffered output down to the host.
func (c *Console) Flush() error {
	g := c.backend.Lock()
	defer g.Release()

	err := g.Get().Flush()
	if err != nil {
		metrics.ConsoleErrorCounter.Inc()
	}
	return err
}

// SwapBackend replaces the backend and returns the previous one. In-flight
// writes finish on the backend they started with.
func (c *Console) SwapBackend(b Backend) Backend {
	g := c.backend.Lock()
	defer g.Release()

	old := g.Get()
	g.Set(b)
	return old
}
