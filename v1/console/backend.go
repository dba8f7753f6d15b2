package console

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Tiggerlaboratoriet/pigweed/v1/status"
)

// Backend is a sink for console output. Write returns the number of bytes
// accepted; Flush pushes anything buffered down to the host. Neither retries
// on failure.
type Backend interface {
	Write(p []byte) (int, error)
	Flush() error
}

// StdioBackend forwards console output to a process standard-output stream.
type StdioBackend struct {
	w io.Writer
}

// NewStdio returns a backend writing to w. A nil w means os.Stdout.
func NewStdio(w io.Writer) *StdioBackend {
	if w == nil {
		w = os.Stdout
	}
	return &StdioBackend{w: w}
}

// Write implements Backend. Failures are reported as status.ErrUnknown.
func (b *StdioBackend) Write(p []byte) (int, error) {
	n, err := b.w.Write(p)
	if err != nil {
		return n, fmt.Errorf("%w: %v", status.ErrUnknown, err)
	}
	return n, nil
}

// Flush implements Backend. It syncs the stream when the writer supports it.
func (b *StdioBackend) Flush() error {
	type syncer interface{ Sync() error }
	if s, ok := b.w.(syncer); ok {
		if err := s.Sync(); err != nil {
			return fmt.Errorf("%w: %v", status.ErrUnknown, err)
		}
	}
	return nil
}

// WriteFunc is the host-provided write primitive a HostBackend forwards to.
type WriteFunc func(p []byte) (int, error)

// HostBackend forwards console output to a host-provided write primitive,
// such as a debug-probe semihosting channel. The channel is unbuffered from
// the backend's point of view, so Flush always succeeds.
type HostBackend struct {
	write WriteFunc
}

// NewHost returns a backend forwarding to write. A nil write reports
// status.ErrUnavailable on every Write.
func NewHost(write WriteFunc) *HostBackend {
	return &HostBackend{write: write}
}

// Write implements Backend. An absent channel is status.ErrUnavailable; a
// failed or short transfer is status.ErrDataLoss.
func (b *HostBackend) Write(p []byte) (int, error) {
	if b.write == nil {
		return 0, status.ErrUnavailable
	}
	n, err := b.write(p)
	if err != nil {
		return n, fmt.Errorf("%w: %v", status.ErrDataLoss, err)
	}
	if n < len(p) {
		return n, status.ErrDataLoss
	}
	return n, nil
}

// Flush implements Backend.
func (b *HostBackend) Flush() error {
	return nil
}

// ResilientBackend wraps a Backend and suppresses errors, logging them
// instead of returning them. Console output is best effort in most systems;
// this keeps a broken channel from propagating failures into callers.
type ResilientBackend struct {
	inner Backend
}

// NewResilient creates a new ResilientBackend wrapper.
func NewResilient(inner Backend) *ResilientBackend {
	return &ResilientBackend{inner: inner}
}

// Write implements Backend. If the inner backend fails, it logs the error
// and reports the full buffer as accepted.
func (b *ResilientBackend) Write(p []byte) (int, error) {
	if _, err := b.inner.Write(p); err != nil {
		slog.Warn("pigweed: console write failed (resiliency active)", "error", err)
	}
	return len(p), nil
}

// Flush implements Backend. If the inner backend fails, it logs the error
// and returns nil.
func (b *ResilientBackend) Flush() error {
	if err := b.inner.Flush(); err != nil {
		slog.Warn("pigweed: console flush failed (resiliency active)", "error", err)
	}
	return nil
}
