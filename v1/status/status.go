// Package status defines the closed set of failure causes reported by
// console backends. Callers match with errors.Is; backends never retry.
package status

import "errors"

var (
	// ErrUnavailable means the output channel could not be opened or is gone.
	ErrUnavailable = errors.New("channel unavailable")
	// ErrDataLoss means the backend accepted the write but could not
	// transfer all of it.
	ErrDataLoss = errors.New("data not fully transferred")
	// ErrUnknown covers I/O failures the backend cannot classify.
	ErrUnknown = errors.New("unknown I/O failure")
)
