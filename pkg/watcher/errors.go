package watcher

import "errors"

var (
	// ErrDuplicate is returned by a Sink when an identical capture was
	// already persisted inside the dedup window. Not a failure.
	ErrDuplicate = errors.New("duplicate capture inside dedup window")

	// ErrCapabilityUnavailable means the platform mechanism a watcher
	// depends on is missing; the coordinator disables the watcher instead
	// of failing startup.
	ErrCapabilityUnavailable = errors.New("platform capability unavailable")
)
