/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/klipdot/klipdot/pkg/logger"
)

// FileEvent is a file appearing in a watched directory, either freshly
// created or renamed into place.
type FileEvent struct {
	Path string
}

// Notifier delivers file-appearance events for a set of directories. The
// returned channel is closed when the context is cancelled. Directories
// that do not exist are skipped with a warning, never an error; Watch
// fails only when no directory could be observed at all.
type Notifier interface {
	Watch(ctx context.Context, dirs []string) (<-chan FileEvent, error)
}

// fsNotifier is the inotify-backed implementation.
type fsNotifier struct {
	log zerolog.Logger
}

// NewFSNotifier returns the fsnotify-backed Notifier, or
// ErrCapabilityUnavailable when the platform has no notification
// mechanism.
func NewFSNotifier(log logger.Logger) (Notifier, error) {
	// Probe once so the coordinator can fall back to polling before any
	// watcher goroutine starts.
	probe, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCapabilityUnavailable, err)
	}

	_ = probe.Close()

	return &fsNotifier{log: log.WithComponent("fsnotify")}, nil
}

func (n *fsNotifier) Watch(ctx context.Context, dirs []string) (<-chan FileEvent, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCapabilityUnavailable, err)
	}

	watched := 0

	for _, dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			n.log.Warn().Err(err).Str("dir", dir).Msg("Cannot watch directory; skipping")
			continue
		}

		watched++
	}

	if watched == 0 {
		_ = fsw.Close()
		return nil, fmt.Errorf("%w: no watchable directories", ErrCapabilityUnavailable)
	}

	events := make(chan FileEvent)

	go func() {
		defer close(events)
		defer func() { _ = fsw.Close() }()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-fsw.Events:
				if !ok {
					return
				}

				if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}

				select {
				case events <- FileEvent{Path: ev.Name}:
				case <-ctx.Done():
					return
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}

				n.log.Warn().Err(err).Msg("Filesystem watch error")
			}
		}
	}()

	return events, nil
}

// pollNotifier diffs directory listings on an interval. Used when inotify
// is unavailable or exhausted.
type pollNotifier struct {
	clock    Clock
	interval time.Duration
	log      zerolog.Logger
}

const defaultNotifyPoll = 2 * time.Second

// NewPollNotifier returns the listing-diff fallback Notifier.
func NewPollNotifier(interval time.Duration, clock Clock, log logger.Logger) Notifier {
	if interval <= 0 {
		interval = defaultNotifyPoll
	}

	return &pollNotifier{clock: clock, interval: interval, log: log.WithComponent("poll-notifier")}
}

func (n *pollNotifier) Watch(ctx context.Context, dirs []string) (<-chan FileEvent, error) {
	known := make(map[string]struct{})
	watched := 0

	for _, dir := range dirs {
		names, err := listDir(dir)
		if err != nil {
			n.log.Warn().Err(err).Str("dir", dir).Msg("Cannot list directory; skipping")
			continue
		}

		for _, name := range names {
			known[name] = struct{}{}
		}

		watched++
	}

	if watched == 0 {
		return nil, fmt.Errorf("%w: no watchable directories", ErrCapabilityUnavailable)
	}

	events := make(chan FileEvent)

	go func() {
		defer close(events)

		ticker := n.clock.Ticker(n.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				for _, dir := range dirs {
					names, err := listDir(dir)
					if err != nil {
						continue
					}

					for _, name := range names {
						if _, seen := known[name]; seen {
							continue
						}

						known[name] = struct{}{}

						select {
						case events <- FileEvent{Path: name}:
						case <-ctx.Done():
							return
						}
					}
				}
			}
		}
	}()

	return events, nil
}

func listDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		names = append(names, filepath.Join(dir, entry.Name()))
	}

	return names, nil
}
