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
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/klipdot/klipdot/pkg/logger"
	"github.com/klipdot/klipdot/pkg/models"
)

const (
	defaultProcessPoll = 5 * time.Second

	// seenTTL is how long a PID stays remembered after it was last
	// observed; beyond that a recycled PID counts as a fresh launch.
	seenTTL = 5 * time.Minute
)

// defaultScreenshotTools are the process names that signal a screenshot
// or image manipulation is likely in flight.
var defaultScreenshotTools = []string{
	"gnome-screenshot",
	"spectacle",
	"flameshot",
	"scrot",
	"maim",
	"grim",
	"grimshot",
	"wayshot",
	"import",
	"screencapture",
	"xfce4-screenshooter",
	"ksnip",
	"shutter",
}

// ProcessInfo is one row of a process-table snapshot.
type ProcessInfo struct {
	PID  int32
	Name string
}

// Lister produces process-table snapshots. The gopsutil implementation
// is the production one; tests substitute a fixed table.
type Lister interface {
	Snapshot(ctx context.Context) ([]ProcessInfo, error)
}

// gopsutilLister lists processes through gopsutil.
type gopsutilLister struct{}

// NewProcessLister returns the gopsutil-backed Lister, probing once so an
// unsupported platform surfaces as ErrCapabilityUnavailable.
func NewProcessLister(ctx context.Context) (Lister, error) {
	if _, err := process.ProcessesWithContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCapabilityUnavailable, err)
	}

	return gopsutilLister{}, nil
}

func (gopsutilLister) Snapshot(ctx context.Context) ([]ProcessInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("process listing failed: %w", err)
	}

	infos := make([]ProcessInfo, 0, len(procs))

	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			// Processes exit between listing and inspection.
			continue
		}

		infos = append(infos, ProcessInfo{PID: p.Pid, Name: name})
	}

	return infos, nil
}

// ProcessConfig holds the tunables of the process watcher.
type ProcessConfig struct {
	PollInterval time.Duration

	// Tools overrides the default screenshot tool name list.
	Tools []string
}

// ProcessWatcher polls the process table for screenshot tool launches and
// emits advisory hints. Hints carry no image data; they tell the rest of
// the engine that a capture is likely imminent.
type ProcessWatcher struct {
	lister   Lister
	emit     func(models.ProcessHint)
	clock    Clock
	interval time.Duration
	tools    map[string]struct{}
	log      zerolog.Logger

	seen map[int32]seenEntry

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

type seenEntry struct {
	name string
	at   time.Time
}

// NewProcess creates a process watcher. emit is called once per observed
// tool launch; it must not block.
func NewProcess(lister Lister, emit func(models.ProcessHint), cfg ProcessConfig, clock Clock, log logger.Logger) *ProcessWatcher {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = defaultProcessPoll
	}

	names := cfg.Tools
	if len(names) == 0 {
		names = defaultScreenshotTools
	}

	tools := make(map[string]struct{}, len(names))
	for _, name := range names {
		tools[strings.ToLower(name)] = struct{}{}
	}

	return &ProcessWatcher{
		lister:   lister,
		emit:     emit,
		clock:    clock,
		interval: interval,
		tools:    tools,
		log:      log.WithComponent("process-watcher"),
		seen:     make(map[int32]seenEntry),
		done:     make(chan struct{}),
	}
}

func (w *ProcessWatcher) Name() string {
	return "process"
}

// Start runs the poll loop until the context is cancelled or Stop is
// called. A failed snapshot is logged and the loop continues.
func (w *ProcessWatcher) Start(ctx context.Context) error {
	w.wg.Add(1)
	defer w.wg.Done()

	w.log.Info().Dur("interval", w.interval).Msg("Process watcher started")

	ticker := w.clock.Ticker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		case <-ticker.Chan():
			w.tick(ctx)
		}
	}
}

func (w *ProcessWatcher) Stop(_ context.Context) error {
	w.closeOnce.Do(func() {
		close(w.done)
	})

	w.wg.Wait()

	return nil
}

func (w *ProcessWatcher) tick(ctx context.Context) {
	infos, err := w.lister.Snapshot(ctx)
	if err != nil {
		w.log.Warn().Err(err).Msg("Process snapshot failed")
		return
	}

	now := w.clock.Now()

	for _, info := range infos {
		if _, match := w.tools[strings.ToLower(info.Name)]; !match {
			continue
		}

		if prev, ok := w.seen[info.PID]; ok && prev.name == info.Name {
			w.seen[info.PID] = seenEntry{name: info.Name, at: now}
			continue
		}

		w.seen[info.PID] = seenEntry{name: info.Name, at: now}

		w.log.Debug().Str("tool", info.Name).Int32("pid", info.PID).Msg("Screenshot tool launch observed")
		w.emit(models.ProcessHint{Tool: info.Name, PID: info.PID, ObservedAt: now})
	}

	w.prune(now)
}

func (w *ProcessWatcher) prune(now time.Time) {
	for pid, entry := range w.seen {
		if now.Sub(entry.at) > seenTTL {
			delete(w.seen, pid)
		}
	}
}
