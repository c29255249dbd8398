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

// Package coordinator wires the watchers to the image store: it owns the
// shared funnel all captures pass through, deduplicates across sources,
// and supervises the watcher goroutines.
package coordinator

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/klipdot/klipdot/pkg/clipboard"
	"github.com/klipdot/klipdot/pkg/hashutil"
	"github.com/klipdot/klipdot/pkg/logger"
	"github.com/klipdot/klipdot/pkg/models"
	"github.com/klipdot/klipdot/pkg/store"
	"github.com/klipdot/klipdot/pkg/watcher"
)

const retentionSweepInterval = 6 * time.Hour

// Coordinator supervises the watchers and funnels every capture through
// one deduplicating path into the store. Implements lifecycle.Service.
type Coordinator struct {
	cfg     *Config
	store   *store.ImageStore
	clock   watcher.Clock
	dedup   *dedupIndex
	baseLog logger.Logger
	log     zerolog.Logger

	mu       sync.Mutex
	watchers []watcher.Watcher
	cancel   context.CancelFunc
}

// New creates a coordinator from a validated config.
func New(cfg *Config, log logger.Logger) (*Coordinator, error) {
	st, err := store.New(&store.Config{
		Directory:    cfg.ScreenshotDir,
		MaxFileSize:  cfg.MaxFileSize,
		MaxDimension: cfg.MaxDimension,
	}, log)
	if err != nil {
		return nil, err
	}

	if cfg.DropDir != "" {
		if err := os.MkdirAll(cfg.DropDir, 0o755); err != nil {
			return nil, err
		}
	}

	return &Coordinator{
		cfg:     cfg,
		store:   st,
		clock:   watcher.NewClock(),
		dedup:   newDedupIndex(cfg.DedupWindow.Duration()),
		baseLog: log,
		log:     log.WithComponent("coordinator"),
	}, nil
}

// Store exposes the underlying image store for the CLI surface.
func (c *Coordinator) Store() *store.ImageStore {
	return c.store
}

func (c *Coordinator) Name() string {
	return "klipdot"
}

// Process implements watcher.Sink. All captures from all sources pass
// through here; an identical payload seen inside the dedup window is
// rejected with watcher.ErrDuplicate and not stored twice. The
// fingerprint is reserved before the store starts, so two sources
// handing over the same capture concurrently still produce one file;
// a failed store releases the reservation.
func (c *Coordinator) Process(ctx context.Context, capture *models.CapturedImage) (string, error) {
	fp := hashutil.SumHex(capture.RawBytes)

	if !c.dedup.reserve(fp, c.clock.Now()) {
		return "", watcher.ErrDuplicate
	}

	path, err := c.store.Store(ctx, capture.Source, capture.RawBytes)
	if err != nil {
		c.dedup.release(fp)
		return "", err
	}

	c.dedup.commit(fp, c.clock.Now())

	return path, nil
}

// Start builds the platform capabilities, launches every enabled watcher
// and blocks until the context is cancelled or a watcher fails
// unexpectedly. A missing capability disables its watcher with a warning
// instead of failing startup.
func (c *Coordinator) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	c.cancel = cancel
	c.watchers = c.buildWatchers(ctx)
	watchers := c.watchers
	c.mu.Unlock()

	defer cancel()

	if len(watchers) == 0 {
		return watcher.ErrCapabilityUnavailable
	}

	g, gctx := errgroup.WithContext(ctx)

	for _, w := range watchers {
		w := w
		g.Go(func() error {
			err := w.Start(gctx)

			switch {
			case err == nil, errors.Is(err, context.Canceled):
				return nil
			case errors.Is(err, watcher.ErrCapabilityUnavailable):
				c.log.Warn().Err(err).Str("watcher", w.Name()).Msg("Watcher disabled: capability unavailable")
				return nil
			default:
				return err
			}
		})
	}

	g.Go(func() error {
		c.retentionLoop(gctx)
		return nil
	})

	c.log.Info().
		Int("watchers", len(watchers)).
		Str("screenshot_dir", c.cfg.ScreenshotDir).
		Msg("Interception engine started")

	return g.Wait()
}

// Stop cancels the run context and waits for every watcher to release
// its resources.
func (c *Coordinator) Stop(ctx context.Context) error {
	c.mu.Lock()
	cancel := c.cancel
	watchers := c.watchers
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	var errs []error

	for _, w := range watchers {
		if err := w.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// buildWatchers constructs every enabled watcher whose platform
// capability is present.
func (c *Coordinator) buildWatchers(ctx context.Context) []watcher.Watcher {
	var watchers []watcher.Watcher

	if enabled(c.cfg.Watchers.Clipboard, true) {
		if clip, err := clipboard.New(c.baseLog); err != nil {
			c.log.Warn().Err(err).Msg("Clipboard watcher disabled: no clipboard capability")
		} else {
			watchers = append(watchers, watcher.NewClipboard(clip, c, watcher.ClipboardConfig{
				PollInterval: c.cfg.PollInterval.Duration(),
			}, c.clock, c.baseLog))
		}
	}

	if enabled(c.cfg.Watchers.Files, true) {
		notifier, err := watcher.NewFSNotifier(c.baseLog)
		if err != nil {
			c.log.Warn().Err(err).Msg("Falling back to polling file notifications")
			notifier = watcher.NewPollNotifier(0, c.clock, c.baseLog)
		}

		watchers = append(watchers, watcher.NewFileOp(notifier, c, watcher.FileOpConfig{
			Dirs:          c.cfg.WatchDirs,
			ScreenshotDir: c.cfg.ScreenshotDir,
			DropDir:       c.cfg.DropDir,
			SettleDelay:   c.cfg.SettleDelay.Duration(),
			MaxFileSize:   c.cfg.MaxFileSize,
		}, c.clock, c.baseLog))
	}

	if enabled(c.cfg.Watchers.Stdin, stdinIsPipe()) {
		watchers = append(watchers, watcher.NewStdin(os.Stdin, os.Stdout, c, watcher.StdinConfig{
			MaxBuffer: c.cfg.MaxFileSize,
		}, c.clock, c.baseLog))
	}

	if enabled(c.cfg.Watchers.Process, true) {
		if lister, err := watcher.NewProcessLister(ctx); err != nil {
			c.log.Warn().Err(err).Msg("Process watcher disabled: cannot list processes")
		} else {
			watchers = append(watchers, watcher.NewProcess(lister, c.onHint, watcher.ProcessConfig{
				PollInterval: c.cfg.ProcessPollInterval.Duration(),
				Tools:        c.cfg.ScreenshotTools,
			}, c.clock, c.baseLog))
		}
	}

	return watchers
}

// onHint receives advisory screenshot-tool launch hints. They carry no
// image data; the clipboard and file watchers pick up the actual capture.
func (c *Coordinator) onHint(hint models.ProcessHint) {
	c.log.Info().
		Str("tool", hint.Tool).
		Int32("pid", hint.PID).
		Msg("Screenshot tool detected; capture likely imminent")
}

// retentionLoop periodically removes stored files older than the
// configured retention.
func (c *Coordinator) retentionLoop(ctx context.Context) {
	if c.cfg.RetentionDays <= 0 {
		return
	}

	maxAge := time.Duration(c.cfg.RetentionDays) * 24 * time.Hour

	ticker := c.clock.Ticker(retentionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			removed, err := c.store.CleanupOlderThan(ctx, maxAge)
			if err != nil {
				c.log.Warn().Err(err).Msg("Retention sweep failed")
				continue
			}

			if removed > 0 {
				c.log.Info().Int("removed", removed).Msg("Retention sweep completed")
			}
		}
	}
}

// stdinIsPipe reports whether stdin is connected to a pipe or file
// rather than a terminal.
func stdinIsPipe() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}

	return info.Mode()&os.ModeCharDevice == 0
}
