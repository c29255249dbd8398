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
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/klipdot/klipdot/pkg/imaging"
	"github.com/klipdot/klipdot/pkg/logger"
	"github.com/klipdot/klipdot/pkg/models"
)

const (
	defaultSettleDelay = 100 * time.Millisecond

	// maxSettleRounds bounds how long we wait for a file still being
	// written before giving up on this event.
	maxSettleRounds = 10
)

// FileOpConfig holds the tunables of the file-operation watcher.
type FileOpConfig struct {
	// Dirs are the directories observed for new image files.
	Dirs []string

	// ScreenshotDir is the engine's own output directory; files appearing
	// there are never re-intercepted.
	ScreenshotDir string

	// DropDir marks captures from the dedicated drop directory as
	// drag-and-drop rather than generic file-watch events.
	DropDir string

	// SettleDelay is how long a new file must stop growing before it is
	// read.
	SettleDelay time.Duration

	// MaxFileSize caps how many bytes are read from a new file.
	MaxFileSize int64
}

// FileOperationWatcher observes directories for newly appearing image
// files and funnels them into the Sink.
type FileOperationWatcher struct {
	notifier Notifier
	sink     Sink
	clock    Clock
	cfg      FileOpConfig
	log      zerolog.Logger

	mu        sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewFileOp creates a file-operation watcher over the given notifier
// capability.
func NewFileOp(notifier Notifier, sink Sink, cfg FileOpConfig, clock Clock, log logger.Logger) *FileOperationWatcher {
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = defaultSettleDelay
	}

	return &FileOperationWatcher{
		notifier: notifier,
		sink:     sink,
		clock:    clock,
		cfg:      cfg,
		log:      log.WithComponent("fileop-watcher"),
		done:     make(chan struct{}),
	}
}

func (w *FileOperationWatcher) Name() string {
	return "fileop"
}

// Start consumes notifier events until the context is cancelled or Stop
// is called. Per-file failures are logged and the loop continues.
func (w *FileOperationWatcher) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()

	defer cancel()

	w.wg.Add(1)
	defer w.wg.Done()

	events, err := w.notifier.Watch(ctx, w.cfg.Dirs)
	if err != nil {
		return err
	}

	w.log.Info().Strs("dirs", w.cfg.Dirs).Msg("File operation watcher started")

	for {
		select {
		case <-ctx.Done():
			// Stop cancels the derived context after closing done; that
			// is a clean exit, not a failure.
			select {
			case <-w.done:
				return nil
			default:
				return ctx.Err()
			}
		case <-w.done:
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}

			w.handle(ctx, ev.Path)
		}
	}
}

func (w *FileOperationWatcher) Stop(_ context.Context) error {
	w.closeOnce.Do(func() {
		close(w.done)
	})

	w.mu.Lock()
	cancel := w.cancel
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	w.wg.Wait()

	return nil
}

func (w *FileOperationWatcher) handle(ctx context.Context, path string) {
	if w.ownOutput(path) {
		return
	}

	if !imaging.HasImageExtension(path) {
		return
	}

	if !w.settle(ctx, path) {
		return
	}

	if _, ok := imaging.ClassifyPath(path); !ok {
		w.log.Debug().Str("path", path).Msg("New file has an image extension but no image content; skipping")
		return
	}

	data, err := w.readBounded(path)
	if err != nil {
		w.log.Warn().Err(err).Str("path", path).Msg("Failed to read new image file")
		return
	}

	source := models.SourceFileWatch
	if underDir(w.cfg.DropDir, path) {
		source = models.SourceDragDrop
	}

	capture := &models.CapturedImage{
		Source:     source,
		RawBytes:   data,
		OriginPath: path,
		DetectedAt: w.clock.Now(),
	}

	stored, err := w.sink.Process(ctx, capture)
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			w.log.Debug().Str("path", path).Msg("Image file already captured; skipping")
		} else {
			w.log.Error().Err(err).Str("path", path).Msg("Failed to process image file")
		}

		return
	}

	w.log.Info().Str("origin", path).Str("stored", stored).Msg("Image file intercepted")
}

// settle waits for the file to stop growing. Returns false when the file
// vanished or never stabilized.
func (w *FileOperationWatcher) settle(ctx context.Context, path string) bool {
	var lastSize int64 = -1

	for i := 0; i < maxSettleRounds; i++ {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(w.cfg.SettleDelay):
		}

		info, err := os.Stat(path)
		if err != nil {
			return false
		}

		if info.Size() == lastSize {
			return true
		}

		lastSize = info.Size()
	}

	return false
}

func (w *FileOperationWatcher) readBounded(path string) ([]byte, error) {
	if w.cfg.MaxFileSize > 0 {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}

		if info.Size() > w.cfg.MaxFileSize {
			return nil, errors.New("file exceeds maximum capture size")
		}
	}

	return os.ReadFile(path)
}

// ownOutput reports whether path lives inside the engine's screenshot
// directory.
func (w *FileOperationWatcher) ownOutput(path string) bool {
	return underDir(w.cfg.ScreenshotDir, path)
}

func underDir(dir, path string) bool {
	if dir == "" {
		return false
	}

	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}

	return rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel))
}
