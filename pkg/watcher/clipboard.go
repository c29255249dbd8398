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
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/klipdot/klipdot/pkg/clipboard"
	"github.com/klipdot/klipdot/pkg/hashutil"
	"github.com/klipdot/klipdot/pkg/logger"
	"github.com/klipdot/klipdot/pkg/models"
)

const defaultClipboardPoll = 1 * time.Second

// ClipboardConfig holds the tunables of the clipboard watcher.
type ClipboardConfig struct {
	PollInterval time.Duration
}

// ClipboardWatcher polls the system clipboard and intercepts image
// content. Detected images are persisted through the Sink and the
// clipboard content is replaced with the stored file path.
type ClipboardWatcher struct {
	clip     clipboard.Clipboard
	sink     Sink
	clock    Clock
	interval time.Duration
	log      zerolog.Logger

	mu          sync.Mutex
	fingerprint string

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewClipboard creates a clipboard watcher. The clipboard capability and
// sink are required; a zero poll interval falls back to the default.
func NewClipboard(clip clipboard.Clipboard, sink Sink, cfg ClipboardConfig, clock Clock, log logger.Logger) *ClipboardWatcher {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = defaultClipboardPoll
	}

	return &ClipboardWatcher{
		clip:     clip,
		sink:     sink,
		clock:    clock,
		interval: interval,
		log:      log.WithComponent("clipboard-watcher"),
		done:     make(chan struct{}),
	}
}

func (w *ClipboardWatcher) Name() string {
	return "clipboard"
}

// Start runs the poll loop until the context is cancelled or Stop is
// called. Per-tick failures are logged and never terminate the loop.
func (w *ClipboardWatcher) Start(ctx context.Context) error {
	w.wg.Add(1)
	defer w.wg.Done()

	w.log.Info().Dur("interval", w.interval).Msg("Clipboard watcher started")

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

func (w *ClipboardWatcher) Stop(_ context.Context) error {
	w.closeOnce.Do(func() {
		close(w.done)
	})

	w.wg.Wait()

	return nil
}

// tick reads the clipboard once and processes a content change. A read
// failure is treated as an empty clipboard for this tick.
func (w *ClipboardWatcher) tick(ctx context.Context) {
	content, err := w.clip.Read(ctx)
	if err != nil {
		w.log.Debug().Err(err).Msg("Clipboard read failed; treating as empty")

		content = clipboard.Content{Kind: clipboard.KindEmpty}
	}

	switch content.Kind {
	case clipboard.KindEmpty:
		w.remember("")
	case clipboard.KindImage:
		w.handleImage(ctx, content.Image)
	case clipboard.KindText:
		w.handleText(ctx, content.Text)
	}
}

func (w *ClipboardWatcher) handleImage(ctx context.Context, data []byte) {
	fp := hashutil.SumHex(data)
	if !w.changed(fp) {
		return
	}

	w.intercept(ctx, data, fp)
}

// handleText decodes base64 and data-URL image payloads posted as text.
// Text that is already a bare filesystem path is left untouched so a
// previously written path never re-triggers an interception.
func (w *ClipboardWatcher) handleText(ctx context.Context, text string) {
	fp := hashutil.SumHexString(text)
	if !w.changed(fp) {
		return
	}

	if isBarePath(text) {
		w.remember(fp)
		return
	}

	if data, ok := clipboard.DecodePayload(text); ok {
		w.intercept(ctx, data, fp)
		return
	}

	w.remember(fp)
}

// intercept funnels decoded image bytes into the sink and writes the
// stored path back onto the clipboard. The fingerprint is remembered on
// every outcome so a failing payload is not retried each tick.
func (w *ClipboardWatcher) intercept(ctx context.Context, data []byte, fp string) {
	capture := &models.CapturedImage{
		Source:     models.SourceClipboard,
		RawBytes:   data,
		DetectedAt: w.clock.Now(),
	}

	path, err := w.sink.Process(ctx, capture)
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			w.log.Debug().Msg("Clipboard image already captured; skipping")
		} else {
			w.log.Error().Err(err).Msg("Failed to process clipboard image")
		}

		w.remember(fp)

		return
	}

	if err := w.clip.WriteText(ctx, path); err != nil {
		w.log.Warn().Err(err).Str("path", path).Msg("Failed to write stored path back to clipboard")
		w.remember(fp)

		return
	}

	w.log.Info().Str("path", path).Msg("Clipboard image intercepted")

	// Remember the path we just wrote so the next poll sees it as
	// unchanged and the loop does not feed on its own output.
	w.remember(hashutil.SumHexString(path))
}

func (w *ClipboardWatcher) changed(fp string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	return fp != w.fingerprint
}

func (w *ClipboardWatcher) remember(fp string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.fingerprint = fp
}

// isBarePath reports whether text is a single absolute or home-relative
// path naming an existing file.
func isBarePath(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || strings.ContainsAny(trimmed, "\n\r") {
		return false
	}

	if !strings.HasPrefix(trimmed, "/") && !strings.HasPrefix(trimmed, "~/") {
		return false
	}

	if strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return false
		}

		trimmed = home + trimmed[1:]
	}

	info, err := os.Stat(trimmed)

	return err == nil && info.Mode().IsRegular()
}
