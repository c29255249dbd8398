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
	"fmt"
	"io"
	"sync"

	"github.com/muesli/cancelreader"
	"github.com/rs/zerolog"

	"github.com/klipdot/klipdot/pkg/imaging"
	"github.com/klipdot/klipdot/pkg/logger"
	"github.com/klipdot/klipdot/pkg/models"
)

const defaultStdinBuffer = 10 << 20 // 10 MiB

// StdinConfig holds the tunables of the stdin watcher.
type StdinConfig struct {
	// MaxBuffer caps how many bytes are held while deciding whether the
	// stream is an image. Streams larger than this pass through untouched.
	MaxBuffer int64
}

// StdinWatcher reads the input stream to completion, stores it via the
// Sink when it is an image, and otherwise forwards the bytes unchanged.
// An intercepted image is replaced on the output stream by the stored
// path followed by a newline.
type StdinWatcher struct {
	in        io.Reader
	out       io.Writer
	sink      Sink
	clock     Clock
	maxBuffer int64
	log       zerolog.Logger

	mu     sync.Mutex
	cancel cancelreader.CancelReader
	wg     sync.WaitGroup
}

// NewStdin creates a stdin watcher over the given streams. Pass os.Stdin
// and os.Stdout in production.
func NewStdin(in io.Reader, out io.Writer, sink Sink, cfg StdinConfig, clock Clock, log logger.Logger) *StdinWatcher {
	maxBuffer := cfg.MaxBuffer
	if maxBuffer <= 0 {
		maxBuffer = defaultStdinBuffer
	}

	return &StdinWatcher{
		in:        in,
		out:       out,
		sink:      sink,
		clock:     clock,
		maxBuffer: maxBuffer,
		log:       log.WithComponent("stdin-watcher"),
	}
}

func (w *StdinWatcher) Name() string {
	return "stdin"
}

// Start blocks until the input stream reaches EOF or Stop cancels the
// read. The output stream always receives either the original bytes or
// the stored path, never both and never a corrupted mix.
func (w *StdinWatcher) Start(ctx context.Context) error {
	cr, err := cancelreader.NewReader(w.in)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCapabilityUnavailable, err)
	}

	w.mu.Lock()
	w.cancel = cr
	w.mu.Unlock()

	w.wg.Add(1)
	defer w.wg.Done()

	w.log.Info().Msg("Stdin watcher started")

	buf, eof, err := readUpTo(cr, w.maxBuffer)
	if err != nil {
		if errors.Is(err, cancelreader.ErrCanceled) {
			return nil
		}

		return fmt.Errorf("stdin read failed: %w", err)
	}

	if len(buf) == 0 {
		return nil
	}

	if _, ok := imaging.Classify(buf); ok && eof {
		capture := &models.CapturedImage{
			Source:     models.SourceStdin,
			RawBytes:   buf,
			DetectedAt: w.clock.Now(),
		}

		path, perr := w.sink.Process(ctx, capture)
		if perr == nil {
			w.log.Info().Str("path", path).Msg("Stdin image intercepted")

			_, werr := io.WriteString(w.out, path+"\n")

			return werr
		}

		if !errors.Is(perr, ErrDuplicate) {
			w.log.Error().Err(perr).Msg("Failed to process stdin image; passing bytes through")
		}
	}

	// Not an image, too large to buffer, or the store refused it: the
	// stream must come out byte-identical.
	if _, err := w.out.Write(buf); err != nil {
		return fmt.Errorf("stdin pass-through failed: %w", err)
	}

	if !eof {
		if _, err := io.Copy(w.out, cr); err != nil && !errors.Is(err, cancelreader.ErrCanceled) {
			return fmt.Errorf("stdin pass-through failed: %w", err)
		}
	}

	return nil
}

func (w *StdinWatcher) Stop(_ context.Context) error {
	w.mu.Lock()
	cr := w.cancel
	w.mu.Unlock()

	if cr != nil {
		cr.Cancel()
	}

	w.wg.Wait()

	return nil
}

// readUpTo reads at most limit bytes, reporting whether EOF was reached
// within the limit.
func readUpTo(r io.Reader, limit int64) ([]byte, bool, error) {
	buf, err := io.ReadAll(io.LimitReader(r, limit))
	if err != nil {
		return nil, false, err
	}

	if int64(len(buf)) < limit {
		return buf, true, nil
	}

	// The limit was hit; probe one byte to distinguish an exact-size
	// stream from a larger one.
	probe := make([]byte, 1)

	n, err := r.Read(probe)
	if n > 0 {
		return append(buf, probe[:n]...), false, nil
	}

	if err != nil && !errors.Is(err, io.EOF) {
		return nil, false, err
	}

	return buf, true, nil
}
