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
	"sync"
	"time"

	"github.com/klipdot/klipdot/pkg/clipboard"
	"github.com/klipdot/klipdot/pkg/models"
)

// fakePNG returns bytes that sniff as PNG; the fakes never decode.
func fakePNG(size int) []byte {
	data := make([]byte, size)
	copy(data, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A})

	return data
}

// fakeClock is a manually advanced Clock whose tickers all share one
// injectable tick channel.
type fakeClock struct {
	mu   sync.Mutex
	now  time.Time
	tick chan time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{
		now:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		tick: make(chan time.Time, 16),
	}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

func (c *fakeClock) Ticker(_ time.Duration) Ticker {
	return &fakeTicker{ch: c.tick}
}

type fakeTicker struct {
	ch chan time.Time
}

func (t *fakeTicker) Chan() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop()                  {}

// fakeSink records every Process call. When err is set the capture is
// still recorded but the call fails.
type fakeSink struct {
	mu       sync.Mutex
	captures []*models.CapturedImage
	path     string
	err      error
}

func (s *fakeSink) Process(_ context.Context, capture *models.CapturedImage) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.captures = append(s.captures, capture)

	if s.err != nil {
		return "", s.err
	}

	return s.path, nil
}

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.captures)
}

func (s *fakeSink) last() *models.CapturedImage {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.captures) == 0 {
		return nil
	}

	return s.captures[len(s.captures)-1]
}

// fakeClipboard is an in-memory Clipboard whose WriteText replaces the
// content, mirroring the real feedback loop.
type fakeClipboard struct {
	mu      sync.Mutex
	content clipboard.Content
	readErr error
	written []string
}

func (c *fakeClipboard) Read(_ context.Context) (clipboard.Content, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.readErr != nil {
		return clipboard.Content{Kind: clipboard.KindEmpty}, c.readErr
	}

	return c.content, nil
}

func (c *fakeClipboard) WriteText(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.written = append(c.written, text)
	c.content = clipboard.Content{Kind: clipboard.KindText, Text: text}

	return nil
}

func (c *fakeClipboard) set(content clipboard.Content) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.content = content
}

func (c *fakeClipboard) setErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.readErr = err
}

func (c *fakeClipboard) writes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]string(nil), c.written...)
}
