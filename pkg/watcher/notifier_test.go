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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klipdot/klipdot/pkg/logger"
)

func TestPollNotifierDetectsNewFiles(t *testing.T) {
	dir := t.TempDir()

	// Pre-existing files never produce events.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.png"), fakePNG(16), 0o644))

	clock := newFakeClock()
	notifier := NewPollNotifier(time.Second, clock, logger.NewTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := notifier.Watch(ctx, []string{dir})
	require.NoError(t, err)

	fresh := filepath.Join(dir, "fresh.png")
	require.NoError(t, os.WriteFile(fresh, fakePNG(16), 0o644))

	clock.tick <- clock.Now()

	select {
	case ev := <-events:
		assert.Equal(t, fresh, ev.Path)
	case <-time.After(time.Second):
		t.Fatal("no event for new file")
	}

	// The same file must not be reported twice.
	clock.tick <- clock.Now()

	select {
	case ev := <-events:
		t.Fatalf("unexpected repeat event: %s", ev.Path)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPollNotifierNoWatchableDirectories(t *testing.T) {
	notifier := NewPollNotifier(time.Second, newFakeClock(), logger.NewTestLogger())

	_, err := notifier.Watch(context.Background(), []string{filepath.Join(t.TempDir(), "missing")})
	assert.ErrorIs(t, err, ErrCapabilityUnavailable)
}

func TestPollNotifierSkipsMissingDirectory(t *testing.T) {
	dir := t.TempDir()
	clock := newFakeClock()
	notifier := NewPollNotifier(time.Second, clock, logger.NewTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// One bad directory must not poison the good one.
	_, err := notifier.Watch(ctx, []string{filepath.Join(dir, "missing"), dir})
	require.NoError(t, err)
}

func TestFSNotifierDetectsNewFiles(t *testing.T) {
	dir := t.TempDir()

	notifier, err := NewFSNotifier(logger.NewTestLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := notifier.Watch(ctx, []string{dir})
	require.NoError(t, err)

	fresh := filepath.Join(dir, "fresh.png")
	require.NoError(t, os.WriteFile(fresh, fakePNG(16), 0o644))

	select {
	case ev := <-events:
		assert.Equal(t, fresh, ev.Path)
	case <-time.After(2 * time.Second):
		t.Fatal("no fsnotify event for new file")
	}
}

func TestFSNotifierNoWatchableDirectories(t *testing.T) {
	notifier, err := NewFSNotifier(logger.NewTestLogger())
	require.NoError(t, err)

	_, err = notifier.Watch(context.Background(), []string{filepath.Join(t.TempDir(), "missing")})
	assert.ErrorIs(t, err, ErrCapabilityUnavailable)
}

func TestFSNotifierClosesEventsOnCancel(t *testing.T) {
	notifier, err := NewFSNotifier(logger.NewTestLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())

	events, err := notifier.Watch(ctx, []string{t.TempDir()})
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-events:
		assert.False(t, ok, "events channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("events channel not closed after cancel")
	}
}
