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

package coordinator

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klipdot/klipdot/pkg/logger"
	"github.com/klipdot/klipdot/pkg/models"
	"github.com/klipdot/klipdot/pkg/watcher"
)

func testPNG(t *testing.T, seed uint8) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: seed, A: 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	return buf.Bytes()
}

func testLargePNG(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 1200, 1200))
	for y := 0; y < 1200; y += 7 {
		for x := 0; x < 1200; x += 7 {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: uint8(x + y), A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	return buf.Bytes()
}

func newTestCoordinator(t *testing.T) *Coordinator {
	t.Helper()

	cfg := &Config{
		ScreenshotDir: t.TempDir(),
		WatchDirs:     []string{t.TempDir()},
		DropDir:       filepath.Join(t.TempDir(), "drop"),
	}
	require.NoError(t, cfg.Validate())

	coord, err := New(cfg, logger.NewTestLogger())
	require.NoError(t, err)

	return coord
}

func TestCoordinatorProcessStoresCapture(t *testing.T) {
	coord := newTestCoordinator(t)

	path, err := coord.Process(context.Background(), &models.CapturedImage{
		Source:   models.SourceClipboard,
		RawBytes: testPNG(t, 1),
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestCoordinatorDeduplicatesAcrossSources(t *testing.T) {
	coord := newTestCoordinator(t)
	ctx := context.Background()
	payload := testPNG(t, 2)

	path, err := coord.Process(ctx, &models.CapturedImage{
		Source:   models.SourceClipboard,
		RawBytes: payload,
	})
	require.NoError(t, err)
	require.NotEmpty(t, path)

	// Same bytes arriving from the file watcher inside the window are
	// dropped, not stored twice.
	_, err = coord.Process(ctx, &models.CapturedImage{
		Source:   models.SourceFileWatch,
		RawBytes: payload,
	})
	assert.ErrorIs(t, err, watcher.ErrDuplicate)

	images, err := coord.Store().List(ctx)
	require.NoError(t, err)
	assert.Len(t, images, 1)
}

func TestCoordinatorConcurrentDuplicateStoredOnce(t *testing.T) {
	coord := newTestCoordinator(t)
	ctx := context.Background()

	// A large payload keeps the decode/re-encode/write phase long
	// enough that unreserved racers would all pass the window check.
	payload := testLargePNG(t)

	const sources = 8

	var (
		wg         sync.WaitGroup
		stored     atomic.Int32
		duplicates atomic.Int32
	)

	for i := 0; i < sources; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := coord.Process(ctx, &models.CapturedImage{
				Source:   models.SourceClipboard,
				RawBytes: payload,
			})

			switch {
			case err == nil:
				stored.Add(1)
			case errors.Is(err, watcher.ErrDuplicate):
				duplicates.Add(1)
			default:
				t.Errorf("unexpected process error: %v", err)
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, int32(1), stored.Load())
	assert.Equal(t, int32(sources-1), duplicates.Load())

	images, err := coord.Store().List(ctx)
	require.NoError(t, err)
	assert.Len(t, images, 1)
}

func TestCoordinatorDistinctPayloadsBothStored(t *testing.T) {
	coord := newTestCoordinator(t)
	ctx := context.Background()

	_, err := coord.Process(ctx, &models.CapturedImage{
		Source:   models.SourceClipboard,
		RawBytes: testPNG(t, 3),
	})
	require.NoError(t, err)

	_, err = coord.Process(ctx, &models.CapturedImage{
		Source:   models.SourceStdin,
		RawBytes: testPNG(t, 4),
	})
	require.NoError(t, err)

	images, err := coord.Store().List(ctx)
	require.NoError(t, err)
	assert.Len(t, images, 2)
}

func TestCoordinatorFailedStoreNotRemembered(t *testing.T) {
	coord := newTestCoordinator(t)
	ctx := context.Background()

	// Non-image bytes fail the store and must not poison the dedup
	// window for a later identical retry that would also fail, nor for
	// real payloads.
	junk := []byte("not an image, repeated")

	_, err := coord.Process(ctx, &models.CapturedImage{Source: models.SourceStdin, RawBytes: junk})
	require.Error(t, err)
	assert.NotErrorIs(t, err, watcher.ErrDuplicate)

	_, err = coord.Process(ctx, &models.CapturedImage{Source: models.SourceStdin, RawBytes: junk})
	require.Error(t, err)
	assert.NotErrorIs(t, err, watcher.ErrDuplicate)
}

func TestCoordinatorStartStop(t *testing.T) {
	cfg := &Config{
		ScreenshotDir: t.TempDir(),
		WatchDirs:     []string{t.TempDir()},
		DropDir:       filepath.Join(t.TempDir(), "drop"),
	}
	require.NoError(t, cfg.Validate())

	// Keep the test hermetic: only the file watcher, which needs no
	// clipboard or process table.
	off := false
	cfg.Watchers.Clipboard = &off
	cfg.Watchers.Stdin = &off
	cfg.Watchers.Process = &off

	coord, err := New(cfg, logger.NewTestLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)

	go func() {
		errCh <- coord.Start(ctx)
	}()

	// Give the watchers a moment to come up, then shut down.
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, coord.Stop(context.Background()))

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("coordinator did not stop")
	}
}
