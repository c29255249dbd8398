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

// Package store persists normalized captures as canonical files inside the
// screenshot directory. The store is the only writer of final files; all
// writes go through a temp file and an atomic rename, so concurrent
// readers never observe a partially written artifact.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/klipdot/klipdot/pkg/imaging"
	"github.com/klipdot/klipdot/pkg/logger"
	"github.com/klipdot/klipdot/pkg/models"
)

const (
	nameAttempts    = 3
	suffixLen       = 8
	tempPattern     = ".klipdot-*.tmp"
	tempSuffix      = ".tmp"
	finalFilePerm   = 0o644
	timestampLayout = "2006-01-02T15:04:05.000Z"
)

// Config configures an ImageStore.
type Config struct {
	// Directory is the screenshot directory the store exclusively owns.
	Directory string `json:"directory"`

	// MaxFileSize bounds accepted payloads in bytes. Zero means 10 MiB.
	MaxFileSize int64 `json:"max_file_size"`

	// MaxDimension caps normalized output width/height. Zero applies the
	// imaging default.
	MaxDimension int `json:"max_dimension"`
}

const defaultMaxFileSize = 10 << 20

// ImageStore owns the screenshot directory and produces canonical files.
// Safe for concurrent use: every call generates its own target name and
// the temp-then-rename protocol needs no broader lock.
type ImageStore struct {
	dir       string
	maxSize   int64
	maxDim    int
	log       logger.Logger
	now       func() time.Time
	newSuffix func() string
}

// New creates the store and its directory.
func New(cfg *Config, log logger.Logger) (*ImageStore, error) {
	if cfg.Directory == "" {
		return nil, ErrNoDirectory
	}

	if err := os.MkdirAll(cfg.Directory, 0o755); err != nil {
		return nil, fmt.Errorf("create screenshot directory: %w", err)
	}

	maxSize := cfg.MaxFileSize
	if maxSize <= 0 {
		maxSize = defaultMaxFileSize
	}

	return &ImageStore{
		dir:       cfg.Directory,
		maxSize:   maxSize,
		maxDim:    cfg.MaxDimension,
		log:       log,
		now:       time.Now,
		newSuffix: randomSuffix,
	}, nil
}

// Directory returns the screenshot directory path.
func (s *ImageStore) Directory() string {
	return s.dir
}

// Store normalizes the payload and writes it as a canonical file,
// returning the absolute final path. SVG payloads are stored verbatim as
// .svg; every raster format is re-encoded to PNG.
func (s *ImageStore) Store(ctx context.Context, source models.Source, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if len(data) == 0 {
		return "", ErrEmptyPayload
	}

	if int64(len(data)) > s.maxSize {
		return "", fmt.Errorf("%w: %d bytes exceeds limit %d", ErrPayloadTooLarge, len(data), s.maxSize)
	}

	format, ok := imaging.Classify(data)
	if !ok {
		return "", ErrNotImage
	}

	ext := ".png"
	payload := data

	if format == models.FormatSVG {
		ext = ".svg"
	} else {
		normalized, err := imaging.Normalize(data, format, s.maxDim)
		if err != nil {
			return "", err
		}

		payload = normalized
	}

	path, err := s.writeAtomic(source, payload, ext)
	if err != nil {
		return "", err
	}

	s.log.Debug().
		Str("source", string(source)).
		Str("format", string(format)).
		Str("path", path).
		Int("bytes", len(payload)).
		Msg("Stored capture")

	return path, nil
}

// writeAtomic writes payload to a temp file in the screenshot directory
// and renames it onto a freshly generated name. A same-instant name
// collision regenerates the random suffix; retries exhausting means the
// capture is dropped.
func (s *ImageStore) writeAtomic(source models.Source, payload []byte, ext string) (string, error) {
	tmp, err := os.CreateTemp(s.dir, tempPattern)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	tmpName := tmp.Name()

	if _, err = tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return "", fmt.Errorf("write temp file: %w", err)
	}

	if err = tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close temp file: %w", err)
	}

	if err = os.Chmod(tmpName, finalFilePerm); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("chmod temp file: %w", err)
	}

	for attempt := 0; attempt < nameAttempts; attempt++ {
		final := filepath.Join(s.dir, s.fileName(source, ext))

		if _, err = os.Stat(final); err == nil {
			// Same-microsecond collision; roll a new suffix.
			continue
		}

		if err = os.Rename(tmpName, final); err != nil {
			os.Remove(tmpName)
			return "", fmt.Errorf("rename into place: %w", err)
		}

		abs, absErr := filepath.Abs(final)
		if absErr != nil {
			return final, nil
		}

		return abs, nil
	}

	os.Remove(tmpName)

	return "", ErrNameExhausted
}

// fileName builds `<source>-<timestamp>-<suffix><ext>` with colons and
// periods in the timestamp replaced so the name is safe on every
// filesystem.
func (s *ImageStore) fileName(source models.Source, ext string) string {
	ts := s.now().UTC().Format(timestampLayout)
	ts = strings.NewReplacer(":", "-", ".", "-").Replace(ts)

	return fmt.Sprintf("%s-%s-%s%s", source, ts, s.newSuffix(), ext)
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:suffixLen]
}
