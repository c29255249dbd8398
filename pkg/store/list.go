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

package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klipdot/klipdot/pkg/models"
)

// List returns the stored captures, newest first. Temp files and anything
// the store did not finalize are skipped.
func (s *ImageStore) List(ctx context.Context) ([]models.StoredImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read screenshot directory: %w", err)
	}

	images := make([]models.StoredImage, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !isFinalName(entry.Name()) {
			continue
		}

		info, infoErr := entry.Info()
		if infoErr != nil {
			continue
		}

		abs, absErr := filepath.Abs(filepath.Join(s.dir, entry.Name()))
		if absErr != nil {
			continue
		}

		images = append(images, models.StoredImage{
			Path:      abs,
			SizeBytes: info.Size(),
			ModTime:   info.ModTime(),
		})
	}

	sort.Slice(images, func(i, j int) bool {
		return images[i].ModTime.After(images[j].ModTime)
	})

	return images, nil
}

// CleanupOlderThan removes captures older than age and sweeps stale temp
// files. It returns the number of captures removed.
func (s *ImageStore) CleanupOlderThan(ctx context.Context, age time.Duration) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read screenshot directory: %w", err)
	}

	cutoff := s.now().Add(-age)
	removed := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		info, infoErr := entry.Info()
		if infoErr != nil {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())

		// Orphaned temp files from interrupted writes are always swept.
		if strings.HasSuffix(entry.Name(), tempSuffix) {
			if info.ModTime().Before(cutoff) || s.now().Sub(info.ModTime()) > time.Hour {
				_ = os.Remove(path)
			}

			continue
		}

		if !isFinalName(entry.Name()) {
			continue
		}

		if info.ModTime().Before(cutoff) {
			if rmErr := os.Remove(path); rmErr != nil {
				s.log.Warn().Err(rmErr).Str("path", path).Msg("Failed to remove expired capture")
				continue
			}

			removed++
		}
	}

	return removed, nil
}

func isFinalName(name string) bool {
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, tempSuffix) {
		return false
	}

	return strings.HasSuffix(name, ".png") || strings.HasSuffix(name, ".svg")
}
