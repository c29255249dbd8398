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

// Package models defines the shared data model for the interception engine.
package models

import "time"

// Source identifies which watcher observed a capture. The value doubles as
// the source tag in stored filenames.
type Source string

const (
	SourceClipboard Source = "clipboard"
	SourceFileWatch Source = "filewatch"
	SourceStdin     Source = "stdin"
	SourceDragDrop  Source = "dragdrop"
	SourceProcess   Source = "process"
)

// Format is the detected image format of a capture.
type Format string

const (
	FormatPNG     Format = "png"
	FormatJPEG    Format = "jpeg"
	FormatGIF     Format = "gif"
	FormatBMP     Format = "bmp"
	FormatWEBP    Format = "webp"
	FormatSVG     Format = "svg"
	FormatTIFF    Format = "tiff"
	FormatICO     Format = "ico"
	FormatUnknown Format = "unknown"
)

// CapturedImage represents one detected image event. Exactly one of
// RawBytes and OriginPath is set, depending on the source. A capture is
// constructed by a watcher the moment the data is observed and consumed
// exactly once by the coordinator funnel.
type CapturedImage struct {
	Source     Source
	RawBytes   []byte
	OriginPath string
	Format     Format
	DetectedAt time.Time
}

// StoredImage is the durable artifact inside the screenshot directory.
// Size and modification time are derived from the filesystem, not stored
// separately.
type StoredImage struct {
	Path      string    `json:"path"`
	SizeBytes int64     `json:"size_bytes"`
	ModTime   time.Time `json:"mod_time"`
}

// ProcessHint is an observability signal emitted by the process watcher
// when a known screenshot tool appears in the process table. It carries no
// image data.
type ProcessHint struct {
	Tool       string    `json:"tool"`
	PID        int32     `json:"pid"`
	ObservedAt time.Time `json:"observed_at"`
}
