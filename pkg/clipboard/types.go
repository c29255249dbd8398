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

// Package clipboard abstracts platform clipboard access behind a small
// capability interface so the watcher logic stays platform-agnostic.
package clipboard

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/klipdot/klipdot/pkg/imaging"
)

// Kind classifies what the clipboard currently holds.
type Kind string

const (
	KindEmpty Kind = "empty"
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// Content is one clipboard observation. Image bytes are set only for
// KindImage; Text only for KindText.
type Content struct {
	Kind  Kind
	Text  string
	Image []byte
}

// Clipboard is the injected platform capability.
type Clipboard interface {
	// Read returns the current clipboard content. Transient read failures
	// should be returned as errors; callers treat them as empty ticks.
	Read(ctx context.Context) (Content, error)

	// WriteText replaces the clipboard with plain text.
	WriteText(ctx context.Context, text string) error
}

// ErrUnavailable means no clipboard mechanism exists on this system. The
// clipboard watcher disables itself when construction returns it.
var ErrUnavailable = errors.New("no clipboard capability available")

// DecodePayload extracts raw image bytes from textual clipboard payloads:
// data URLs (`data:image/png;base64,...`) and bare base64 blobs, both of
// which GUI toolkits commonly place on the clipboard instead of binary
// data. The boolean reports whether the decoded bytes sniff as an image.
func DecodePayload(text string) ([]byte, bool) {
	if strings.HasPrefix(text, "data:image/") {
		if idx := strings.IndexByte(text, ','); idx >= 0 {
			if decoded, err := base64.StdEncoding.DecodeString(text[idx+1:]); err == nil {
				if _, ok := imaging.Classify(decoded); ok {
					return decoded, true
				}
			}
		}

		return nil, false
	}

	if len(text) > 100 && isBase64Alphabet(text) {
		if decoded, err := base64.StdEncoding.DecodeString(text); err == nil {
			if _, ok := imaging.Classify(decoded); ok {
				return decoded, true
			}
		}
	}

	return nil, false
}

func isBase64Alphabet(s string) bool {
	for _, c := range s {
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case c == '+' || c == '/' || c == '=':
		default:
			return false
		}
	}

	return true
}
