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

package clipboard

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"unicode/utf8"

	"github.com/klipdot/klipdot/pkg/imaging"
	"github.com/klipdot/klipdot/pkg/logger"
)

// toolClipboard drives external clipboard utilities (wl-paste/wl-copy,
// xclip, xsel, pbpaste/pbcopy). It is the only implementation that can
// read binary image data off the clipboard.
type toolClipboard struct {
	readTools  []string
	writeTools []string
	log        logger.Logger
}

// newToolClipboard returns ErrUnavailable when no known utility exists in
// PATH.
func newToolClipboard(log logger.Logger) (*toolClipboard, error) {
	readTools := availableReadTools()
	writeTools := availableWriteTools()

	if len(readTools) == 0 || len(writeTools) == 0 {
		return nil, ErrUnavailable
	}

	return &toolClipboard{readTools: readTools, writeTools: writeTools, log: log}, nil
}

func (t *toolClipboard) Read(ctx context.Context) (Content, error) {
	var lastErr error

	for _, tool := range t.readTools {
		content, err := t.readWith(ctx, tool)
		if err == nil {
			return content, nil
		}

		lastErr = err
	}

	return Content{Kind: KindEmpty}, fmt.Errorf("clipboard read failed: %w", lastErr)
}

// readWith tries image data first so a fresh screenshot is seen as an
// image even when the toolkit also posted a text representation.
func (t *toolClipboard) readWith(ctx context.Context, tool string) (Content, error) {
	if img, err := t.readImage(ctx, tool); err == nil && len(img) > 0 {
		if _, ok := imaging.Classify(img); ok {
			return Content{Kind: KindImage, Image: img}, nil
		}
	}

	out, err := t.readText(ctx, tool)
	if err != nil {
		return Content{Kind: KindEmpty}, err
	}

	if len(out) == 0 {
		return Content{Kind: KindEmpty}, nil
	}

	// Some tools hand back raw binary when asked for text.
	if _, ok := imaging.Classify(out); ok || !utf8.Valid(out) {
		if ok {
			return Content{Kind: KindImage, Image: out}, nil
		}

		return Content{Kind: KindEmpty}, nil
	}

	return Content{Kind: KindText, Text: string(out)}, nil
}

func (t *toolClipboard) readImage(ctx context.Context, tool string) ([]byte, error) {
	var cmd *exec.Cmd

	switch tool {
	case "wl-paste":
		cmd = exec.CommandContext(ctx, "wl-paste", "--type", "image/png")
	case "xclip":
		cmd = exec.CommandContext(ctx, "xclip", "-selection", "clipboard", "-t", "image/png", "-o")
	case "pbpaste":
		if commandAvailable("pngpaste") {
			cmd = exec.CommandContext(ctx, "pngpaste", "-")
		}
	}

	if cmd == nil {
		return nil, nil
	}

	out, err := cmd.Output()
	if err != nil {
		// Non-zero exit usually means "no image target available".
		return nil, nil //nolint:nilerr // treated as absence, not failure
	}

	return out, nil
}

func (t *toolClipboard) readText(ctx context.Context, tool string) ([]byte, error) {
	var cmd *exec.Cmd

	switch tool {
	case "wl-paste":
		cmd = exec.CommandContext(ctx, "wl-paste", "--no-newline", "--type", "text/plain")
	case "xclip":
		cmd = exec.CommandContext(ctx, "xclip", "-selection", "clipboard", "-o")
	case "xsel":
		cmd = exec.CommandContext(ctx, "xsel", "--clipboard", "--output")
	case "pbpaste":
		cmd = exec.CommandContext(ctx, "pbpaste")
	default:
		return nil, fmt.Errorf("%w: unsupported tool %s", ErrUnavailable, tool)
	}

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", tool, err)
	}

	return out, nil
}

func (t *toolClipboard) WriteText(ctx context.Context, text string) error {
	var lastErr error

	for _, tool := range t.writeTools {
		if err := t.writeWith(ctx, tool, text); err != nil {
			lastErr = err
			continue
		}

		return nil
	}

	return fmt.Errorf("clipboard write failed: %w", lastErr)
}

func (t *toolClipboard) writeWith(ctx context.Context, tool, text string) error {
	var cmd *exec.Cmd

	switch tool {
	case "wl-copy":
		cmd = exec.CommandContext(ctx, "wl-copy", "--type", "text/plain")
	case "xclip":
		cmd = exec.CommandContext(ctx, "xclip", "-selection", "clipboard")
	case "xsel":
		cmd = exec.CommandContext(ctx, "xsel", "--clipboard", "--input")
	case "pbcopy":
		cmd = exec.CommandContext(ctx, "pbcopy")
	default:
		return fmt.Errorf("%w: unsupported tool %s", ErrUnavailable, tool)
	}

	cmd.Stdin = strings.NewReader(text)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w: %s", tool, err, strings.TrimSpace(stderr.String()))
	}

	return nil
}
