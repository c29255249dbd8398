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
	"context"
	"fmt"

	atotto "github.com/atotto/clipboard"

	"github.com/klipdot/klipdot/pkg/logger"
)

// atottoClipboard is the text-only fallback used when no external
// clipboard utility is installed. Binary image reads are impossible here,
// but base64 and data-URL payloads still flow through as text and are
// decoded by the watcher.
type atottoClipboard struct{}

func newAtottoClipboard() (*atottoClipboard, error) {
	if atotto.Unsupported {
		return nil, ErrUnavailable
	}

	return &atottoClipboard{}, nil
}

func (*atottoClipboard) Read(_ context.Context) (Content, error) {
	text, err := atotto.ReadAll()
	if err != nil {
		return Content{Kind: KindEmpty}, fmt.Errorf("clipboard read failed: %w", err)
	}

	if text == "" {
		return Content{Kind: KindEmpty}, nil
	}

	return Content{Kind: KindText, Text: text}, nil
}

func (*atottoClipboard) WriteText(_ context.Context, text string) error {
	if err := atotto.WriteAll(text); err != nil {
		return fmt.Errorf("clipboard write failed: %w", err)
	}

	return nil
}

// New selects the best available clipboard capability: the exec-tool
// implementation when utilities exist (it can read binary images), the
// atotto text fallback otherwise.
func New(log logger.Logger) (Clipboard, error) {
	if tc, err := newToolClipboard(log); err == nil {
		return tc, nil
	}

	if ac, err := newAtottoClipboard(); err == nil {
		log.Warn().Msg("No clipboard utility found; falling back to text-only clipboard access")
		return ac, nil
	}

	return nil, ErrUnavailable
}
