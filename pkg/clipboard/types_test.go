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
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePNG returns bytes that sniff as PNG without being a decodable
// image; DecodePayload only classifies, it never decodes.
func fakePNG(size int) []byte {
	data := make([]byte, size)
	copy(data, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A})

	return data
}

func TestDecodePayloadDataURL(t *testing.T) {
	raw := fakePNG(64)
	text := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)

	decoded, ok := DecodePayload(text)
	require.True(t, ok)
	assert.Equal(t, raw, decoded)
}

func TestDecodePayloadDataURLNonImage(t *testing.T) {
	text := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("plain text bytes, no magic"))

	_, ok := DecodePayload(text)
	assert.False(t, ok)
}

func TestDecodePayloadDataURLCorruptBase64(t *testing.T) {
	_, ok := DecodePayload("data:image/png;base64,!!!not-base64!!!")
	assert.False(t, ok)
}

func TestDecodePayloadBareBase64(t *testing.T) {
	raw := fakePNG(120)
	text := base64.StdEncoding.EncodeToString(raw)
	require.Greater(t, len(text), 100)

	decoded, ok := DecodePayload(text)
	require.True(t, ok)
	assert.Equal(t, raw, decoded)
}

func TestDecodePayloadShortBase64Ignored(t *testing.T) {
	// Short base64-looking strings are far more likely to be ordinary
	// text than an embedded image.
	text := base64.StdEncoding.EncodeToString(fakePNG(16))
	require.LessOrEqual(t, len(text), 100)

	_, ok := DecodePayload(text)
	assert.False(t, ok)
}

func TestDecodePayloadPlainText(t *testing.T) {
	_, ok := DecodePayload("hello world, definitely not base64 because of spaces")
	assert.False(t, ok)

	_, ok = DecodePayload(strings.Repeat("A", 101) + " trailing words")
	assert.False(t, ok)
}

func TestDecodePayloadBase64OfText(t *testing.T) {
	text := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("not an image payload ", 10)))
	require.Greater(t, len(text), 100)

	_, ok := DecodePayload(text)
	assert.False(t, ok)
}
