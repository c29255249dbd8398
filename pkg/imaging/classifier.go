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

// Package imaging classifies and normalizes image payloads.
package imaging

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klipdot/klipdot/pkg/models"
)

const (
	// minSniffLen is the smallest buffer that can be classified; anything
	// shorter is never an image.
	minSniffLen = 8

	// sniffLen bounds how much of a file is read when classifying by path.
	sniffLen = 512
)

var (
	pngSignature  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	jpegSignature = []byte{0xFF, 0xD8, 0xFF}
	gif87Magic    = []byte("GIF87a")
	gif89Magic    = []byte("GIF89a")
	bmpMagic      = []byte("BM")
	riffMagic     = []byte("RIFF")
	webpTag       = []byte("WEBP")
	tiffLEMagic   = []byte{0x49, 0x49, 0x2A, 0x00}
	tiffBEMagic   = []byte{0x4D, 0x4D, 0x00, 0x2A}
	icoMagic      = []byte{0x00, 0x00, 0x01, 0x00}
)

var extFormats = map[string]models.Format{
	".png":  models.FormatPNG,
	".jpg":  models.FormatJPEG,
	".jpeg": models.FormatJPEG,
	".gif":  models.FormatGIF,
	".bmp":  models.FormatBMP,
	".webp": models.FormatWEBP,
	".svg":  models.FormatSVG,
	".tif":  models.FormatTIFF,
	".tiff": models.FormatTIFF,
	".ico":  models.FormatICO,
}

// Classify inspects the leading bytes of data and reports the detected
// image format. It fails closed: truncated or unrecognized buffers are
// reported as non-images, never as errors.
func Classify(data []byte) (models.Format, bool) {
	if len(data) < minSniffLen {
		return models.FormatUnknown, false
	}

	switch {
	case bytes.HasPrefix(data, pngSignature):
		return models.FormatPNG, true
	case bytes.HasPrefix(data, jpegSignature):
		return models.FormatJPEG, true
	case bytes.HasPrefix(data, gif87Magic), bytes.HasPrefix(data, gif89Magic):
		return models.FormatGIF, true
	case len(data) >= 12 && bytes.HasPrefix(data, riffMagic) && bytes.Equal(data[8:12], webpTag):
		return models.FormatWEBP, true
	case bytes.HasPrefix(data, bmpMagic):
		return models.FormatBMP, true
	case bytes.HasPrefix(data, tiffLEMagic), bytes.HasPrefix(data, tiffBEMagic):
		return models.FormatTIFF, true
	case bytes.HasPrefix(data, icoMagic):
		return models.FormatICO, true
	}

	if sniffSVG(data) {
		return models.FormatSVG, true
	}

	return models.FormatUnknown, false
}

// ClassifyPath classifies a file on disk by sniffing its leading bytes.
// Extensions are deliberately ignored here; HasImageExtension is the fast
// path and this is the confirmation, so a misleading extension never
// classifies as an image.
func ClassifyPath(path string) (models.Format, bool) {
	f, err := os.Open(path)
	if err != nil {
		return models.FormatUnknown, false
	}
	defer f.Close()

	head := make([]byte, sniffLen)

	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return models.FormatUnknown, false
	}

	return Classify(head[:n])
}

// HasImageExtension reports whether the path carries a recognized image
// extension. It is a hint only; callers confirm with a content sniff.
func HasImageExtension(path string) bool {
	_, ok := extFormats[strings.ToLower(filepath.Ext(path))]
	return ok
}

// sniffSVG detects SVG documents, which are textual and carry no magic
// number. The <svg tag must appear near the start of the buffer.
func sniffSVG(data []byte) bool {
	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}

	lower := bytes.ToLower(head)
	if !bytes.Contains(lower, []byte("<svg")) {
		return false
	}

	// Reject buffers that merely mention <svg inside binary noise.
	trimmed := bytes.TrimLeft(lower, " \t\r\n")

	return bytes.HasPrefix(trimmed, []byte("<?xml")) || bytes.HasPrefix(trimmed, []byte("<svg")) ||
		bytes.HasPrefix(trimmed, []byte("<!doctype svg"))
}
