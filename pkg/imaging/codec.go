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

package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"

	"github.com/klipdot/klipdot/pkg/models"
)

// MaxDimension caps the width/height of normalized output. Larger inputs
// are scaled down preserving aspect ratio.
const MaxDimension = 3840

// Decode decodes raster image bytes of a previously classified format.
// Bytes that matched a signature but fail to decode (truncated clipboard
// reads are the common case) return ErrDecode.
func Decode(data []byte, format models.Format) (image.Image, error) {
	var (
		img image.Image
		err error
	)

	r := bytes.NewReader(data)

	switch format {
	case models.FormatPNG:
		img, err = png.Decode(r)
	case models.FormatJPEG:
		img, err = jpeg.Decode(r)
	case models.FormatGIF:
		img, err = gif.Decode(r)
	case models.FormatBMP:
		img, err = bmp.Decode(r)
	case models.FormatWEBP:
		img, err = webp.Decode(r)
	case models.FormatTIFF:
		img, err = tiff.Decode(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, format, err)
	}

	return img, nil
}

// EncodePNG re-encodes a decoded image as PNG, the canonical artifact
// format.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer

	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("png encode: %w", err)
	}

	return buf.Bytes(), nil
}

// Normalize converts raster bytes of the given format into canonical PNG
// bytes, scaling down anything larger than maxDim on either axis. A
// maxDim of zero applies MaxDimension.
func Normalize(data []byte, format models.Format, maxDim int) ([]byte, error) {
	img, err := Decode(data, format)
	if err != nil {
		return nil, err
	}

	if maxDim <= 0 {
		maxDim = MaxDimension
	}

	img = capDimensions(img, maxDim)

	return EncodePNG(img)
}

// Dimensions reports the pixel dimensions of raster bytes without keeping
// the decoded image.
func Dimensions(data []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	return cfg.Width, cfg.Height, nil
}

func capDimensions(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w <= maxDim && h <= maxDim {
		return img
	}

	ratio := float64(maxDim) / float64(max(w, h))

	// Extreme aspect ratios can round the minor axis to zero; a raster
	// image is never thinner than one pixel.
	dw := max(int(float64(w)*ratio), 1)
	dh := max(int(float64(h)*ratio), 1)

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))

	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	return dst
}
