package imaging

import "errors"

var (
	// ErrDecode marks bytes that matched an image signature but failed to
	// decode. Recoverable: the capture is dropped, the watcher continues.
	ErrDecode = errors.New("image decode failed")

	// ErrUnsupportedFormat marks formats that are classified but carry no
	// decoder (ICO, unknown).
	ErrUnsupportedFormat = errors.New("unsupported image format")
)
