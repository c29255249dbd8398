package store

import "errors"

var (
	ErrNoDirectory     = errors.New("screenshot directory not configured")
	ErrEmptyPayload    = errors.New("empty image payload")
	ErrPayloadTooLarge = errors.New("image payload too large")
	ErrNotImage        = errors.New("payload is not image data")
	ErrNameExhausted   = errors.New("filename collision retries exhausted")
)
