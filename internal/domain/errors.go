package domain

import "errors"

var (
	// ErrUnreadableImage is returned when the chart bytes cannot be decoded
	// into a raster. It is the only hard failure of the extraction engine.
	ErrUnreadableImage = errors.New("unreadable chart image")

	// ErrInsufficientSignal marks a run whose series is too short to keep.
	ErrInsufficientSignal = errors.New("not enough signal in chart")
)
