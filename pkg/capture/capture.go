package capture

import (
	"bytes"
	"errors"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// ErrNoCaptureInstant reports that a file carries no usable embedded
// capture timestamp. Callers treat this as a per-file condition, not a
// service failure.
var ErrNoCaptureInstant = errors.New("no capture instant in file metadata")

// InstantFunc extracts the capture instant from raw image bytes.
type InstantFunc func(data []byte) (time.Time, error)

// ExtractCaptureInstant reads the embedded capture instant from an image's
// EXIF block, preferring DateTimeOriginal. Any decode failure or missing
// tag maps to ErrNoCaptureInstant.
func ExtractCaptureInstant(data []byte) (time.Time, error) {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return time.Time{}, ErrNoCaptureInstant
	}
	taken, err := x.DateTime()
	if err != nil {
		return time.Time{}, ErrNoCaptureInstant
	}
	return taken, nil
}
