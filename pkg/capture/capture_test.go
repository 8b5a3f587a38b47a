package capture

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractCaptureInstantNoMetadata(t *testing.T) {
	_, err := ExtractCaptureInstant([]byte("not an image"))
	require.ErrorIs(t, err, ErrNoCaptureInstant)
}

func TestExtractCaptureInstantEmpty(t *testing.T) {
	_, err := ExtractCaptureInstant(nil)
	require.ErrorIs(t, err, ErrNoCaptureInstant)
}
