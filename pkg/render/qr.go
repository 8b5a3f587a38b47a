package render

import (
	"encoding/json"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// CodePayload is the structure embedded in a scan-code image. The mobile
// client decodes it to recover the roster linked to the printed code.
type CodePayload struct {
	EventID    string   `json:"eventId"`
	Token      string   `json:"token"`
	PhotoType  string   `json:"photoType"`
	StudentIDs []string `json:"studentIds"`
}

// QRRenderer renders scan-code payloads into PNG images.
type QRRenderer struct {
	size int
}

// NewQRRenderer builds a renderer producing square PNGs of the given pixel
// size.
func NewQRRenderer(size int) *QRRenderer {
	if size <= 0 {
		size = 512
	}
	return &QRRenderer{size: size}
}

// Render encodes the payload as JSON inside a QR PNG.
func (r *QRRenderer) Render(payload CodePayload) ([]byte, error) {
	content, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal code payload: %w", err)
	}
	png, err := qrcode.Encode(string(content), qrcode.Medium, r.size)
	if err != nil {
		return nil, fmt.Errorf("encode scan code: %w", err)
	}
	return png, nil
}
