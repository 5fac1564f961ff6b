// Package qr renders serialized payload text as a QR image. It is a
// transport binding only; the protocol core never depends on it.
package qr

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// DefaultSize is the rendered image edge in pixels, matching what a phone
// camera scans comfortably at arm's length.
const DefaultSize = 256

// Encode renders text as a PNG image.
func Encode(text string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	png, err := qrcode.Encode(text, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr image: %w", err)
	}
	return png, nil
}

// WriteFile renders text as a PNG image at path.
func WriteFile(text, path string, size int) error {
	if size <= 0 {
		size = DefaultSize
	}
	if err := qrcode.WriteFile(text, qrcode.Medium, size, path); err != nil {
		return fmt.Errorf("write qr image: %w", err)
	}
	return nil
}
