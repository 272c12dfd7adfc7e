// Package qr renders BR Code payload text as a scannable QR image.
package qr

import (
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/pedidofacil/pix-checkout-go/internal/port"
)

const defaultSize = 300

// Renderer implements port.QRRenderer on top of skip2/go-qrcode.
type Renderer struct{}

var _ port.QRRenderer = (*Renderer)(nil)

// NewRenderer creates a QR renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderPNG encodes text as a PNG QR code. An unknown or empty error
// correction level falls back to "M", the level banking apps expect for
// BR Codes.
func (*Renderer) RenderPNG(text string, opts port.QROptions) ([]byte, error) {
	size := opts.Size
	if size <= 0 {
		size = defaultSize
	}

	level := qrcode.Medium
	switch strings.ToUpper(opts.Level) {
	case "L":
		level = qrcode.Low
	case "", "M":
		level = qrcode.Medium
	case "Q":
		level = qrcode.High
	case "H":
		level = qrcode.Highest
	}

	png, err := qrcode.Encode(text, level, size)
	if err != nil {
		return nil, fmt.Errorf("render qr code: %w", err)
	}
	return png, nil
}
