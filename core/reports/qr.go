package reports

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

const (
	minQRSize     = 128
	maxQRSize     = 1024
	defaultQRSize = 256
)

// TrackingQRCode renders the tracking code as a PNG QR image.
func TrackingQRCode(code string, size int) ([]byte, error) {
	if !ValidTrackingCode(code) {
		return nil, fmt.Errorf("invalid tracking code")
	}
	if size == 0 {
		size = defaultQRSize
	}
	if size < minQRSize {
		size = minQRSize
	}
	if size > maxQRSize {
		size = maxQRSize
	}
	return qrcode.Encode(code, qrcode.Medium, size)
}
