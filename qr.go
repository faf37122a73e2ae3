package invite

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
	qrcode "github.com/skip2/go-qrcode"
)

// AcceptPath is the route the QR acceptance link points at
const AcceptPath = "/invite/accept"

// DefaultQRSize is the default PNG edge length in pixels
const DefaultQRSize = 256

// QREncoder renders a target URL into a scannable image
type QREncoder interface {
	Render(targetURL string) ([]byte, error)
}

// QREncoderFunc adapts a function to the QREncoder interface.
type QREncoderFunc func(targetURL string) ([]byte, error)

// Render implements QREncoder.
func (f QREncoderFunc) Render(targetURL string) ([]byte, error) {
	return f(targetURL)
}

// PNGEncoder renders PNG QR codes
type PNGEncoder struct {
	Size     int
	Recovery qrcode.RecoveryLevel
}

// PNGEncoderOption configures a PNGEncoder
type PNGEncoderOption func(*PNGEncoder)

// WithQRSize sets the image size in pixels
func WithQRSize(size int) PNGEncoderOption {
	return func(e *PNGEncoder) {
		if size > 0 {
			e.Size = size
		}
	}
}

// WithQRRecovery sets the error recovery level
func WithQRRecovery(level qrcode.RecoveryLevel) PNGEncoderOption {
	return func(e *PNGEncoder) {
		e.Recovery = level
	}
}

// NewPNGEncoder returns a PNG encoder with medium recovery
func NewPNGEncoder(opts ...PNGEncoderOption) *PNGEncoder {
	e := &PNGEncoder{
		Size:     DefaultQRSize,
		Recovery: qrcode.Medium,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Render implements QREncoder. The same URL always yields the same bytes.
func (e *PNGEncoder) Render(targetURL string) ([]byte, error) {
	if strings.TrimSpace(targetURL) == "" {
		return nil, goerrors.New("qr target url is empty", goerrors.CategoryBadInput)
	}

	png, err := qrcode.Encode(targetURL, e.Recovery, e.Size)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to render qr code").
			WithMetadata(map[string]any{"size": e.Size})
	}
	return png, nil
}

// AcceptURL builds the acceptance link for a reference
func AcceptURL(baseURL, reference string) string {
	return strings.TrimRight(baseURL, "/") + AcceptPath + "?ref=" + reference
}
