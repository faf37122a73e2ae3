package invite

import (
	"encoding/base64"
	"errors"
	"strings"
	"unicode/utf8"
)

var (
	errEmptyReference   = errors.New("reference is empty")
	errReferenceNotUTF8 = errors.New("reference does not decode to valid UTF-8")
)

// EncodeReference turns an identifier into an opaque, URL-safe reference
// string using padded base64url.
func EncodeReference(identifier string) string {
	return base64.URLEncoding.EncodeToString([]byte(identifier))
}

// DecodeReference reverses EncodeReference. Unpadded input is accepted.
// Any failure is an InvalidReferenceError.
func DecodeReference(reference string) (string, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return "", NewInvalidReferenceError(errEmptyReference)
	}

	enc := base64.URLEncoding
	if !strings.HasSuffix(reference, "=") && len(reference)%4 != 0 {
		enc = base64.RawURLEncoding
	}

	raw, err := enc.DecodeString(reference)
	if err != nil {
		return "", NewInvalidReferenceError(err)
	}

	if len(raw) == 0 {
		return "", NewInvalidReferenceError(errEmptyReference)
	}

	if !utf8.Valid(raw) {
		return "", NewInvalidReferenceError(errReferenceNotUTF8)
	}

	return string(raw), nil
}
