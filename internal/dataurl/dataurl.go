// Package dataurl handles self-describing base64 payloads of the form
// data:<mimetype>;base64,<payload>.
package dataurl

import (
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	Prefix       = "data:"
	base64Marker = ";base64,"

	MIMEPNG  = "image/png"
	MIMEJPEG = "image/jpeg"
	MIMEWebP = "image/webp"
	MIMEGIF  = "image/gif"
	MIMEHEIC = "image/heic"
	MIMEHEIF = "image/heif"
	MIMEPDF  = "application/pdf"
)

var (
	ErrMissingPrefix   = errors.New("missing data url prefix")
	ErrMalformed       = errors.New("malformed data url")
	ErrEmptyPayload    = errors.New("empty data url payload")
	ErrUnsupportedType = errors.New("unsupported media type")
)

var imageTypes = map[string]struct{}{
	MIMEPNG:  {},
	MIMEJPEG: {},
	MIMEWebP: {},
	MIMEGIF:  {},
	MIMEHEIC: {},
	MIMEHEIF: {},
}

var mimeRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9!#$&^_.+-]*/[a-z0-9][a-z0-9!#$&^_.+-]*$`)

type DataURL struct {
	MIMEType string
	Payload  string
}

// Parse splits a data url into its media type and base64 payload. The payload
// itself is not decoded.
func Parse(s string) (DataURL, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, Prefix) {
		return DataURL{}, ErrMissingPrefix
	}

	rest := s[len(Prefix):]
	idx := strings.Index(rest, base64Marker)
	if idx < 0 {
		return DataURL{}, fmt.Errorf("%w: no %q marker", ErrMalformed, base64Marker)
	}

	mime := strings.ToLower(strings.TrimSpace(rest[:idx]))
	if !mimeRegex.MatchString(mime) {
		return DataURL{}, fmt.Errorf("%w: bad media type %q", ErrMalformed, rest[:idx])
	}

	payload := rest[idx+len(base64Marker):]
	if payload == "" {
		return DataURL{}, ErrEmptyPayload
	}

	return DataURL{MIMEType: mime, Payload: payload}, nil
}

// ValidateImage parses s and checks that it carries one of the supported image
// media types.
func ValidateImage(s string) (DataURL, error) {
	d, err := Parse(s)
	if err != nil {
		return DataURL{}, err
	}
	if !d.IsImage() {
		return DataURL{}, fmt.Errorf("%w: %s", ErrUnsupportedType, d.MIMEType)
	}
	return d, nil
}

func Format(mimeType, payload string) string {
	return Prefix + mimeType + base64Marker + payload
}

func FromBytes(mimeType string, data []byte) string {
	return Format(mimeType, base64.StdEncoding.EncodeToString(data))
}

func (d DataURL) String() string {
	return Format(d.MIMEType, d.Payload)
}

func (d DataURL) IsImage() bool {
	_, ok := imageTypes[d.MIMEType]
	return ok
}

func (d DataURL) IsPDF() bool {
	return d.MIMEType == MIMEPDF
}

// Bytes decodes the payload.
func (d DataURL) Bytes() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(d.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}
	return data, nil
}
