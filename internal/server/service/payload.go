package service

import (
	"encoding/base64"
	"fmt"
	"strings"
)

const base64Separator = ";base64,"

// Payload is a parsed data URI.
type Payload struct {
	MimeType string
	Body     string // still base64-encoded
}

// ParsePayload splits "data:<mime-type>;base64,<body>" into its parts.
// The "data:" prefix is optional.
func ParsePayload(value string) (Payload, error) {
	value = strings.TrimPrefix(value, "data:")

	mimeType, body, found := strings.Cut(value, base64Separator)
	if !found || mimeType == "" || body == "" {
		return Payload{}, ErrMalformedPayload
	}
	return Payload{MimeType: mimeType, Body: body}, nil
}

// ApproxSize estimates the decoded size as 3/4 of the base64 length,
// padding included.
func (p Payload) ApproxSize() float64 {
	return float64(len(p.Body)) * 0.75
}

// Decode returns the content bytes.
func (p Payload) Decode() ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(p.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return b, nil
}
