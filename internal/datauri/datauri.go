// Package datauri converts media payloads to and from base64 data URIs, the
// transport representation used across the client/server boundary.
package datauri

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// DefaultImageMIME is assumed when a payload arrives as bare base64 without a
// data URI header.
const DefaultImageMIME = "image/png"

// Encode renders raw bytes as a base64 data URI with the given MIME type.
func Encode(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = DefaultImageMIME
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

// Decode parses a data URI into raw bytes and its MIME type. Bare base64
// strings without the "data:" header are accepted and assumed to be PNG
// images, mirroring how uploads may arrive without a full URI.
func Decode(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, "", errors.New("datauri: empty input")
	}

	mimeType := DefaultImageMIME
	payload := s
	if strings.HasPrefix(s, "data:") {
		header, rest, ok := strings.Cut(s, ",")
		if !ok {
			return nil, "", errors.New("datauri: malformed data URI")
		}
		payload = rest
		header = strings.TrimPrefix(header, "data:")
		header = strings.TrimSuffix(header, ";base64")
		if header != "" {
			mimeType = header
		}
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("datauri: decode payload: %w", err)
	}
	return data, mimeType, nil
}
