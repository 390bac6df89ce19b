// Package token encodes catalog keys into URL-safe deep-link tokens and
// back. Encode and Decode form an exact round-trip for printable ASCII.
package token

import (
	"encoding/base64"
	"fmt"

	"github.com/codeflix/filestore-bot/internal/domain"
)

// Encode turns a catalog key into a token safe to embed in a deep-link
// query parameter.
func Encode(plain string) string {
	return base64.URLEncoding.EncodeToString([]byte(plain))
}

// Decode reverses Encode. It fails with domain.ErrMalformedToken when
// the input is not valid Encode output: bad alphabet, bad padding, or a
// payload that is not printable ASCII.
func Decode(tok string) (string, error) {
	raw, err := base64.URLEncoding.DecodeString(tok)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrMalformedToken, err)
	}
	for _, b := range raw {
		if b < 0x20 || b > 0x7e {
			return "", fmt.Errorf("%w: non-printable payload", domain.ErrMalformedToken)
		}
	}
	return string(raw), nil
}
