// Package auth implements the HTTP Basic credential check for the relay.
// A single expected identity is configured at startup; the base64 form is
// precomputed once and compared against the caller-supplied value.
package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrUnauthorized is returned for any missing, malformed, or mismatched credential.
var ErrUnauthorized = errors.New("unauthorized")

// Credential holds the precomputed base64 encoding of "username:password".
// Immutable after construction; safe for concurrent use.
type Credential struct {
	encoded []byte
}

// NewCredential precomputes the expected Authorization value for the given identity.
func NewCredential(username, password string) *Credential {
	encoded := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return &Credential{encoded: []byte(encoded)}
}

// Authorize validates an Authorization header value. The header must carry the
// "Basic" scheme token; the remainder, with surrounding whitespace stripped,
// must match the precomputed credential byte-for-byte. The error never
// includes the supplied credential value.
func (c *Credential) Authorize(header string) error {
	if header == "" {
		return fmt.Errorf("%w: missing authorization header", ErrUnauthorized)
	}
	if !strings.Contains(header, "Basic") {
		return fmt.Errorf("%w: basic scheme not found", ErrUnauthorized)
	}
	value := strings.TrimSpace(strings.Replace(header, "Basic ", "", 1))
	if subtle.ConstantTimeCompare([]byte(value), c.encoded) != 1 {
		return fmt.Errorf("%w: credential mismatch", ErrUnauthorized)
	}
	return nil
}
