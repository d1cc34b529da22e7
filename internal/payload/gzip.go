// Package payload handles decoding of incoming telemetry bodies.
package payload

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
)

// Decode gzip-decompresses raw. When raw is not a valid gzip stream it is
// returned unchanged with fallback=true: senders that skip compression are
// tolerated, and the caller decides whether an empty body is an error.
func Decode(raw []byte) (data []byte, fallback bool) {
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return raw, true
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return raw, true
	}
	return out, false
}
