// Package netx holds the client-side network helpers: bounded decoding of
// JSON API responses and discovery of the host's outbound addresses.
package netx

import (
	"encoding/json"
	"fmt"
	"io"
)

// MaxResponseSize bounds how much of a response body is read. Registry
// responses are a few hundred bytes.
const MaxResponseSize int64 = 1 << 20

// DecodeResponse reads at most MaxResponseSize bytes from body and decodes
// them into v.
func DecodeResponse(body io.Reader, v any) error {
	data, err := io.ReadAll(io.LimitReader(body, MaxResponseSize))
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}
	return nil
}

// ErrorBody returns the (bounded) body of an error response for diagnostics.
// Read errors are ignored.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, MaxResponseSize))
	return string(data)
}
