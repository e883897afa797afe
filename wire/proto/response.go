package proto

import (
	"strings"
)

// ErrorSentinel is the literal response the server returns for any
// semantically failed operation (missing key, malformed command, ...).
// It is a normal response value, not a transport fault: clients hand it
// to the caller verbatim and the caller decides what it means.
const ErrorSentinel = "error"

// TrimResponse turns a raw accumulated line (as read from the socket, up to
// and including the terminator) into the logical response string. The
// terminator and any surrounding whitespace are stripped.
func TrimResponse(raw string) string {
	return strings.TrimSpace(strings.TrimSuffix(raw, string(Terminator)))
}

// IsError reports whether a logical response is the server-side failure
// sentinel
func IsError(resp string) bool {
	return resp == ErrorSentinel
}

// SplitList decodes a multi-value response (keys, reads) into its elements.
// Values are newline-separated; empty elements are dropped so that a
// trailing newline does not produce a phantom entry.
func SplitList(resp string) []string {
	if resp == "" {
		return nil
	}
	parts := strings.Split(resp, "\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
