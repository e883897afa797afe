// Package proto defines the value types of the key-value wire protocol:
// the Command (verb plus arguments, encoded as a terminator-framed ASCII
// line) and helpers for decoding the equally framed responses.
package proto
