// Package wire implements the line-oriented wire protocol spoken by the
// key-value server under test.
//
// The protocol is plain ASCII over a persistent TCP connection. Every request
// and every response is framed by a single carriage-return terminator; there
// is no length prefix, so framing relies entirely on scanning for the
// terminator byte. Each connection carries exactly one command at a time.
//
// The package is split into three sub packages:
//   - proto:  command/response value types and their wire encoding
//   - client: the connection-owning protocol client
//   - common: configuration and logging shared by client and harness
package wire
