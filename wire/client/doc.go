// Package client implements the protocol client: one TCP socket, one
// in-flight command, terminator-based response framing, per-command
// timeouts and transparent reconnect after a dropped connection.
package client
