// Package wiretest provides an in-process TCP server speaking the same
// line protocol as the real server binary. It is used by the package tests
// of the client and the harness so they can exercise real sockets without
// an external process.
package wiretest
