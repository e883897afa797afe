// Package common holds configuration structs and logging setup shared by
// the protocol client and the harness components.
package common
