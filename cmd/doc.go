// Package cmd implements the command-line interface of the kvprobe test
// harness. It provides a hierarchical command structure for one-shot
// protocol operations, load runs and durability runs against an external
// key-value server.
//
// The package is organized into several subpackages:
//
//   - kv: One-shot protocol commands (write, read, delete, status, keys, reads)
//   - smoke: Basic protocol smoke test against a running server
//   - load: Sequential, concurrent and bulk-read load runs
//   - persist: Durability run across a server process restart
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See kvprobe -help for a list of all commands.
package cmd
