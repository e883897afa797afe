// Package proc manages the lifecycle of the external server binary: spawn
// with captured output, graceful termination with forced-kill escalation,
// and confirmed exit detection.
package proc
