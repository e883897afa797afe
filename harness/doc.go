// Package harness contains the test-drive components layered on top of the
// protocol client: deterministic keyspace generation, sequential and
// concurrent load runs, external server process control and the durability
// orchestrator.
package harness
