// Package load drives a protocol client through bulk write/read workloads:
// a sequential generator with a read-verify phase, a coordinator that fans
// the same workload out over N independent connections with disjoint
// keyspaces, and a bulk-read comparison that measures the "reads <prefix>"
// verb against the equivalent number of single reads.
package load
