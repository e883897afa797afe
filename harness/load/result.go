package load

import (
	"fmt"
	"strings"
	"time"
)

// maxRecordedErrors caps the error detail kept per batch; counts are always
// complete, only the textual samples are limited.
const maxRecordedErrors = 5

// BatchResult is the immutable outcome of one load batch. Workers fill
// their own result and hand it to the aggregation step after the join, so
// no counters are ever shared between goroutines.
type BatchResult struct {
	Label string

	Writes      int
	WriteErrors int
	Reads       int
	ReadErrors  int
	Mismatches  int

	// Errors holds the first few recorded error strings for diagnostics
	Errors []string

	Elapsed time.Duration
}

// RecordError counts nothing by itself, it only keeps the first
// maxRecordedErrors error samples for the report.
func (r *BatchResult) RecordError(context string, err error) {
	if len(r.Errors) < maxRecordedErrors {
		r.Errors = append(r.Errors, fmt.Sprintf("%s: %v", context, err))
	}
}

// Ops returns the total number of operations attempted in this batch
func (r *BatchResult) Ops() int {
	return r.Writes + r.WriteErrors + r.Reads + r.ReadErrors + r.Mismatches
}

// OpsPerSec returns the achieved throughput of this batch
func (r *BatchResult) OpsPerSec() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Ops()) / r.Elapsed.Seconds()
}

// Passed reports whether the batch completed without any failure or
// mismatch
func (r *BatchResult) Passed() bool {
	return r.WriteErrors == 0 && r.ReadErrors == 0 && r.Mismatches == 0
}

// String returns a formatted string representation of the batch result
func (r *BatchResult) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection(fmt.Sprintf("Batch Result (%s)", r.Label))
	addField("Writes", fmt.Sprintf("%d ok / %d failed", r.Writes, r.WriteErrors))
	addField("Reads", fmt.Sprintf("%d ok / %d failed", r.Reads, r.ReadErrors))
	addField("Mismatches", fmt.Sprintf("%d", r.Mismatches))
	addField("Elapsed", r.Elapsed.String())
	addField("Throughput", fmt.Sprintf("%.0f ops/sec", r.OpsPerSec()))
	addField("Passed", fmt.Sprintf("%t", r.Passed()))

	if len(r.Errors) > 0 {
		addSection("Recorded Errors")
		for i, e := range r.Errors {
			addField(fmt.Sprintf("%d", i+1), e)
		}
	}

	return sb.String()
}
