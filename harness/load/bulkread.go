package load

import (
	"fmt"
	"github.com/ValentinKolb/kvprobe/harness/keys"
	"github.com/ValentinKolb/kvprobe/wire/client"
	"github.com/ValentinKolb/kvprobe/wire/proto"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Bulk-read comparison
// --------------------------------------------------------------------------

// BulkReadResult compares one "reads <prefix>" call against the equivalent
// number of individual reads over the same freshly written data.
type BulkReadResult struct {
	Prefix  string
	Records int

	// Supported is false when the server answered "reads" with the error
	// sentinel; the comparison is then skipped, not failed.
	Supported bool

	BulkElapsed time.Duration
	BulkValues  int

	SingleElapsed time.Duration
	SingleReads   int
	SingleErrors  int
}

// Speedup returns how much faster the bulk path was (single/bulk)
func (r *BulkReadResult) Speedup() float64 {
	if !r.Supported || r.BulkElapsed <= 0 {
		return 0
	}
	return r.SingleElapsed.Seconds() / r.BulkElapsed.Seconds()
}

// String returns a formatted string representation of the comparison
func (r *BulkReadResult) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection(fmt.Sprintf("Bulk Read Comparison (%s)", r.Prefix))
	if !r.Supported {
		addField("Result", "skipped (server does not support the reads verb)")
		return sb.String()
	}

	addField("Records", fmt.Sprintf("%d", r.Records))
	addField("Bulk", fmt.Sprintf("%d values in %s", r.BulkValues, r.BulkElapsed))
	addField("Single", fmt.Sprintf("%d reads (%d failed) in %s", r.SingleReads, r.SingleErrors, r.SingleElapsed))
	addField("Speedup", fmt.Sprintf("%.2fx", r.Speedup()))

	return sb.String()
}

// CompareBulkRead writes a fresh batch under the given prefix and then
// times the bulk-read verb against issuing the same number of individual
// reads. The data is written first so neither path benefits from stale
// server cache state.
func CompareBulkRead(c *client.Client, prefix string, records, batch int) (*BulkReadResult, error) {
	result := &BulkReadResult{Prefix: prefix, Records: records}

	// Fresh data: batch-scoped values with a random suffix, cached here so
	// both paths see identical expectations.
	values := make([]string, records)
	for i := range values {
		values[i] = keys.BatchValue(batch, i)
	}

	for i := 0; i < records; i++ {
		resp, err := c.Write(keys.Key(prefix, i), values[i])
		if err != nil {
			return nil, fmt.Errorf("bulk-read seeding failed at record %d: %w", i, err)
		}
		if proto.IsError(resp) {
			return nil, fmt.Errorf("bulk-read seeding rejected at record %d", i)
		}
	}

	// Bulk path
	bulkStart := time.Now()
	resp, err := c.Reads(prefix)
	if err != nil {
		return nil, fmt.Errorf("bulk read failed: %w", err)
	}
	result.BulkElapsed = time.Since(bulkStart)

	if proto.IsError(resp) {
		// Server lacks bulk support: report a skipped comparison
		result.Supported = false
		Logger.Warningf("%s: reads verb unsupported, skipping comparison", prefix)
		return result, nil
	}

	result.Supported = true
	result.BulkValues = len(proto.SplitList(resp))

	// Single-read path over the same keys
	singleStart := time.Now()
	for i := 0; i < records; i++ {
		resp, err := c.Read(keys.Key(prefix, i))
		if err != nil || proto.IsError(resp) {
			result.SingleErrors++
			continue
		}
		result.SingleReads++
	}
	result.SingleElapsed = time.Since(singleStart)

	Logger.Infof("%s: bulk %s vs single %s (%.2fx)",
		prefix, result.BulkElapsed, result.SingleElapsed, result.Speedup())

	return result, nil
}
