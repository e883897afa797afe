package load

import (
	"github.com/ValentinKolb/kvprobe/harness/keys"
	"github.com/ValentinKolb/kvprobe/wire/wiretest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

// TestCoordinatorDisjointKeyspaces tests the concurrent run: every
// connection completes over its own namespace, the union of all keyspaces
// has exactly N*M distinct keys and results arrive ranked by throughput.
func TestCoordinatorDisjointKeyspaces(t *testing.T) {
	srv := startServer(t, wiretest.Options{})

	const (
		numConns   = 4
		numRecords = 50
	)

	results := NewCoordinator(CoordinatorConfig{
		Client:         srv.ClientConfig(),
		Connections:    numConns,
		RecordsPerConn: numRecords,
		Prefix:         "load",
	}).Run()

	require.Len(t, results, numConns)

	seen := make(map[int]bool)
	for _, r := range results {
		assert.True(t, r.Passed(), "conn %d failed: %+v", r.ConnID, r.BatchResult)
		assert.Equal(t, numRecords, r.Writes)
		assert.Equal(t, numRecords, r.Reads)
		seen[r.ConnID] = true
	}
	assert.Len(t, seen, numConns, "every connection id reported exactly once")

	// Zero collisions: the server holds exactly N*M keys
	assert.Equal(t, numConns*numRecords, srv.Len())

	// Spot-check one per-connection value
	v, ok := srv.Get(keys.Key(keys.ConnPrefix("load", 2), 10))
	require.True(t, ok)
	assert.Equal(t, keys.ConnValue(2, 10), v)

	// Ranking is ops/sec descending
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].OpsPerSec(), results[i].OpsPerSec())
	}
}

// TestSummarize tests that the aggregation step reports totals over all
// connection results.
func TestSummarize(t *testing.T) {
	srv := startServer(t, wiretest.Options{})

	results := NewCoordinator(CoordinatorConfig{
		Client:         srv.ClientConfig(),
		Connections:    2,
		RecordsPerConn: 25,
		Prefix:         "load",
	}).Run()

	summary := Summarize(results)
	assert.Contains(t, summary, "CONNECTION RANKING")
	assert.Contains(t, summary, "50 ok / 0 failed")
}
