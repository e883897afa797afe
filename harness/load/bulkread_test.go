package load

import (
	"github.com/ValentinKolb/kvprobe/wire/client"
	"github.com/ValentinKolb/kvprobe/wire/wiretest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

// TestCompareBulkRead tests the reads-vs-N-reads comparison over freshly
// written data.
func TestCompareBulkRead(t *testing.T) {
	srv := startServer(t, wiretest.Options{})
	c := client.New(srv.ClientConfig())
	defer c.Disconnect()

	const records = 50
	result, err := CompareBulkRead(c, "bulk", records, 1)
	require.NoError(t, err)

	assert.True(t, result.Supported)
	assert.Equal(t, records, result.BulkValues)
	assert.Equal(t, records, result.SingleReads)
	assert.Equal(t, 0, result.SingleErrors)
	assert.Positive(t, result.BulkElapsed)
	assert.Positive(t, result.SingleElapsed)
}

// TestCompareBulkReadUnsupported tests that a server answering "reads"
// with the sentinel degrades the comparison to skipped, not failed.
func TestCompareBulkReadUnsupported(t *testing.T) {
	srv := startServer(t, wiretest.Options{DisableReads: true})
	c := client.New(srv.ClientConfig())
	defer c.Disconnect()

	result, err := CompareBulkRead(c, "bulk", 10, 1)
	require.NoError(t, err)

	assert.False(t, result.Supported)
	assert.Contains(t, result.String(), "skipped")
}
