package load

import (
	"github.com/ValentinKolb/kvprobe/harness/keys"
	"github.com/ValentinKolb/kvprobe/wire/client"
	"github.com/ValentinKolb/kvprobe/wire/wiretest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func startServer(t *testing.T, opts wiretest.Options) *wiretest.Server {
	t.Helper()
	srv, err := wiretest.New(opts)
	require.NoError(t, err)
	t.Cleanup(srv.Close)
	return srv
}

// TestGeneratorCleanRun tests a full write+verify batch against a healthy
// server: every counter clean and every key present afterwards.
func TestGeneratorCleanRun(t *testing.T) {
	srv := startServer(t, wiretest.Options{})
	c := client.New(srv.ClientConfig())
	defer c.Disconnect()

	const records = 200
	result := NewGenerator(c, GeneratorConfig{Records: records, Prefix: "load"}).Run()

	assert.Equal(t, records, result.Writes)
	assert.Equal(t, records, result.Reads)
	assert.Equal(t, 0, result.WriteErrors)
	assert.Equal(t, 0, result.ReadErrors)
	assert.Equal(t, 0, result.Mismatches)
	assert.True(t, result.Passed())
	assert.Positive(t, result.OpsPerSec())

	assert.Equal(t, records, srv.Len())
	v, ok := srv.Get(keys.Key("load", 42))
	require.True(t, ok)
	assert.Equal(t, keys.Value(42), v)
}

// TestGeneratorSurvivesConnectionDrops tests that a server dropping the
// connection periodically degrades the batch, never aborts it: failed
// reads recover through the one-shot reconnect retry, failed writes are
// counted per record.
func TestGeneratorSurvivesConnectionDrops(t *testing.T) {
	srv := startServer(t, wiretest.Options{CloseAfter: 50})
	c := client.New(srv.ClientConfig())
	defer c.Disconnect()

	const records = 200
	result := NewGenerator(c, GeneratorConfig{Records: records, Prefix: "load"}).Run()

	// Every record was attempted in both phases
	assert.Equal(t, records, result.Writes+result.WriteErrors)
	assert.Equal(t, records, result.Reads+result.ReadErrors+result.Mismatches)

	// The periodic drops produced some write failures; those keys are
	// missing and surface as read errors, not mismatches.
	assert.Positive(t, result.WriteErrors)
	assert.Equal(t, result.WriteErrors, result.ReadErrors)
	assert.Equal(t, 0, result.Mismatches)
}

// TestGeneratorCustomValues tests the connection-scoped value variant
func TestGeneratorCustomValues(t *testing.T) {
	srv := startServer(t, wiretest.Options{})
	c := client.New(srv.ClientConfig())
	defer c.Disconnect()

	result := NewGenerator(c, GeneratorConfig{
		Records: 50,
		Prefix:  keys.ConnPrefix("load", 3),
		ValueFn: func(i int) string { return keys.ConnValue(3, i) },
	}).Run()

	require.True(t, result.Passed())
	v, ok := srv.Get("load_conn3:7")
	require.True(t, ok)
	assert.Equal(t, "conn3_value_7", v)
}

// TestGeneratorRateCap tests that the limiter slows the batch down
func TestGeneratorRateCap(t *testing.T) {
	srv := startServer(t, wiretest.Options{})
	c := client.New(srv.ClientConfig())
	defer c.Disconnect()

	// 20 records at 100 ops/sec over two phases -> at least ~0.3s
	result := NewGenerator(c, GeneratorConfig{
		Records:    20,
		Prefix:     "load",
		RatePerSec: 100,
	}).Run()

	require.True(t, result.Passed())
	assert.LessOrEqual(t, result.OpsPerSec(), 150.0)
}
