package load

import (
	"errors"
	"fmt"
	"github.com/stretchr/testify/assert"
	"testing"
	"time"
)

func TestBatchResultErrorCap(t *testing.T) {
	r := &BatchResult{}
	for i := 0; i < 20; i++ {
		r.RecordError(fmt.Sprintf("op %d", i), errors.New("boom"))
	}
	assert.Len(t, r.Errors, maxRecordedErrors)
	assert.Contains(t, r.Errors[0], "op 0")
}

func TestBatchResultThroughput(t *testing.T) {
	r := &BatchResult{Writes: 500, Reads: 500, Elapsed: 2 * time.Second}
	assert.Equal(t, 1000, r.Ops())
	assert.InDelta(t, 500.0, r.OpsPerSec(), 0.01)

	// No elapsed time, no throughput
	assert.Equal(t, 0.0, (&BatchResult{Writes: 10}).OpsPerSec())
}

func TestBatchResultPassed(t *testing.T) {
	assert.True(t, (&BatchResult{Writes: 10, Reads: 10}).Passed())
	assert.False(t, (&BatchResult{Writes: 10, WriteErrors: 1}).Passed())
	assert.False(t, (&BatchResult{Reads: 10, ReadErrors: 1}).Passed())
	assert.False(t, (&BatchResult{Reads: 10, Mismatches: 1}).Passed())
}

func TestThroughputStats(t *testing.T) {
	stats := NewThroughputStats([]float64{100, 200, 300})
	assert.InDelta(t, 200.0, stats.Mean, 0.01)
	assert.Equal(t, 100.0, stats.Min)
	assert.Equal(t, 300.0, stats.Max)
	assert.InDelta(t, 1.0/3.0, stats.MinMaxRatio, 0.01)

	// Perfectly balanced connections score a fairness of 1.0
	balanced := NewThroughputStats([]float64{250, 250, 250, 250})
	assert.InDelta(t, 1.0, balanced.FairnessQuality(), 0.001)

	// Empty input must not divide by zero
	assert.Equal(t, ThroughputStats{}, NewThroughputStats(nil))
}
