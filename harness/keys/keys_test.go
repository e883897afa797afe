package keys

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestKeyAndValueConstruction(t *testing.T) {
	assert.Equal(t, "test:0", Key("test", 0))
	assert.Equal(t, "load_conn3:17", Key(ConnPrefix("load", 3), 17))
	assert.Equal(t, "value_42", Value(42))
	assert.Equal(t, "conn2_value_7", ConnValue(2, 7))
}

// TestBatchValueSuffix tests that batch values embed a fresh random suffix
func TestBatchValueSuffix(t *testing.T) {
	a := BatchValue(1, 5)
	b := BatchValue(1, 5)
	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "value_1_5_")
}

// TestKeyspaceDisjointness tests that N connections with M records each
// produce exactly N*M distinct keys.
func TestKeyspaceDisjointness(t *testing.T) {
	const (
		numConns   = 8
		numRecords = 100
	)

	seen := make(map[string]struct{}, numConns*numRecords)
	for conn := 0; conn < numConns; conn++ {
		prefix := ConnPrefix("load", conn)
		for i := 0; i < numRecords; i++ {
			k := Key(prefix, i)
			_, dup := seen[k]
			require.False(t, dup, "key collision: %s", k)
			seen[k] = struct{}{}
		}
	}

	assert.Len(t, seen, numConns*numRecords)
}
