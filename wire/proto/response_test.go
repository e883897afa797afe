package proto

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestTrimResponse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"terminator stripped", "value_1\r", "value_1"},
		{"surrounding whitespace stripped", "  value_1 \r", "value_1"},
		{"no terminator", "value_1", "value_1"},
		{"empty", "\r", ""},
		{"inner newlines survive", "a\nb\r", "a\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TrimResponse(tt.raw))
		})
	}
}

func TestIsError(t *testing.T) {
	assert.True(t, IsError("error"))
	assert.False(t, IsError("Error"))
	assert.False(t, IsError(""))
	assert.False(t, IsError("value"))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SplitList("a\nb\nc"))
	assert.Equal(t, []string{"a"}, SplitList("a\n"))
	assert.Nil(t, SplitList(""))
}
