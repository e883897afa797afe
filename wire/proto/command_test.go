package proto

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

// TestCommandEncode tests the wire form of every verb
func TestCommandEncode(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{"write joins key and value with pipe", Write("foo", "bar"), "write foo|bar\r"},
		{"read", Read("foo"), "read foo\r"},
		{"delete", Delete("foo"), "delete foo\r"},
		{"status has no trailing space", Status(), "status\r"},
		{"keys has no trailing space", Keys(), "keys\r"},
		{"reads", Reads("test:"), "reads test:\r"},
		{"multiple args are space joined", NewCommand(VerbRead, "a", "b"), "read a b\r"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(tt.cmd.Encode()))
		})
	}
}

// TestCommandString tests the log form (no terminator)
func TestCommandString(t *testing.T) {
	assert.Equal(t, "write foo|bar", Write("foo", "bar").String())
	assert.Equal(t, "status", Status().String())
}

func TestCommandVerb(t *testing.T) {
	assert.Equal(t, VerbWrite, Write("k", "v").Verb())
	assert.Equal(t, VerbReads, Reads("p").Verb())
}
