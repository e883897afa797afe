package proto

import (
	"fmt"
	"strings"
)

// Terminator frames every request and every response on the wire. The
// protocol has no length prefix, so the terminator is the only framing.
const Terminator = '\r'

// Verb is the operation name of a protocol command
type Verb string

const (
	VerbWrite  Verb = "write"
	VerbRead   Verb = "read"
	VerbDelete Verb = "delete"
	VerbStatus Verb = "status"
	VerbKeys   Verb = "keys"
	VerbReads  Verb = "reads"
)

// --------------------------------------------------------------------------
// Command
// --------------------------------------------------------------------------

// Command is an immutable protocol request: a verb and zero or more string
// arguments. Commands are created via the factory functions below and
// serialized with Encode.
type Command struct {
	verb Verb
	args []string
}

// NewCommand creates a command with an arbitrary verb and arguments.
// The typed factories below should be preferred for the known verbs.
func NewCommand(verb Verb, args ...string) Command {
	return Command{verb: verb, args: args}
}

// Write creates a write command. Key and value are joined with '|' on the
// wire, the only verb that carries two logical arguments in one token.
func Write(key, value string) Command {
	return Command{verb: VerbWrite, args: []string{key + "|" + value}}
}

// Read creates a read command for a single key
func Read(key string) Command {
	return Command{verb: VerbRead, args: []string{key}}
}

// Delete creates a delete command for a single key
func Delete(key string) Command {
	return Command{verb: VerbDelete, args: []string{key}}
}

// Status creates an argument-less status command
func Status() Command {
	return Command{verb: VerbStatus}
}

// Keys creates an argument-less keys command
func Keys() Command {
	return Command{verb: VerbKeys}
}

// Reads creates a bulk-read command for all keys sharing the given prefix
func Reads(prefix string) Command {
	return Command{verb: VerbReads, args: []string{prefix}}
}

// Verb returns the command's verb
func (c Command) Verb() Verb {
	return c.verb
}

// Encode serializes the command to its wire form:
// "<verb> <args-joined-by-space><Terminator>". Verbs without arguments
// encode without a trailing space ("status\r").
func (c Command) Encode() []byte {
	if len(c.args) == 0 {
		return []byte(string(c.verb) + string(Terminator))
	}
	return []byte(string(c.verb) + " " + strings.Join(c.args, " ") + string(Terminator))
}

// String returns a human-readable form for logging (no terminator)
func (c Command) String() string {
	if len(c.args) == 0 {
		return string(c.verb)
	}
	return fmt.Sprintf("%s %s", c.verb, strings.Join(c.args, " "))
}
