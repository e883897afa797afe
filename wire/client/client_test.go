package client

import (
	"errors"
	"github.com/ValentinKolb/kvprobe/wire/proto"
	"github.com/ValentinKolb/kvprobe/wire/wiretest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

// startServer starts a fixture server and registers its teardown
func startServer(t *testing.T, opts wiretest.Options) *wiretest.Server {
	t.Helper()
	srv, err := wiretest.New(opts)
	require.NoError(t, err)
	t.Cleanup(srv.Close)
	return srv
}

// TestRoundTrip tests write-then-read over a real socket, including the
// lazy connect on first command.
func TestRoundTrip(t *testing.T) {
	srv := startServer(t, wiretest.Options{})
	c := New(srv.ClientConfig())
	defer c.Disconnect()

	// First command connects lazily
	assert.Equal(t, Disconnected, c.State())

	resp, err := c.Write("test:1", "value_1")
	require.NoError(t, err)
	assert.False(t, proto.IsError(resp))
	assert.Equal(t, Connected, c.State())

	got, err := c.Read("test:1")
	require.NoError(t, err)
	assert.Equal(t, "value_1", got)
}

// TestResponseSpansMultipleReads tests that framing works when the server
// dribbles the response one byte at a time.
func TestResponseSpansMultipleReads(t *testing.T) {
	srv := startServer(t, wiretest.Options{ChunkedWrites: true})
	c := New(srv.ClientConfig())
	defer c.Disconnect()

	_, err := c.Write("test:1", "value_1")
	require.NoError(t, err)

	got, err := c.Read("test:1")
	require.NoError(t, err)
	assert.Equal(t, "value_1", got)
}

// TestErrorSentinelPassthrough tests that the sentinel is a normal return
// value, never an error.
func TestErrorSentinelPassthrough(t *testing.T) {
	srv := startServer(t, wiretest.Options{})
	c := New(srv.ClientConfig())
	defer c.Disconnect()

	// Missing key
	resp, err := c.Read("missing")
	require.NoError(t, err)
	assert.True(t, proto.IsError(resp))

	// Deleting a missing key is answered, not crashed on
	resp, err = c.Delete("missing")
	require.NoError(t, err)
	assert.True(t, proto.IsError(resp))

	// Deleting an already-deleted key stays idempotent
	_, err = c.Write("test:1", "value_1")
	require.NoError(t, err)
	resp, err = c.Delete("test:1")
	require.NoError(t, err)
	assert.False(t, proto.IsError(resp))
	resp, err = c.Delete("test:1")
	require.NoError(t, err)
	assert.True(t, proto.IsError(resp))
}

// TestCommandTimeout tests that a mute server yields a *TimeoutError and
// that the connection remains usable afterwards.
func TestCommandTimeout(t *testing.T) {
	srv := startServer(t, wiretest.Options{MuteVerbs: []proto.Verb{proto.VerbRead}})

	cfg := srv.ClientConfig()
	cfg.TimeoutSecond = 1
	c := New(cfg)
	defer c.Disconnect()

	_, err := c.Read("test:1")
	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)

	// The timeout cancelled only that command's wait: the same socket
	// still answers other verbs.
	resp, err := c.Status()
	require.NoError(t, err)
	assert.False(t, proto.IsError(resp))
	assert.Equal(t, Connected, c.State())
}

// TestReconnectAfterDrop tests the transparent reconnect after the server
// drops the connection.
func TestReconnectAfterDrop(t *testing.T) {
	srv := startServer(t, wiretest.Options{CloseAfter: 1})
	c := New(srv.ClientConfig())
	defer c.Disconnect()

	_, err := c.Write("test:1", "value_1")
	require.NoError(t, err)

	// The server closed the socket after the first answer; wait until the
	// reader has observed the EOF.
	require.Eventually(t, func() bool {
		return c.State() == Disconnected
	}, 2*time.Second, 10*time.Millisecond)

	// The next command reconnects transparently
	got, err := c.Read("test:1")
	require.NoError(t, err)
	assert.Equal(t, "value_1", got)
	assert.Equal(t, Connected, c.State())
}

// TestConnectFailure tests that dialing a dead endpoint yields a
// *ConnectionError.
func TestConnectFailure(t *testing.T) {
	srv, err := wiretest.New(wiretest.Options{})
	require.NoError(t, err)
	cfg := srv.ClientConfig()
	srv.Close() // port is now dead

	c := New(cfg)
	err = c.Connect()
	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, Disconnected, c.State())

	// Commands surface the same failure via the lazy reconnect
	_, err = c.Read("test:1")
	require.True(t, errors.As(err, &connErr))
}

// TestDisconnectIdempotent tests that Disconnect can be called repeatedly
// in any state.
func TestDisconnectIdempotent(t *testing.T) {
	srv := startServer(t, wiretest.Options{})
	c := New(srv.ClientConfig())

	c.Disconnect() // never connected
	require.NoError(t, c.Connect())
	c.Disconnect()
	c.Disconnect()
	assert.Equal(t, Disconnected, c.State())
}

// TestCommandsAreSerialized tests that concurrent callers never interleave
// commands on the wire (one outstanding command per connection).
func TestCommandsAreSerialized(t *testing.T) {
	srv := startServer(t, wiretest.Options{})
	c := New(srv.ClientConfig())
	defer c.Disconnect()

	done := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func(i int) {
			_, err := c.Write("test:1", "value_1")
			done <- err
		}(i)
	}
	for i := 0; i < 10; i++ {
		require.NoError(t, <-done)
	}

	got, err := c.Read("test:1")
	require.NoError(t, err)
	assert.Equal(t, "value_1", got)
}
