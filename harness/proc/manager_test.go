package proc

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeScript materializes a shell script standing in for the server binary
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

// TestSpawnCapturesOutput tests that the port is passed as argv[1] and that
// stdout is buffered, never forwarded.
func TestSpawnCapturesOutput(t *testing.T) {
	bin := writeScript(t, `echo "listening on $1"; exec sleep 30`)

	p, err := NewManager(bin).Spawn(6969)
	require.NoError(t, err)
	defer p.Terminate()

	require.Eventually(t, func() bool {
		return p.Output() != ""
	}, 3*time.Second, 20*time.Millisecond)

	assert.Contains(t, p.Output(), "listening on 6969")
	assert.True(t, p.Alive())
}

// TestGracefulTerminate tests that SIGTERM alone stops a cooperative
// process well within the grace window.
func TestGracefulTerminate(t *testing.T) {
	bin := writeScript(t, `exec sleep 30`)

	p, err := NewManager(bin).Spawn(6969)
	require.NoError(t, err)

	start := time.Now()
	require.NoError(t, p.Terminate())

	assert.False(t, p.Alive())
	assert.Less(t, time.Since(start), terminateGrace)
}

// TestTerminateEscalatesToKill tests the SIGKILL escalation against a
// process that ignores SIGTERM. Terminate must still only return once the
// exit has been observed.
func TestTerminateEscalatesToKill(t *testing.T) {
	bin := writeScript(t, `trap '' TERM
while true; do sleep 1; done`)

	p, err := NewManager(bin).Spawn(6969)
	require.NoError(t, err)

	start := time.Now()
	require.NoError(t, p.Terminate())

	assert.False(t, p.Alive())
	assert.GreaterOrEqual(t, time.Since(start), terminateGrace)
	assert.Equal(t, -1, p.ExitCode()) // killed by signal
}

// TestTerminateAfterExit tests that terminating an already-exited process
// is a no-op and the exit code is captured.
func TestTerminateAfterExit(t *testing.T) {
	bin := writeScript(t, `exit 3`)

	p, err := NewManager(bin).Spawn(6969)
	require.NoError(t, err)

	select {
	case <-p.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("process did not exit")
	}

	require.NoError(t, p.Terminate())
	assert.Equal(t, 3, p.ExitCode())
}

// TestSpawnFailure tests that a missing binary yields a *ProcessError
func TestSpawnFailure(t *testing.T) {
	_, err := NewManager("/nonexistent/kvserver").Spawn(6969)

	var procErr *ProcessError
	require.ErrorAs(t, err, &procErr)
	assert.Equal(t, "spawn", procErr.Op)
}
