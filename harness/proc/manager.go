package proc

import (
	"bytes"
	"fmt"
	"github.com/lni/dragonboat/v4/logger"
	"os/exec"
	"strconv"
	"sync"
	"syscall"
	"time"
)

var Logger = logger.GetLogger("proc")

const (
	// terminateGrace is how long a SIGTERM may take before the kill is
	// escalated to SIGKILL.
	terminateGrace = 2 * time.Second

	// outputLimit caps how much stdout/stderr is buffered per process
	outputLimit = 64 * 1024
)

// --------------------------------------------------------------------------
// Output capture
// --------------------------------------------------------------------------

// cappedBuffer keeps the first outputLimit bytes of a stream. The output is
// diagnostic only, never parsed for protocol meaning, so truncation is
// acceptable.
type cappedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if room := outputLimit - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// --------------------------------------------------------------------------
// Manager
// --------------------------------------------------------------------------

// Manager spawns instances of the external server binary. The binary is
// invoked as "<binary> <port>" and prints no machine-readable readiness
// signal, so callers must wait a settle delay before connecting.
type Manager struct {
	binary string
}

// NewManager creates a manager for the given server binary path
func NewManager(binary string) *Manager {
	return &Manager{binary: binary}
}

// Spawn launches one server instance listening on the given port. Stdout
// and stderr are captured into bounded buffers; stdin is not forwarded.
func (m *Manager) Spawn(port int) (*Process, error) {
	p := &Process{
		stdout: &cappedBuffer{},
		stderr: &cappedBuffer{},
		done:   make(chan struct{}),
	}

	cmd := exec.Command(m.binary, strconv.Itoa(port))
	cmd.Stdout = p.stdout
	cmd.Stderr = p.stderr

	if err := cmd.Start(); err != nil {
		return nil, &ProcessError{Op: "spawn", Err: err}
	}
	p.cmd = cmd

	// Exit detection: one goroutine per process observes the exit and
	// closes the done channel, so termination can wait on it.
	go func() {
		p.waitErr = cmd.Wait()
		close(p.done)
	}()

	Logger.Infof("spawned %s %d (pid %d)", m.binary, port, cmd.Process.Pid)
	return p, nil
}

// --------------------------------------------------------------------------
// Process handle
// --------------------------------------------------------------------------

// Process is the handle of one spawned server instance, usable for
// signaling and exit detection. It is created by Spawn and considered
// destroyed once the exit has been observed.
type Process struct {
	cmd     *exec.Cmd
	stdout  *cappedBuffer
	stderr  *cappedBuffer
	done    chan struct{}
	waitErr error
}

// Terminate sends SIGTERM, waits up to the grace period for the process to
// exit and escalates to SIGKILL otherwise. It returns only once the exit
// has been observed.
func (p *Process) Terminate() error {
	select {
	case <-p.done:
		return nil // already exited
	default:
	}

	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		// The process may have exited between the check and the signal
		select {
		case <-p.done:
			return nil
		default:
			return &ProcessError{Op: "terminate", Err: err}
		}
	}

	select {
	case <-p.done:
	case <-time.After(terminateGrace):
		Logger.Warningf("process %d did not exit within %s, escalating to SIGKILL",
			p.cmd.Process.Pid, terminateGrace)
		if err := p.cmd.Process.Kill(); err != nil {
			// Kill fails only if the process is already gone
			Logger.Debugf("kill after escalation: %v", err)
		}
		<-p.done
	}

	Logger.Infof("process %d exited (code %d)", p.cmd.Process.Pid, p.ExitCode())
	return nil
}

// Done returns a channel that is closed once the process exit has been
// observed
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Alive reports whether the process exit has not been observed yet
func (p *Process) Alive() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// ExitCode returns the exit code, or -1 while the process is still running
// or when it was killed by a signal
func (p *Process) ExitCode() int {
	if p.cmd.ProcessState == nil {
		return -1
	}
	return p.cmd.ProcessState.ExitCode()
}

// Output returns the captured stdout and stderr for diagnostic reporting
func (p *Process) Output() string {
	out := p.stdout.String()
	if errOut := p.stderr.String(); errOut != "" {
		out = fmt.Sprintf("%s\n--- stderr ---\n%s", out, errOut)
	}
	return out
}
