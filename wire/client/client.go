package client

import (
	"bufio"
	"fmt"
	"github.com/ValentinKolb/kvprobe/wire/common"
	"github.com/ValentinKolb/kvprobe/wire/proto"
	"github.com/lni/dragonboat/v4/logger"
	"net"
	"sync"
	"time"
)

var Logger = logger.GetLogger("client")

// connectTimeout bounds the TCP dial itself, independent of the
// per-command response timeout.
const connectTimeout = 5 * time.Second

// --------------------------------------------------------------------------
// Connection state
// --------------------------------------------------------------------------

// ConnectionState describes the lifecycle of the client's single socket
type ConnectionState int32

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
)

func (s ConnectionState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

// response contains the result of one command
type response struct {
	data string
	err  error
}

// Client is the protocol client. It owns exactly one TCP socket and allows
// exactly one in-flight command at a time: Do holds the request lock for
// the full send+receive cycle, so callers may share a Client across
// goroutines but their commands are strictly serialized.
//
// A Client connects lazily: the first command (or an explicit Connect)
// opens the socket, and any command issued while disconnected attempts one
// reconnect before sending.
type Client struct {
	config common.ClientConfig

	reqMu sync.Mutex // request lock: one outstanding command per connection

	connMu sync.Mutex // guards conn, state and waiter registration
	conn   net.Conn
	state  ConnectionState
	waiter chan response // non-nil while a command awaits its response
}

// New creates a client for the given configuration. No connection is opened
// until Connect or the first command.
func New(config common.ClientConfig) *Client {
	if config.TimeoutSecond <= 0 {
		config.TimeoutSecond = common.DefaultTimeoutSecond
	}
	return &Client{config: config, state: Disconnected}
}

// --------------------------------------------------------------------------
// Connection management
// --------------------------------------------------------------------------

// Connect opens the TCP socket eagerly. It is a no-op when already
// connected and fails with a *ConnectionError when no connection completes
// within the dial timeout or the socket upgrade fails.
func (c *Client) Connect() error {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	return c.connectLocked()
}

// connectLocked dials and upgrades the socket. Caller must hold connMu.
func (c *Client) connectLocked() error {
	if c.state == Connected {
		return nil
	}

	c.state = Connecting
	endpoint := c.config.Endpoint()

	conn, err := net.DialTimeout("tcp", endpoint, connectTimeout)
	if err != nil {
		c.state = Disconnected
		return &ConnectionError{Endpoint: endpoint, Err: err}
	}

	// Apply the TCP socket options before first use
	if err := upgradeConnection(conn, c.config); err != nil {
		conn.Close()
		c.state = Disconnected
		return &ConnectionError{Endpoint: endpoint, Err: err}
	}

	c.conn = conn
	c.state = Connected

	// Start the response reader for this socket
	go c.readResponses(conn)

	Logger.Infof("connected to %s", endpoint)
	return nil
}

// Disconnect destroys the socket if present and resets the state. It is
// idempotent and safe to call at any time.
func (c *Client) Disconnect() {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.waiter = nil
	c.state = Disconnected
}

// State returns the current connection state
func (c *Client) State() ConnectionState {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	return c.state
}

// upgradeConnection applies the configured TCP options to a fresh socket
func upgradeConnection(conn net.Conn, config common.ClientConfig) error {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return nil // Not a TCP connection, nothing to upgrade
	}

	// Disable Nagle's algorithm (TCP_NODELAY) if configured
	if err := tcpConn.SetNoDelay(config.TCPNoDelay); err != nil {
		return err
	}

	// Enable TCP keep-alive if configured
	if config.TCPKeepAliveSec > 0 {
		if err := tcpConn.SetKeepAlive(true); err != nil {
			return err
		}
		if err := tcpConn.SetKeepAlivePeriod(time.Duration(config.TCPKeepAliveSec) * time.Second); err != nil {
			return err
		}
	}

	return nil
}

// --------------------------------------------------------------------------
// Command execution
// --------------------------------------------------------------------------

// Do sends one command and waits for its response. If the client is
// disconnected, one reconnect is attempted transparently before sending.
//
// Failure modes: *ConnectionError if the reconnect fails, *WriteError if
// the socket write fails (the socket is destroyed), *TimeoutError if no
// response terminator arrives within the configured budget (only the
// waiting command is cancelled; a late response is dropped by the reader).
// The "error" sentinel is a normal response value and is returned verbatim.
func (c *Client) Do(cmd proto.Command) (string, error) {
	c.reqMu.Lock()
	defer c.reqMu.Unlock()

	// Lazy reconnect, then register this command's response slot. Both
	// under connMu so a concurrent Disconnect cannot interleave.
	c.connMu.Lock()
	if c.state != Connected {
		if err := c.connectLocked(); err != nil {
			c.connMu.Unlock()
			return "", err
		}
	}
	conn := c.conn
	ch := make(chan response, 1)
	c.waiter = ch
	c.connMu.Unlock()

	if _, err := conn.Write(cmd.Encode()); err != nil {
		// Deregister the waiter and destroy the socket so no partial
		// state leaks into the next command.
		c.connMu.Lock()
		c.waiter = nil
		if c.conn == conn {
			conn.Close()
			c.conn = nil
			c.state = Disconnected
		}
		c.connMu.Unlock()
		return "", &WriteError{Command: cmd.String(), Err: err}
	}

	timeout := time.Duration(c.config.TimeoutSecond) * time.Second
	select {
	case r := <-ch:
		return r.data, r.err
	case <-time.After(timeout):
		// Detach the waiter so the eventual late response cannot be
		// delivered to the next command. The socket stays open.
		c.connMu.Lock()
		if c.waiter == ch {
			c.waiter = nil
		}
		c.connMu.Unlock()
		return "", &TimeoutError{Command: cmd.String(), Timeout: timeout}
	}
}

// readResponses accumulates bytes from one socket until a terminator is
// seen and delivers each completed line to the registered waiter. There is
// one reader goroutine per live socket; it exits when the socket dies.
//
// The protocol has no length prefix, so a single response may span many
// socket reads. bufio does the accumulation.
func (c *Client) readResponses(conn net.Conn) {
	reader := bufio.NewReader(conn)

	for {
		// Partial data before an error is discarded, never delivered.
		line, err := reader.ReadString(proto.Terminator)
		if err != nil {
			// Socket is gone. Fail the waiter (if any) and tear down,
			// but only if this goroutine's socket is still the current
			// one - Disconnect may already have replaced it.
			c.connMu.Lock()
			var w chan response
			if c.conn == conn {
				w = c.waiter
				c.waiter = nil
				c.conn.Close()
				c.conn = nil
				c.state = Disconnected
			}
			c.connMu.Unlock()

			if w != nil {
				w <- response{err: fmt.Errorf("connection lost while awaiting response: %v", err)}
			}
			return
		}

		resp := proto.TrimResponse(line)

		c.connMu.Lock()
		var w chan response
		if c.conn == conn {
			w = c.waiter
			c.waiter = nil
		}
		c.connMu.Unlock()

		if w == nil {
			// No registered waiter (command timed out or socket was
			// replaced): drop the line instead of leaking it forward.
			Logger.Debugf("dropping unsolicited response %q", resp)
			continue
		}
		w <- response{data: resp}
	}
}

// --------------------------------------------------------------------------
// Typed command wrappers
// --------------------------------------------------------------------------

// The wrappers below are pure serialization conveniences over Do. They
// perform no validation: the "error" sentinel is passed through verbatim
// and callers must check for it explicitly (proto.IsError).

// Write stores a value under a key
func (c *Client) Write(key, value string) (string, error) {
	return c.Do(proto.Write(key, value))
}

// Read returns the value stored under a key
func (c *Client) Read(key string) (string, error) {
	return c.Do(proto.Read(key))
}

// Delete removes a key
func (c *Client) Delete(key string) (string, error) {
	return c.Do(proto.Delete(key))
}

// Status returns the server status string
func (c *Client) Status() (string, error) {
	return c.Do(proto.Status())
}

// Keys returns the server's key listing (newline separated)
func (c *Client) Keys() (string, error) {
	return c.Do(proto.Keys())
}

// Reads returns all values whose keys share the given prefix (newline
// separated)
func (c *Client) Reads(prefix string) (string, error) {
	return c.Do(proto.Reads(prefix))
}
