package common

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

const (
	// DefaultPort is the port the server under test binds by default
	DefaultPort = 6969

	// DefaultTimeoutSecond is the per-command response timeout
	DefaultTimeoutSecond = 5
)

// --------------------------------------------------------------------------
// Protocol client configuration struct
// --------------------------------------------------------------------------

// ClientConfig holds all configuration parameters for a protocol client
// connection to the server under test.
type ClientConfig struct {
	// Server address
	Host string
	Port int

	// Per-command response timeout in seconds. A command whose response
	// terminator has not arrived within this budget fails with a timeout.
	TimeoutSecond int

	// TCPConf settings applied after connect
	TCPNoDelay      bool
	TCPKeepAliveSec int
}

// DefaultClientConfig returns the configuration used when no flags or
// environment variables override it.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Host:            "127.0.0.1",
		Port:            DefaultPort,
		TimeoutSecond:   DefaultTimeoutSecond,
		TCPNoDelay:      true,
		TCPKeepAliveSec: 30,
	}
}

// Endpoint returns the host:port dial address
func (c *ClientConfig) Endpoint() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// String returns a formatted string representation of the configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Client Configuration")
	addField("Endpoint", c.Endpoint())
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))

	addSection("TCP Options")
	addField("TCP_NODELAY", fmt.Sprintf("%t", c.TCPNoDelay))
	addField("Keep-Alive", fmt.Sprintf("%d sec", c.TCPKeepAliveSec))

	return sb.String()
}
