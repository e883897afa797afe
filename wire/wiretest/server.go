package wiretest

import (
	"bufio"
	"fmt"
	"github.com/ValentinKolb/kvprobe/wire/common"
	"github.com/ValentinKolb/kvprobe/wire/proto"
	"net"
	"sort"
	"strings"
	"sync"
	"time"
)

// --------------------------------------------------------------------------
// Options
// --------------------------------------------------------------------------

// Options tune the fixture's misbehavior for fault-injection tests
type Options struct {
	// ResponseDelay is applied before every response is written
	ResponseDelay time.Duration

	// ChunkedWrites dribbles each response onto the socket one byte at a
	// time, forcing the client to accumulate across multiple reads.
	ChunkedWrites bool

	// DisableKeys / DisableReads make the respective verbs answer with the
	// error sentinel, emulating a server without bulk support.
	DisableKeys  bool
	DisableReads bool

	// MuteVerbs lists verbs that never receive a response at all
	MuteVerbs []proto.Verb

	// CloseAfter closes each connection after this many commands have been
	// answered on it (0 = never).
	CloseAfter int
}

// --------------------------------------------------------------------------
// Server
// --------------------------------------------------------------------------

// Server is the in-process protocol fixture. It stores key/value pairs in a
// plain map and answers every command the wire protocol defines.
type Server struct {
	ln   net.Listener
	opts Options

	mu    sync.Mutex
	store map[string]string

	wg     sync.WaitGroup
	closed chan struct{}
}

// New starts a fixture server on an ephemeral localhost port
func New(opts Options) (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}

	s := &Server{
		ln:     ln,
		opts:   opts,
		store:  make(map[string]string),
		closed: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.acceptLoop()

	return s, nil
}

// Port returns the ephemeral port the fixture listens on
func (s *Server) Port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

// ClientConfig returns a client configuration pointing at the fixture
func (s *Server) ClientConfig() common.ClientConfig {
	cfg := common.DefaultClientConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = s.Port()
	return cfg
}

// Close stops the listener and waits for all connection handlers to exit
func (s *Server) Close() {
	close(s.closed)
	s.ln.Close()
	s.wg.Wait()
}

// Get returns the stored value for a key (for test assertions)
func (s *Server) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.store[key]
	return v, ok
}

// Len returns the number of stored keys (for test assertions)
func (s *Server) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.store)
}

// --------------------------------------------------------------------------
// Connection handling
// --------------------------------------------------------------------------

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return // listener closed
		}
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	reader := bufio.NewReader(conn)
	answered := 0

	for {
		line, err := reader.ReadString(proto.Terminator)
		if err != nil {
			return
		}

		verb, rest := splitCommand(proto.TrimResponse(line))
		if s.isMuted(verb) {
			continue // swallow the command, client times out
		}

		resp := s.execute(verb, rest)

		if s.opts.ResponseDelay > 0 {
			select {
			case <-time.After(s.opts.ResponseDelay):
			case <-s.closed:
				return
			}
		}

		if err := s.writeResponse(conn, resp); err != nil {
			return
		}

		answered++
		if s.opts.CloseAfter > 0 && answered >= s.opts.CloseAfter {
			return
		}
	}
}

// execute applies one command to the store and returns the logical response
func (s *Server) execute(verb proto.Verb, rest string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch verb {
	case proto.VerbWrite:
		key, value, ok := strings.Cut(rest, "|")
		if !ok {
			return proto.ErrorSentinel
		}
		s.store[strings.TrimSpace(key)] = strings.TrimSpace(value)
		return "Success"

	case proto.VerbRead:
		if v, ok := s.store[rest]; ok {
			return v
		}
		return proto.ErrorSentinel

	case proto.VerbDelete:
		if _, ok := s.store[rest]; !ok {
			return proto.ErrorSentinel
		}
		delete(s.store, rest)
		return "Deleted"

	case proto.VerbStatus:
		return fmt.Sprintf("ok keys=%d", len(s.store))

	case proto.VerbKeys:
		if s.opts.DisableKeys {
			return proto.ErrorSentinel
		}
		keys := make([]string, 0, len(s.store))
		for k := range s.store {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return strings.Join(keys, "\n")

	case proto.VerbReads:
		if s.opts.DisableReads {
			return proto.ErrorSentinel
		}
		keys := make([]string, 0, len(s.store))
		for k := range s.store {
			if strings.HasPrefix(k, rest) {
				keys = append(keys, k)
			}
		}
		if len(keys) == 0 {
			return proto.ErrorSentinel
		}
		sort.Strings(keys)
		values := make([]string, len(keys))
		for i, k := range keys {
			values[i] = s.store[k]
		}
		return strings.Join(values, "\n")

	default:
		return proto.ErrorSentinel
	}
}

// writeResponse frames and writes one response, optionally byte-by-byte
func (s *Server) writeResponse(conn net.Conn, resp string) error {
	framed := append([]byte(resp), proto.Terminator)

	if !s.opts.ChunkedWrites {
		_, err := conn.Write(framed)
		return err
	}

	for _, b := range framed {
		if _, err := conn.Write([]byte{b}); err != nil {
			return err
		}
		time.Sleep(time.Millisecond)
	}
	return nil
}

func (s *Server) isMuted(verb proto.Verb) bool {
	for _, v := range s.opts.MuteVerbs {
		if v == verb {
			return true
		}
	}
	return false
}

// splitCommand separates the verb token from the argument remainder
func splitCommand(line string) (proto.Verb, string) {
	verb, rest, _ := strings.Cut(line, " ")
	return proto.Verb(strings.TrimSpace(verb)), strings.TrimSpace(rest)
}
