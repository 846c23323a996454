// Package tcp owns the chat listening socket and routes raw connections to
// rooms before any protocol handshake happens.
package tcp

import (
	"bufio"
	"bytes"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// PeekSize bounds how many request bytes are inspected for the routing key.
const PeekSize = 1024

var (
	notFoundResponse    = []byte("HTTP/1.1 404 NOT FOUND")
	unavailableResponse = []byte("HTTP/1.1 503 SERVICE UNAVAILABLE")
)

type DispatchResult int

const (
	Dispatched DispatchResult = iota
	NoSuchRoom
	RoomBusy
)

// Directory hands a connection to the room registered under exactly name.
type Directory interface {
	Dispatch(name string, conn net.Conn) DispatchResult
}

type Options struct {
	// RouteTimeout bounds how long a client may take to send its request line.
	RouteTimeout time.Duration
}

// Router accepts connections on one listener and dispatches them by the room
// name in their request line.
type Router struct {
	ln   net.Listener
	dir  Directory
	opts Options

	closeOnce sync.Once
	closed    chan struct{}
	logger    zerolog.Logger

	// Connections still being peeked; Close drops them.
	mu      sync.Mutex
	pending map[net.Conn]struct{}
	routing sync.WaitGroup
}

func Listen(addr string, dir Directory, opts Options) (*Router, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewRouter(ln, dir, opts), nil
}

func NewRouter(ln net.Listener, dir Directory, opts Options) *Router {
	return &Router{
		ln:     ln,
		dir:    dir,
		opts:   opts,
		closed:  make(chan struct{}),
		pending: make(map[net.Conn]struct{}),
		logger: log.With().Str("module", "adapters.tcp").Str("addr", ln.Addr().String()).Logger(),
	}
}

func (r *Router) Addr() net.Addr { return r.ln.Addr() }

// Serve runs the accept loop until the listener is closed. Each connection is
// peeked on its own goroutine, so a client that never sends its request line
// only holds itself up. Serve returns once in-flight routing has finished.
func (r *Router) Serve() error {
	r.logger.Info().Msg("router listening")
	defer r.routing.Wait()
	for {
		conn, err := r.ln.Accept()
		if err != nil {
			select {
			case <-r.closed:
				r.logger.Info().Msg("router stopped")
				return nil
			default:
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				r.logger.Warn().Err(err).Msg("accept timeout")
				continue
			}
			return err
		}
		if !r.track(conn) {
			_ = conn.Close()
			continue
		}
		r.routing.Add(1)
		go func() {
			defer r.routing.Done()
			r.route(conn)
		}()
	}
}

func (r *Router) track(conn net.Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending == nil {
		return false
	}
	r.pending[conn] = struct{}{}
	return true
}

// untrack reports false when Close already took the connection.
func (r *Router) untrack(conn net.Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pending[conn]; !ok {
		return false
	}
	delete(r.pending, conn)
	return true
}

func (r *Router) Close() error {
	var err error
	r.closeOnce.Do(func() {
		close(r.closed)
		err = r.ln.Close()

		r.mu.Lock()
		for conn := range r.pending {
			_ = conn.Close()
		}
		r.pending = nil
		r.mu.Unlock()
	})
	return err
}

func (r *Router) route(conn net.Conn) {
	logger := r.logger.With().Str("remote", conn.RemoteAddr().String()).Logger()

	if r.opts.RouteTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(r.opts.RouteTimeout))
	}
	pc := newPeekedConn(conn)
	prefix, err := pc.peekRequestLine()
	_ = conn.SetReadDeadline(time.Time{})
	if !r.untrack(conn) {
		logger.Debug().Msg("router closed while peeking")
		return
	}

	name, ok := ExtractRoutingKey(prefix)
	if !ok {
		logger.Debug().Err(err).Int("peeked", len(prefix)).Msg("not a room request")
		_ = conn.Close()
		return
	}

	switch r.dir.Dispatch(name, pc) {
	case Dispatched:
		logger.Debug().Str("room", name).Msg("connection routed")
	case NoSuchRoom:
		logger.Debug().Str("room", name).Msg("no such room")
		_, _ = conn.Write(notFoundResponse)
		_ = conn.Close()
	case RoomBusy:
		logger.Warn().Str("room", name).Msg("room backlog full")
		_, _ = conn.Write(unavailableResponse)
		_ = conn.Close()
	}
}

// peekedConn lets the router inspect the request without consuming it: reads
// are served from the peek buffer first.
type peekedConn struct {
	net.Conn
	br *bufio.Reader
}

func newPeekedConn(conn net.Conn) *peekedConn {
	return &peekedConn{Conn: conn, br: bufio.NewReaderSize(conn, PeekSize)}
}

func (c *peekedConn) Read(p []byte) (int, error) { return c.br.Read(p) }

// peekRequestLine peeks until a full line or PeekSize bytes are buffered.
func (c *peekedConn) peekRequestLine() ([]byte, error) {
	n := 1
	for {
		buf, err := c.br.Peek(n)
		if err != nil {
			return buf, err
		}
		if bytes.IndexByte(buf, '\n') >= 0 || n >= PeekSize {
			return buf, nil
		}
		if b := c.br.Buffered(); b > n {
			n = b
		} else {
			n++
		}
		n = min(n, PeekSize)
	}
}
