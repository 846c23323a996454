// Package ws upgrades raw, already-routed TCP connections to websocket
// connections with gorilla/websocket.
package ws

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/dkeye/Chat/internal/core"
	"github.com/gorilla/websocket"
)

type Options struct {
	ReadLimit int64
	WriteWait time.Duration
}

// Upgrader implements core.Upgrader. The connection it receives has not had
// its HTTP request read yet, so it parses the request itself and hands gorilla
// a hijackable response writer over the raw socket.
type Upgrader struct {
	up   websocket.Upgrader
	opts Options
}

func NewUpgrader(opts Options) *Upgrader {
	if opts.WriteWait <= 0 {
		opts.WriteWait = 5 * time.Second
	}
	return &Upgrader{
		up: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		opts: opts,
	}
}

func (u *Upgrader) Upgrade(conn net.Conn) (core.FrameConn, error) {
	br := bufio.NewReader(conn)
	req, err := http.ReadRequest(br)
	if err != nil {
		return nil, fmt.Errorf("read upgrade request: %w", err)
	}
	rw := &rawResponseWriter{conn: conn, br: br, header: make(http.Header)}
	ws, err := u.up.Upgrade(rw, req, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket upgrade: %w", err)
	}
	if u.opts.ReadLimit > 0 {
		ws.SetReadLimit(u.opts.ReadLimit)
	}
	return &Conn{conn: ws, writeWait: u.opts.WriteWait}, nil
}

// rawResponseWriter is the minimal http.ResponseWriter + http.Hijacker gorilla
// needs: failures are written as a bare HTTP/1.1 response on the socket.
type rawResponseWriter struct {
	conn        net.Conn
	br          *bufio.Reader
	header      http.Header
	wroteHeader bool
	hijacked    bool
}

func (w *rawResponseWriter) Header() http.Header { return w.header }

func (w *rawResponseWriter) WriteHeader(code int) {
	if w.wroteHeader || w.hijacked {
		return
	}
	w.wroteHeader = true
	bw := bufio.NewWriter(w.conn)
	_, _ = fmt.Fprintf(bw, "HTTP/1.1 %s %s\r\n", strconv.Itoa(code), http.StatusText(code))
	_ = w.header.Write(bw)
	_, _ = bw.WriteString("Connection: close\r\n\r\n")
	_ = bw.Flush()
}

func (w *rawResponseWriter) Write(p []byte) (int, error) {
	if w.hijacked {
		return 0, http.ErrHijacked
	}
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.conn.Write(p)
}

func (w *rawResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if w.hijacked {
		return nil, nil, errors.New("connection already hijacked")
	}
	w.hijacked = true
	return w.conn, bufio.NewReadWriter(w.br, bufio.NewWriter(w.conn)), nil
}
