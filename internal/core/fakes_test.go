package core_test

import (
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/Chat/internal/core"
	"github.com/stretchr/testify/require"
)

// fakeConn is an in-memory core.FrameConn; the test plays the client side.
type fakeConn struct {
	in     chan core.Frame
	out    chan core.Frame
	closed chan struct{}
	once   sync.Once
}

func newFakeConn(outBuf int) *fakeConn {
	return &fakeConn{
		in:     make(chan core.Frame, 16),
		out:    make(chan core.Frame, outBuf),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ReadFrame() (core.Frame, error) {
	select {
	case f := <-c.in:
		return f, nil
	case <-c.closed:
		return core.Frame{}, io.EOF
	}
}

func (c *fakeConn) WriteFrame(f core.Frame) error {
	select {
	case <-c.closed:
		return net.ErrClosed
	default:
	}
	select {
	case c.out <- f:
		return nil
	case <-c.closed:
		return net.ErrClosed
	}
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// send plays a client frame into the room.
func (c *fakeConn) send(f core.Frame) { c.in <- f }

// fakeUpgrader hands out queued fakeConns, or fails when the queue holds nil.
type fakeUpgrader struct {
	next chan *fakeConn
}

func newFakeUpgrader() *fakeUpgrader {
	return &fakeUpgrader{next: make(chan *fakeConn, 8)}
}

func (u *fakeUpgrader) Upgrade(net.Conn) (core.FrameConn, error) {
	fc := <-u.next
	if fc == nil {
		return nil, errors.New("bad upgrade")
	}
	return fc, nil
}

func recvFrame(t *testing.T, c *fakeConn) core.Frame {
	t.Helper()
	select {
	case f := <-c.out:
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		return core.Frame{}
	}
}

func requireNoFrame(t *testing.T, c *fakeConn) {
	t.Helper()
	select {
	case f := <-c.out:
		t.Fatalf("unexpected frame %s: %s", f.Kind, f.Data)
	case <-time.After(100 * time.Millisecond):
	}
}

func pipe(t *testing.T) net.Conn {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() {
		_ = server.Close()
		_ = client.Close()
	})
	return server
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func requireMember(t *testing.T, e *core.RoomEngine, name string) {
	t.Helper()
	require.Eventually(t, func() bool { return contains(e.MemberNames(), name) },
		2*time.Second, 5*time.Millisecond, "member %s never joined", name)
}
