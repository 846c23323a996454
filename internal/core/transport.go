package core

import "net"

// FrameConn is an upgraded, message-oriented connection.
// Owned by the session; the session must Close() it.
type FrameConn interface {
	// ReadFrame returns the next text or binary frame. A close from the
	// peer is reported as an error.
	ReadFrame() (Frame, error)
	WriteFrame(Frame) error
	Close() error
}

// Upgrader performs the protocol upgrade handshake on a raw connection whose
// request bytes have not been consumed yet.
type Upgrader interface {
	Upgrade(conn net.Conn) (FrameConn, error)
}
