package ws

import (
	"fmt"
	"sync"
	"time"

	"github.com/dkeye/Chat/internal/core"
	"github.com/gorilla/websocket"
)

// Conn adapts *websocket.Conn to core.FrameConn. One reader and one writer may
// use it concurrently.
type Conn struct {
	conn      *websocket.Conn
	writeWait time.Duration

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func (c *Conn) ReadFrame() (core.Frame, error) {
	mt, data, err := c.conn.ReadMessage()
	if err != nil {
		return core.Frame{}, err
	}
	switch mt {
	case websocket.TextMessage:
		return core.Frame{Kind: core.FrameText, Data: data}, nil
	case websocket.BinaryMessage:
		return core.Frame{Kind: core.FrameBinary, Data: data}, nil
	default:
		return core.Frame{}, fmt.Errorf("unexpected message type %d", mt)
	}
}

func (c *Conn) WriteFrame(f core.Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeWait)); err != nil {
		return err
	}
	switch f.Kind {
	case core.FrameText:
		return c.conn.WriteMessage(websocket.TextMessage, f.Data)
	case core.FrameBinary:
		return c.conn.WriteMessage(websocket.BinaryMessage, f.Data)
	case core.FrameClose:
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "room closed")
		return c.conn.WriteMessage(websocket.CloseMessage, msg)
	default:
		return fmt.Errorf("cannot write frame of kind %s", f.Kind)
	}
}

func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
