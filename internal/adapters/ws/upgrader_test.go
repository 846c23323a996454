package ws_test

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/dkeye/Chat/internal/adapters/ws"
	"github.com/dkeye/Chat/internal/core"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upgradeResult struct {
	conn core.FrameConn
	err  error
}

func upgradeAsync(up *ws.Upgrader, conn net.Conn) <-chan upgradeResult {
	done := make(chan upgradeResult, 1)
	go func() {
		fc, err := up.Upgrade(conn)
		done <- upgradeResult{conn: fc, err: err}
	}()
	return done
}

func dialPipe(t *testing.T, client net.Conn) *websocket.Conn {
	t.Helper()
	dialer := websocket.Dialer{
		NetDialContext: func(context.Context, string, string) (net.Conn, error) {
			return client, nil
		},
		HandshakeTimeout: 2 * time.Second,
	}
	cc, resp, err := dialer.Dial("ws://chat.test/room/Office", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { _ = cc.Close() })
	return cc
}

func TestUpgrader_FramesRoundTrip(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	up := ws.NewUpgrader(ws.Options{ReadLimit: 1024, WriteWait: time.Second})

	done := upgradeAsync(up, server)
	cc := dialPipe(t, client)
	res := <-done
	require.NoError(t, res.err)
	fc := res.conn
	defer fc.Close()

	// server -> client
	errc := make(chan error, 1)
	go func() { errc <- fc.WriteFrame(core.TextFrame(core.JoinPrompt)) }()
	mt, data, err := cc.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, <-errc)
	assert.Equal(t, websocket.TextMessage, mt)
	assert.Equal(t, core.JoinPrompt, string(data))

	// client -> server, text and binary
	go func() { errc <- cc.WriteMessage(websocket.TextMessage, []byte(`{"name":"alice"}`)) }()
	f, err := fc.ReadFrame()
	require.NoError(t, err)
	require.NoError(t, <-errc)
	assert.Equal(t, core.TextFrame(`{"name":"alice"}`), f)

	go func() { errc <- cc.WriteMessage(websocket.BinaryMessage, []byte{0xCA, 0xFE}) }()
	f, err = fc.ReadFrame()
	require.NoError(t, err)
	require.NoError(t, <-errc)
	assert.Equal(t, core.BinaryFrame([]byte{0xCA, 0xFE}), f)

	// close frame reaches the client as a going-away close.
	go func() { errc <- fc.WriteFrame(core.CloseFrame()) }()
	go func() { _, _ = fc.ReadFrame() }() // absorb the client's close reply
	_, _, err = cc.ReadMessage()
	require.NoError(t, <-errc)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}

func TestUpgrader_ClientCloseEndsReads(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	up := ws.NewUpgrader(ws.Options{})

	done := upgradeAsync(up, server)
	cc := dialPipe(t, client)
	res := <-done
	require.NoError(t, res.err)

	go func() { _ = cc.Close() }()
	_, err := res.conn.ReadFrame()
	assert.Error(t, err)
	assert.NoError(t, res.conn.Close())
	assert.NoError(t, res.conn.Close())
}

func TestUpgrader_RejectsPlainHTTP(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	up := ws.NewUpgrader(ws.Options{})

	done := make(chan error, 1)
	go func() {
		_, err := up.Upgrade(server)
		_ = server.Close()
		done <- err
	}()

	go func() {
		_, _ = client.Write([]byte("GET /room/Office HTTP/1.1\r\nHost: chat.test\r\n\r\n"))
	}()

	resp, err := http.ReadResponse(bufio.NewReader(client), nil)
	require.NoError(t, err)
	_, _ = io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("upgrade did not fail")
	}
}

func TestUpgrader_MalformedRequest(t *testing.T) {
	server, client := net.Pipe()
	up := ws.NewUpgrader(ws.Options{})

	done := make(chan error, 1)
	go func() {
		_, err := up.Upgrade(server)
		done <- err
	}()
	_, _ = client.Write([]byte("garbage\r\n\r\n"))
	_ = client.Close()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("upgrade did not fail")
	}
	_ = server.Close()
}
