package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

// gorillaConn adapts a gorilla/websocket connection to the Connection
// interface so pumps and tests never touch the library type directly.
type gorillaConn struct {
	raw *websocket.Conn
}

func wrapGorillaConn(raw *websocket.Conn) Connection {
	return &gorillaConn{raw: raw}
}

func (g *gorillaConn) WriteMessage(messageType int, data []byte) error {
	return g.raw.WriteMessage(messageType, data)
}

func (g *gorillaConn) ReadMessage() (int, []byte, error) {
	return g.raw.ReadMessage()
}

func (g *gorillaConn) Close() error {
	return g.raw.Close()
}

func (g *gorillaConn) SetReadDeadline(t time.Time) error {
	return g.raw.SetReadDeadline(t)
}

func (g *gorillaConn) SetWriteDeadline(t time.Time) error {
	return g.raw.SetWriteDeadline(t)
}

func (g *gorillaConn) SetReadLimit(limit int64) {
	g.raw.SetReadLimit(limit)
}

func (g *gorillaConn) SetPongHandler(h func(string) error) {
	g.raw.SetPongHandler(h)
}

func (g *gorillaConn) SetPingHandler(h func(string) error) {
	g.raw.SetPingHandler(h)
}

func (g *gorillaConn) SetCloseHandler(h func(code int, text string) error) {
	g.raw.SetCloseHandler(h)
}

// RemoteAddr reports the peer address, or "" once the underlying socket is
// gone.
func (g *gorillaConn) RemoteAddr() string {
	addr := g.raw.RemoteAddr()
	if addr == nil {
		return ""
	}
	return addr.String()
}
