package service

import (
	"github.com/gorilla/websocket"
)

// wsObjectStream adapts a gorilla/websocket connection to
// jsonrpc2.ObjectStream, the same role jsonrpc2.NewBufferedStream plays
// for a plain io.ReadWriteCloser, so the websocket transport in
// cmd/dad-service can share this package's Handler with the stdio
// transport ("an optional websocket transport alongside the
// default stdio transport").
type wsObjectStream struct {
	conn *websocket.Conn
}

// NewWebSocketStream wraps a *websocket.Conn for use with
// jsonrpc2.NewConn.
func NewWebSocketStream(conn *websocket.Conn) *wsObjectStream {
	return &wsObjectStream{conn: conn}
}

func (s *wsObjectStream) WriteObject(obj any) error {
	return s.conn.WriteJSON(obj)
}

func (s *wsObjectStream) ReadObject(v any) error {
	return s.conn.ReadJSON(v)
}

func (s *wsObjectStream) Close() error {
	return s.conn.Close()
}
