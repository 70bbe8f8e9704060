package net

import (
	"context"
	"io"
	gonet "net"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

const (
	TransportTCP       = "tcp"
	TransportWebSocket = "ws"
)

// DialTimeout bounds connection setup for both transports.
var DialTimeout = 10 * time.Second

// Dial opens a transport connection. For TransportTCP addr is host:port; for
// TransportWebSocket it is a ws:// or wss:// URL.
func Dial(ctx context.Context, transport, addr string) (gonet.Conn, error) {
	switch transport {
	case TransportTCP:
		d := &gonet.Dialer{Timeout: DialTimeout}
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, errors.Wrapf(ErrTransport, "dialing %s: %v", addr, err)
		}
		return conn, nil
	case TransportWebSocket:
		d := *websocket.DefaultDialer
		d.HandshakeTimeout = DialTimeout
		ws, _, err := d.DialContext(ctx, addr, nil)
		if err != nil {
			return nil, errors.Wrapf(ErrTransport, "dialing %s: %v", addr, err)
		}
		return NewWebSocketConn(ws), nil
	default:
		return nil, errors.Errorf("unknown transport %q", transport)
	}
}

// wsConn adapts a websocket connection carrying binary messages to a
// byte stream, so the socket and its TLS session can run over it.
type wsConn struct {
	ws *websocket.Conn
	r  io.Reader
}

// NewWebSocketConn wraps ws as a net.Conn. Text messages are ignored.
func NewWebSocketConn(ws *websocket.Conn) gonet.Conn {
	return &wsConn{ws: ws}
}

func (c *wsConn) Read(b []byte) (int, error) {
	for {
		if c.r == nil {
			typ, r, err := c.ws.NextReader()
			if err != nil {
				return 0, err
			}
			if typ != websocket.BinaryMessage {
				glog.V(2).Infof("ignoring websocket message of type %d", typ)
				continue
			}
			c.r = r
		}
		n, err := c.r.Read(b)
		if err == io.EOF {
			c.r = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (c *wsConn) Write(b []byte) (int, error) {
	if err := c.ws.WriteMessage(websocket.BinaryMessage, b); err != nil {
		return 0, err
	}
	return len(b), nil
}

func (c *wsConn) Close() error                       { return c.ws.Close() }
func (c *wsConn) LocalAddr() gonet.Addr              { return c.ws.LocalAddr() }
func (c *wsConn) RemoteAddr() gonet.Addr             { return c.ws.RemoteAddr() }
func (c *wsConn) SetReadDeadline(t time.Time) error  { return c.ws.SetReadDeadline(t) }
func (c *wsConn) SetWriteDeadline(t time.Time) error { return c.ws.SetWriteDeadline(t) }

func (c *wsConn) SetDeadline(t time.Time) error {
	if err := c.ws.SetReadDeadline(t); err != nil {
		return err
	}
	return c.ws.SetWriteDeadline(t)
}
