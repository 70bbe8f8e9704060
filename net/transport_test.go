package net

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"badc0de.net/pkg/go-ascending/ttesting"
)

func TestWebSocketTransport(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer ws.Close()
		// A text frame the client must skip, then the packet split across
		// two binary frames.
		ws.WriteMessage(websocket.TextMessage, []byte("ignored"))
		frame := testPacket(9, "over websocket").Bytes()
		ws.WriteMessage(websocket.BinaryMessage, frame[:5])
		ws.WriteMessage(websocket.BinaryMessage, frame[5:])
		ws.ReadMessage()
	}))
	defer srv.Close()

	conn, err := Dial(context.Background(), TransportWebSocket, "ws"+strings.TrimPrefix(srv.URL, "http"))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	s := NewSocket(conn, nil)
	defer s.Close()

	msg, err := s.ReadPacket()
	if err != nil {
		t.Fatalf("read packet: %v", err)
	}
	id, _ := msg.ReadU16()
	text, _ := msg.ReadString()
	ttesting.AssertEqualInt(t, "id", int(id), 9)
	ttesting.AssertEqualString(t, "text", text, "over websocket")
}

func TestDialUnknownTransport(t *testing.T) {
	if _, err := Dial(context.Background(), "carrier-pigeon", "x"); err == nil {
		t.Errorf("expected an error for an unknown transport")
	}
}
