package router

import (
	"testing"

	"github.com/pkg/errors"

	"badc0de.net/pkg/go-ascending/content"
	anet "badc0de.net/pkg/go-ascending/net"
	"badc0de.net/pkg/go-ascending/protocol"
	"badc0de.net/pkg/go-ascending/ttesting"
	"badc0de.net/pkg/go-ascending/world"
)

// received turns a finished server packet into what the socket hands out:
// the full frame with the cursor past the header.
func received(t *testing.T, m *anet.Message) *anet.Message {
	t.Helper()
	if err := m.Finish(); err != nil {
		t.Fatalf("finishing: %v", err)
	}
	r := anet.MessageFromBytes(m.Bytes())
	if err := r.MoveCursor(anet.HeaderSize); err != nil {
		t.Fatalf("skipping header: %v", err)
	}
	return r
}

func newContext() *Context {
	return &Context{
		World:   world.New(),
		Systems: content.NewSystems(1, 1),
		Content: content.New(),
	}
}

func TestHandleDataDispatch(t *testing.T) {
	var got []string
	r := NewPacketRouter(map[protocol.ServerPacketID]HandlerFunc{
		protocol.ServerChatMsg: func(ctx *Context, m *anet.Message) error {
			s, err := m.ReadString()
			got = append(got, s)
			return err
		},
	})
	m := protocol.NewServerPacket(protocol.ServerChatMsg)
	m.WriteString("hi")
	if err := r.HandleData(newContext(), received(t, m)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(got) != 1 || got[0] != "hi" {
		t.Errorf("handler saw %v", got)
	}
}

func TestHandleDataUnrouted(t *testing.T) {
	called := false
	r := NewPacketRouter(map[protocol.ServerPacketID]HandlerFunc{
		protocol.ServerPing: func(*Context, *anet.Message) error { called = true; return nil },
	})
	ctx := newContext()

	for _, tc := range []struct {
		name string
		body func() *anet.Message
	}{
		{"known id without handler", func() *anet.Message { return protocol.NewServerPacket(protocol.ServerMapSwitch) }},
		{"id out of range", func() *anet.Message {
			m := anet.NewPacket()
			m.WriteU16(0xFFFF)
			return m
		}},
		{"truncated id", func() *anet.Message {
			m := anet.NewPacket()
			m.WriteU8(1)
			return m
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := r.HandleData(ctx, received(t, tc.body()))
			if !errors.Is(err, ErrInvalidPacket) {
				t.Errorf("got %v; want invalid packet", err)
			}
		})
	}
	if called {
		t.Errorf("a handler ran for an invalid packet")
	}
	ttesting.AssertEqualInt(t, "world untouched", ctx.World.Len(), 0)
	ttesting.AssertEqualString(t, "content untouched", ctx.Content.Type.String(), "Menu")
}

func TestHandlerErrorPropagates(t *testing.T) {
	r := NewPacketRouter(map[protocol.ServerPacketID]HandlerFunc{
		protocol.ServerAlertMsg: func(ctx *Context, m *anet.Message) error {
			_, err := m.ReadString()
			return err
		},
	})
	err := r.HandleData(newContext(), received(t, protocol.NewServerPacket(protocol.ServerAlertMsg)))
	ttesting.AssertErrorIs(t, "decode error", err, anet.ErrDecode)
	if errors.Is(err, ErrInvalidPacket) {
		t.Errorf("payload error reported as invalid packet")
	}
}

func TestRouterIsACopy(t *testing.T) {
	table := map[protocol.ServerPacketID]HandlerFunc{
		protocol.ServerPing: func(*Context, *anet.Message) error { return nil },
	}
	r := NewPacketRouter(table)
	table[protocol.ServerOnlineCheck] = table[protocol.ServerPing]
	delete(table, protocol.ServerPing)

	if _, ok := r.Lookup(protocol.ServerOnlineCheck); ok {
		t.Errorf("router sees entries added after construction")
	}
	if _, ok := r.Lookup(protocol.ServerPing); !ok {
		t.Errorf("router lost an entry removed after construction")
	}
	ttesting.AssertEqualInt(t, "ids", len(r.IDs()), 1)
}
