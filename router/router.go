// Package router dispatches inbound server packets to their handlers.
package router

import (
	"sort"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"badc0de.net/pkg/go-ascending/buffer"
	"badc0de.net/pkg/go-ascending/content"
	"badc0de.net/pkg/go-ascending/metrics"
	anet "badc0de.net/pkg/go-ascending/net"
	"badc0de.net/pkg/go-ascending/protocol"
	"badc0de.net/pkg/go-ascending/world"
)

// ErrInvalidPacket is returned for a packet whose identifier cannot be
// decoded or has no handler. No handler runs for such a packet.
var ErrInvalidPacket = errors.New("invalid packet")

// Alert is the UI surface used to tell the player about problems.
type Alert interface {
	// Show displays a modal alert.
	Show(systems *content.Systems, kind uint8, message string)
	// Float displays a short floating notice.
	Float(systems *content.Systems, kind uint8, message string)
}

// Context is everything a handler may touch. It is owned by the logic
// thread and handed to each handler by pointer.
type Context struct {
	Socket  protocol.Conn
	World   *world.World
	Systems *content.Systems
	Content *content.Content
	Alert   Alert
	Buffer  *buffer.BufferTask

	// Seconds is the client clock at the start of the current frame.
	Seconds float32
}

// HandlerFunc handles one packet. The message is positioned just past the
// packet identifier.
type HandlerFunc func(ctx *Context, m *anet.Message) error

// PacketRouter maps server packet identifiers to handlers. It is not
// modified after construction.
type PacketRouter struct {
	handlers map[protocol.ServerPacketID]HandlerFunc
	metrics  *metrics.Metrics
}

// Option configures a PacketRouter.
type Option func(*PacketRouter)

// WithMetrics counts dispatched packets in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *PacketRouter) {
		r.metrics = m
	}
}

// NewPacketRouter returns a router over a copy of handlers.
func NewPacketRouter(handlers map[protocol.ServerPacketID]HandlerFunc, opts ...Option) *PacketRouter {
	r := &PacketRouter{handlers: make(map[protocol.ServerPacketID]HandlerFunc, len(handlers))}
	for id, h := range handlers {
		r.handlers[id] = h
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *PacketRouter) Lookup(id protocol.ServerPacketID) (HandlerFunc, bool) {
	h, ok := r.handlers[id]
	return h, ok
}

// IDs returns the routed identifiers in ordinal order.
func (r *PacketRouter) IDs() []protocol.ServerPacketID {
	ids := make([]protocol.ServerPacketID, 0, len(r.handlers))
	for id := range r.handlers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// HandleData decodes the packet identifier at the message cursor and runs
// its handler. Handler errors are logged and returned unchanged; deciding
// whether to disconnect is up to the caller.
func (r *PacketRouter) HandleData(ctx *Context, m *anet.Message) error {
	id, err := protocol.ReadServerPacketID(m)
	if err != nil {
		r.metrics.PacketReceived("unknown", "invalid")
		glog.Warningf("undecodable packet identifier: %v", err)
		return errors.Wrapf(ErrInvalidPacket, "%v", err)
	}
	h, ok := r.handlers[id]
	if !ok {
		r.metrics.PacketReceived(id.String(), "invalid")
		glog.Warningf("no handler for packet %s", id)
		return errors.Wrapf(ErrInvalidPacket, "no handler for %s", id)
	}

	glog.V(2).Infof("receiving packet %s", id)
	if err := h(ctx, m); err != nil {
		r.metrics.PacketReceived(id.String(), "error")
		glog.Errorf("handling packet %s: %v", id, err)
		return err
	}
	r.metrics.PacketReceived(id.String(), "ok")
	return nil
}
