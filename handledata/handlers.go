// Package handledata implements the handler of every server packet and
// builds the routing table the client starts with.
package handledata

import (
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"badc0de.net/pkg/go-ascending/buffer"
	"badc0de.net/pkg/go-ascending/content"
	"badc0de.net/pkg/go-ascending/mapdata"
	anet "badc0de.net/pkg/go-ascending/net"
	"badc0de.net/pkg/go-ascending/protocol"
	"badc0de.net/pkg/go-ascending/router"
	"badc0de.net/pkg/go-ascending/world"
)

func HandleOnlineCheck(ctx *router.Context, m *anet.Message) error {
	glog.V(3).Infof("online check")
	return nil
}

// HandleAlertMsg shows a modal alert. When the server asks for it, the
// client also returns to the menu.
func HandleAlertMsg(ctx *router.Context, m *anet.Message) error {
	message, err := m.ReadString()
	if err != nil {
		return errors.Wrap(err, "alert message")
	}
	kind, err := m.ReadU8()
	if err != nil {
		return errors.Wrap(err, "alert kind")
	}
	backToMenu, err := m.ReadBool()
	if err != nil {
		return errors.Wrap(err, "alert close flag")
	}

	ctx.Alert.Show(ctx.Systems, kind, message)
	if backToMenu {
		ctx.Content.SwitchContent(ctx.Systems, content.ContentMenu)
	}
	return nil
}

func HandleFltAlert(ctx *router.Context, m *anet.Message) error {
	kind, err := m.ReadU8()
	if err != nil {
		return errors.Wrap(err, "floating alert kind")
	}
	message, err := m.ReadString()
	if err != nil {
		return errors.Wrap(err, "floating alert message")
	}
	ctx.Alert.Float(ctx.Systems, kind, message)
	return nil
}

// HandleHandShake answers the server's handshake in plaintext; from then on
// the client writes through the secure session.
func HandleHandShake(ctx *router.Context, m *anet.Message) error {
	code, err := m.ReadString()
	if err != nil {
		return errors.Wrap(err, "handshake code")
	}
	if err := protocol.SendHandshake(ctx.Socket, code); err != nil {
		return err
	}
	ctx.Socket.SetEncryptionState(anet.EncryptionWriteTransfering)
	return nil
}

// HandleLoginOk completes the secure channel and enters the game.
func HandleLoginOk(ctx *router.Context, m *anet.Message) error {
	hour, err := m.ReadU32()
	if err != nil {
		return errors.Wrap(err, "login hour")
	}
	minute, err := m.ReadU32()
	if err != nil {
		return errors.Wrap(err, "login minute")
	}

	ctx.Socket.SetEncryptionState(anet.EncryptionReadWrite)
	ctx.Content.SwitchContent(ctx.Systems, content.ContentGame)
	ctx.Content.Game.Clock = content.Clock{Hour: hour, Minute: minute}
	glog.Infof("logged in, in-game time %02d:%02d", hour, minute)
	return nil
}

// HandleMapSwitch moves the visible window to the chunks around the
// player's new map. Chunks leaving the window are unloaded, missing ones
// are loaded, and every slot is reapplied.
func HandleMapSwitch(ctx *router.Context, m *anet.Message) error {
	var pos protocol.Position
	if err := pos.DecodeFrom(m); err != nil {
		return errors.Wrap(err, "map switch position")
	}
	initial, err := m.ReadBool()
	if err != nil {
		return errors.Wrap(err, "map switch initial flag")
	}

	window := mapdata.Window(pos.Map)
	inWindow := make(map[mapdata.Key]bool, len(window))
	for _, k := range window {
		inWindow[k] = true
	}

	// Plan against what earlier switches still have queued, so a quick
	// switch back reloads chunks whose unload has not run yet.
	b := ctx.Buffer
	planned := make(map[mapdata.Key]bool)
	for _, k := range b.PlannedKeys() {
		planned[k] = true
		if !inWindow[k] {
			b.AddTask(buffer.UnloadMap(k.X, k.Y, k.Group))
		}
	}
	for _, k := range window {
		if !planned[k] {
			b.AddTask(buffer.LoadMap(k.X, k.Y, k.Group))
		}
	}
	for slot, k := range window {
		b.AddTask(buffer.ApplyMap(k.X, k.Y, k.Group, slot))
		b.AddTask(buffer.ApplyMapAttribute(k.X, k.Y, k.Group, slot))
	}

	if initial {
		ctx.Content.Game.Map.Clear(ctx.Systems)
	}
	if ctx.World.Player != nil {
		if e, err := ctx.World.Get(*ctx.World.Player); err == nil {
			e.Pos = pos
		}
	}
	glog.V(1).Infof("map switch to %s (initial: %v), %d map tasks queued", pos.Map, initial, b.Len())
	return nil
}

// HandlePlayerSpawn adds a player to the world. own marks the entity this
// client controls.
func HandlePlayerSpawn(ctx *router.Context, m *anet.Message) error {
	var e world.Entity
	if err := e.ID.DecodeFrom(m); err != nil {
		return errors.Wrap(err, "spawn entity")
	}
	var err error
	if e.Name, err = m.ReadString(); err != nil {
		return errors.Wrap(err, "spawn name")
	}
	if err := e.Pos.DecodeFrom(m); err != nil {
		return errors.Wrap(err, "spawn position")
	}
	own, err := m.ReadBool()
	if err != nil {
		return errors.Wrap(err, "spawn own flag")
	}

	ctx.World.Add(&e)
	if own {
		id := e.ID
		ctx.World.Player = &id
	}
	ctx.Systems.Redraw = true
	return nil
}

func HandlePlayerMove(ctx *router.Context, m *anet.Message) error {
	var id protocol.Entity
	if err := id.DecodeFrom(m); err != nil {
		return errors.Wrap(err, "move entity")
	}
	var pos protocol.Position
	if err := pos.DecodeFrom(m); err != nil {
		return errors.Wrap(err, "move position")
	}
	dir, err := m.ReadU8()
	if err != nil {
		return errors.Wrap(err, "move direction")
	}

	e, err := ctx.World.Get(id)
	if err != nil {
		return err
	}
	e.Pos, e.Dir = pos, dir
	ctx.Systems.Redraw = true
	return nil
}

func HandlePlayerDir(ctx *router.Context, m *anet.Message) error {
	var id protocol.Entity
	if err := id.DecodeFrom(m); err != nil {
		return errors.Wrap(err, "dir entity")
	}
	dir, err := m.ReadU8()
	if err != nil {
		return errors.Wrap(err, "dir direction")
	}

	e, err := ctx.World.Get(id)
	if err != nil {
		return err
	}
	e.Dir = dir
	ctx.Systems.Redraw = true
	return nil
}

// HandleEntityUnload removes an entity. Unloading an unknown entity is not
// an error; the server may unload what it never spawned for us.
func HandleEntityUnload(ctx *router.Context, m *anet.Message) error {
	var id protocol.Entity
	if err := id.DecodeFrom(m); err != nil {
		return errors.Wrap(err, "unload entity")
	}
	if err := ctx.World.Remove(id); err != nil {
		glog.V(1).Infof("unload: %v", err)
		return nil
	}
	ctx.Systems.Redraw = true
	return nil
}

func readChatText(m *anet.Message) (content.ChatText, error) {
	var t content.ChatText
	var err error
	if t.Text, err = m.ReadString(); err != nil {
		return t, err
	}
	err = t.Color.DecodeFrom(m)
	return t, err
}

// HandleChatMsg queues a chat line. It is shown once the game finished
// loading.
func HandleChatMsg(ctx *router.Context, m *anet.Message) error {
	var channel protocol.MessageChannel
	if err := channel.DecodeFrom(m); err != nil {
		return err
	}
	header, err := anet.ReadOptional(m, readChatText)
	if err != nil {
		return errors.Wrap(err, "chat header")
	}
	msg, err := readChatText(m)
	if err != nil {
		return errors.Wrap(err, "chat message")
	}

	glog.V(2).Infof("chat on %s: %q", channel, msg.Text)
	ctx.Buffer.Chat.AddTask(buffer.ChatTask{Msg: msg, Header: header})
	return nil
}

func HandleFinishLoading(ctx *router.Context, m *anet.Message) error {
	ctx.Content.Game.Finalize()
	ctx.Systems.Redraw = true
	glog.V(1).Infof("game finished loading")
	return nil
}

// HandleClearData forgets all entities. Stored map chunks are left for the
// next map switch to unload.
func HandleClearData(ctx *router.Context, m *anet.Message) error {
	ctx.World.Clear()
	ctx.Systems.Redraw = true
	return nil
}

// HandlePing measures the round trip of the outstanding ping, if any.
func HandlePing(ctx *router.Context, m *anet.Message) error {
	g := ctx.Content.Game
	if g.PingSentAt == 0 {
		glog.V(1).Infof("ping reply without an outstanding ping")
		return nil
	}
	g.Latency = ctx.Seconds - g.PingSentAt
	g.PingSentAt = 0
	glog.V(2).Infof("ping: %.0fms", g.Latency*1000)
	return nil
}
