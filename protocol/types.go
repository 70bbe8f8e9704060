package protocol

import (
	"fmt"

	"github.com/pkg/errors"

	"badc0de.net/pkg/go-ascending/mapdata"
	anet "badc0de.net/pkg/go-ascending/net"
)

// Entity is the server-assigned identifier of a player or NPC.
type Entity uint64

func (e Entity) EncodeTo(m *anet.Message) {
	m.WriteU64(uint64(e))
}

func (e *Entity) DecodeFrom(m *anet.Message) error {
	v, err := m.ReadU64()
	*e = Entity(v)
	return err
}

func writeEntity(m *anet.Message, e Entity) { e.EncodeTo(m) }

func readEntity(m *anet.Message) (Entity, error) {
	var e Entity
	err := e.DecodeFrom(m)
	return e, err
}

// Position is a tile position inside a map chunk.
type Position struct {
	X, Y int32
	Map  mapdata.Key
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d @ %s)", p.X, p.Y, p.Map)
}

func (p Position) EncodeTo(m *anet.Message) {
	m.WriteI32(p.X)
	m.WriteI32(p.Y)
	p.Map.EncodeTo(m)
}

func (p *Position) DecodeFrom(m *anet.Message) error {
	var err error
	if p.X, err = m.ReadI32(); err != nil {
		return errors.Wrap(err, "position x")
	}
	if p.Y, err = m.ReadI32(); err != nil {
		return errors.Wrap(err, "position y")
	}
	return errors.Wrap(p.Map.DecodeFrom(m), "position map")
}

// Color is an RGBA display color.
type Color struct {
	R, G, B, A uint8
}

var (
	White  = Color{255, 255, 255, 255}
	Yellow = Color{255, 255, 0, 255}
	Red    = Color{255, 64, 64, 255}
)

func (c Color) EncodeTo(m *anet.Message) {
	m.WriteRaw([]byte{c.R, c.G, c.B, c.A})
}

func (c *Color) DecodeFrom(m *anet.Message) error {
	for _, p := range []*uint8{&c.R, &c.G, &c.B, &c.A} {
		v, err := m.ReadU8()
		if err != nil {
			return errors.Wrap(err, "color")
		}
		*p = v
	}
	return nil
}

// MessageChannel is the chat channel a message is sent to.
type MessageChannel uint16

const (
	ChannelMap MessageChannel = iota
	ChannelGlobal
	ChannelTrade
	ChannelParty
	ChannelGuild
	ChannelWhisper
	ChannelQuest
	ChannelNpc

	channelCount
)

func (c MessageChannel) String() string {
	switch c {
	case ChannelMap:
		return "Map"
	case ChannelGlobal:
		return "Global"
	case ChannelTrade:
		return "Trade"
	case ChannelParty:
		return "Party"
	case ChannelGuild:
		return "Guild"
	case ChannelWhisper:
		return "Whisper"
	case ChannelQuest:
		return "Quest"
	case ChannelNpc:
		return "Npc"
	}
	return fmt.Sprintf("MessageChannel(%d)", uint16(c))
}

func (c MessageChannel) EncodeTo(m *anet.Message) {
	m.WriteTag(uint16(c))
}

func (c *MessageChannel) DecodeFrom(m *anet.Message) error {
	tag, err := m.ReadTag(uint16(channelCount), "message channel")
	*c = MessageChannel(tag)
	return err
}

// CommandKind selects the variant of a Command.
type CommandKind uint16

const (
	CommandKickPlayer CommandKind = iota
	CommandKickPlayerByName
	CommandWarpTo
	CommandSpawnNpc
	CommandTrade

	commandKindCount
)

// Command is an administrative or social command typed by the player.
//
// Only the fields of the selected Kind are transmitted: Name for
// KickPlayerByName, Pos for WarpTo and SpawnNpc, NpcIndex for SpawnNpc.
type Command struct {
	Kind     CommandKind
	Name     string
	NpcIndex int32
	Pos      Position
}

func (c Command) EncodeTo(m *anet.Message) {
	m.WriteTag(uint16(c.Kind))
	switch c.Kind {
	case CommandKickPlayerByName:
		m.WriteString(c.Name)
	case CommandWarpTo:
		c.Pos.EncodeTo(m)
	case CommandSpawnNpc:
		m.WriteI32(c.NpcIndex)
		c.Pos.EncodeTo(m)
	}
}

func (c *Command) DecodeFrom(m *anet.Message) error {
	tag, err := m.ReadTag(uint16(commandKindCount), "command")
	if err != nil {
		return err
	}
	*c = Command{Kind: CommandKind(tag)}
	switch c.Kind {
	case CommandKickPlayerByName:
		c.Name, err = m.ReadString()
	case CommandWarpTo:
		err = c.Pos.DecodeFrom(m)
	case CommandSpawnNpc:
		if c.NpcIndex, err = m.ReadI32(); err != nil {
			return err
		}
		err = c.Pos.DecodeFrom(m)
	}
	return err
}
