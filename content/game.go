package content

import (
	"github.com/bradfitz/iter"

	"badc0de.net/pkg/go-ascending/mapdata"
)

// Clock is the in-game time of day announced by the server.
type Clock struct {
	Hour, Minute uint32
}

// GameContent is the state of the game screen.
type GameContent struct {
	Map  MapContent
	Chat *ChatBox

	Clock Clock

	// PingSentAt is the client clock when the outstanding ping went out,
	// 0 when none is. Latency is the last measured round trip. Both are in
	// seconds.
	PingSentAt float32
	Latency    float32

	finalized bool
}

func NewGameContent() *GameContent {
	return &GameContent{Chat: NewChatBox(DefaultChatHistory)}
}

// Finalize marks the game as fully loaded.
func (g *GameContent) Finalize() {
	g.finalized = true
}

func (g *GameContent) Finalized() bool {
	return g.finalized
}

// Unload forgets everything that belongs to the current session. The chat
// history is kept so the player can still read it from the menu.
func (g *GameContent) Unload(systems *Systems) {
	g.Map.Clear(systems)
	g.Clock = Clock{}
	g.PingSentAt, g.Latency = 0, 0
	g.finalized = false
}

// MapSlot is one chunk of the visible map window.
type MapSlot struct {
	Key   mapdata.Key
	Tiles [mapdata.MapSize]mapdata.Tile
}

// MapContent is the visible 3x3 map window. Tile data and attributes are
// applied separately, so a slot can have one without the other for a frame.
type MapContent struct {
	slots      [mapdata.WindowSize]*MapSlot
	attributes [mapdata.WindowSize]*[mapdata.MapSize]mapdata.Attribute
}

// ValidSlot reports whether slot is an index into the window.
func ValidSlot(slot int) bool {
	return slot >= 0 && slot < mapdata.WindowSize
}

// SetMapData copies the tiles of c into slot.
func (mc *MapContent) SetMapData(systems *Systems, slot int, c *mapdata.Chunk) {
	mc.slots[slot] = &MapSlot{Key: c.Key, Tiles: c.Tiles}
	systems.Redraw = true
}

// SetMapAttributes copies the attributes of c into slot.
func (mc *MapContent) SetMapAttributes(systems *Systems, slot int, c *mapdata.Chunk) {
	attrs := c.Attributes
	mc.attributes[slot] = &attrs
	systems.Redraw = true
}

// Slot returns the tiles shown in slot, or nil if none were applied.
func (mc *MapContent) Slot(slot int) *MapSlot {
	if !ValidSlot(slot) {
		return nil
	}
	return mc.slots[slot]
}

// Attributes returns the attributes applied to slot, or nil.
func (mc *MapContent) Attributes(slot int) *[mapdata.MapSize]mapdata.Attribute {
	if !ValidSlot(slot) {
		return nil
	}
	return mc.attributes[slot]
}

// Clear empties every slot.
func (mc *MapContent) Clear(systems *Systems) {
	for slot := range iter.N(mapdata.WindowSize) {
		mc.slots[slot] = nil
		mc.attributes[slot] = nil
	}
	systems.Redraw = true
}
