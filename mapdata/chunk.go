// Package mapdata holds the map chunk model and the storage backends chunks
// are loaded from.
package mapdata

import (
	"github.com/pkg/errors"

	anet "badc0de.net/pkg/go-ascending/net"
)

const (
	MapWidth  = 32
	MapHeight = 32
	MapSize   = MapWidth * MapHeight
	MapLayers = 9
)

// Tile holds the texture index of every layer of one map tile. Zero means
// the layer is empty.
type Tile struct {
	Layers [MapLayers]uint32
}

// AttributeKind selects the variant of an Attribute.
type AttributeKind uint16

const (
	AttributeWalkable AttributeKind = iota
	AttributeBlocked
	AttributeNpcBlocked
	AttributeWarp
	AttributeSign

	attributeKindCount
)

func (k AttributeKind) String() string {
	switch k {
	case AttributeWalkable:
		return "Walkable"
	case AttributeBlocked:
		return "Blocked"
	case AttributeNpcBlocked:
		return "NpcBlocked"
	case AttributeWarp:
		return "Warp"
	case AttributeSign:
		return "Sign"
	}
	return "AttributeKind(?)"
}

// WarpData is the destination of a warp tile.
type WarpData struct {
	Map          Key
	TileX, TileY uint32
}

// Attribute is the gameplay metadata of one tile. Warp is only meaningful
// for AttributeWarp, Sign only for AttributeSign.
type Attribute struct {
	Kind AttributeKind
	Warp WarpData
	Sign string
}

func (a Attribute) EncodeTo(m *anet.Message) {
	m.WriteTag(uint16(a.Kind))
	switch a.Kind {
	case AttributeWarp:
		a.Warp.Map.EncodeTo(m)
		m.WriteU32(a.Warp.TileX)
		m.WriteU32(a.Warp.TileY)
	case AttributeSign:
		m.WriteString(a.Sign)
	}
}

func (a *Attribute) DecodeFrom(m *anet.Message) error {
	tag, err := m.ReadTag(uint16(attributeKindCount), "map attribute")
	if err != nil {
		return err
	}
	*a = Attribute{Kind: AttributeKind(tag)}
	switch a.Kind {
	case AttributeWarp:
		if err := a.Warp.Map.DecodeFrom(m); err != nil {
			return err
		}
		if a.Warp.TileX, err = m.ReadU32(); err != nil {
			return err
		}
		a.Warp.TileY, err = m.ReadU32()
	case AttributeSign:
		a.Sign, err = m.ReadString()
	}
	return err
}

// Chunk is the tile and attribute data of one map coordinate.
type Chunk struct {
	Key        Key
	Tiles      [MapSize]Tile
	Attributes [MapSize]Attribute
	Music      *string
}

// TileIndex returns the index of tile (x, y) in Tiles and Attributes.
func TileIndex(x, y int) int {
	return y*MapWidth + x
}

func (c *Chunk) EncodeTo(m *anet.Message) {
	c.Key.EncodeTo(m)
	for i := range c.Tiles {
		for _, id := range c.Tiles[i].Layers {
			m.WriteU32(id)
		}
	}
	for i := range c.Attributes {
		c.Attributes[i].EncodeTo(m)
	}
	anet.WriteOptional(m, c.Music, (*anet.Message).WriteString)
}

func (c *Chunk) DecodeFrom(m *anet.Message) error {
	if err := c.Key.DecodeFrom(m); err != nil {
		return err
	}
	for i := range c.Tiles {
		for l := range c.Tiles[i].Layers {
			id, err := m.ReadU32()
			if err != nil {
				return errors.Wrapf(err, "tile %d layer %d", i, l)
			}
			c.Tiles[i].Layers[l] = id
		}
	}
	for i := range c.Attributes {
		if err := c.Attributes[i].DecodeFrom(m); err != nil {
			return errors.Wrapf(err, "attribute %d", i)
		}
	}
	music, err := anet.ReadOptional(m, (*anet.Message).ReadString)
	if err != nil {
		return errors.Wrap(err, "music")
	}
	c.Music = music
	return nil
}
