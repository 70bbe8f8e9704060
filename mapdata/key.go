package mapdata

import (
	"fmt"

	"github.com/pkg/errors"

	anet "badc0de.net/pkg/go-ascending/net"
)

// Key addresses one map chunk: its map coordinates and map group.
type Key struct {
	X, Y  int32
	Group uint64
}

// String returns the storage key, "mx_my_mg".
func (k Key) String() string {
	return fmt.Sprintf("%d_%d_%d", k.X, k.Y, k.Group)
}

func (k Key) EncodeTo(m *anet.Message) {
	m.WriteI32(k.X)
	m.WriteI32(k.Y)
	m.WriteU64(k.Group)
}

func (k *Key) DecodeFrom(m *anet.Message) error {
	var err error
	if k.X, err = m.ReadI32(); err != nil {
		return errors.Wrap(err, "map key x")
	}
	if k.Y, err = m.ReadI32(); err != nil {
		return errors.Wrap(err, "map key y")
	}
	k.Group, err = m.ReadU64()
	return errors.Wrap(err, "map key group")
}

// WindowSize is the number of chunks visible at once: a 3x3 grid around
// the chunk the player stands in.
const WindowSize = 9

// CenterSlot is the window slot holding the player's own chunk.
const CenterSlot = 4

// Window returns the keys of the 3x3 grid around center. Slot 0 is the
// top-left chunk, slot 4 the center, slot 8 the bottom-right.
func Window(center Key) [WindowSize]Key {
	var w [WindowSize]Key
	for slot := range w {
		w[slot] = Key{
			X:     center.X + int32(slot%3) - 1,
			Y:     center.Y + int32(slot/3) - 1,
			Group: center.Group,
		}
	}
	return w
}
