// Package content holds the state of what the client currently shows: the
// menu or the game, the visible map window and the chat box.
//
// Nothing here draws. Renderers observe the state and the Systems.Redraw
// flag that mutations set.
package content

import (
	"fmt"

	"github.com/golang/glog"
)

// ContentType is the kind of screen currently active.
type ContentType int

const (
	ContentMenu ContentType = iota
	ContentGame
)

func (t ContentType) String() string {
	switch t {
	case ContentMenu:
		return "Menu"
	case ContentGame:
		return "Game"
	}
	return fmt.Sprintf("ContentType(%d)", int(t))
}

// Systems is the render handle handed to everything that changes what is on
// screen.
type Systems struct {
	// Redraw is set whenever visible state changed since the renderer last
	// cleared it.
	Redraw bool

	Width, Height float32
}

// NewSystems returns a handle for a screen of the given size.
func NewSystems(width, height float32) *Systems {
	return &Systems{Width: width, Height: height, Redraw: true}
}

// Content is the active content holder. Game state outlives the game
// screen: it is created once and unloaded whenever the client returns to
// the menu.
type Content struct {
	Type ContentType
	Game *GameContent
}

// New returns a holder showing the menu.
func New() *Content {
	return &Content{
		Type: ContentMenu,
		Game: NewGameContent(),
	}
}

// SwitchContent unloads the current content and activates t. Switching to
// the active type is a no-op.
func (c *Content) SwitchContent(systems *Systems, t ContentType) {
	if c.Type == t {
		return
	}
	glog.V(1).Infof("switching content %s -> %s", c.Type, t)
	if c.Type == ContentGame {
		c.Game.Unload(systems)
	}
	c.Type = t
	systems.Redraw = true
}

// Finalized reports whether the game finished loading, which is when chat
// may be shown.
func (c *Content) Finalized() bool {
	return c.Game.Finalized()
}

// AddChat appends a line to the game chat box.
func (c *Content) AddChat(systems *Systems, line ChatLine) {
	c.Game.Chat.Add(line)
	systems.Redraw = true
}
