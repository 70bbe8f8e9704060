package main

import (
	"fmt"
	"io"

	"github.com/gookit/color"

	"badc0de.net/pkg/go-ascending/content"
	"badc0de.net/pkg/go-ascending/protocol"
)

// terminal prints chat and alerts. It is the alert surface of the client.
type terminal struct {
	w         io.Writer
	trueColor bool
}

func newTerminal(w io.Writer, trueColor bool) *terminal {
	return &terminal{w: w, trueColor: trueColor}
}

func (t *terminal) paint(c protocol.Color, s string) string {
	if !t.trueColor || c.A == 0 {
		return s
	}
	return color.RGB(c.R, c.G, c.B).Sprint(s)
}

func (t *terminal) PrintChat(l content.ChatLine) {
	var s string
	if l.Header != nil {
		s = t.paint(l.Header.Color, l.Header.Text)
	}
	s += t.paint(l.Message.Color, l.Message.Text)
	fmt.Fprintln(t.w, s)
}

func (t *terminal) Show(_ *content.Systems, kind uint8, message string) {
	fmt.Fprintln(t.w, t.paint(protocol.Red, fmt.Sprintf("[alert %d] %s", kind, message)))
}

func (t *terminal) Float(_ *content.Systems, kind uint8, message string) {
	fmt.Fprintln(t.w, t.paint(protocol.Yellow, message))
}
