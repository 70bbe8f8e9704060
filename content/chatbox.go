package content

import (
	"badc0de.net/pkg/go-ascending/protocol"
)

// DefaultChatHistory is how many lines the chat box keeps.
const DefaultChatHistory = 200

// ChatText is a colored piece of chat.
type ChatText struct {
	Text  string
	Color protocol.Color
}

// ChatLine is one chat message with an optional header, usually the sender.
type ChatLine struct {
	Message ChatText
	Header  *ChatText
}

func (l ChatLine) String() string {
	if l.Header == nil {
		return l.Message.Text
	}
	return l.Header.Text + l.Message.Text
}

// ChatBox keeps the most recent chat lines, oldest first.
type ChatBox struct {
	lines []ChatLine
	max   int

	// OnChat, if set, is called with every line added.
	OnChat func(ChatLine)
}

func NewChatBox(max int) *ChatBox {
	return &ChatBox{max: max}
}

func (b *ChatBox) Add(line ChatLine) {
	b.lines = append(b.lines, line)
	if over := len(b.lines) - b.max; over > 0 {
		b.lines = append(b.lines[:0], b.lines[over:]...)
	}
	if b.OnChat != nil {
		b.OnChat(line)
	}
}

// Lines returns the history, oldest first. The slice must not be modified.
func (b *ChatBox) Lines() []ChatLine {
	return b.lines
}

func (b *ChatBox) Len() int {
	return len(b.lines)
}
