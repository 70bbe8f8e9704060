package buffer

import (
	"badc0de.net/pkg/go-ascending/content"
	"badc0de.net/pkg/go-ascending/metrics"
)

// ChatTask is one chat line waiting to be shown.
type ChatTask struct {
	Msg    content.ChatText
	Header *content.ChatText
}

// ChatBuffer holds chat lines that arrived before the game finished loading,
// and paces them out one per frame afterwards.
type ChatBuffer struct {
	tasks   []ChatTask
	metrics *metrics.Metrics
}

func NewChatBuffer() *ChatBuffer {
	return &ChatBuffer{}
}

func (cb *ChatBuffer) AddTask(t ChatTask) {
	cb.tasks = append(cb.tasks, t)
	cb.metrics.QueueDepth("chat", len(cb.tasks))
}

func (cb *ChatBuffer) Len() int {
	return len(cb.tasks)
}

// ProcessBuffer shows the oldest line, unless the buffer is empty or the
// game is not finalized yet.
func (cb *ChatBuffer) ProcessBuffer(systems *content.Systems, c *content.Content) {
	if len(cb.tasks) == 0 || !c.Finalized() {
		return
	}
	t := cb.tasks[0]
	cb.tasks[0] = ChatTask{}
	cb.tasks = cb.tasks[1:]
	cb.metrics.QueueDepth("chat", len(cb.tasks))

	c.AddChat(systems, content.ChatLine{Message: t.Msg, Header: t.Header})
}
