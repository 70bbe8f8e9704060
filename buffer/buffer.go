package buffer

import (
	"context"

	"github.com/golang/glog"

	"badc0de.net/pkg/go-ascending/content"
	"badc0de.net/pkg/go-ascending/mapdata"
	"badc0de.net/pkg/go-ascending/metrics"
)

// BufferTask is the FIFO of deferred map tasks, the chunks they loaded and
// the chat buffer drained alongside them.
//
// It is owned by the logic thread and is not safe for concurrent use.
type BufferTask struct {
	tasks []Task

	Storage *StoredData
	Chat    *ChatBuffer

	store   mapdata.Store
	metrics *metrics.Metrics
}

// Option configures a BufferTask.
type Option func(*BufferTask)

// WithMetrics reports executed tasks and queue depths to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *BufferTask) {
		b.metrics = m
		b.Chat.metrics = m
	}
}

// New returns an empty buffer loading chunks from store.
func New(store mapdata.Store, opts ...Option) *BufferTask {
	b := &BufferTask{
		Storage: NewStoredData(),
		Chat:    NewChatBuffer(),
		store:   store,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// AddTask appends t to the queue.
func (b *BufferTask) AddTask(t Task) {
	b.tasks = append(b.tasks, t)
	b.metrics.QueueDepth("map", len(b.tasks))
}

// Len returns the number of queued map tasks.
func (b *BufferTask) Len() int {
	return len(b.tasks)
}

// PlannedKeys returns the keys StoredData will hold once every queued task
// has run, in the order it will hold them, assuming queued loads succeed. Producers plan loads and unloads
// against this instead of the current contents.
func (b *BufferTask) PlannedKeys() []mapdata.Key {
	var order []mapdata.Key
	held := make(map[mapdata.Key]bool)
	for _, c := range b.Storage.Chunks() {
		order = append(order, c.Key)
		held[c.Key] = true
	}
	for _, t := range b.tasks {
		switch t.Kind {
		case TaskLoadMap:
			if !held[t.Key] {
				order = append(order, t.Key)
				held[t.Key] = true
			}
		case TaskUnloadMap:
			held[t.Key] = false
		}
	}

	// A key unloaded and loaded again ends up at its last position.
	last := make(map[mapdata.Key]int, len(order))
	for i, k := range order {
		last[k] = i
	}
	out := make([]mapdata.Key, 0, len(order))
	for i, k := range order {
		if held[k] && last[k] == i {
			out = append(out, k)
		}
	}
	return out
}

// ProcessBuffer handles at most one chat task, then at most one map task.
// Map tasks never fail: missing data turns them into no-ops.
func (b *BufferTask) ProcessBuffer(ctx context.Context, systems *content.Systems, c *content.Content) {
	b.Chat.ProcessBuffer(systems, c)
	if len(b.tasks) == 0 {
		return
	}

	t := b.tasks[0]
	b.tasks[0] = Task{}
	b.tasks = b.tasks[1:]
	b.metrics.QueueDepth("map", len(b.tasks))

	outcome := b.run(ctx, t, systems, c)
	b.metrics.MapTask(t.Kind.String(), outcome)
	glog.V(3).Infof("map task %s: %s", t, outcome)
}

func (b *BufferTask) run(ctx context.Context, t Task, systems *content.Systems, c *content.Content) string {
	switch t.Kind {
	case TaskLoadMap:
		chunk, err := mapdata.LoadFile(ctx, b.store, t.Key.X, t.Key.Y, t.Key.Group)
		if err != nil {
			glog.V(1).Infof("not loading map %s: %v", t.Key, err)
			return "absent"
		}
		b.Storage.Insert(t.Key, chunk)
		return "ok"

	case TaskApplyMap, TaskApplyMapAttribute:
		chunk, ok := b.Storage.Get(t.Key)
		if !ok {
			return "absent"
		}
		if !content.ValidSlot(t.Slot) {
			glog.Warningf("map task %s: slot outside the window", t)
			return "skipped"
		}
		if t.Kind == TaskApplyMap {
			c.Game.Map.SetMapData(systems, t.Slot, chunk)
		} else {
			c.Game.Map.SetMapAttributes(systems, t.Slot, chunk)
		}
		return "ok"

	case TaskUnloadMap:
		if !b.Storage.Contains(t.Key) {
			return "absent"
		}
		b.Storage.Remove(t.Key)
		return "ok"
	}
	glog.Errorf("unknown map task %s", t)
	return "skipped"
}
