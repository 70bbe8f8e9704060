// Package buffer defers expensive map work and chat output so that at most
// one map task and one chat line are handled per frame.
package buffer

import (
	"fmt"

	"badc0de.net/pkg/go-ascending/mapdata"
)

// TaskKind selects what a Task does.
type TaskKind int

const (
	// TaskLoadMap reads a chunk from storage into StoredData.
	TaskLoadMap TaskKind = iota
	// TaskApplyMap copies stored tiles into a window slot.
	TaskApplyMap
	// TaskApplyMapAttribute copies stored attributes into a window slot.
	TaskApplyMapAttribute
	// TaskUnloadMap drops a chunk from StoredData.
	TaskUnloadMap
)

func (k TaskKind) String() string {
	switch k {
	case TaskLoadMap:
		return "LoadMap"
	case TaskApplyMap:
		return "ApplyMap"
	case TaskApplyMapAttribute:
		return "ApplyMapAttribute"
	case TaskUnloadMap:
		return "UnloadMap"
	}
	return fmt.Sprintf("TaskKind(%d)", int(k))
}

// Task is one deferred map operation. Slot is only used by the apply kinds.
type Task struct {
	Kind TaskKind
	Key  mapdata.Key
	Slot int
}

func (t Task) String() string {
	switch t.Kind {
	case TaskApplyMap, TaskApplyMapAttribute:
		return fmt.Sprintf("%s(%s -> %d)", t.Kind, t.Key, t.Slot)
	}
	return fmt.Sprintf("%s(%s)", t.Kind, t.Key)
}

func LoadMap(mx, my int32, mg uint64) Task {
	return Task{Kind: TaskLoadMap, Key: mapdata.Key{X: mx, Y: my, Group: mg}}
}

func ApplyMap(mx, my int32, mg uint64, slot int) Task {
	return Task{Kind: TaskApplyMap, Key: mapdata.Key{X: mx, Y: my, Group: mg}, Slot: slot}
}

func ApplyMapAttribute(mx, my int32, mg uint64, slot int) Task {
	return Task{Kind: TaskApplyMapAttribute, Key: mapdata.Key{X: mx, Y: my, Group: mg}, Slot: slot}
}

func UnloadMap(mx, my int32, mg uint64) Task {
	return Task{Kind: TaskUnloadMap, Key: mapdata.Key{X: mx, Y: my, Group: mg}}
}
