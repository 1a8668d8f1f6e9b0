package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/BuzzLyutic/todo-app/internal/model"
)

type blob struct {
	Tasks  *[]model.Task `json:"tasks"`
	NextID int64         `json:"nextId"`
}

// Encode serializes s into the persisted layout.
func Encode(s model.State) ([]byte, error) {
	tasks := s.Tasks
	if tasks == nil {
		tasks = []model.Task{}
	}
	return json.Marshal(blob{Tasks: &tasks, NextID: s.NextID})
}

// Decode parses a persisted blob. Tasks without a creation time get now.
// A missing or stale nextId is recomputed from the highest id.
func Decode(data []byte, now time.Time) (model.State, error) {
	var b blob
	if err := json.Unmarshal(data, &b); err != nil {
		return model.State{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if b.Tasks == nil {
		return model.State{}, fmt.Errorf("%w: tasks list is missing", ErrCorrupt)
	}

	tasks := *b.Tasks
	seen := make(map[int64]struct{}, len(tasks))
	var maxID int64
	for i := range tasks {
		id := tasks[i].ID
		if id <= 0 {
			return model.State{}, fmt.Errorf("%w: task at position %d has invalid id %d", ErrCorrupt, i, id)
		}
		if _, dup := seen[id]; dup {
			return model.State{}, fmt.Errorf("%w: duplicate task id %d", ErrCorrupt, id)
		}
		seen[id] = struct{}{}
		if id > maxID {
			maxID = id
		}
		if tasks[i].CreatedAt.IsZero() {
			tasks[i].CreatedAt = now.UTC()
		}
	}

	nextID := b.NextID
	if nextID <= maxID {
		nextID = maxID + 1
	}
	return model.State{Tasks: tasks, NextID: nextID}, nil
}
