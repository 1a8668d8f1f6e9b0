package model

// State is the full contents of the task store: the ordered tasks and the
// next id to hand out.
type State struct {
	Tasks  []Task `json:"tasks"`
	NextID int64  `json:"nextId"`
}

// EmptyState is the state of a fresh store.
func EmptyState() State {
	return State{Tasks: []Task{}, NextID: 1}
}

// Clone returns a copy sharing no memory with s.
func (s State) Clone() State {
	tasks := make([]Task, len(s.Tasks))
	copy(tasks, s.Tasks)
	return State{Tasks: tasks, NextID: s.NextID}
}

// Equal compares task sequences field by field and the id counter.
func (s State) Equal(o State) bool {
	if s.NextID != o.NextID || len(s.Tasks) != len(o.Tasks) {
		return false
	}
	for i := range s.Tasks {
		if !s.Tasks[i].Equal(o.Tasks[i]) {
			return false
		}
	}
	return true
}

// Board is what the presentation layer renders after every action.
type Board struct {
	Pending        []Task `json:"pending"`
	Completed      []Task `json:"completed"`
	PendingCount   int    `json:"pendingCount"`
	CompletedCount int    `json:"completedCount"`
	CanUndo        bool   `json:"canUndo"`
	CanRedo        bool   `json:"canRedo"`
}

type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a human-readable outcome of an action.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}
