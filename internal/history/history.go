// Package history keeps a bounded, linear undo/redo log of task store snapshots.
package history

import (
	"time"

	"github.com/google/uuid"

	"github.com/BuzzLyutic/todo-app/internal/model"
)

const DefaultCapacity = 20

// Snapshot is a detached copy of the store taken at a save point.
type Snapshot struct {
	ID      string
	State   model.State
	TakenAt time.Time
}

// Entry describes a snapshot without exposing its contents.
type Entry struct {
	ID        string    `json:"id"`
	TakenAt   time.Time `json:"takenAt"`
	TaskCount int       `json:"taskCount"`
	NextID    int64     `json:"nextId"`
	Current   bool      `json:"current"`
}

// Manager is the history log with its cursor.
//
// Snapshots hold pre-mutation states. After a commit the live store is ahead
// of the snapshot at the cursor; after a baseline, undo or redo the live store
// equals it. Undo from the ahead position records the live state first so
// that redo can return to it.
type Manager struct {
	log      []Snapshot
	cursor   int
	capacity int
	ahead    bool
	now      func() time.Time
}

// New returns an empty manager. capacity < 2 falls back to DefaultCapacity.
func New(capacity int) *Manager {
	if capacity < 2 {
		capacity = DefaultCapacity
	}
	return &Manager{
		cursor:   -1,
		capacity: capacity,
		now:      time.Now,
	}
}

// Baseline drops all history and records s as the only snapshot.
func (m *Manager) Baseline(s model.State) {
	m.log = nil
	m.cursor = -1
	m.push(s)
	m.ahead = false
}

// Commit records pre, the state right before a mutation of the live store.
// Snapshots after the cursor are discarded.
func (m *Manager) Commit(pre model.State) Snapshot {
	m.truncate()
	if m.ahead || len(m.log) == 0 {
		m.push(pre)
	}
	m.ahead = true
	snap := m.log[m.cursor]
	snap.State = snap.State.Clone()
	return snap
}

// Undo returns the state to restore and true, or false when there is nothing
// to undo. live is the current store state.
func (m *Manager) Undo(live model.State) (model.State, bool) {
	if len(m.log) == 0 {
		return model.State{}, false
	}
	if m.ahead {
		// live становится последней записью, курсор остается на снимке до мутации
		m.push(live)
		m.cursor--
		m.ahead = false
		return m.log[m.cursor].State.Clone(), true
	}
	if m.cursor == 0 {
		return model.State{}, false
	}
	m.cursor--
	return m.log[m.cursor].State.Clone(), true
}

// Redo returns the state to restore and true, or false when there is nothing
// to redo.
func (m *Manager) Redo() (model.State, bool) {
	if !m.CanRedo() {
		return model.State{}, false
	}
	m.cursor++
	return m.log[m.cursor].State.Clone(), true
}

func (m *Manager) CanUndo() bool {
	return len(m.log) > 0 && (m.ahead || m.cursor > 0)
}

func (m *Manager) CanRedo() bool {
	return !m.ahead && m.cursor >= 0 && m.cursor < len(m.log)-1
}

func (m *Manager) Len() int { return len(m.log) }

func (m *Manager) Cursor() int { return m.cursor }

func (m *Manager) Capacity() int { return m.capacity }

func (m *Manager) Entries() []Entry {
	entries := make([]Entry, 0, len(m.log))
	for i, s := range m.log {
		entries = append(entries, Entry{
			ID:        s.ID,
			TakenAt:   s.TakenAt,
			TaskCount: len(s.State.Tasks),
			NextID:    s.State.NextID,
			Current:   i == m.cursor,
		})
	}
	return entries
}

func (m *Manager) truncate() {
	if m.cursor >= 0 && m.cursor < len(m.log)-1 {
		for i := m.cursor + 1; i < len(m.log); i++ {
			m.log[i] = Snapshot{}
		}
		m.log = m.log[:m.cursor+1]
	}
}

// push appends a snapshot, moves the cursor onto it and evicts the oldest
// entry past capacity.
func (m *Manager) push(s model.State) {
	m.log = append(m.log, Snapshot{
		ID:      uuid.NewString(),
		State:   s.Clone(),
		TakenAt: m.now().UTC(),
	})
	m.cursor = len(m.log) - 1
	if len(m.log) > m.capacity {
		m.log[0] = Snapshot{}
		m.log = m.log[1:]
		m.cursor--
	}
}
