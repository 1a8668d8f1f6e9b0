package repo

import (
	"errors"
	"fmt"
	"time"

	"github.com/BuzzLyutic/todo-app/internal/model"
)

var (
	ErrorNotFound = errors.New("not found")
)

type TaskStore struct { // Хранилище задач в памяти, единственный владелец списка
	tasks  []model.Task
	nextID int64
	now    func() time.Time
}

func NewTaskStore() *TaskStore { // Конструктор
	return &TaskStore{
		tasks:  []model.Task{},
		nextID: 1,
		now:    time.Now,
	}
}

func (s *TaskStore) Create(f model.TaskFields) (model.Task, error) {
	t := normalize(model.Task{
		Title:        f.Title,
		Responsible:  f.Responsible,
		StartDate:    f.StartDate,
		EndDate:      f.EndDate,
		Priority:     f.Priority,
		Description:  f.Description,
		Observations: f.Observations,
	})
	if err := validate(t); err != nil {
		return model.Task{}, err
	}

	t.ID = s.nextID
	t.CreatedAt = s.now().UTC()
	s.nextID++
	s.tasks = append(s.tasks, t)
	return t, nil
}

func (s *TaskStore) Get(id int64) (model.Task, error) {
	i := s.indexOf(id)
	if i < 0 {
		return model.Task{}, notFound(id)
	}
	return s.tasks[i], nil
}

func (s *TaskStore) Update(id int64, p model.TaskPatch) (model.Task, error) {
	i := s.indexOf(id)
	if i < 0 {
		return model.Task{}, notFound(id)
	}

	// Изменения применяются к копии, оригинал остается нетронутым при ошибке
	updated := normalize(p.Apply(s.tasks[i]))
	if err := validate(updated); err != nil {
		return s.tasks[i], err
	}
	s.tasks[i] = updated
	return updated, nil
}

func (s *TaskStore) Remove(id int64) (model.Task, error) {
	i := s.indexOf(id)
	if i < 0 {
		return model.Task{}, notFound(id)
	}
	removed := s.tasks[i]
	s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
	return removed, nil
}

func (s *TaskStore) RemoveWhere(pred func(model.Task) bool) int {
	kept := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if !pred(t) {
			kept = append(kept, t)
		}
	}
	removed := len(s.tasks) - len(kept)
	s.tasks = kept
	return removed
}

func (s *TaskStore) MarkCompleted(id int64) (model.Task, error) {
	i := s.indexOf(id)
	if i < 0 {
		return model.Task{}, notFound(id)
	}
	s.tasks[i].Completed = true
	return s.tasks[i], nil
}

func (s *TaskStore) List(filter model.TaskFilter) []model.Task {
	tasks := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if filter.Match(t) {
			tasks = append(tasks, t)
		}
	}
	return tasks
}

func (s *TaskStore) All() []model.Task {
	return s.List(model.TaskFilter{})
}

func (s *TaskStore) Pending() []model.Task {
	completed := false
	return s.List(model.TaskFilter{Completed: &completed})
}

func (s *TaskStore) Completed() []model.Task {
	completed := true
	return s.List(model.TaskFilter{Completed: &completed})
}

// State возвращает независимую копию содержимого хранилища
func (s *TaskStore) State() model.State {
	return model.State{Tasks: s.tasks, NextID: s.nextID}.Clone()
}

// Restore целиком заменяет содержимое хранилища копией s
func (s *TaskStore) Restore(st model.State) {
	c := st.Clone()
	s.tasks = c.Tasks
	s.nextID = c.NextID
	for _, t := range s.tasks {
		if t.ID >= s.nextID {
			s.nextID = t.ID + 1
		}
	}
	if s.nextID < 1 {
		s.nextID = 1
	}
}

func (s *TaskStore) indexOf(id int64) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func notFound(id int64) error {
	return fmt.Errorf("task %d: %w", id, ErrorNotFound)
}
