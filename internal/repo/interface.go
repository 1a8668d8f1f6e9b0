package repo

import (
	"github.com/BuzzLyutic/todo-app/internal/model"
)

// TaskRepository определяет операции над хранилищем задач
type TaskRepository interface {
	Create(f model.TaskFields) (model.Task, error)
	Get(id int64) (model.Task, error)
	Update(id int64, p model.TaskPatch) (model.Task, error)
	Remove(id int64) (model.Task, error)
	RemoveWhere(pred func(model.Task) bool) int
	MarkCompleted(id int64) (model.Task, error)
	List(filter model.TaskFilter) []model.Task
	All() []model.Task
	Pending() []model.Task
	Completed() []model.Task
	State() model.State
	Restore(s model.State)
}
