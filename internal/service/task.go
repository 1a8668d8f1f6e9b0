package service

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/todo-app/internal/history"
	"github.com/BuzzLyutic/todo-app/internal/model"
	"github.com/BuzzLyutic/todo-app/internal/repo"
	"github.com/BuzzLyutic/todo-app/internal/storage"
)

// Outcome is returned by every action: what happened and what to render next.
type Outcome struct {
	Notice  model.Notice `json:"notice"`
	Task    *model.Task  `json:"task,omitempty"`
	Removed int          `json:"removed,omitempty"`
	Board   model.Board  `json:"board"`
}

// TaskService сериализует действия пользователя: в каждый момент выполняется
// только одно действие над хранилищем и историей.
type TaskService struct {
	mu      sync.Mutex
	repo    repo.TaskRepository
	history *history.Manager
	gateway storage.Gateway
	logger  *zap.Logger
	dirty   bool
}

func NewTaskService(repo repo.TaskRepository, hist *history.Manager, gateway storage.Gateway, logger *zap.Logger) *TaskService {
	return &TaskService{
		repo:    repo,
		history: hist,
		gateway: gateway,
		logger:  logger,
	}
}

// Open загружает сохраненное состояние и делает первый снимок истории.
// Ошибка загрузки не фатальна: хранилище остается пустым.
func (s *TaskService) Open(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loaded, err := s.gateway.Load(ctx)
	var out Outcome
	switch {
	case err == nil:
		s.repo.Restore(loaded)
		out.Notice = notice(model.NoticeSuccess, MsgLoaded)
	case errors.Is(err, storage.ErrAbsent):
		s.repo.Restore(model.EmptyState())
		out.Notice = notice(model.NoticeInfo, MsgNoSavedData)
		err = nil
	default:
		s.logger.Error("initial load failed, starting empty", zap.Error(err))
		s.repo.Restore(model.EmptyState())
		out.Notice = noticeFor(err)
	}

	s.history.Baseline(s.repo.State())
	s.dirty = false
	s.logger.Info("task store opened", zap.Int("tasks", len(s.repo.All())))
	out.Board = s.board()
	return out, err
}

func (s *TaskService) Create(ctx context.Context, f model.TaskFields) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var created model.Task
	err := s.mutate("create", func() (err error) {
		created, err = s.repo.Create(f)
		return err
	})
	if err != nil {
		return s.fail("create", err, 0), err
	}
	s.logger.Info("task created", zap.Int64("task_id", created.ID))
	return s.done(MsgTaskCreated, &created), nil
}

func (s *TaskService) Update(ctx context.Context, id int64, p model.TaskPatch) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var updated model.Task
	err := s.mutate("update", func() (err error) {
		updated, err = s.repo.Update(id, p)
		return err
	})
	if err != nil {
		return s.fail("update", err, id), err
	}
	s.logger.Info("task updated", zap.Int64("task_id", id))
	return s.done(MsgTaskUpdated, &updated), nil
}

func (s *TaskService) Delete(ctx context.Context, id int64) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed model.Task
	err := s.mutate("delete", func() (err error) {
		removed, err = s.repo.Remove(id)
		return err
	})
	if err != nil {
		return s.fail("delete", err, id), err
	}
	s.logger.Info("task deleted", zap.Int64("task_id", id))
	out := s.done(MsgTaskDeleted, &removed)
	out.Removed = 1
	return out, nil
}

func (s *TaskService) Complete(ctx context.Context, id int64) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.repo.Get(id)
	if err != nil {
		return s.fail("complete", err, id), err
	}
	if current.Completed {
		out := s.done(MsgTaskAlreadyDone, &current)
		out.Notice.Level = model.NoticeInfo
		return out, nil
	}

	var done model.Task
	err = s.mutate("complete", func() (err error) {
		done, err = s.repo.MarkCompleted(id)
		return err
	})
	if err != nil {
		return s.fail("complete", err, id), err
	}
	s.logger.Info("task completed", zap.Int64("task_id", id))
	return s.done(MsgTaskCompleted, &done), nil
}

// ClearCompleted удаляет все выполненные задачи одним действием
func (s *TaskService) ClearCompleted(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.repo.Completed()) == 0 {
		return Outcome{Notice: notice(model.NoticeInfo, MsgNothingToClear), Board: s.board()}, nil
	}

	var removed int
	_ = s.mutate("clear_completed", func() error {
		removed = s.repo.RemoveWhere(func(t model.Task) bool { return t.Completed })
		return nil
	})
	s.logger.Info("completed tasks cleared", zap.Int("removed", removed))
	out := s.done(MsgCompletedCleared, nil)
	out.Removed = removed
	return out, nil
}

// Undo возвращает хранилище к состоянию до последнего действия.
// Отсутствие действий для отмены не является ошибкой.
func (s *TaskService) Undo(ctx context.Context) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	restored, ok := s.history.Undo(s.repo.State())
	if !ok {
		s.logger.Info("nothing to undo")
		return Outcome{Notice: notice(model.NoticeWarning, MsgNothingToUndo), Board: s.board()}
	}
	s.repo.Restore(restored)
	s.dirty = true
	s.logger.Info("undo", zap.Int("cursor", s.history.Cursor()), zap.Int("history_len", s.history.Len()))
	return Outcome{Notice: notice(model.NoticeInfo, MsgUndone), Board: s.board()}
}

func (s *TaskService) Redo(ctx context.Context) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	restored, ok := s.history.Redo()
	if !ok {
		s.logger.Info("nothing to redo")
		return Outcome{Notice: notice(model.NoticeWarning, MsgNothingToRedo), Board: s.board()}
	}
	s.repo.Restore(restored)
	s.dirty = true
	s.logger.Info("redo", zap.Int("cursor", s.history.Cursor()), zap.Int("history_len", s.history.Len()))
	return Outcome{Notice: notice(model.NoticeInfo, MsgRedone), Board: s.board()}
}

func (s *TaskService) Save(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.save(ctx); err != nil {
		return s.fail("save", err, 0), err
	}
	return Outcome{Notice: notice(model.NoticeSuccess, MsgSaved), Board: s.board()}, nil
}

// SaveIfDirty сохраняет состояние, только если оно менялось с последнего сохранения
func (s *TaskService) SaveIfDirty(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return false, nil
	}
	if err := s.save(ctx); err != nil {
		s.logger.Error("autosave failed", zap.Error(err))
		return false, err
	}
	return true, nil
}

// Load заменяет содержимое хранилища сохраненными данными. Это обычное
// действие пользователя, его можно отменить.
func (s *TaskService) Load(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loaded, err := s.gateway.Load(ctx)
	if errors.Is(err, storage.ErrAbsent) {
		return Outcome{Notice: notice(model.NoticeInfo, MsgNoSavedData), Board: s.board()}, nil
	}
	if err != nil {
		// Поврежденные данные считаются отсутствующими: начинаем с пустого хранилища
		s.replace("load", model.EmptyState())
		s.dirty = false
		return s.fail("load", err, 0), err
	}

	s.replace("load", loaded)
	s.dirty = false
	s.logger.Info("data loaded", zap.Int("tasks", len(loaded.Tasks)))
	return Outcome{Notice: notice(model.NoticeSuccess, MsgLoaded), Board: s.board()}, nil
}

// ClearStorage удаляет сохраненные данные и сбрасывает хранилище и историю
func (s *TaskService) ClearStorage(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.gateway.Clear(ctx); err != nil {
		return s.fail("clear_storage", err, 0), err
	}
	s.repo.Restore(model.EmptyState())
	s.history.Baseline(s.repo.State())
	s.dirty = false
	s.logger.Info("storage cleared")
	return Outcome{Notice: notice(model.NoticeSuccess, MsgStorageCleared), Board: s.board()}, nil
}

func (s *TaskService) Get(ctx context.Context, id int64) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.Get(id)
}

func (s *TaskService) List(ctx context.Context, filter model.TaskFilter) []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.List(filter)
}

func (s *TaskService) Board(ctx context.Context) model.Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board()
}

func (s *TaskService) History(ctx context.Context) []history.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Entries()
}

// mutate снимает состояние до изменения и фиксирует его в истории,
// только если изменение прошло успешно
func (s *TaskService) mutate(op string, fn func() error) error {
	pre := s.repo.State()
	if err := fn(); err != nil {
		return err
	}
	snap := s.history.Commit(pre)
	s.dirty = true
	s.logger.Debug("history commit",
		zap.String("op", op),
		zap.String("snapshot", snap.ID),
		zap.Int("cursor", s.history.Cursor()),
		zap.Int("history_len", s.history.Len()),
	)
	return nil
}

// replace целиком подменяет состояние как отменяемое действие
func (s *TaskService) replace(op string, next model.State) {
	if s.repo.State().Equal(next) {
		return
	}
	_ = s.mutate(op, func() error {
		s.repo.Restore(next)
		return nil
	})
}

func (s *TaskService) save(ctx context.Context) error {
	if err := s.gateway.Save(ctx, s.repo.State()); err != nil {
		return err
	}
	s.dirty = false
	s.logger.Info("data saved", zap.Int("tasks", len(s.repo.All())))
	return nil
}

func (s *TaskService) done(msg string, t *model.Task) Outcome {
	return Outcome{
		Notice: notice(model.NoticeSuccess, msg),
		Task:   t,
		Board:  s.board(),
	}
}

func (s *TaskService) fail(op string, err error, id int64) Outcome {
	fields := []zap.Field{zap.String("op", op), zap.Error(err)}
	if id != 0 {
		fields = append(fields, zap.Int64("task_id", id))
	}

	var perr *storage.PersistenceError
	switch {
	case errors.As(err, &perr):
		s.logger.Error("persistence failure", fields...)
	case errors.Is(err, repo.ErrValidation), errors.Is(err, repo.ErrorNotFound):
		s.logger.Warn("action rejected", fields...)
	default:
		s.logger.Error("action failed", fields...)
	}
	return Outcome{Notice: noticeFor(err), Board: s.board()}
}

func (s *TaskService) board() model.Board {
	pending := s.repo.Pending()
	completed := s.repo.Completed()
	return model.Board{
		Pending:        pending,
		Completed:      completed,
		PendingCount:   len(pending),
		CompletedCount: len(completed),
		CanUndo:        s.history.CanUndo(),
		CanRedo:        s.history.CanRedo(),
	}
}
