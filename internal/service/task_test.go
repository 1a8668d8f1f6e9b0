package service

import (
	"context"
	"errors"
	"testing"

	"github.com/BuzzLyutic/todo-app/internal/history"
	"github.com/BuzzLyutic/todo-app/internal/model"
	"github.com/BuzzLyutic/todo-app/internal/repo"
	"github.com/BuzzLyutic/todo-app/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// MockGateway - мок шлюза хранения
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Save(ctx context.Context, s model.State) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockGateway) Load(ctx context.Context) (model.State, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.State), args.Error(1)
}

func (m *MockGateway) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockGateway) Close() error {
	return nil
}

func fields(title string) model.TaskFields {
	return model.TaskFields{
		Title:       title,
		Responsible: "Ana",
		StartDate:   model.MustDate("2024-03-01"),
		EndDate:     model.MustDate("2024-03-10"),
		Priority:    model.PriorityMedium,
	}
}

func newService(t *testing.T, gw storage.Gateway) *TaskService {
	t.Helper()
	svc := NewTaskService(repo.NewTaskStore(), history.New(history.DefaultCapacity), gw, zap.NewNop())
	_, err := svc.Open(context.Background())
	require.NoError(t, err)
	return svc
}

func titles(tasks []model.Task) []string {
	out := []string{}
	for _, t := range tasks {
		out = append(out, t.Title)
	}
	return out
}

func TestTaskService_OpenWithoutSavedData(t *testing.T) {
	gw := new(MockGateway)
	gw.On("Load", mock.Anything).Return(model.State{}, &storage.PersistenceError{Op: "load", Err: storage.ErrAbsent})

	svc := NewTaskService(repo.NewTaskStore(), history.New(0), gw, zap.NewNop())
	out, err := svc.Open(context.Background())

	require.NoError(t, err)
	assert.Equal(t, model.NoticeInfo, out.Notice.Level)
	assert.Equal(t, MsgNoSavedData, out.Notice.Message)
	assert.Empty(t, out.Board.Pending)
	assert.False(t, out.Board.CanUndo)
	gw.AssertExpectations(t)
}

func TestTaskService_OpenCorruptData(t *testing.T) {
	gw := storage.NewMemoryGateway("")
	gw.Put([]byte(`{"tasks": "oops"`))

	core, logs := observer.New(zapcore.InfoLevel)
	svc := NewTaskService(repo.NewTaskStore(), history.New(0), gw, zap.New(core))
	out, err := svc.Open(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrCorrupt)
	var perr *storage.PersistenceError
	assert.ErrorAs(t, err, &perr)

	assert.Equal(t, model.NoticeError, out.Notice.Level)
	assert.Equal(t, MsgLoadCorrupt, out.Notice.Message)
	assert.Empty(t, out.Board.Pending)
	assert.Equal(t, 1, logs.FilterMessage("initial load failed, starting empty").Len())

	// приложение продолжает работать, счетчик id сброшен
	created, err := svc.Create(context.Background(), fields("A"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.Task.ID)
}

func TestTaskService_OpenRestoresSavedData(t *testing.T) {
	saved := model.State{
		Tasks:  []model.Task{{ID: 4, Title: "Saved", Priority: model.PriorityLow}},
		NextID: 5,
	}
	gw := new(MockGateway)
	gw.On("Load", mock.Anything).Return(saved, nil)

	svc := NewTaskService(repo.NewTaskStore(), history.New(0), gw, zap.NewNop())
	out, err := svc.Open(context.Background())
	require.NoError(t, err)
	assert.Equal(t, MsgLoaded, out.Notice.Message)
	assert.Equal(t, []string{"Saved"}, titles(out.Board.Pending))

	created, err := svc.Create(context.Background(), fields("Next"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), created.Task.ID)
}

func TestTaskService_Create(t *testing.T) {
	tests := []struct {
		name      string
		fields    model.TaskFields
		wantErr   error
		wantLevel model.NoticeLevel
		wantMsg   string
	}{
		{
			name:      "successful creation",
			fields:    fields("Test Task"),
			wantLevel: model.NoticeSuccess,
			wantMsg:   MsgTaskCreated,
		},
		{
			name: "validation error - missing fields",
			fields: model.TaskFields{
				Title:     "No responsible",
				StartDate: model.MustDate("2024-03-01"),
				EndDate:   model.MustDate("2024-03-02"),
			},
			wantErr:   repo.ErrValidation,
			wantLevel: model.NoticeWarning,
			wantMsg:   MsgRequiredFields + ": responsible, priority.",
		},
		{
			name: "validation error - end before start",
			fields: func() model.TaskFields {
				f := fields("Backwards")
				f.EndDate = model.MustDate("2024-02-01")
				return f
			}(),
			wantErr:   repo.ErrValidation,
			wantLevel: model.NoticeWarning,
			wantMsg:   MsgEndBeforeStart,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(t, storage.NewMemoryGateway(""))
			out, err := svc.Create(context.Background(), tt.fields)

			assert.Equal(t, tt.wantLevel, out.Notice.Level)
			assert.Equal(t, tt.wantMsg, out.Notice.Message)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, out.Task)
				assert.False(t, out.Board.CanUndo, "failed action must not be committed")
				return
			}
			require.NoError(t, err)
			require.NotNil(t, out.Task)
			assert.NotZero(t, out.Task.ID)
			assert.Equal(t, 1, out.Board.PendingCount)
			assert.True(t, out.Board.CanUndo)
		})
	}
}

func TestTaskService_UpdateRejectsBadDatesWithoutCommit(t *testing.T) {
	svc := newService(t, storage.NewMemoryGateway(""))
	ctx := context.Background()

	created, err := svc.Create(ctx, fields("A"))
	require.NoError(t, err)
	before := svc.History(ctx)

	bad := model.MustDate("2023-12-31")
	title := "B"
	out, err := svc.Update(ctx, created.Task.ID, model.TaskPatch{Title: &title, EndDate: &bad})
	require.ErrorIs(t, err, repo.ErrValidation)
	assert.Equal(t, MsgEndBeforeStart, out.Notice.Message)

	task, err := svc.Get(ctx, created.Task.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", task.Title)
	assert.Equal(t, created.Task.EndDate, task.EndDate)
	assert.Equal(t, len(before), len(svc.History(ctx)))
}

func TestTaskService_UnknownID(t *testing.T) {
	svc := newService(t, storage.NewMemoryGateway(""))
	ctx := context.Background()
	title := "x"

	calls := map[string]func() (Outcome, error){
		"update":   func() (Outcome, error) { return svc.Update(ctx, 9, model.TaskPatch{Title: &title}) },
		"delete":   func() (Outcome, error) { return svc.Delete(ctx, 9) },
		"complete": func() (Outcome, error) { return svc.Complete(ctx, 9) },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			out, err := call()
			assert.ErrorIs(t, err, repo.ErrorNotFound)
			assert.Equal(t, model.NoticeError, out.Notice.Level)
			assert.Equal(t, MsgTaskNotFound, out.Notice.Message)
			assert.False(t, out.Board.CanUndo)
		})
	}
}

// create A -> create B -> delete A -> undo -> {A, B}; undo -> {A}
func TestTaskService_UndoExampleSequence(t *testing.T) {
	svc := newService(t, storage.NewMemoryGateway(""))
	ctx := context.Background()

	a, err := svc.Create(ctx, fields("A"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.Task.ID)
	b, err := svc.Create(ctx, fields("B"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), b.Task.ID)

	_, err = svc.Delete(ctx, a.Task.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, titles(svc.Board(ctx).Pending))

	out := svc.Undo(ctx)
	assert.Equal(t, MsgUndone, out.Notice.Message)
	assert.Equal(t, []string{"A", "B"}, titles(out.Board.Pending))

	out = svc.Undo(ctx)
	assert.Equal(t, []string{"A"}, titles(out.Board.Pending))

	out = svc.Undo(ctx)
	assert.Equal(t, []string{}, titles(out.Board.Pending))

	out = svc.Undo(ctx)
	assert.Equal(t, model.NoticeWarning, out.Notice.Level)
	assert.Equal(t, MsgNothingToUndo, out.Notice.Message)

	// redo walks the same path forward
	assert.Equal(t, []string{"A"}, titles(svc.Redo(ctx).Board.Pending))
	assert.Equal(t, []string{"A", "B"}, titles(svc.Redo(ctx).Board.Pending))
	assert.Equal(t, []string{"B"}, titles(svc.Redo(ctx).Board.Pending))
	assert.Equal(t, MsgNothingToRedo, svc.Redo(ctx).Notice.Message)
}

func TestTaskService_UndoRestoresIDCounter(t *testing.T) {
	svc := newService(t, storage.NewMemoryGateway(""))
	ctx := context.Background()

	_, err := svc.Create(ctx, fields("A"))
	require.NoError(t, err)
	svc.Undo(ctx)

	created, err := svc.Create(ctx, fields("A again"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.Task.ID)
}

func TestTaskService_NewActionAfterUndoDropsRedo(t *testing.T) {
	svc := newService(t, storage.NewMemoryGateway(""))
	ctx := context.Background()

	for _, title := range []string{"A", "B", "C"} {
		_, err := svc.Create(ctx, fields(title))
		require.NoError(t, err)
	}
	svc.Undo(ctx)
	svc.Undo(ctx)

	out, err := svc.Create(ctx, fields("X"))
	require.NoError(t, err)
	assert.False(t, out.Board.CanRedo)

	redo := svc.Redo(ctx)
	assert.Equal(t, MsgNothingToRedo, redo.Notice.Message)
	assert.Equal(t, []string{"A", "X"}, titles(redo.Board.Pending))
}

func TestTaskService_CompleteAndClearCompleted(t *testing.T) {
	svc := newService(t, storage.NewMemoryGateway(""))
	ctx := context.Background()

	for _, title := range []string{"p1", "c1", "p2", "c2"} {
		_, err := svc.Create(ctx, fields(title))
		require.NoError(t, err)
	}

	out, err := svc.Complete(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, MsgTaskCompleted, out.Notice.Message)
	assert.True(t, out.Task.Completed)

	again, err := svc.Complete(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, model.NoticeInfo, again.Notice.Level)

	_, err = svc.Complete(ctx, 4)
	require.NoError(t, err)

	out, err = svc.ClearCompleted(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Removed)
	assert.Equal(t, []string{"p1", "p2"}, titles(out.Board.Pending))
	assert.Empty(t, out.Board.Completed)

	out, err = svc.ClearCompleted(ctx)
	require.NoError(t, err)
	assert.Equal(t, MsgNothingToClear, out.Notice.Message)

	undone := svc.Undo(ctx)
	assert.Equal(t, []string{"c1", "c2"}, titles(undone.Board.Completed))
}

func TestTaskService_SaveAndLoad(t *testing.T) {
	gw := storage.NewMemoryGateway("")
	svc := newService(t, gw)
	ctx := context.Background()

	_, err := svc.Create(ctx, fields("A"))
	require.NoError(t, err)

	out, err := svc.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, MsgSaved, out.Notice.Message)

	_, err = svc.Create(ctx, fields("B"))
	require.NoError(t, err)

	out, err = svc.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, MsgLoaded, out.Notice.Message)
	assert.Equal(t, []string{"A"}, titles(out.Board.Pending))

	// загрузка - отменяемое действие
	undone := svc.Undo(ctx)
	assert.Equal(t, []string{"A", "B"}, titles(undone.Board.Pending))
}

func TestTaskService_LoadCorruptFallsBackToEmpty(t *testing.T) {
	gw := storage.NewMemoryGateway("")
	svc := newService(t, gw)
	ctx := context.Background()

	_, err := svc.Create(ctx, fields("A"))
	require.NoError(t, err)
	gw.Put([]byte("not json"))

	out, err := svc.Load(ctx)
	assert.ErrorIs(t, err, storage.ErrCorrupt)
	assert.Equal(t, model.NoticeError, out.Notice.Level)
	assert.Empty(t, out.Board.Pending)

	created, err := svc.Create(ctx, fields("fresh"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.Task.ID)
}

func TestTaskService_LoadAbsent(t *testing.T) {
	svc := newService(t, storage.NewMemoryGateway(""))
	ctx := context.Background()

	_, err := svc.Create(ctx, fields("A"))
	require.NoError(t, err)

	out, err := svc.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.NoticeInfo, out.Notice.Level)
	assert.Equal(t, []string{"A"}, titles(out.Board.Pending))
}

func TestTaskService_SaveFailure(t *testing.T) {
	gw := new(MockGateway)
	gw.On("Load", mock.Anything).Return(model.State{}, storage.ErrAbsent)
	gw.On("Save", mock.Anything, mock.Anything).Return(&storage.PersistenceError{Op: "save", Err: errors.New("disk full")})

	svc := newService(t, gw)
	out, err := svc.Save(context.Background())

	var perr *storage.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, model.NoticeError, out.Notice.Level)
	assert.Equal(t, MsgSaveFailed, out.Notice.Message)
	gw.AssertExpectations(t)
}

func TestTaskService_SaveIfDirty(t *testing.T) {
	gw := new(MockGateway)
	gw.On("Load", mock.Anything).Return(model.State{}, storage.ErrAbsent)
	gw.On("Save", mock.Anything, mock.MatchedBy(func(s model.State) bool {
		return len(s.Tasks) == 1 && s.NextID == 2
	})).Return(nil).Once()

	svc := newService(t, gw)
	ctx := context.Background()

	saved, err := svc.SaveIfDirty(ctx)
	require.NoError(t, err)
	assert.False(t, saved)

	_, err = svc.Create(ctx, fields("A"))
	require.NoError(t, err)

	saved, err = svc.SaveIfDirty(ctx)
	require.NoError(t, err)
	assert.True(t, saved)

	saved, err = svc.SaveIfDirty(ctx)
	require.NoError(t, err)
	assert.False(t, saved)

	gw.AssertExpectations(t)
}

func TestTaskService_ClearStorage(t *testing.T) {
	gw := storage.NewMemoryGateway("")
	svc := newService(t, gw)
	ctx := context.Background()

	_, err := svc.Create(ctx, fields("A"))
	require.NoError(t, err)
	_, err = svc.Save(ctx)
	require.NoError(t, err)

	out, err := svc.ClearStorage(ctx)
	require.NoError(t, err)
	assert.Equal(t, MsgStorageCleared, out.Notice.Message)
	assert.Empty(t, out.Board.Pending)
	assert.False(t, out.Board.CanUndo)
	assert.Len(t, svc.History(ctx), 1)

	_, err = gw.Load(ctx)
	assert.ErrorIs(t, err, storage.ErrAbsent)

	created, err := svc.Create(ctx, fields("B"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.Task.ID)
}

func TestTaskService_ClearStorageFailureKeepsState(t *testing.T) {
	gw := new(MockGateway)
	gw.On("Load", mock.Anything).Return(model.State{}, storage.ErrAbsent)
	gw.On("Clear", mock.Anything).Return(&storage.PersistenceError{Op: "clear", Err: errors.New("read-only")})

	svc := newService(t, gw)
	ctx := context.Background()
	_, err := svc.Create(ctx, fields("A"))
	require.NoError(t, err)

	out, err := svc.ClearStorage(ctx)
	require.Error(t, err)
	assert.Equal(t, MsgClearFailed, out.Notice.Message)
	assert.Equal(t, []string{"A"}, titles(out.Board.Pending))
	assert.True(t, out.Board.CanUndo)
}

func TestTaskService_HistoryBounded(t *testing.T) {
	svc := newService(t, storage.NewMemoryGateway(""))
	ctx := context.Background()

	for i := 0; i < 30; i++ {
		_, err := svc.Create(ctx, fields("T"))
		require.NoError(t, err)
		require.LessOrEqual(t, len(svc.History(ctx)), history.DefaultCapacity)
	}

	undos := 0
	for svc.Board(ctx).CanUndo {
		svc.Undo(ctx)
		undos++
	}
	assert.Equal(t, history.DefaultCapacity-1, undos)
	assert.Equal(t, 30-history.DefaultCapacity+1, svc.Board(ctx).PendingCount)
}
