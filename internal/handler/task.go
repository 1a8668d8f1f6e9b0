package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/todo-app/internal/history"
	"github.com/BuzzLyutic/todo-app/internal/model"
	"github.com/BuzzLyutic/todo-app/internal/repo"
	"github.com/BuzzLyutic/todo-app/internal/service"
	"github.com/BuzzLyutic/todo-app/internal/storage"
	"github.com/BuzzLyutic/todo-app/pkg/respond"
)

type TaskHandler struct {
	service *service.TaskService
	logger  *zap.Logger
}

func NewTaskHandler(srv *service.TaskService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		service: srv,
		logger:  logger,
	}
}

// failure - тело ответа при ошибке действия: то же, что и при успехе, плюс error
type failure struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
	*service.Outcome
}

type historyView struct {
	Entries []history.Entry `json:"entries"`
	CanUndo bool            `json:"canUndo"`
	CanRedo bool            `json:"canRedo"`
}

// Register вешает маршруты обработчика на роутер
func (h *TaskHandler) Register(r chi.Router) {
	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/board", h.Board)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", h.List)
			r.Post("/", h.Create)
			r.Delete("/completed", h.ClearCompleted)
			r.Get("/{id}", h.Get)
			r.Patch("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
			r.Post("/{id}/complete", h.Complete)
		})

		r.Route("/history", func(r chi.Router) {
			r.Get("/", h.History)
			r.Post("/undo", h.Undo)
			r.Post("/redo", h.Redo)
		})

		r.Route("/storage", func(r chi.Router) {
			r.Post("/save", h.Save)
			r.Post("/load", h.Load)
			r.Delete("/", h.ClearStorage)
		})
	})
}

func (h *TaskHandler) Health(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *TaskHandler) Board(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, r, http.StatusOK, h.service.Board(r.Context()))
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.TaskFields
	if !h.decode(w, r, &req) {
		return
	}

	out, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.handleErrors(w, r, err, &out)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/tasks/%d", out.Task.ID))
	respond.JSON(w, r, http.StatusCreated, out)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}

	task, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.handleErrors(w, r, err, nil)
		return
	}
	respond.JSON(w, r, http.StatusOK, task)
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter model.TaskFilter
	switch status := r.URL.Query().Get("status"); status {
	case "":
	case "pending", "completed":
		completed := status == "completed"
		filter.Completed = &completed
	default:
		respond.Error(w, r, http.StatusBadRequest, "status must be pending or completed")
		return
	}

	respond.JSON(w, r, http.StatusOK, h.service.List(r.Context(), filter))
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}

	var req model.TaskPatch
	if !h.decode(w, r, &req) {
		return
	}

	out, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.handleErrors(w, r, err, &out)
		return
	}
	respond.JSON(w, r, http.StatusOK, out)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}

	out, err := h.service.Delete(r.Context(), id)
	if err != nil {
		h.handleErrors(w, r, err, &out)
		return
	}
	respond.JSON(w, r, http.StatusOK, out)
}

func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}

	out, err := h.service.Complete(r.Context(), id)
	if err != nil {
		h.handleErrors(w, r, err, &out)
		return
	}
	respond.JSON(w, r, http.StatusOK, out)
}

func (h *TaskHandler) ClearCompleted(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ClearCompleted(r.Context())
	if err != nil {
		h.handleErrors(w, r, err, &out)
		return
	}
	respond.JSON(w, r, http.StatusOK, out)
}

func (h *TaskHandler) History(w http.ResponseWriter, r *http.Request) {
	board := h.service.Board(r.Context())
	respond.JSON(w, r, http.StatusOK, historyView{
		Entries: h.service.History(r.Context()),
		CanUndo: board.CanUndo,
		CanRedo: board.CanRedo,
	})
}

// Undo и Redo без доступных шагов отвечают 200 с предупреждением
func (h *TaskHandler) Undo(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, r, http.StatusOK, h.service.Undo(r.Context()))
}

func (h *TaskHandler) Redo(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, r, http.StatusOK, h.service.Redo(r.Context()))
}

func (h *TaskHandler) Save(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Save(r.Context())
	if err != nil {
		h.handleErrors(w, r, err, &out)
		return
	}
	respond.JSON(w, r, http.StatusOK, out)
}

func (h *TaskHandler) Load(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Load(r.Context())
	if err != nil {
		h.handleErrors(w, r, err, &out)
		return
	}
	respond.JSON(w, r, http.StatusOK, out)
}

func (h *TaskHandler) ClearStorage(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ClearStorage(r.Context())
	if err != nil {
		h.handleErrors(w, r, err, &out)
		return
	}
	respond.JSON(w, r, http.StatusOK, out)
}

func (h *TaskHandler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := respond.Decode(w, r, v); err != nil {
		h.logger.Error("failed to decode json", zap.Error(err))
		respond.Error(w, r, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (h *TaskHandler) taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(w, r, http.StatusBadRequest, "invalid task id")
		return 0, false
	}
	return id, true
}

func (h *TaskHandler) handleErrors(w http.ResponseWriter, r *http.Request, err error, out *service.Outcome) {
	body := failure{Outcome: out}
	code := http.StatusInternalServerError

	var verr *repo.ValidationError
	var perr *storage.PersistenceError
	switch {
	case errors.As(err, &verr):
		code = http.StatusBadRequest
		body.Error = "validation error"
		body.Fields = verr.Fields()
	case errors.Is(err, repo.ErrorNotFound):
		code = http.StatusNotFound
		body.Error = "not found"
	case errors.Is(err, storage.ErrCorrupt):
		code = http.StatusUnprocessableEntity
		body.Error = "saved data is corrupted"
	case errors.As(err, &perr):
		code = http.StatusServiceUnavailable
		body.Error = "storage unavailable"
	default:
		h.logger.Error("internal error", zap.Error(err))
		body.Error = "internal error"
	}
	respond.JSON(w, r, code, body)
}
