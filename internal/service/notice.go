package service

import (
	"errors"
	"strings"

	"github.com/BuzzLyutic/todo-app/internal/model"
	"github.com/BuzzLyutic/todo-app/internal/repo"
	"github.com/BuzzLyutic/todo-app/internal/storage"
)

const (
	MsgTaskCreated       = "Task added successfully!"
	MsgTaskUpdated       = "Task updated successfully!"
	MsgTaskDeleted       = "Task deleted successfully!"
	MsgTaskCompleted     = "Task marked as completed!"
	MsgTaskAlreadyDone   = "Task is already completed."
	MsgCompletedCleared  = "All completed tasks were deleted."
	MsgNothingToClear    = "There are no completed tasks to delete."
	MsgUndone            = "Action undone!"
	MsgNothingToUndo     = "There are no more actions to undo."
	MsgRedone            = "Action redone!"
	MsgNothingToRedo     = "There are no more actions to redo."
	MsgSaved             = "Data saved successfully!"
	MsgSaveFailed        = "Failed to save data. The storage may be full or unavailable."
	MsgLoaded            = "Data loaded successfully!"
	MsgNoSavedData       = "No saved data found."
	MsgLoadCorrupt       = "Failed to load data. The saved data may be corrupted."
	MsgLoadFailed        = "Failed to load data. The storage is unavailable."
	MsgStorageCleared    = "Stored data was cleared successfully!"
	MsgClearFailed       = "Failed to clear stored data."
	MsgTaskNotFound      = "Task not found."
	MsgRequiredFields    = "Please fill in all required fields"
	MsgEndBeforeStart    = "The end date must be on or after the start date."
	MsgUnexpectedFailure = "Something went wrong, please try again."
)

func notice(level model.NoticeLevel, msg string) model.Notice {
	return model.Notice{Level: level, Message: msg}
}

// noticeFor переводит ошибку операции в сообщение для пользователя
func noticeFor(err error) model.Notice {
	var verr *repo.ValidationError
	switch {
	case errors.As(err, &verr):
		if len(verr.Missing) > 0 {
			return notice(model.NoticeWarning, MsgRequiredFields+": "+strings.Join(verr.Missing, ", ")+".")
		}
		return notice(model.NoticeWarning, MsgEndBeforeStart)
	case errors.Is(err, repo.ErrorNotFound):
		return notice(model.NoticeError, MsgTaskNotFound)
	case errors.Is(err, storage.ErrCorrupt):
		return notice(model.NoticeError, MsgLoadCorrupt)
	default:
		var perr *storage.PersistenceError
		if errors.As(err, &perr) {
			switch perr.Op {
			case "save":
				return notice(model.NoticeError, MsgSaveFailed)
			case "clear":
				return notice(model.NoticeError, MsgClearFailed)
			default:
				return notice(model.NoticeError, MsgLoadFailed)
			}
		}
		return notice(model.NoticeError, MsgUnexpectedFailure)
	}
}
