package repo

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/BuzzLyutic/todo-app/internal/model"
)

var (
	ErrValidation = errors.New("validation error")
)

// ValidationError перечисляет поля, не прошедшие проверку
type ValidationError struct {
	Missing   []string
	DateOrder bool
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(e.Missing, ", "))
	}
	if e.DateOrder {
		parts = append(parts, "endDate is before startDate")
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Fields возвращает имена всех нарушенных полей
func (e *ValidationError) Fields() []string {
	fields := append([]string(nil), e.Missing...)
	if e.DateOrder {
		fields = append(fields, "endDate")
	}
	return fields
}

// normalize обрезает пробелы и ограничивает длину текстовых полей
func normalize(t model.Task) model.Task {
	t.Title = clamp(strings.TrimSpace(t.Title), model.MaxTitleLen)
	t.Responsible = clamp(strings.TrimSpace(t.Responsible), model.MaxResponsibleLen)
	t.Description = clamp(strings.TrimSpace(t.Description), model.MaxDescriptionLen)
	t.Observations = clamp(strings.TrimSpace(t.Observations), model.MaxObservationsLen)
	t.Priority = model.ParsePriority(string(t.Priority))
	return t
}

func clamp(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

// validate одинаково применяется при создании и при редактировании
func validate(t model.Task) error {
	var missing []string
	if t.Title == "" {
		missing = append(missing, "title")
	}
	if t.Responsible == "" {
		missing = append(missing, "responsible")
	}
	if t.StartDate.IsZero() {
		missing = append(missing, "startDate")
	}
	if t.EndDate.IsZero() {
		missing = append(missing, "endDate")
	}
	if !t.Priority.Valid() {
		missing = append(missing, "priority")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	if t.EndDate.Before(t.StartDate) {
		return &ValidationError{DateOrder: true}
	}
	return nil
}
