package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Priority of a task. The zero value is PriorityUnspecified.
type Priority string

const (
	PriorityUnspecified Priority = ""
	PriorityHigh        Priority = "high"
	PriorityMedium      Priority = "medium"
	PriorityLow         Priority = "low"
)

// ParsePriority maps unknown values to PriorityUnspecified.
func ParsePriority(s string) Priority {
	switch p := Priority(s); p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return p
	default:
		return PriorityUnspecified
	}
}

func (p Priority) Valid() bool {
	return ParsePriority(string(p)) != PriorityUnspecified
}

// Field length limits, counted in runes.
const (
	MaxTitleLen        = 100
	MaxResponsibleLen  = 50
	MaxDescriptionLen  = 500
	MaxObservationsLen = 300
)

type Task struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Responsible  string    `json:"responsible"`
	StartDate    Date      `json:"startDate"`
	EndDate      Date      `json:"endDate"`
	Priority     Priority  `json:"priority"`
	Description  string    `json:"description"`
	Observations string    `json:"observations"`
	Completed    bool      `json:"completed"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (t Task) Equal(o Task) bool {
	return t.ID == o.ID &&
		t.Title == o.Title &&
		t.Responsible == o.Responsible &&
		t.StartDate.Equal(o.StartDate) &&
		t.EndDate.Equal(o.EndDate) &&
		t.Priority == o.Priority &&
		t.Description == o.Description &&
		t.Observations == o.Observations &&
		t.Completed == o.Completed &&
		t.CreatedAt.Equal(o.CreatedAt)
}

// TaskFields is the input of a create operation.
type TaskFields struct {
	Title        string   `json:"title"`
	Responsible  string   `json:"responsible"`
	StartDate    Date     `json:"startDate"`
	EndDate      Date     `json:"endDate"`
	Priority     Priority `json:"priority"`
	Description  string   `json:"description"`
	Observations string   `json:"observations"`
}

// TaskPatch is the input of an update operation. Nil fields are left as they are.
type TaskPatch struct {
	Title        *string   `json:"title,omitempty"`
	Responsible  *string   `json:"responsible,omitempty"`
	StartDate    *Date     `json:"startDate,omitempty"`
	EndDate      *Date     `json:"endDate,omitempty"`
	Priority     *Priority `json:"priority,omitempty"`
	Description  *string   `json:"description,omitempty"`
	Observations *string   `json:"observations,omitempty"`
}

// Apply returns a copy of t with the provided patch fields set.
func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Responsible != nil {
		t.Responsible = *p.Responsible
	}
	if p.StartDate != nil {
		t.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		t.EndDate = *p.EndDate
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Observations != nil {
		t.Observations = *p.Observations
	}
	return t
}

type TaskFilter struct {
	Completed *bool
}

func (f TaskFilter) Match(t Task) bool {
	return f.Completed == nil || *f.Completed == t.Completed
}

func (p *Priority) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("priority must be a string: %w", err)
	}
	*p = ParsePriority(s)
	return nil
}
