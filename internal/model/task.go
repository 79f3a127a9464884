package model

import "time"

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

const DefaultCategory = "personal"

// Task is a single row of the tasks table. A note is a task with IsNote set.
type Task struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Priority    Priority   `json:"priority"`
	Status      Status     `json:"status"`
	Category    string     `json:"category"`
	DueDate     *time.Time `json:"dueDate"`
	IsNote      bool       `json:"isNote"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TaskInput is validated create input with defaults already filled in.
type TaskInput struct {
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Priority    Priority   `json:"priority"`
	Status      Status     `json:"status"`
	Category    string     `json:"category"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	IsNote      bool       `json:"isNote"`
}

// Optional marks whether a patch field was supplied at all.
// For nullable columns T is a pointer so an explicit null stays distinguishable from absence.
type Optional[T any] struct {
	Set   bool
	Value T
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// TaskPatch is a partial update; only fields with Set true are written.
type TaskPatch struct {
	Title       Optional[string]
	Description Optional[*string]
	Priority    Optional[Priority]
	Status      Optional[Status]
	Category    Optional[string]
	DueDate     Optional[*time.Time]
	IsNote      Optional[bool]
}

func (p TaskPatch) Empty() bool {
	return !p.Title.Set && !p.Description.Set && !p.Priority.Set && !p.Status.Set &&
		!p.Category.Set && !p.DueDate.Set && !p.IsNote.Set
}

// Apply merges the supplied fields into t.
func (p TaskPatch) Apply(t *Task) {
	if p.Title.Set {
		t.Title = p.Title.Value
	}
	if p.Description.Set {
		t.Description = p.Description.Value
	}
	if p.Priority.Set {
		t.Priority = p.Priority.Value
	}
	if p.Status.Set {
		t.Status = p.Status.Value
	}
	if p.Category.Set {
		t.Category = p.Category.Value
	}
	if p.DueDate.Set {
		t.DueDate = p.DueDate.Value
	}
	if p.IsNote.Set {
		t.IsNote = p.IsNote.Value
	}
}

// StringPtr and TimePtr help build inputs for nullable columns.
func StringPtr(s string) *string { return &s }

func TimePtr(t time.Time) *time.Time { return &t }
