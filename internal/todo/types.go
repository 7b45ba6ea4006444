package todo

import (
	"fmt"
	"strings"
)

// Task is a single to-do entry.
type Task struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// MaxID is the largest task ID. IDs stay within the range a JSON number can
// carry exactly.
const MaxID int64 = 1<<53 - 1

// IsZero returns true if the task is empty (has no ID).
func (t Task) IsZero() bool {
	return t.ID == 0
}

// Persister loads and saves whole task list snapshots.
type Persister interface {
	// Load returns the last saved list. A nil list with a nil error means
	// nothing has been saved yet.
	Load() ([]Task, error)
	// Save replaces the stored snapshot with tasks.
	Save(tasks []Task) error
}

// MisuseError reports a Store used without being built by New, or a context
// that was expected to carry a store and does not.
type MisuseError struct {
	Op     string
	Reason string
}

func (e *MisuseError) Error() string {
	return fmt.Sprintf("todo: %s: %s", e.Op, e.Reason)
}

const (
	reasonNotInitialized = "store used without initialization; build it with todo.New"
	reasonNoStore        = "context carries no store; attach one with todo.NewContext"
)

// NormalizeText trims surrounding whitespace from user input. The second
// result is false when nothing is left.
func NormalizeText(raw string) (string, bool) {
	text := strings.TrimSpace(raw)
	return text, text != ""
}

// Counts returns the number of open and completed tasks.
func Counts(tasks []Task) (open, done int) {
	for _, t := range tasks {
		if t.Completed {
			done++
		} else {
			open++
		}
	}
	return open, done
}

func cloneTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	copy(out, tasks)
	return out
}
