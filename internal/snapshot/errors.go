package snapshot

import (
	"fmt"
	"strings"
)

// ValidationError is a single problem found in a stored snapshot.
type ValidationError struct {
	Path string // JSON path to the error location, e.g. "[2].text"
	Err  error
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ReadError reports a backend failure while reading the snapshot.
type ReadError struct {
	Key string
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read snapshot %q: %v", e.Key, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// WriteError reports a backend failure while writing the snapshot.
type WriteError struct {
	Key string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write snapshot %q: %v", e.Key, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// CorruptError reports a stored value that is not a valid task list.
type CorruptError struct {
	Key    string
	Errors []error
}

func (e *CorruptError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("corrupt snapshot %q: %s", e.Key, strings.Join(msgs, "; "))
}

func (e *CorruptError) Unwrap() []error {
	return e.Errors
}
