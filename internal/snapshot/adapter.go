package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nibzard/todos-go/internal/kv"
	"github.com/nibzard/todos-go/internal/statedir"
	"github.com/nibzard/todos-go/internal/todo"
)

// Adapter loads and saves the task list under one fixed key. It implements
// todo.Persister.
type Adapter struct {
	backend    kv.Store
	key        string
	schemaFile string
	schema     *jsonschema.Schema
}

var _ todo.Persister = (*Adapter)(nil)

// Option configures an Adapter.
type Option func(*Adapter)

// WithKey overrides the key the snapshot is stored under.
func WithKey(key string) Option {
	return func(a *Adapter) {
		a.key = key
	}
}

// WithSchemaFile validates snapshots against the JSON Schema at path instead
// of the embedded one.
func WithSchemaFile(path string) Option {
	return func(a *Adapter) {
		a.schemaFile = path
	}
}

// New returns an adapter over backend.
func New(backend kv.Store, opts ...Option) (*Adapter, error) {
	if backend == nil {
		return nil, errors.New("snapshot: nil backend")
	}
	a := &Adapter{backend: backend, key: statedir.DefaultKey}
	for _, opt := range opts {
		opt(a)
	}
	if strings.TrimSpace(a.key) == "" {
		return nil, fmt.Errorf("snapshot: %w", kv.ErrInvalidKey)
	}
	schema, err := compileSchema(a.schemaFile)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	a.schema = schema
	return a, nil
}

// Key returns the key the snapshot is stored under.
func (a *Adapter) Key() string {
	return a.key
}

// Load reads the stored list. It returns (nil, nil) when nothing has been
// saved, a *ReadError when the backend fails and a *CorruptError when the
// stored value is not a valid task list.
func (a *Adapter) Load() ([]todo.Task, error) {
	data, err := a.backend.Get(a.key)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &ReadError{Key: a.key, Err: err}
	}
	tasks, errs := decode(a.schema, data)
	if len(errs) > 0 {
		return nil, &CorruptError{Key: a.key, Errors: errs}
	}
	return tasks, nil
}

// Save replaces the stored value with the encoded list.
func (a *Adapter) Save(tasks []todo.Task) error {
	data, err := Encode(tasks)
	if err != nil {
		return &WriteError{Key: a.key, Err: err}
	}
	if err := a.backend.Set(a.key, data); err != nil {
		return &WriteError{Key: a.key, Err: err}
	}
	return nil
}

// Validate checks raw snapshot bytes without storing anything.
func (a *Adapter) Validate(data []byte) error {
	if _, errs := decode(a.schema, data); len(errs) > 0 {
		return &CorruptError{Key: a.key, Errors: errs}
	}
	return nil
}

// Raw returns the stored bytes as they are, for diagnostics.
func (a *Adapter) Raw() ([]byte, error) {
	data, err := a.backend.Get(a.key)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Encode returns the compact JSON encoding of tasks. A nil list encodes as [].
func Encode(tasks []todo.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []todo.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return nil, fmt.Errorf("marshal tasks: %w", err)
	}
	return data, nil
}
