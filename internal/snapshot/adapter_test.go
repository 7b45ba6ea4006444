package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nibzard/todos-go/internal/kv"
	"github.com/nibzard/todos-go/internal/logging"
	"github.com/nibzard/todos-go/internal/todo"
)

// failingBackend fails every operation with err.
type failingBackend struct {
	err error
}

func (b failingBackend) Get(string) ([]byte, error) { return nil, b.err }
func (b failingBackend) Set(string, []byte) error   { return b.err }
func (b failingBackend) Close() error               { return nil }

func newAdapter(t *testing.T, backend kv.Store, opts ...Option) *Adapter {
	t.Helper()
	a, err := New(backend, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestLoadMissingIsEmpty(t *testing.T) {
	a := newAdapter(t, kv.NewMemory())
	tasks, err := a.Load()
	if err != nil || tasks != nil {
		t.Fatalf("Load: got (%v, %v), want (nil, nil)", tasks, err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		tasks []todo.Task
	}{
		{"empty", []todo.Task{}},
		{"single", []todo.Task{{ID: 1, Text: "Test todo"}}},
		{"mixed", []todo.Task{
			{ID: 1718000000000, Text: "Buy milk"},
			{ID: 1718000000001, Text: "Walk \"the\" dog", Completed: true},
			{ID: 1718000000002, Text: "naïve café ✓"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAdapter(t, kv.NewMemory())
			if err := a.Save(tt.tasks); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got, err := a.Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if len(got) != len(tt.tasks) {
				t.Fatalf("Load: got %d tasks, want %d", len(got), len(tt.tasks))
			}
			for i := range got {
				if got[i] != tt.tasks[i] {
					t.Errorf("task %d: got %+v, want %+v", i, got[i], tt.tasks[i])
				}
			}
		})
	}
}

func TestSaveOfLoadKeepsBytes(t *testing.T) {
	backend := kv.NewMemory()
	original := []byte(`[{"id":1,"text":"a","completed":false},{"id":2,"text":"b","completed":true}]`)
	if err := backend.Set("todos", original); err != nil {
		t.Fatal(err)
	}
	a := newAdapter(t, backend)

	tasks, err := a.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := a.Save(tasks); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, _ := backend.Get("todos")
	if !bytes.Equal(got, original) {
		t.Errorf("bytes changed:\n got %s\nwant %s", got, original)
	}
}

func TestSaveNilEncodesEmptyArray(t *testing.T) {
	backend := kv.NewMemory()
	a := newAdapter(t, backend)
	if err := a.Save(nil); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, _ := backend.Get("todos")
	if string(got) != "[]" {
		t.Errorf("got %q, want []", got)
	}
}

func TestSaveFieldNames(t *testing.T) {
	data, err := Encode([]todo.Task{{ID: 7, Text: "x", Completed: true}})
	if err != nil {
		t.Fatal(err)
	}
	want := `[{"id":7,"text":"x","completed":true}]`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
}

func TestLoadCorrupt(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantPath string
	}{
		{"not json", `{not json`, ""},
		{"plain string", `hello`, ""},
		{"null", `null`, ""},
		{"object", `{"tasks":[]}`, ""},
		{"missing completed", `[{"id":1,"text":"a"}]`, "[0]"},
		{"string id", `[{"id":"1","text":"a","completed":false}]`, "[0].id"},
		{"fractional id", `[{"id":1.5,"text":"a","completed":false}]`, "[0].id"},
		{"zero id", `[{"id":0,"text":"a","completed":false}]`, "[0].id"},
		{"id above max", `[{"id":9007199254740992,"text":"a","completed":false}]`, "[0].id"},
		{"int64 max id", `[{"id":9223372036854775807,"text":"a","completed":false}]`, "[0].id"},
		{"text not string", `[{"id":1,"text":5,"completed":false}]`, "[0].text"},
		{"blank text", `[{"id":1,"text":"   ","completed":false}]`, "[0].text"},
		{"nbsp text", `[{"id":1,"text":"\u00a0","completed":false}]`, "[0].text"},
		{"untrimmed text", `[{"id":1,"text":" a ","completed":false}]`, "[0].text"},
		{"completed string", `[{"id":1,"text":"a","completed":"yes"}]`, "[0].completed"},
		{"extra field", `[{"id":1,"text":"a","completed":false,"due":"x"}]`, "[0]"},
		{"duplicate id", `[{"id":1,"text":"a","completed":false},{"id":1,"text":"b","completed":false}]`, "[1].id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := kv.NewMemory()
			if err := backend.Set("todos", []byte(tt.raw)); err != nil {
				t.Fatal(err)
			}
			a := newAdapter(t, backend)

			tasks, err := a.Load()
			if tasks != nil {
				t.Errorf("Load: got tasks %v, want nil", tasks)
			}
			var corrupt *CorruptError
			if !errors.As(err, &corrupt) {
				t.Fatalf("Load: got %v, want *CorruptError", err)
			}
			if tt.wantPath == "" {
				return
			}
			found := false
			for _, e := range corrupt.Errors {
				var ve *ValidationError
				if errors.As(e, &ve) && ve.Path == tt.wantPath {
					found = true
				}
			}
			if !found {
				t.Errorf("no error at %s in %v", tt.wantPath, corrupt)
			}
		})
	}
}

func TestLoadBackendFailure(t *testing.T) {
	boom := errors.New("storage unavailable")
	a := newAdapter(t, failingBackend{err: boom})

	tasks, err := a.Load()
	if tasks != nil {
		t.Errorf("got tasks %v", tasks)
	}
	var readErr *ReadError
	if !errors.As(err, &readErr) || !errors.Is(err, boom) {
		t.Fatalf("got %v, want *ReadError wrapping %v", err, boom)
	}
}

func TestSaveBackendFailure(t *testing.T) {
	boom := errors.New("quota exceeded")
	a := newAdapter(t, failingBackend{err: boom})

	err := a.Save([]todo.Task{{ID: 1, Text: "a"}})
	var writeErr *WriteError
	if !errors.As(err, &writeErr) || !errors.Is(err, boom) {
		t.Fatalf("got %v, want *WriteError wrapping %v", err, boom)
	}
}

func TestNewOptions(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("New(nil): expected error")
	}
	if _, err := New(kv.NewMemory(), WithKey(" ")); !errors.Is(err, kv.ErrInvalidKey) {
		t.Errorf("blank key: got %v, want ErrInvalidKey", err)
	}

	backend := kv.NewMemory()
	a := newAdapter(t, backend, WithKey("work"))
	if a.Key() != "work" {
		t.Errorf("Key: got %q", a.Key())
	}
	if err := a.Save([]todo.Task{{ID: 1, Text: "a"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := backend.Get("work"); err != nil {
		t.Errorf("value not under custom key: %v", err)
	}
	if _, err := backend.Get("todos"); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("default key written: %v", err)
	}
}

func TestWithSchemaFile(t *testing.T) {
	dir := t.TempDir()
	// A looser schema that allows extra fields.
	loose := `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "items": {"type": "object", "required": ["id", "text", "completed"]}
}`
	path := filepath.Join(dir, "loose.schema.json")
	if err := os.WriteFile(path, []byte(loose), 0644); err != nil {
		t.Fatal(err)
	}

	backend := kv.NewMemory()
	backend.Set("todos", []byte(`[{"id":1,"text":"a","completed":false,"note":"x"}]`))
	a := newAdapter(t, backend, WithSchemaFile(path))
	tasks, err := a.Load()
	if err != nil {
		t.Fatalf("Load with loose schema: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Text != "a" {
		t.Errorf("got %v", tasks)
	}

	if _, err := New(backend, WithSchemaFile(filepath.Join(dir, "missing.json"))); err == nil ||
		!strings.Contains(err.Error(), "schema file not found") {
		t.Errorf("missing schema file: got %v", err)
	}
}

func TestValidate(t *testing.T) {
	a := newAdapter(t, kv.NewMemory())
	if err := a.Validate([]byte(`[{"id":1,"text":"a","completed":false}]`)); err != nil {
		t.Errorf("valid: %v", err)
	}
	if err := a.Validate([]byte(`[{"id":1}]`)); err == nil {
		t.Error("invalid: expected error")
	}
}

func TestJSONPointerToPath(t *testing.T) {
	tests := map[string]string{
		"":            "",
		"#":           "",
		"/0":          "[0]",
		"/2/text":     "[2].text",
		"#/0/id":      "[0].id",
		"/a~1b/c~0d":  "a/b.c~d",
		"/tasks/3/id": "tasks[3].id",
	}
	for in, want := range tests {
		if got := jsonPointerToPath(in); got != want {
			t.Errorf("jsonPointerToPath(%q) = %q, want %q", in, got, want)
		}
	}
}

// TestStoreScenario drives a todo.Store over the adapter and reloads from the
// backend after each step.
func TestStoreScenario(t *testing.T) {
	backend, err := kv.NewFile(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	open := func() *todo.Store {
		a := newAdapter(t, backend)
		return todo.New(a, todo.WithLogger(logging.Discard()))
	}
	reload := func() []todo.Task {
		return open().Tasks()
	}

	s := open()
	if s.Len() != 0 {
		t.Fatalf("fresh store: got %d tasks", s.Len())
	}

	task, ok := s.Add("Buy milk")
	if !ok {
		t.Fatal("Add rejected")
	}
	want := todo.Task{ID: task.ID, Text: "Buy milk", Completed: false}
	if got := reload(); len(got) != 1 || got[0] != want {
		t.Fatalf("after add: got %v, want [%v]", got, want)
	}

	if completed, ok := s.Toggle(task.ID); !ok || !completed {
		t.Fatalf("Toggle: got (%v, %v)", completed, ok)
	}
	want.Completed = true
	if got := reload(); len(got) != 1 || got[0] != want {
		t.Fatalf("after toggle: got %v, want [%v]", got, want)
	}

	if !s.Edit(task.ID, "Buy oat milk") {
		t.Fatal("Edit rejected")
	}
	want.Text = "Buy oat milk"
	if got := reload(); len(got) != 1 || got[0] != want {
		t.Fatalf("after edit: got %v, want [%v]", got, want)
	}

	if !s.Delete(task.ID) {
		t.Fatal("Delete rejected")
	}
	if got := reload(); len(got) != 0 {
		t.Fatalf("after delete: got %v, want empty", got)
	}
	if s.Delete(task.ID) {
		t.Error("second Delete: got true")
	}
}

func TestStoreAddAtMaxIDSurvivesReload(t *testing.T) {
	backend := kv.NewMemory()
	raw := fmt.Sprintf(`[{"id":%d,"text":"last","completed":false}]`, todo.MaxID)
	if err := backend.Set("todos", []byte(raw)); err != nil {
		t.Fatal(err)
	}

	s := todo.New(newAdapter(t, backend), todo.WithLogger(logging.Discard()))
	if s.Len() != 1 {
		t.Fatalf("loaded %d tasks, want 1", s.Len())
	}
	task, ok := s.Add("next")
	if !ok {
		t.Fatal("Add rejected")
	}
	if task.ID < 1 || task.ID == todo.MaxID {
		t.Fatalf("new id %d is not a free positive id", task.ID)
	}

	got, err := newAdapter(t, backend).Load()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("after reload: got %d tasks, want 2", len(got))
	}
}

func TestStoreRecoversFromCorruptSnapshot(t *testing.T) {
	backend := kv.NewMemory()
	backend.Set("todos", []byte("definitely not json"))

	var logs bytes.Buffer
	logger := logging.New(&logs, logging.DefaultOptions())
	s := todo.New(newAdapter(t, backend), todo.WithLogger(logger))

	if s.Len() != 0 {
		t.Fatalf("got %d tasks, want 0", s.Len())
	}
	if !strings.Contains(logs.String(), "corrupt snapshot") {
		t.Errorf("expected corruption diagnostic, got %q", logs.String())
	}

	s.Add("fresh start")
	got, _ := backend.Get("todos")
	if !strings.Contains(string(got), `"fresh start"`) {
		t.Errorf("corrupt value not replaced: %s", got)
	}
}
