package kv

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// backends returns every backend that can run without external services.
func backends(t *testing.T) map[string]Store {
	t.Helper()
	file, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	return map[string]Store{
		"file":   file,
		"memory": NewMemory(),
	}
}

func TestStoreGetMissing(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Get("todos"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Get missing: got %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStoreSetReplaces(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Set("todos", []byte(`[{"id":1}]`)); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if err := s.Set("todos", []byte(`[]`)); err != nil {
				t.Fatalf("Set: %v", err)
			}
			got, err := s.Get("todos")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if string(got) != `[]` {
				t.Errorf("Get: got %q, want %q", got, `[]`)
			}
		})
	}
}

func TestStoreInvalidKey(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Set("  ", []byte("x")); !errors.Is(err, ErrInvalidKey) {
				t.Errorf("Set blank key: got %v, want ErrInvalidKey", err)
			}
			if _, err := s.Get(""); !errors.Is(err, ErrInvalidKey) {
				t.Errorf("Get empty key: got %v, want ErrInvalidKey", err)
			}
		})
	}
}

func TestStoreClosed(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}
			if err := s.Set("todos", []byte("[]")); !errors.Is(err, ErrClosed) {
				t.Errorf("Set after close: got %v, want ErrClosed", err)
			}
			if _, err := s.Get("todos"); !errors.Is(err, ErrClosed) {
				t.Errorf("Get after close: got %v, want ErrClosed", err)
			}
		})
	}
}

func TestMemoryCopiesValues(t *testing.T) {
	s := NewMemory()
	in := []byte("abc")
	if err := s.Set("k", in); err != nil {
		t.Fatalf("Set: %v", err)
	}
	in[0] = 'x'

	out, err := s.Get("k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(out) != "abc" {
		t.Fatalf("stored value aliased caller slice: got %q", out)
	}
	out[0] = 'y'
	again, _ := s.Get("k")
	if string(again) != "abc" {
		t.Fatalf("returned value aliased stored slice: got %q", again)
	}
}

func TestFileLayoutAndNoTempLeftovers(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	s, err := NewFile(dir)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	want := []byte(`[{"id":1,"text":"a","completed":false}]`)
	if err := s.Set("todos", want); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "todos.json"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("file contents: got %q, want %q", got, want)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp.") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestFileRejectsPathKeys(t *testing.T) {
	s, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	for _, key := range []string{"../escape", `a\b`, "..", "."} {
		if err := s.Set(key, []byte("x")); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Set(%q): got %v, want ErrInvalidKey", key, err)
		}
	}
}

func TestNewFileRequiresDir(t *testing.T) {
	if _, err := NewFile(" "); err == nil {
		t.Fatal("expected error for blank dir")
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		driver  string
		want    string
		wantErr error
	}{
		{"", "*kv.File", nil},
		{"file", "*kv.File", nil},
		{"Memory", "*kv.Memory", nil},
		{"redis", "", ErrUnknownDriver},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			s, err := Open(tt.driver, Options{Dir: dir})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Open(%q): got %v, want %v", tt.driver, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open(%q): %v", tt.driver, err)
			}
			defer s.Close()
			if got := typeName(s); got != tt.want {
				t.Errorf("Open(%q) type: got %s, want %s", tt.driver, got, tt.want)
			}
		})
	}
}

func TestOpenMySQLRequiresDSN(t *testing.T) {
	if _, err := Open(DriverMySQL, Options{}); err == nil {
		t.Fatal("expected error for empty dsn")
	}
	if _, err := NewMySQL("not a dsn", 0); err == nil {
		t.Fatal("expected error for malformed dsn")
	}
}

func typeName(s Store) string {
	switch s.(type) {
	case *File:
		return "*kv.File"
	case *Memory:
		return "*kv.Memory"
	case *MySQL:
		return "*kv.MySQL"
	}
	return "unknown"
}
