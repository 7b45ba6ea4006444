package snapshot

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nibzard/todos-go/internal/todo"
)

//go:embed schema.json
var defaultSchema string

const defaultSchemaURL = "todos.schema.json"

// compileSchema compiles the schema at path, or the embedded schema when path
// is empty.
func compileSchema(path string) (*jsonschema.Schema, error) {
	if path == "" {
		return jsonschema.CompileString(defaultSchemaURL, defaultSchema)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid schema path: %w", err)
	}
	if _, err := os.Stat(absPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("schema file not found: %s", absPath)
		}
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	schema, err := compiler.Compile(absPath)
	if err != nil {
		return nil, fmt.Errorf("invalid schema file: %w", err)
	}
	return schema, nil
}

// decode parses and validates raw snapshot bytes. All problems found are
// returned; a nil slice means the data is a valid task list.
func decode(schema *jsonschema.Schema, data []byte) ([]todo.Task, []error) {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, []error{&ValidationError{Err: fmt.Errorf("not valid JSON: %w", err)}}
	}

	if err := schema.Validate(doc); err != nil {
		return nil, schemaErrors(err)
	}

	var tasks []todo.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, []error{&ValidationError{Err: fmt.Errorf("decode tasks: %w", err)}}
	}
	if errs := checkInvariants(tasks); len(errs) > 0 {
		return nil, errs
	}
	if tasks == nil {
		tasks = []todo.Task{}
	}
	return tasks, nil
}

// checkInvariants covers what JSON Schema cannot: ID uniqueness and trimmed text.
// The ID range is checked here too so a custom schema cannot loosen it.
func checkInvariants(tasks []todo.Task) []error {
	var errs []error
	seen := make(map[int64]int, len(tasks))
	for i, t := range tasks {
		path := fmt.Sprintf("[%d]", i)
		if t.ID < 1 || t.ID > todo.MaxID {
			errs = append(errs, &ValidationError{
				Path: path + ".id",
				Err:  fmt.Errorf("id %d out of range 1..%d", t.ID, todo.MaxID),
			})
		}
		if first, dup := seen[t.ID]; dup {
			errs = append(errs, &ValidationError{
				Path: path + ".id",
				Err:  fmt.Errorf("duplicate id %d (first at [%d])", t.ID, first),
			})
		} else {
			seen[t.ID] = i
		}
		text, ok := todo.NormalizeText(t.Text)
		switch {
		case !ok:
			errs = append(errs, &ValidationError{Path: path + ".text", Err: errors.New("blank text")})
		case text != t.Text:
			errs = append(errs, &ValidationError{Path: path + ".text", Err: errors.New("text has surrounding whitespace")})
		}
	}
	return errs
}

func schemaErrors(err error) []error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []error{err}
	}
	var out []error
	collectSchemaErrors(&out, ve)
	return out
}

func collectSchemaErrors(out *[]error, err *jsonschema.ValidationError) {
	if err == nil {
		return
	}
	if len(err.Causes) == 0 {
		*out = append(*out, &ValidationError{
			Path: jsonPointerToPath(err.InstanceLocation),
			Err:  errors.New(err.Message),
		})
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(out, cause)
	}
}

// jsonPointerToPath converts a JSON Pointer (RFC 6901) to a dot-notation path.
// For example, "/2/text" becomes "[2].text".
func jsonPointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return ""
	}

	var b strings.Builder
	for _, part := range strings.Split(ptr, "/") {
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		if part == "" {
			continue
		}
		if idx, err := strconv.Atoi(part); err == nil {
			fmt.Fprintf(&b, "[%d]", idx)
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}
