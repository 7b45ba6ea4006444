// Package cmd implements the CLI command structure for todos.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nibzard/todos-go/internal/config"
	"github.com/nibzard/todos-go/internal/export"
	"github.com/nibzard/todos-go/internal/kv"
	"github.com/nibzard/todos-go/internal/logging"
	"github.com/nibzard/todos-go/internal/snapshot"
	"github.com/nibzard/todos-go/internal/todo"
	"github.com/nibzard/todos-go/internal/ui"
)

// Version is set via ldflags at build time.
var Version = "dev"

// cli carries the output streams shared by every subcommand.
type cli struct {
	stdout io.Writer
	stderr io.Writer
}

// Run executes the todos CLI.
func Run(ctx context.Context, args []string) error {
	c := &cli{stdout: os.Stdout, stderr: os.Stderr}
	return c.run(ctx, args)
}

func (c *cli) run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("todos", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	fs.Usage = func() {
		printUsage(fs, c.stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	cws, err := config.LoadWithSources(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := cws.Config
	if *help {
		printUsage(fs, c.stdout)
		return nil
	}
	if *showVersion {
		return c.versionCommand()
	}

	// Default to "ls" when no subcommand is given.
	subcommand := "ls"
	remainingArgs := fs.Args()
	if len(remainingArgs) > 0 {
		subcommand = remainingArgs[0]
		remainingArgs = remainingArgs[1:]
	}

	switch subcommand {
	case "add":
		return c.withStore(cfg, func(s *todo.Store) error { return c.addCommand(s, remainingArgs) })
	case "edit":
		return c.withStore(cfg, func(s *todo.Store) error { return c.editCommand(s, remainingArgs) })
	case "rm", "delete":
		return c.withStore(cfg, func(s *todo.Store) error { return c.rmCommand(s, remainingArgs) })
	case "toggle", "done":
		return c.withStore(cfg, func(s *todo.Store) error { return c.toggleCommand(s, remainingArgs) })
	case "ls", "list":
		return c.withStore(cfg, func(s *todo.Store) error { return c.lsCommand(s, remainingArgs) })
	case "export":
		return c.withStore(cfg, func(s *todo.Store) error { return c.exportCommand(s, cfg, remainingArgs) })
	case "tui":
		return c.withStore(cfg, func(s *todo.Store) error { return c.tuiCommand(ctx, s, remainingArgs) })
	case "doctor":
		return c.doctorCommand(cfg, remainingArgs)
	case "config":
		return c.configCommand(cws, remainingArgs)
	case "version":
		return c.versionCommand()
	case "help":
		printUsage(fs, c.stdout)
		return nil
	default:
		fmt.Fprintf(c.stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, c.stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// newLogger builds the diagnostics logger from config.
func (c *cli) newLogger(cfg *config.Config) *log.Logger {
	return logging.NewFromConfig(c.stderr, cfg.LogLevel, cfg.LogFormat, cfg.LogTimestamps, cfg.LogCaller)
}

// openAdapter opens the configured backend and wraps it in a snapshot adapter.
func openAdapter(cfg *config.Config) (*snapshot.Adapter, kv.Store, error) {
	backend, err := kv.Open(cfg.StorageDriver, kv.Options{
		Dir:     cfg.DataDir,
		DSN:     cfg.MySQLDSN,
		Timeout: cfg.MySQLTimeout(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s storage: %w", cfg.StorageDriver, err)
	}
	opts := []snapshot.Option{snapshot.WithKey(cfg.StorageKey)}
	if cfg.SchemaFile != "" {
		opts = append(opts, snapshot.WithSchemaFile(cfg.SchemaFile))
	}
	adapter, err := snapshot.New(backend, opts...)
	if err != nil {
		_ = backend.Close()
		return nil, nil, err
	}
	return adapter, backend, nil
}

// closeBackend closes backend and logs a failure.
func closeBackend(logger *log.Logger, backend kv.Store) {
	if err := backend.Close(); err != nil {
		logger.Warn("closing storage failed", "err", err)
	}
}

// withStore opens the store for the duration of fn.
func (c *cli) withStore(cfg *config.Config, fn func(*todo.Store) error) error {
	logger := c.newLogger(cfg)
	adapter, backend, err := openAdapter(cfg)
	if err != nil {
		return err
	}
	defer closeBackend(logger, backend)

	store := todo.New(adapter, todo.WithLogger(logger))
	return fn(store)
}

// addCommand adds one task from the joined arguments.
func (c *cli) addCommand(s *todo.Store, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: todos add <text>")
	}
	task, ok := s.Add(strings.Join(args, " "))
	if !ok {
		fmt.Fprintln(c.stderr, "Nothing added: task text is blank.")
		return nil
	}
	fmt.Fprintf(c.stdout, "Added %d: %s\n", task.ID, task.Text)
	return nil
}

// editCommand replaces the text of one task.
func (c *cli) editCommand(s *todo.Store, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: todos edit <id> <text>")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	text := strings.Join(args[1:], " ")
	if _, ok := todo.NormalizeText(text); !ok {
		fmt.Fprintln(c.stderr, "Nothing changed: task text is blank.")
		return nil
	}
	if !s.Edit(id, text) {
		fmt.Fprintf(c.stderr, "No task with id %d.\n", id)
		return nil
	}
	task, _ := s.Get(id)
	fmt.Fprintf(c.stdout, "Edited %d: %s\n", task.ID, task.Text)
	return nil
}

// rmCommand deletes tasks by id.
func (c *cli) rmCommand(s *todo.Store, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: todos rm <id>...")
	}
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if s.Delete(id) {
			fmt.Fprintf(c.stdout, "Deleted %d\n", id)
		} else {
			fmt.Fprintf(c.stderr, "No task with id %d.\n", id)
		}
	}
	return nil
}

// toggleCommand flips completion of tasks by id.
func (c *cli) toggleCommand(s *todo.Store, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: todos toggle <id>...")
	}
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	for _, id := range ids {
		completed, ok := s.Toggle(id)
		if !ok {
			fmt.Fprintf(c.stderr, "No task with id %d.\n", id)
			continue
		}
		state := "open"
		if completed {
			state = "done"
		}
		fmt.Fprintf(c.stdout, "Marked %d %s\n", id, state)
	}
	return nil
}

// lsCommand prints the task list.
func (c *cli) lsCommand(s *todo.Store, args []string) error {
	fs := flag.NewFlagSet("todos ls", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	asJSON := fs.Bool("json", false, "Print the list as JSON")
	onlyDone := fs.Bool("done", false, "Show only completed tasks")
	onlyOpen := fs.Bool("open", false, "Show only open tasks")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if *onlyDone && *onlyOpen {
		return fmt.Errorf("-done and -open are mutually exclusive")
	}

	tasks := filterTasks(s.Tasks(), *onlyDone, *onlyOpen)
	if *asJSON {
		enc := json.NewEncoder(c.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(tasks)
	}
	printTaskList(c.stdout, tasks)
	return nil
}

// exportCommand renders the list to a file or stdout.
func (c *cli) exportCommand(s *todo.Store, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("todos export", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	format := fs.String("format", "json", "Output format ("+strings.Join(export.Formats(), ", ")+")")
	output := fs.String("o", "", "Output file (default stdout)")
	title := fs.String("title", "", "Report title (pdf only)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	data, err := export.Export(s.Tasks(), *format, export.Options{Title: *title})
	if err != nil {
		return err
	}
	if *output == "" {
		_, err := c.stdout.Write(data)
		return err
	}
	path := *output
	if !filepath.IsAbs(path) {
		path = filepath.Join(cfg.ProjectRoot, path)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	fmt.Fprintf(c.stdout, "Exported %d tasks to %s\n", s.Len(), path)
	return nil
}

// tuiCommand launches the terminal UI.
func (c *cli) tuiCommand(ctx context.Context, s *todo.Store, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}
	return ui.RunTUI(ctx, s)
}

// doctorCommand checks configuration and the stored snapshot.
func (c *cli) doctorCommand(cfg *config.Config, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}
	w := c.stdout

	fmt.Fprintln(w, "Todos Doctor")
	fmt.Fprintln(w, "============")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Project root: %s\n", cfg.ProjectRoot)
	fmt.Fprintf(w, "Storage:      %s (key %q)\n", cfg.StorageDriver, cfg.StorageKey)
	if cfg.StorageDriver == kv.DriverFile {
		fmt.Fprintf(w, "Data dir:     %s\n", cfg.DataDir)
	}
	if cfg.SchemaFile != "" {
		fmt.Fprintf(w, "Schema:       %s\n", cfg.SchemaFile)
	}
	fmt.Fprintln(w)

	adapter, backend, err := openAdapter(cfg)
	if err != nil {
		fmt.Fprintf(w, "  ❌ %v\n", err)
		return fmt.Errorf("doctor found problems")
	}
	defer closeBackend(c.newLogger(cfg), backend)

	raw, err := adapter.Raw()
	switch {
	case errors.Is(err, kv.ErrNotFound):
		fmt.Fprintln(w, "  ✅ No saved tasks yet")
		return nil
	case err != nil:
		fmt.Fprintf(w, "  ❌ Reading snapshot: %v\n", err)
		return fmt.Errorf("doctor found problems")
	}

	if err := adapter.Validate(raw); err != nil {
		fmt.Fprintln(w, "  ❌ Snapshot is corrupt; it will be ignored and replaced on the next change:")
		var corrupt *snapshot.CorruptError
		if errors.As(err, &corrupt) {
			for _, e := range corrupt.Errors {
				fmt.Fprintf(w, "     - %v\n", e)
			}
		} else {
			fmt.Fprintf(w, "     - %v\n", err)
		}
		return fmt.Errorf("doctor found problems")
	}

	tasks, err := adapter.Load()
	if err != nil {
		fmt.Fprintf(w, "  ❌ %v\n", err)
		return fmt.Errorf("doctor found problems")
	}
	open, done := todo.Counts(tasks)
	fmt.Fprintf(w, "  ✅ Snapshot OK: %d tasks (%d open, %d done)\n", len(tasks), open, done)
	return nil
}

// configCommand prints the effective configuration and where each value came from.
func (c *cli) configCommand(cws *config.ConfigWithSources, args []string) error {
	fs := flag.NewFlagSet("todos config", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	example := fs.Bool("example", false, "Print an example config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *example {
		fmt.Fprint(c.stdout, config.ExampleConfig())
		return nil
	}

	cfg := cws.Config
	values := map[string]string{
		"storage_driver":        cfg.StorageDriver,
		"data_dir":              cfg.DataDir,
		"storage_key":           cfg.StorageKey,
		"schema_file":           cfg.SchemaFile,
		"mysql_dsn":             redactDSN(cfg.MySQLDSN),
		"mysql_timeout_seconds": strconv.Itoa(cfg.MySQLTimeoutSeconds),
		"log_level":             cfg.LogLevel,
		"log_format":            cfg.LogFormat,
		"log_timestamps":        strconv.FormatBool(cfg.LogTimestamps),
		"log_caller":            strconv.FormatBool(cfg.LogCaller),
	}
	if file := cws.GetConfigFile(); file != "" {
		fmt.Fprintf(c.stdout, "# config file: %s\n", file)
	}
	for _, field := range config.Fields() {
		fmt.Fprintf(c.stdout, "%-22s = %-40q # %s\n", field, values[field], cws.Sources[field])
	}
	return nil
}

// versionCommand prints version information.
func (c *cli) versionCommand() error {
	fmt.Fprintf(c.stdout, "todos version %s\n", Version)
	return nil
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "Todos - a small, persistent to-do list")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  todos [options] [command] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  ls [-json] [-done|-open]   List tasks (default command)")
	fmt.Fprintln(w, "  add <text>                 Add a task")
	fmt.Fprintln(w, "  edit <id> <text>           Replace a task's text")
	fmt.Fprintln(w, "  toggle <id>...             Flip tasks between open and done")
	fmt.Fprintln(w, "  rm <id>...                 Delete tasks")
	fmt.Fprintln(w, "  export [-format f] [-o file]  Export as json, csv or pdf")
	fmt.Fprintln(w, "  tui                        Launch terminal UI")
	fmt.Fprintln(w, "  doctor                     Check config and stored tasks")
	fmt.Fprintln(w, "  config [-example]          Show effective configuration")
	fmt.Fprintln(w, "  version                    Show version information")
	fmt.Fprintln(w, "  help                       Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
}

// printTaskList prints tasks in insertion order followed by a summary line.
func printTaskList(w io.Writer, tasks []todo.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks.")
		return
	}
	for _, t := range tasks {
		box := "[ ]"
		if t.Completed {
			box = "[x]"
		}
		fmt.Fprintf(w, "%s %d  %s\n", box, t.ID, t.Text)
	}
	open, done := todo.Counts(tasks)
	fmt.Fprintf(w, "\n%d open, %d done\n", open, done)
}

func filterTasks(tasks []todo.Task, onlyDone, onlyOpen bool) []todo.Task {
	if !onlyDone && !onlyOpen {
		return tasks
	}
	filtered := make([]todo.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Completed == onlyDone {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := parseID(a)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// redactDSN hides the password part of a MySQL DSN.
func redactDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	if at < 0 {
		return dsn
	}
	creds := dsn[:at]
	if colon := strings.Index(creds, ":"); colon >= 0 {
		return creds[:colon] + ":***" + dsn[at:]
	}
	return dsn
}
