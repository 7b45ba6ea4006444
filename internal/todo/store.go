package todo

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Store owns the ordered task list.
type Store struct {
	mu        sync.Mutex
	ready     bool
	tasks     []Task
	ids       idSource
	persister Persister
	logger    *log.Logger

	subMu   sync.Mutex
	subs    map[int]func([]Task)
	nextSub int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for persistence diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock sets the time source IDs are derived from.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.ids.now = now
		}
	}
}

// New builds a store and seeds it from p. A missing or unreadable snapshot
// leaves the store empty; the failure is logged, never returned.
func New(p Persister, opts ...Option) *Store {
	s := &Store{
		persister: p,
		logger:    log.Default(),
		ids:       idSource{now: time.Now},
		subs:      make(map[int]func([]Task)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.tasks = s.initialize()
	s.ready = true
	return s
}

func (s *Store) initialize() []Task {
	if s.persister == nil {
		return []Task{}
	}
	loaded, err := s.persister.Load()
	if err != nil {
		s.logger.Error("loading saved tasks failed, starting with an empty list", "err", err)
		return []Task{}
	}
	if loaded == nil {
		s.logger.Debug("no saved tasks, starting with an empty list")
		return []Task{}
	}
	for _, t := range loaded {
		s.ids.observe(t.ID)
	}
	s.logger.Debug("loaded saved tasks", "count", len(loaded))
	return cloneTasks(loaded)
}

func (s *Store) mustReady(op string) {
	if s == nil || !s.ready {
		panic(&MisuseError{Op: op, Reason: reasonNotInitialized})
	}
}

// Tasks returns a copy of the current list in insertion order.
func (s *Store) Tasks() []Task {
	s.mustReady("Tasks")
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTasks(s.tasks)
}

// Len returns the number of tasks.
func (s *Store) Len() int {
	s.mustReady("Len")
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Get returns the task with the given ID.
func (s *Store) Get(id int64) (Task, bool) {
	s.mustReady("Get")
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(id); i >= 0 {
		return s.tasks[i], true
	}
	return Task{}, false
}

// Add appends a task with the trimmed text. Blank text is rejected and
// nothing changes.
func (s *Store) Add(raw string) (Task, bool) {
	s.mustReady("Add")
	text, ok := NormalizeText(raw)
	if !ok {
		return Task{}, false
	}

	s.mu.Lock()
	id, ok := s.ids.next()
	if !ok {
		id = smallestUnusedID(s.tasks)
		s.logger.Warn("id sequence exhausted, reusing a free id", "id", id)
	}
	task := Task{ID: id, Text: text, Completed: false}
	s.tasks = append(s.tasks, task)
	snapshot := s.persistLocked("add")
	s.mu.Unlock()

	s.notify(snapshot)
	return task, true
}

// Delete removes the task with the given ID and reports whether one was
// removed. Unknown IDs are a no-op and nothing is written.
func (s *Store) Delete(id int64) bool {
	s.mustReady("Delete")
	s.mu.Lock()
	i := s.index(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	snapshot := s.persistLocked("delete")
	s.mu.Unlock()

	s.notify(snapshot)
	return true
}

// Edit replaces the text of a task, keeping its ID and completion state.
// Blank text and unknown IDs are rejected and the original text is kept.
func (s *Store) Edit(id int64, raw string) bool {
	s.mustReady("Edit")
	text, ok := NormalizeText(raw)
	if !ok {
		return false
	}

	s.mu.Lock()
	i := s.index(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.tasks[i].Text = text
	snapshot := s.persistLocked("edit")
	s.mu.Unlock()

	s.notify(snapshot)
	return true
}

// Toggle flips the completion state of a task and returns the new value.
// ok is false when no task has the ID.
func (s *Store) Toggle(id int64) (completed bool, ok bool) {
	s.mustReady("Toggle")
	s.mu.Lock()
	i := s.index(id)
	if i < 0 {
		s.mu.Unlock()
		return false, false
	}
	s.tasks[i].Completed = !s.tasks[i].Completed
	completed = s.tasks[i].Completed
	snapshot := s.persistLocked("toggle")
	s.mu.Unlock()

	s.notify(snapshot)
	return completed, true
}

// Subscribe registers fn to be called with a copy of the list after every
// successful mutation. The returned function removes the subscription.
func (s *Store) Subscribe(fn func([]Task)) (unsubscribe func()) {
	s.mustReady("Subscribe")
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) index(id int64) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// persistLocked saves the current list and returns a copy of it for
// subscribers. Save errors are logged; the mutation stands.
func (s *Store) persistLocked(op string) []Task {
	snapshot := cloneTasks(s.tasks)
	if s.persister == nil {
		return snapshot
	}
	if err := s.persister.Save(snapshot); err != nil {
		s.logger.Error("saving tasks failed, change kept in memory only", "op", op, "count", len(snapshot), "err", err)
	}
	return snapshot
}

func (s *Store) notify(snapshot []Task) {
	s.subMu.Lock()
	fns := make([]func([]Task), 0, len(s.subs))
	for i := 0; i < s.nextSub; i++ {
		if fn, ok := s.subs[i]; ok {
			fns = append(fns, fn)
		}
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(cloneTasks(snapshot))
	}
}
