package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"todo/internal/logging"
	"todo/internal/storage"
)

// ErrNotLoaded is returned by mutators called before Load.
var ErrNotLoaded = errors.New("task store not loaded")

// Store owns the ordered task collection, newest first.
// Every state-changing mutation writes the full collection to the backend
// before it becomes visible in memory.
type Store struct {
	mu      sync.Mutex
	backend storage.Store
	key     string
	newID   func() string
	logger  *slog.Logger

	tasks  []Task
	loaded bool

	observers []subscription
	nextSub   int
}

// Option configures a Store.
type Option func(*Store)

// WithKey sets the storage key. Defaults to DefaultKey.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithIDFunc replaces the id generator. The function must never return an
// id it has returned before.
func WithIDFunc(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewStore creates a store backed by backend. Call Load before mutating.
func NewStore(backend storage.Store, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		key:     DefaultKey,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewModuleLogger("task", "store")
	}
	return s
}

// Key returns the storage key the collection is kept under.
func (s *Store) Key() string {
	return s.key
}

// Load replaces the in-memory collection with the persisted snapshot.
// A missing, empty or malformed snapshot leaves the collection empty.
// Only a backend failure is returned as an error.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()

	value, ok, err := s.backend.Get(ctx, s.key)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("load %s: %w", s.key, err)
	}

	var tasks []Task
	if ok {
		var dropped int
		tasks, dropped, err = Decode(value)
		if err != nil {
			s.logger.Warn("ignoring unreadable snapshot", "key", s.key, "error", err)
			tasks = nil
		}
		if dropped > 0 {
			s.logger.Warn("dropped invalid snapshot entries", "key", s.key, "count", dropped)
		}
	}

	s.tasks = tasks
	s.loaded = true
	stats := computeStats(s.tasks)
	s.mu.Unlock()

	s.logger.Debug("loaded tasks", "key", s.key, "total", stats.Total)
	s.notify(Event{Op: OpLoaded, Stats: stats})
	return nil
}

// Create inserts a new task at the front. Text is trimmed; if nothing is
// left, Create does nothing and reports false.
func (s *Store) Create(ctx context.Context, text string) (Task, bool, error) {
	text = cleanText(text)
	if text == "" {
		return Task{}, false, nil
	}

	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return Task{}, false, ErrNotLoaded
	}

	t := Task{ID: s.newID(), Text: text}
	next := make([]Task, 0, len(s.tasks)+1)
	next = append(next, t)
	next = append(next, s.tasks...)

	stats, err := s.commitLocked(ctx, next)
	s.mu.Unlock()
	if err != nil {
		return Task{}, false, err
	}

	s.notify(Event{Op: OpCreated, TaskID: t.ID, Stats: stats})
	return t, true, nil
}

// Update replaces the text of the task with id. It is the commit step of an
// edit. Empty text or an unknown id is a no-op reported as false.
func (s *Store) Update(ctx context.Context, id, text string) (bool, error) {
	text = cleanText(text)
	if text == "" {
		return false, nil
	}
	return s.mutate(ctx, OpUpdated, id, func(t *Task) {
		t.Text = text
	})
}

// cleanText trims text and replaces invalid UTF-8 with U+FFFD, the same
// substitution the snapshot encoder makes, so memory matches what is saved.
func cleanText(text string) string {
	return strings.ToValidUTF8(strings.TrimSpace(text), "\uFFFD")
}

// ToggleComplete flips the completed flag of the task with id.
func (s *Store) ToggleComplete(ctx context.Context, id string) (bool, error) {
	return s.mutate(ctx, OpToggled, id, func(t *Task) {
		t.Completed = !t.Completed
	})
}

// Delete removes the task with id.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return false, ErrNotLoaded
	}

	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return false, nil
	}

	next := make([]Task, 0, len(s.tasks)-1)
	next = append(next, s.tasks[:i]...)
	next = append(next, s.tasks[i+1:]...)

	stats, err := s.commitLocked(ctx, next)
	s.mu.Unlock()
	if err != nil {
		return false, err
	}

	s.notify(Event{Op: OpDeleted, TaskID: id, Stats: stats})
	return true, nil
}

// ClearCompleted removes every completed task, keeping the relative order of
// the rest, and returns how many were removed.
func (s *Store) ClearCompleted(ctx context.Context) (int, error) {
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return 0, ErrNotLoaded
	}

	next := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if !t.Completed {
			next = append(next, t)
		}
	}
	removed := len(s.tasks) - len(next)
	if removed == 0 {
		s.mu.Unlock()
		return 0, nil
	}

	stats, err := s.commitLocked(ctx, next)
	s.mu.Unlock()
	if err != nil {
		return 0, err
	}

	s.notify(Event{Op: OpClearedCompleted, Stats: stats})
	return removed, nil
}

// Statistics returns counts computed from the current collection.
func (s *Store) Statistics() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return computeStats(s.tasks)
}

// RecentActivities returns the first n tasks in collection order.
func (s *Store) RecentActivities(n int) []Activity {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n <= 0 {
		return nil
	}
	if n > len(s.tasks) {
		n = len(s.tasks)
	}
	out := make([]Activity, n)
	for i, t := range s.tasks[:n] {
		out[i] = Activity{ID: t.ID, Text: t.Text, Completed: t.Completed}
	}
	return out
}

// Tasks returns a copy of the collection, newest first.
func (s *Store) Tasks() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Get returns the task with id.
func (s *Store) Get(id string) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexLocked(id); i >= 0 {
		return s.tasks[i], true
	}
	return Task{}, false
}

// mutate applies fn to a copy of the task with id and commits the result.
func (s *Store) mutate(ctx context.Context, op Op, id string, fn func(*Task)) (bool, error) {
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return false, ErrNotLoaded
	}

	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return false, nil
	}

	next := make([]Task, len(s.tasks))
	copy(next, s.tasks)
	fn(&next[i])

	stats, err := s.commitLocked(ctx, next)
	s.mu.Unlock()
	if err != nil {
		return false, err
	}

	s.notify(Event{Op: op, TaskID: id, Stats: stats})
	return true, nil
}

// commitLocked persists next and, only if that succeeds, makes it the
// current collection.
func (s *Store) commitLocked(ctx context.Context, next []Task) (Stats, error) {
	snapshot, err := Encode(next)
	if err != nil {
		return Stats{}, err
	}
	if err := s.backend.Set(ctx, s.key, snapshot); err != nil {
		return Stats{}, fmt.Errorf("save %s: %w", s.key, err)
	}
	s.tasks = next
	return computeStats(next), nil
}

func (s *Store) indexLocked(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
