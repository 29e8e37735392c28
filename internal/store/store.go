// Package store holds the in-memory task collection for the active session.
package store

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/taskdeck/taskdeck/internal/api"
	"github.com/taskdeck/taskdeck/internal/ident"
	"github.com/taskdeck/taskdeck/internal/session"
)

// Stats summarizes the collection for the dashboard counters.
type Stats struct {
	Total     int
	Completed int
	Pending   int
}

// Store owns the ordered task collection. Every operation requires an active
// session; when the manager is anonymous the mutating operations no-op, so a
// logout that races a pending completion cannot resurrect tasks.
//
// Mutations run in the UI's command goroutines while views render concurrently,
// so the collection is guarded by a mutex and Tasks returns a copy: a snapshot
// held by a renderer never aliases the live slice.
type Store struct {
	client   *api.Client
	sessions *session.Manager
	log      zerolog.Logger

	mu      sync.Mutex
	notify  api.Notifier
	tasks   []api.Task
	loadErr error
}

// New creates a store bound to the given session manager.
func New(client *api.Client, sessions *session.Manager, notify api.Notifier, log zerolog.Logger) *Store {
	if notify == nil {
		notify = api.NopNotifier{}
	}
	return &Store{
		client:   client,
		sessions: sessions,
		notify:   notify,
		log:      log,
	}
}

// SetNotifier replaces the notifier. The TUI installs its toast channel after
// the store is constructed.
func (s *Store) SetNotifier(n api.Notifier) {
	if n == nil {
		n = api.NopNotifier{}
	}
	s.mu.Lock()
	s.notify = n
	s.mu.Unlock()
}

// Tasks returns a copy of the collection in its current order: newest-created
// first, backend order otherwise.
func (s *Store) Tasks() []api.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Err returns the inline error state left by the last failed Load, cleared by
// the next successful one.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr
}

// Stats derives the dashboard counters from the collection.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	completed := 0
	for _, t := range s.tasks {
		if t.Completed {
			completed++
		}
	}
	return Stats{
		Total:     len(s.tasks),
		Completed: completed,
		Pending:   len(s.tasks) - completed,
	}
}

// Load fetches the full collection and replaces the in-memory state
// wholesale; stale local edits are discarded. A transport failure empties the
// collection and records an inline error state instead of propagating.
func (s *Store) Load(ctx context.Context) {
	basePath, err := s.sessions.TodosPath()
	if err != nil {
		return
	}

	tasks, err := s.client.ListTodos(ctx, basePath)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.log.Error().Err(err).Msg("loading tasks")
		s.tasks = nil
		s.loadErr = err
		return
	}
	s.tasks = tasks
	s.loadErr = nil
}

// Create posts a new task with the given title and prepends the result, so
// the newest task renders first. Completed defaults to false when the backend
// omits it. On failure the error is logged and returned with no compensating
// rollback; callers clear their input field only on success.
func (s *Store) Create(ctx context.Context, title, description string) (*api.Task, error) {
	basePath, err := s.sessions.TodosPath()
	if err != nil {
		return nil, err
	}

	task, err := s.client.CreateTodo(ctx, basePath, title, description)
	if err != nil {
		s.log.Error().Err(err).Str("title", title).Msg("creating task")
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append([]api.Task{*task}, s.tasks...)
	s.notify.Notify("Task created", false)
	return task, nil
}

// Toggle flips a task's completion state. An unknown identifier is a no-op.
// The local flag changes only after the backend call succeeds, so a failure
// cannot desynchronize local state.
func (s *Store) Toggle(ctx context.Context, id ident.ID) error {
	basePath, err := s.sessions.TodosPath()
	if err != nil {
		return err
	}

	if s.find(id) < 0 {
		return nil
	}

	if err := s.client.ToggleTodo(ctx, basePath, id); err != nil {
		s.log.Error().Err(err).Str("id", id.String()).Msg("toggling task")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.findLocked(id)
	if idx < 0 {
		return nil
	}
	s.tasks[idx].Completed = !s.tasks[idx].Completed
	if s.tasks[idx].Completed {
		s.notify.Notify("Task completed", false)
	} else {
		s.notify.Notify("Task pending", false)
	}
	return nil
}

// Delete removes a task after interactive confirmation. A declined
// confirmation is a no-op. On success every task matching the identifier is
// removed from the collection.
func (s *Store) Delete(ctx context.Context, id ident.ID, confirm func() bool) error {
	basePath, err := s.sessions.TodosPath()
	if err != nil {
		return err
	}

	if confirm != nil && !confirm() {
		return nil
	}

	if err := s.client.DeleteTodo(ctx, basePath, id); err != nil {
		s.log.Error().Err(err).Str("id", id.String()).Msg("deleting task")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if !ident.Equal(t.ID, id) {
			kept = append(kept, t)
		}
	}
	s.tasks = kept
	s.notify.Notify("Task deleted", false)
	return nil
}

// Clear discards the collection, called on logout.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = nil
	s.loadErr = nil
}

func (s *Store) find(id ident.ID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(id)
}

func (s *Store) findLocked(id ident.ID) int {
	for i := range s.tasks {
		if ident.Equal(s.tasks[i].ID, id) {
			return i
		}
	}
	return -1
}
