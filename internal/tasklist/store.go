// Package tasklist coordinates the filtered, paginated list of bot tasks:
// the query, the current page, the last fetched result and the load state
// of list fetches and mutations.
//
// Operations come in two kinds. Staging operations (SetFilter) change the
// query synchronously and never touch the network. Committing operations
// (Fetch, SetPage, ResetFilters) issue a list request and move the list
// through Loading to Loaded or Error. Mutations (DeleteTask, UpdateTask) call
// the remote directly and leave resynchronising the list to the caller.
package tasklist

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	apperr "github.com/tgienger/botdesk/internal/errors"
	"github.com/tgienger/botdesk/internal/models"
)

// Remote is the admin API as seen by the store.
type Remote interface {
	ListTasks(ctx context.Context, q models.TaskQuery) (models.PageResult, error)
	DeleteTask(ctx context.Context, id string) (models.DeleteResult, error)
	UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (models.Task, error)
}

// ListState is what the list region should render.
type ListState int

const (
	StateLoading ListState = iota
	StateError
	StateLoaded
)

func (s ListState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateError:
		return "error"
	case StateLoaded:
		return "loaded"
	}
	return "unknown"
}

// Snapshot is a read-only copy of the store's state.
type Snapshot struct {
	Query   Query
	Page    int
	Result  models.PageResult
	HasData bool // a page has been committed at least once
	List    Slot
	Mutate  Slot
}

// State derives the list region state. An error wins until the next fetch
// attempt clears it; before the first page arrives the list is loading.
func (s Snapshot) State() ListState {
	switch {
	case s.List.Err != nil:
		return StateError
	case s.List.Loading, !s.HasData:
		return StateLoading
	}
	return StateLoaded
}

// TotalPages is the page count for the current total, at least 1.
func (s Snapshot) TotalPages() int {
	if s.Query.Limit <= 0 || s.Result.Total <= 0 {
		return 1
	}
	return (s.Result.Total + s.Query.Limit - 1) / s.Query.Limit
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for fetch and mutation outcomes.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithTimeout bounds every remote call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.timeout = d
	}
}

// Store owns the list state and is the only writer of it.
type Store struct {
	remote  Remote
	log     *slog.Logger
	timeout time.Duration

	mu        sync.Mutex
	query     *queryModel
	result    resultModel
	tracker   Tracker
	page      int
	issued    uint64 // sequence number of the last fetch issued
	committed uint64 // sequence number of the last fetch whose outcome was kept

	notifyMu sync.Mutex
	subs     map[int]func(Snapshot)
	nextSub  int
}

// New creates a store. defaults is both the initial query and the state
// ResetFilters returns to.
func New(remote Remote, defaults Query, opts ...Option) *Store {
	s := &Store{
		remote: remote,
		log:    slog.Default(),
		query:  newQueryModel(defaults),
		page:   1,
		subs:   make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Query:   s.query.current,
		Page:    s.page,
		Result:  s.result.snapshot(),
		HasData: s.result.loaded,
		List:    s.tracker.Slot(ClassList),
		Mutate:  s.tracker.Slot(ClassMutate),
	}
}

// Subscribe registers fn to receive the state after every change. Handlers
// are called one at a time and must not call back into the store's
// operations. The returned func unsubscribes.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.notifyMu.Lock()
		defer s.notifyMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if len(s.subs) == 0 {
		return
	}
	snap := s.Snapshot()
	for _, fn := range s.subs {
		fn(snap)
	}
}

// SetFilter stages query changes. It does not fetch.
func (s *Store) SetFilter(opts ...FilterOption) {
	s.mu.Lock()
	s.query.setFilter(opts...)
	s.mu.Unlock()
	s.notify()
}

// Fetch requests the page described by the current query and page number.
// force marks operator-initiated reloads; both values always refetch.
//
// On success the result is replaced as a whole. On failure the previous
// result is kept and the error is recorded on the list slot. When fetches
// overlap, only an outcome newer than the last kept one is applied. The
// returned error is the call's own outcome, whether or not it was applied.
func (s *Store) Fetch(ctx context.Context, force bool) error {
	s.mu.Lock()
	s.issued++
	seq := s.issued
	q := s.query.current
	s.tracker.Begin(ClassList)
	s.mu.Unlock()
	s.notify()

	s.log.Debug("fetch tasks", "seq", seq, "force", force,
		"limit", q.Limit, "skip", q.Skip, "platform", q.Platform, "include_hidden", q.IncludeHidden)

	callCtx, cancel := s.callContext(ctx)
	page, err := s.remote.ListTasks(callCtx, q)
	cancel()

	s.mu.Lock()
	switch {
	case seq < s.committed:
		s.tracker.Drop(ClassList)
		s.log.Debug("discard stale fetch", "seq", seq, "committed", s.committed)
	case err != nil && seq < s.issued:
		// A newer fetch is still pending; its outcome owns the list slot.
		s.tracker.Drop(ClassList)
		s.log.Debug("discard superseded failure", "seq", seq, "issued", s.issued, "error", err)
	case err != nil:
		s.committed = seq
		s.tracker.Fail(ClassList, err)
		s.log.Warn("fetch tasks failed", "seq", seq, "error", err)
	default:
		s.committed = seq
		s.result.replace(page)
		s.tracker.Succeed(ClassList)
	}
	s.mu.Unlock()
	s.notify()
	return err
}

// SetPage moves to page p (1-based, lower values clamp to 1), keeps skip in
// step with it and fetches.
func (s *Store) SetPage(ctx context.Context, p int) error {
	if p < 1 {
		p = 1
	}
	s.mu.Lock()
	s.page = p
	s.query.setSkip((p - 1) * s.query.current.Limit)
	s.mu.Unlock()
	return s.Fetch(ctx, true)
}

// ResetFilters restores the default query, returns to page 1 and fetches.
func (s *Store) ResetFilters(ctx context.Context) error {
	s.mu.Lock()
	s.query.resetDefaults()
	s.page = 1
	s.mu.Unlock()
	return s.Fetch(ctx, true)
}

// DeleteTask asks the server to delete a task and reports the outcome for
// display. It never changes the list; callers refetch on success.
func (s *Store) DeleteTask(ctx context.Context, id string) (bool, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return false, "task id is required"
	}

	s.beginMutation()
	callCtx, cancel := s.callContext(ctx)
	res, err := s.remote.DeleteTask(callCtx, id)
	cancel()

	if err != nil {
		s.endMutation(err)
		s.log.Warn("delete task failed", "id", id, "error", err)
		return false, messageFor(err, "delete failed")
	}
	if !res.Success {
		msg := res.Message
		if msg == "" {
			msg = "delete rejected by server"
		}
		s.endMutation(apperr.New(apperr.CodeServer, msg))
		return false, msg
	}
	s.endMutation(nil)
	if res.Message == "" {
		return true, "task deleted"
	}
	return true, res.Message
}

// UpdateTask applies patch to a task. Like DeleteTask it leaves the list
// untouched.
func (s *Store) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (bool, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return false, "task id is required"
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return false, "title cannot be empty"
	}

	s.beginMutation()
	callCtx, cancel := s.callContext(ctx)
	_, err := s.remote.UpdateTask(callCtx, id, patch)
	cancel()

	s.endMutation(err)
	if err != nil {
		s.log.Warn("update task failed", "id", id, "error", err)
		return false, messageFor(err, "update failed")
	}
	return true, "task updated"
}

func (s *Store) beginMutation() {
	s.mu.Lock()
	s.tracker.Begin(ClassMutate)
	s.mu.Unlock()
	s.notify()
}

func (s *Store) endMutation(err error) {
	s.mu.Lock()
	if err != nil {
		s.tracker.Fail(ClassMutate, err)
	} else {
		s.tracker.Succeed(ClassMutate)
	}
	s.mu.Unlock()
	s.notify()
}

func (s *Store) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}

func messageFor(err error, fallback string) string {
	if msg := apperr.MessageOf(err); msg != "" {
		return msg
	}
	return fallback
}
