package tasklist

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/tgienger/botdesk/internal/models"
)

type listReply struct {
	page models.PageResult
	err  error
}

type listCall struct {
	q     models.TaskQuery
	reply chan listReply
}

// fakeRemote serves tasks from memory. When held is set, every ListTasks
// call is published on calls and blocks until the test replies.
type fakeRemote struct {
	mu        sync.Mutex
	tasks     []models.Task
	queries   []models.TaskQuery
	listErr   error
	deleted   []string
	deleteRes *models.DeleteResult
	deleteErr error
	updateErr error

	held  bool
	calls chan listCall
}

func newFakeRemote(tasks ...models.Task) *fakeRemote {
	return &fakeRemote{tasks: tasks, calls: make(chan listCall, 8)}
}

func (f *fakeRemote) ListTasks(ctx context.Context, q models.TaskQuery) (models.PageResult, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	held := f.held
	f.mu.Unlock()

	if held {
		call := listCall{q: q, reply: make(chan listReply, 1)}
		f.calls <- call
		select {
		case r := <-call.reply:
			return r.page, r.err
		case <-ctx.Done():
			return models.PageResult{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return models.PageResult{}, f.listErr
	}
	end := min(q.Skip+q.Limit, len(f.tasks))
	start := min(q.Skip, end)
	return models.PageResult{Items: append([]models.Task(nil), f.tasks[start:end]...), Total: len(f.tasks)}, nil
}

func (f *fakeRemote) DeleteTask(_ context.Context, id string) (models.DeleteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return models.DeleteResult{}, f.deleteErr
	}
	if f.deleteRes != nil {
		return *f.deleteRes, nil
	}
	f.deleted = append(f.deleted, id)
	kept := f.tasks[:0]
	for _, t := range f.tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	f.tasks = kept
	return models.DeleteResult{Success: true, Message: "deleted"}, nil
}

func (f *fakeRemote) UpdateTask(_ context.Context, id string, patch models.TaskPatch) (models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return models.Task{}, f.updateErr
	}
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			if patch.Title != nil {
				f.tasks[i].Title = *patch.Title
			}
			if patch.IsActive != nil {
				f.tasks[i].IsActive = *patch.IsActive
			}
			return f.tasks[i], nil
		}
	}
	return models.Task{}, errors.New("not found")
}

func (f *fakeRemote) hold() {
	f.mu.Lock()
	f.held = true
	f.mu.Unlock()
}

func (f *fakeRemote) lastQuery(t *testing.T) models.TaskQuery {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queries) == 0 {
		t.Fatal("no list request was issued")
	}
	return f.queries[len(f.queries)-1]
}

func (f *fakeRemote) queryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func (f *fakeRemote) nextCall(t *testing.T) listCall {
	t.Helper()
	select {
	case c := <-f.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for list request")
	}
	return listCall{}
}

func makeTasks(ids ...string) []models.Task {
	tasks := make([]models.Task, len(ids))
	for i, id := range ids {
		tasks[i] = models.Task{ID: id, Title: "task " + id, Platform: models.PlatformTelegram}
	}
	return tasks
}

func taskIDs(tasks []models.Task) []string {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}

func fetchAsync(s *Store) <-chan error {
	done := make(chan error, 1)
	go func() { done <- s.Fetch(context.Background(), true) }()
	return done
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("fetch did not return")
	}
	return nil
}

func TestSetPageKeepsSkipInStep(t *testing.T) {
	remote := newFakeRemote(makeTasks("a", "b", "c")...)
	store := New(remote, DefaultQuery(10))

	for _, p := range []int{1, 2, 3, 7, 1} {
		if err := store.SetPage(context.Background(), p); err != nil {
			t.Fatalf("SetPage(%d): %v", p, err)
		}
		q := remote.lastQuery(t)
		if q.Skip != (p-1)*q.Limit {
			t.Errorf("page %d: skip = %d, want %d", p, q.Skip, (p-1)*q.Limit)
		}
		if got := store.Snapshot().Page; got != p {
			t.Errorf("page = %d, want %d", got, p)
		}
	}
}

func TestSetPageScenario(t *testing.T) {
	remote := newFakeRemote()
	store := New(remote, DefaultQuery(10))

	if err := store.SetPage(context.Background(), 3); err != nil {
		t.Fatalf("SetPage: %v", err)
	}
	want := models.TaskQuery{Limit: 10, Skip: 20}
	if got := remote.lastQuery(t); got != want {
		t.Fatalf("query = %+v, want %+v", got, want)
	}
}

func TestSetPageClampsToFirstPage(t *testing.T) {
	remote := newFakeRemote()
	store := New(remote, DefaultQuery(10))

	_ = store.SetPage(context.Background(), 0)
	if got := store.Snapshot(); got.Page != 1 || got.Query.Skip != 0 {
		t.Fatalf("page=%d skip=%d, want 1 and 0", got.Page, got.Query.Skip)
	}
}

func TestSetFilterDoesNotFetch(t *testing.T) {
	remote := newFakeRemote()
	store := New(remote, DefaultQuery(10))

	store.SetFilter(WithPlatform(models.PlatformVK), WithIncludeHidden(true))

	if n := remote.queryCount(); n != 0 {
		t.Fatalf("expected no request, got %d", n)
	}
	q := store.Snapshot().Query
	if q.Platform != models.PlatformVK || !q.IncludeHidden {
		t.Fatalf("filters not staged: %+v", q)
	}

	if err := store.Fetch(context.Background(), true); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got := remote.lastQuery(t); got.Platform != models.PlatformVK || !got.IncludeHidden {
		t.Fatalf("staged filters not sent: %+v", got)
	}
}

func TestSetFilterIgnoresUnknownPlatform(t *testing.T) {
	store := New(newFakeRemote(), DefaultQuery(10))
	store.SetFilter(WithPlatform("myspace"))
	if p := store.Snapshot().Query.Platform; p != "" {
		t.Fatalf("platform = %q, want empty", p)
	}
}

func TestResetFiltersIsIdempotent(t *testing.T) {
	remote := newFakeRemote(makeTasks("a")...)
	store := New(remote, DefaultQuery(10))
	ctx := context.Background()

	store.SetFilter(WithPlatform(models.PlatformTikTok), WithIncludeHidden(true))
	_ = store.SetPage(ctx, 4)

	_ = store.ResetFilters(ctx)
	once := store.Snapshot()
	_ = store.ResetFilters(ctx)
	twice := store.Snapshot()

	if once.Query != twice.Query || once.Page != twice.Page {
		t.Fatalf("reset not idempotent: %+v/%d vs %+v/%d", once.Query, once.Page, twice.Query, twice.Page)
	}
	if once.Query != DefaultQuery(10) || once.Page != 1 {
		t.Fatalf("reset did not restore defaults: %+v page %d", once.Query, once.Page)
	}
	if got := remote.lastQuery(t); got != DefaultQuery(10) {
		t.Fatalf("reset fetched with %+v", got)
	}
}

func TestInitialStateIsLoading(t *testing.T) {
	store := New(newFakeRemote(), DefaultQuery(10))
	if got := store.Snapshot().State(); got != StateLoading {
		t.Fatalf("state = %v, want loading", got)
	}
}

func TestLoadingOnlyWhileFetchOutstanding(t *testing.T) {
	remote := newFakeRemote()
	remote.hold()
	store := New(remote, DefaultQuery(10))

	if store.Snapshot().List.Loading {
		t.Fatal("loading before fetch")
	}

	done := fetchAsync(store)
	call := remote.nextCall(t)

	snap := store.Snapshot()
	if !snap.List.Loading || snap.State() != StateLoading {
		t.Fatalf("expected loading while request outstanding, got %+v", snap.List)
	}

	call.reply <- listReply{page: models.PageResult{Items: makeTasks("a"), Total: 1}}
	if err := waitDone(t, done); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	snap = store.Snapshot()
	if snap.List.Loading {
		t.Fatal("loading after fetch resolved")
	}
	if snap.State() != StateLoaded {
		t.Fatalf("state = %v, want loaded", snap.State())
	}
}

func TestFetchClearsPreviousError(t *testing.T) {
	remote := newFakeRemote()
	remote.listErr = errors.New("boom")
	store := New(remote, DefaultQuery(10))

	if err := store.Fetch(context.Background(), true); err == nil {
		t.Fatal("expected error")
	}
	if store.Snapshot().State() != StateError {
		t.Fatal("expected error state")
	}

	remote.hold()
	done := fetchAsync(store)
	call := remote.nextCall(t)

	if err := store.Snapshot().List.Err; err != nil {
		t.Fatalf("stale error visible during new attempt: %v", err)
	}

	call.reply <- listReply{page: models.PageResult{}}
	_ = waitDone(t, done)
}

func TestFailedFetchKeepsPreviousResult(t *testing.T) {
	remote := newFakeRemote(makeTasks("t1", "t2")...)
	store := New(remote, DefaultQuery(10))
	ctx := context.Background()

	if err := store.Fetch(ctx, true); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	remote.listErr = errors.New("server down")
	if err := store.Fetch(ctx, true); err == nil {
		t.Fatal("expected error")
	}

	snap := store.Snapshot()
	if got := taskIDs(snap.Result.Items); !reflect.DeepEqual(got, []string{"t1", "t2"}) || snap.Result.Total != 2 {
		t.Fatalf("result changed after failure: %v total %d", got, snap.Result.Total)
	}
	if snap.List.Err == nil || snap.List.Err.Error() != "server down" {
		t.Fatalf("list error = %v", snap.List.Err)
	}
	if snap.State() != StateError {
		t.Fatalf("state = %v, want error", snap.State())
	}
}

func TestFirstFetchFailureShowsError(t *testing.T) {
	remote := newFakeRemote()
	remote.listErr = errors.New("unreachable")
	store := New(remote, DefaultQuery(10))

	_ = store.Fetch(context.Background(), false)

	snap := store.Snapshot()
	if snap.HasData {
		t.Fatal("HasData after failed first fetch")
	}
	if snap.State() != StateError {
		t.Fatalf("state = %v, want error", snap.State())
	}
}

func TestEmptyResultIsLoaded(t *testing.T) {
	store := New(newFakeRemote(), DefaultQuery(10))

	if err := store.Fetch(context.Background(), true); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	snap := store.Snapshot()
	if snap.State() != StateLoaded {
		t.Fatalf("state = %v, want loaded", snap.State())
	}
	if len(snap.Result.Items) != 0 || snap.Result.Total != 0 {
		t.Fatalf("unexpected result %+v", snap.Result)
	}
}

func TestDeleteDoesNotRefreshList(t *testing.T) {
	remote := newFakeRemote(makeTasks("a", "b", "c")...)
	store := New(remote, DefaultQuery(10))
	ctx := context.Background()

	if err := store.Fetch(ctx, true); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	requests := remote.queryCount()

	ok, msg := store.DeleteTask(ctx, "b")
	if !ok || msg != "deleted" {
		t.Fatalf("DeleteTask = (%v, %q)", ok, msg)
	}
	if remote.queryCount() != requests {
		t.Fatal("delete triggered a list request")
	}
	if got := taskIDs(store.Snapshot().Result.Items); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("result changed by delete: %v", got)
	}

	// the handler's explicit refetch is what removes the row
	if err := store.Fetch(ctx, true); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got := taskIDs(store.Snapshot().Result.Items); !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Fatalf("result after refetch: %v", got)
	}
}

func TestDeleteFailures(t *testing.T) {
	tests := []struct {
		name    string
		res     *models.DeleteResult
		err     error
		wantMsg string
	}{
		{name: "transport", err: errors.New("connection refused"), wantMsg: "connection refused"},
		{name: "rejected", res: &models.DeleteResult{Success: false, Message: "task is running"}, wantMsg: "task is running"},
		{name: "rejected without message", res: &models.DeleteResult{}, wantMsg: "delete rejected by server"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := newFakeRemote(makeTasks("a")...)
			remote.deleteRes = tt.res
			remote.deleteErr = tt.err
			store := New(remote, DefaultQuery(10))
			ctx := context.Background()
			_ = store.Fetch(ctx, true)

			ok, msg := store.DeleteTask(ctx, "a")
			if ok || msg != tt.wantMsg {
				t.Fatalf("DeleteTask = (%v, %q), want (false, %q)", ok, msg, tt.wantMsg)
			}
			snap := store.Snapshot()
			if snap.List.Err != nil || snap.State() != StateLoaded {
				t.Fatalf("delete failure leaked into list state: %+v", snap.List)
			}
			if snap.Mutate.Err == nil || snap.Mutate.Loading {
				t.Fatalf("mutate slot = %+v", snap.Mutate)
			}
		})
	}
}

func TestDeleteRequiresID(t *testing.T) {
	remote := newFakeRemote()
	store := New(remote, DefaultQuery(10))
	if ok, _ := store.DeleteTask(context.Background(), "  "); ok {
		t.Fatal("expected failure for empty id")
	}
	if len(remote.deleted) != 0 {
		t.Fatal("remote called for empty id")
	}
}

func TestUpdateTask(t *testing.T) {
	remote := newFakeRemote(makeTasks("a")...)
	store := New(remote, DefaultQuery(10))
	ctx := context.Background()

	title := "renamed"
	if ok, msg := store.UpdateTask(ctx, "a", models.TaskPatch{Title: &title}); !ok {
		t.Fatalf("UpdateTask: %s", msg)
	}
	if remote.tasks[0].Title != "renamed" {
		t.Fatalf("title = %q", remote.tasks[0].Title)
	}

	blank := " "
	if ok, _ := store.UpdateTask(ctx, "a", models.TaskPatch{Title: &blank}); ok {
		t.Fatal("expected blank title to be rejected")
	}
}

func TestOverlappingFetchesKeepNewest(t *testing.T) {
	tests := []struct {
		name       string
		newerFirst bool
	}{
		{name: "in order"},
		{name: "newer arrives first", newerFirst: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := newFakeRemote()
			remote.hold()
			store := New(remote, DefaultQuery(10))

			older := fetchAsync(store)
			olderCall := remote.nextCall(t)
			newer := fetchAsync(store)
			newerCall := remote.nextCall(t)

			olderPage := models.PageResult{Items: makeTasks("old"), Total: 1}
			newerPage := models.PageResult{Items: makeTasks("new"), Total: 1}

			if tt.newerFirst {
				newerCall.reply <- listReply{page: newerPage}
				_ = waitDone(t, newer)
				if !store.Snapshot().List.Loading {
					t.Fatal("loading cleared while older request outstanding")
				}
				olderCall.reply <- listReply{page: olderPage}
				_ = waitDone(t, older)
			} else {
				olderCall.reply <- listReply{page: olderPage}
				_ = waitDone(t, older)
				newerCall.reply <- listReply{page: newerPage}
				_ = waitDone(t, newer)
			}

			snap := store.Snapshot()
			if got := taskIDs(snap.Result.Items); !reflect.DeepEqual(got, []string{"new"}) {
				t.Fatalf("result = %v, want [new]", got)
			}
			if snap.List.Loading {
				t.Fatal("still loading")
			}
		})
	}
}

func TestStaleFailureIsDiscarded(t *testing.T) {
	remote := newFakeRemote()
	remote.hold()
	store := New(remote, DefaultQuery(10))

	older := fetchAsync(store)
	olderCall := remote.nextCall(t)
	newer := fetchAsync(store)
	newerCall := remote.nextCall(t)

	newerCall.reply <- listReply{page: models.PageResult{Items: makeTasks("n"), Total: 1}}
	_ = waitDone(t, newer)
	olderCall.reply <- listReply{err: errors.New("late failure")}
	_ = waitDone(t, older)

	if snap := store.Snapshot(); snap.List.Err != nil || snap.State() != StateLoaded {
		t.Fatalf("stale failure applied: %+v", snap.List)
	}
}

func TestOlderFailureHiddenWhileNewerPending(t *testing.T) {
	remote := newFakeRemote()
	remote.hold()
	store := New(remote, DefaultQuery(10))

	older := fetchAsync(store)
	olderCall := remote.nextCall(t)
	newer := fetchAsync(store)
	newerCall := remote.nextCall(t)

	olderCall.reply <- listReply{err: errors.New("old failure")}
	_ = waitDone(t, older)

	snap := store.Snapshot()
	if snap.List.Err != nil || !snap.List.Loading || snap.State() != StateLoading {
		t.Fatalf("while newer fetch pending: %+v state %v", snap.List, snap.State())
	}

	newerCall.reply <- listReply{page: models.PageResult{Items: makeTasks("n"), Total: 1}}
	if err := waitDone(t, newer); err != nil {
		t.Fatalf("newer fetch: %v", err)
	}
	snap = store.Snapshot()
	if snap.List.Err != nil || snap.State() != StateLoaded {
		t.Fatalf("after newer fetch: %+v state %v", snap.List, snap.State())
	}
	if got := taskIDs(snap.Result.Items); len(got) != 1 || got[0] != "n" {
		t.Fatalf("items = %v", got)
	}
}

func TestTimeoutReleasesLoading(t *testing.T) {
	remote := newFakeRemote()
	remote.hold()
	store := New(remote, DefaultQuery(10), WithTimeout(20*time.Millisecond))

	done := fetchAsync(store)
	_ = remote.nextCall(t) // never answered

	if err := waitDone(t, done); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	snap := store.Snapshot()
	if snap.List.Loading || snap.State() != StateError {
		t.Fatalf("after timeout: %+v state %v", snap.List, snap.State())
	}
}

func TestSubscribeSeesLoadingThenLoaded(t *testing.T) {
	store := New(newFakeRemote(makeTasks("a")...), DefaultQuery(10))

	var states []ListState
	unsubscribe := store.Subscribe(func(s Snapshot) {
		states = append(states, s.State())
	})

	_ = store.Fetch(context.Background(), true)
	unsubscribe()
	_ = store.Fetch(context.Background(), true)

	want := []ListState{StateLoading, StateLoaded}
	if !reflect.DeepEqual(states, want) {
		t.Fatalf("states = %v, want %v", states, want)
	}
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		total, limit, want int
	}{
		{0, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{95, 10, 10},
	}
	for _, tt := range tests {
		s := Snapshot{Query: Query{Limit: tt.limit}, Result: models.PageResult{Total: tt.total}}
		if got := s.TotalPages(); got != tt.want {
			t.Errorf("TotalPages(total=%d, limit=%d) = %d, want %d", tt.total, tt.limit, got, tt.want)
		}
	}
}
