package ui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tgienger/botdesk/internal/models"
	"github.com/tgienger/botdesk/internal/tasklist"
	"github.com/tgienger/botdesk/internal/ui/views"
)

type memRemote struct {
	tasks []models.Task
	lists int
}

func (m *memRemote) ListTasks(context.Context, models.TaskQuery) (models.PageResult, error) {
	m.lists++
	return models.PageResult{Items: m.tasks, Total: len(m.tasks)}, nil
}

func (m *memRemote) DeleteTask(context.Context, string) (models.DeleteResult, error) {
	return models.DeleteResult{Success: true}, nil
}

func (m *memRemote) UpdateTask(_ context.Context, id string, _ models.TaskPatch) (models.Task, error) {
	return models.Task{ID: id}, nil
}

func (m *memRemote) GetTask(_ context.Context, id string) (models.Task, error) {
	return models.Task{ID: id}, nil
}

func (m *memRemote) CreateBot(_ context.Context, b models.Bot) (models.Bot, error) {
	return b, nil
}

func newTestApp(remote *memRemote) *App {
	store := tasklist.New(remote, tasklist.DefaultQuery(10))
	app := NewApp(context.Background(), Deps{Store: store, Tasks: remote, Bots: remote})
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return app
}

func TestNavigation(t *testing.T) {
	remote := &memRemote{tasks: []models.Task{{ID: "t1", Title: "one"}}}
	app := newTestApp(remote)

	tests := []struct {
		msg  tea.Msg
		want View
	}{
		{views.OpenTaskDetail{Task: remote.tasks[0]}, ViewDetail},
		{views.OpenTaskEdit{Task: remote.tasks[0]}, ViewEdit},
		{views.OpenBotForm{}, ViewBotForm},
	}
	for _, tt := range tests {
		app.Update(tt.msg)
		if app.currentView != tt.want || app.child == nil {
			t.Fatalf("after %T view = %v", tt.msg, app.currentView)
		}
		app.Update(views.BackToList{})
		if app.currentView != ViewTasks || app.child != nil {
			t.Fatalf("BackToList did not return to the list")
		}
	}
}

func TestBackToListRefreshes(t *testing.T) {
	remote := &memRemote{}
	app := newTestApp(remote)

	app.Update(views.OpenTaskEdit{Task: models.Task{ID: "t1"}})
	_, cmd := app.Update(views.BackToList{Notice: "task updated", Refresh: true})
	if cmd == nil {
		t.Fatal("expected a reload command")
	}
	cmd()
	if remote.lists != 1 {
		t.Fatalf("list calls = %d, want 1", remote.lists)
	}

	if _, cmd := app.Update(views.BackToList{}); cmd != nil {
		t.Fatal("plain back should not reload")
	}
}

func TestStoreChangedReachesListWhileAway(t *testing.T) {
	remote := &memRemote{tasks: []models.Task{{ID: "t1", Title: "one"}}}
	app := newTestApp(remote)

	app.Update(views.OpenBotForm{})
	_ = app.deps.Store.Fetch(context.Background(), true)
	app.Update(views.StoreChanged{})
	app.Update(views.BackToList{})

	if got := app.View(); !strings.Contains(got, "one") {
		t.Fatalf("list not refreshed:\n%s", got)
	}
}
