package ui

import (
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tgienger/botdesk/internal/tasklist"
	"github.com/tgienger/botdesk/internal/ui/views"
)

// Currently active view
type View int

const (
	ViewTasks View = iota
	ViewDetail
	ViewEdit
	ViewBotForm
)

// Deps are the services the views talk to
type Deps struct {
	Store   *tasklist.Store
	Tasks   views.TaskGetter
	Bots    views.BotCreator
	History views.History // optional
	Log     *slog.Logger
}

type App struct {
	ctx         context.Context
	deps        Deps
	currentView View
	taskList    *views.TaskListView
	child       tea.Model // detail, edit or bot form
	width       int
	height      int
}

// Creates a new application
func NewApp(ctx context.Context, deps Deps) *App {
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	return &App{
		ctx:         ctx,
		deps:        deps,
		currentView: ViewTasks,
		taskList:    views.NewTaskListView(ctx, deps.Store, deps.History, deps.Log),
	}
}

// Run starts the program and keeps the task list in sync with the store
// until the program exits or ctx is cancelled.
func Run(ctx context.Context, deps Deps) error {
	app := NewApp(ctx, deps)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	// Send blocks until the event loop reads, and store operations run
	// inside commands, so never send synchronously from the callback.
	unsubscribe := deps.Store.Subscribe(func(tasklist.Snapshot) {
		go p.Send(views.StoreChanged{})
	})
	defer unsubscribe()

	_, err := p.Run()
	return err
}

func (a *App) Init() tea.Cmd {
	return a.taskList.Init()
}

func (a *App) open(view View, child tea.Model) tea.Cmd {
	a.currentView = view
	a.child = child
	return tea.Batch(
		child.Init(),
		func() tea.Msg {
			return tea.WindowSizeMsg{Width: a.width, Height: a.height}
		},
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Always update task list size since it persists
		a.taskList.Update(msg)

	case views.StoreChanged:
		// The list is the only store consumer and must stay current while
		// another view is open.
		_, cmd := a.taskList.Update(msg)
		return a, cmd

	case views.OpenTaskDetail:
		a.deps.Log.Debug("open task", "id", msg.Task.ID)
		return a, a.open(ViewDetail, views.NewTaskDetailView(a.ctx, a.deps.Tasks, msg.Task))

	case views.OpenTaskEdit:
		return a, a.open(ViewEdit, views.NewTaskEditView(a.ctx, a.deps.Store, a.deps.History, a.deps.Log, msg.Task))

	case views.OpenBotForm:
		return a, a.open(ViewBotForm, views.NewBotFormView(a.ctx, a.deps.Bots, a.deps.History, a.deps.Log))

	case views.BackToList:
		a.currentView = ViewTasks
		a.child = nil
		if msg.Notice != "" {
			a.taskList.SetNotice(msg.Notice, msg.Failed)
		}
		if msg.Refresh {
			return a, a.taskList.Reload()
		}
		return a, nil
	}

	var cmd tea.Cmd
	switch a.currentView {
	case ViewTasks:
		_, cmd = a.taskList.Update(msg)
	default:
		if a.child != nil {
			_, cmd = a.child.Update(msg)
		}
	}

	return a, cmd
}

func (a *App) View() string {
	if a.currentView != ViewTasks && a.child != nil {
		return a.child.View()
	}
	return a.taskList.View()
}
