package views

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	apperr "github.com/tgienger/botdesk/internal/errors"
	"github.com/tgienger/botdesk/internal/models"
	"github.com/tgienger/botdesk/internal/ui/keys"
	"github.com/tgienger/botdesk/internal/ui/styles"
)

// TaskGetter loads a single task
type TaskGetter interface {
	GetTask(ctx context.Context, id string) (models.Task, error)
}

// TaskDetailView shows every field of one task. It keeps its own load state,
// separate from the list.
type TaskDetailView struct {
	ctx    context.Context
	tasks  TaskGetter
	styles *styles.Styles
	keys   keys.KeyMap

	width  int
	height int

	task    models.Task
	loading bool
	err     error
	spinner spinner.Model
}

// NewTaskDetailView creates a detail view seeded with the row the operator
// picked; Init replaces it with the server's current copy.
func NewTaskDetailView(ctx context.Context, tasks TaskGetter, task models.Task) *TaskDetailView {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(styles.Current.Accent)

	return &TaskDetailView{
		ctx:     ctx,
		tasks:   tasks,
		styles:  styles.NewStyles(),
		keys:    keys.DefaultKeyMap(),
		task:    task,
		spinner: spin,
	}
}

type taskLoadedMsg struct {
	task models.Task
	err  error
}

// Init loads the task
func (v *TaskDetailView) Init() tea.Cmd {
	return tea.Batch(v.spinner.Tick, v.load())
}

func (v *TaskDetailView) load() tea.Cmd {
	v.loading = true
	v.err = nil
	ctx, tasks, id := v.ctx, v.tasks, v.task.ID
	return func() tea.Msg {
		task, err := tasks.GetTask(ctx, id)
		return taskLoadedMsg{task: task, err: err}
	}
}

// Update handles messages
func (v *TaskDetailView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case taskLoadedMsg:
		v.loading = false
		if msg.err != nil {
			v.err = msg.err
			return v, nil
		}
		v.task = msg.task
		return v, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.Back):
			return v, func() tea.Msg { return BackToList{} }
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Reload):
			return v, v.load()
		case key.Matches(msg, v.keys.Edit):
			task := v.task
			return v, func() tea.Msg { return OpenTaskEdit{Task: task} }
		}
	}
	return v, nil
}

// View renders the view
func (v *TaskDetailView) View() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	t := v.task

	status := ""
	switch {
	case v.loading:
		status = s.TitleMuted.Render(v.spinner.View() + " loading...")
	case v.err != nil:
		status = s.NoticeError.Render(apperr.MessageOf(v.err))
	}

	errText := noValue
	if t.HasError() {
		errText = *t.Error
	}

	field := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, s.Label.Render(label), s.Value.Render(value))
	}
	marked := func(label, value string, style lipgloss.Style) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, s.Label.Render(label), style.Inherit(s.Value).Render(value))
	}
	fields := []string{
		field("ID", orDash(t.ID)),
		field("Title", orDash(t.Title)),
		field("Status", orDash(t.Status)),
		marked("Active", yesNo(t.IsActive), activeStyle(s, t.IsActive)),
		field("Platform", orDash(string(t.Platform))),
		field("Type", orDash(t.TaskType)),
		field("Metrics", orDash(MetricsText(t.MetricsHTML))),
		field("Created", createdText(t)),
		field("Next run", NextRunText(t)),
		marked("Error", errText, errorStyle(s, t)),
	}

	width := clamp(contentWidth-4, 30, 100)
	content := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("Task"),
		status,
		s.Panel.Width(width).Render(strings.Join(fields, "\n")),
		s.Help.Render(helpLine(s, []string{"e", "edit", "r", "reload", "esc", "back"})),
	)
	return styles.CenterView(content, v.width, v.height)
}

func activeStyle(s *styles.Styles, active bool) lipgloss.Style {
	if active {
		return s.Yes
	}
	return s.No
}

func errorStyle(s *styles.Styles, t models.Task) lipgloss.Style {
	if t.HasError() {
		return s.Flagged
	}
	return s.Value
}

// helpLine renders key/description pairs the way the footer does
func helpLine(s *styles.Styles, pairs []string) string {
	parts := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, s.HelpKey.Render(pairs[i])+" "+s.HelpDesc.Render(pairs[i+1]))
	}
	return strings.Join(parts, " • ")
}
