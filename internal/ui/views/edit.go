package views

import (
	"context"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/botdesk/internal/models"
	"github.com/tgienger/botdesk/internal/ui/keys"
	"github.com/tgienger/botdesk/internal/ui/styles"
)

// TaskUpdater applies a partial update to a task
type TaskUpdater interface {
	UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (bool, string)
}

const (
	editFocusTitle = iota
	editFocusActive
	editFocusSave
	editFocusCount
)

// TaskEditView edits the title and active flag of a task
type TaskEditView struct {
	ctx     context.Context
	updater TaskUpdater
	history History
	log     *slog.Logger
	styles  *styles.Styles
	keys    keys.KeyMap

	width  int
	height int

	task     models.Task
	title    textinput.Model
	active   bool
	focusIdx int
	saving   bool
	errText  string
}

// NewTaskEditView creates an edit form prefilled from task
func NewTaskEditView(ctx context.Context, updater TaskUpdater, history History, log *slog.Logger, task models.Task) *TaskEditView {
	if log == nil {
		log = slog.Default()
	}

	title := textinput.New()
	title.Placeholder = "Task title"
	title.CharLimit = 200
	title.SetValue(task.Title)
	title.Focus()

	return &TaskEditView{
		ctx:     ctx,
		updater: updater,
		history: history,
		log:     log,
		styles:  styles.NewStyles(),
		keys:    keys.DefaultKeyMap(),
		task:    task,
		title:   title,
		active:  task.IsActive,
	}
}

type taskUpdatedMsg struct {
	ok      bool
	message string
}

// Init starts the cursor blinking
func (v *TaskEditView) Init() tea.Cmd {
	return textinput.Blink
}

// patch holds only the fields that changed
func (v *TaskEditView) patch() (models.TaskPatch, bool) {
	var p models.TaskPatch
	changed := false
	if title := strings.TrimSpace(v.title.Value()); title != v.task.Title {
		p.Title = &title
		changed = true
	}
	if v.active != v.task.IsActive {
		active := v.active
		p.IsActive = &active
		changed = true
	}
	return p, changed
}

func (v *TaskEditView) save() tea.Cmd {
	p, changed := v.patch()
	if !changed {
		return func() tea.Msg { return BackToList{} }
	}
	v.saving = true
	v.errText = ""
	ctx, updater, history, log, id := v.ctx, v.updater, v.history, v.log, v.task.ID
	return func() tea.Msg {
		ok, message := updater.UpdateTask(ctx, id, p)
		record(history, log, models.ActionUpdateTask, id, ok, message)
		return taskUpdatedMsg{ok: ok, message: message}
	}
}

// Update handles messages
func (v *TaskEditView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.title.Width = clamp(styles.ContentWidth(v.width)-10, 20, 60)
		return v, nil

	case taskUpdatedMsg:
		v.saving = false
		if !msg.ok {
			v.errText = msg.message
			return v, nil
		}
		return v, func() tea.Msg {
			return BackToList{Notice: msg.message, Refresh: true}
		}

	case tea.KeyMsg:
		if v.saving {
			return v, nil
		}
		return v.updateKeys(msg)
	}

	return v, nil
}

func (v *TaskEditView) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		return v, func() tea.Msg { return BackToList{} }

	case key.Matches(msg, v.keys.Save):
		return v, v.save()

	case key.Matches(msg, v.keys.Tab):
		v.setFocus((v.focusIdx + 1) % editFocusCount)
		return v, nil

	case msg.String() == "shift+tab":
		v.setFocus((v.focusIdx + editFocusCount - 1) % editFocusCount)
		return v, nil
	}

	switch v.focusIdx {
	case editFocusTitle:
		if key.Matches(msg, v.keys.Enter) {
			v.setFocus(editFocusActive)
			return v, nil
		}
		var cmd tea.Cmd
		v.title, cmd = v.title.Update(msg)
		return v, cmd

	case editFocusActive:
		if key.Matches(msg, v.keys.Toggle) || key.Matches(msg, v.keys.Enter) {
			v.active = !v.active
		}
		return v, nil

	case editFocusSave:
		if key.Matches(msg, v.keys.Enter) {
			return v, v.save()
		}
	}
	return v, nil
}

func (v *TaskEditView) setFocus(idx int) {
	v.focusIdx = idx
	if idx == editFocusTitle {
		v.title.Focus()
	} else {
		v.title.Blur()
	}
}

// View renders the view
func (v *TaskEditView) View() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	inputWidth := clamp(contentWidth-6, 20, 60)

	titleStyle, activeStyle, btnStyle := s.Input, s.Chip, s.Button
	switch v.focusIdx {
	case editFocusTitle:
		titleStyle = s.InputFocused
	case editFocusActive:
		activeStyle = s.ChipActive
	case editFocusSave:
		btnStyle = s.ButtonFocused
	}

	check := "[ ]"
	if v.active {
		check = "[x]"
	}

	status := ""
	switch {
	case v.saving:
		status = s.TitleMuted.Render("saving...")
	case v.errText != "":
		status = s.NoticeError.Render(v.errText)
	}

	form := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("Edit Task"),
		s.TitleMuted.Render(v.task.ID),
		"",
		"Title:",
		titleStyle.Width(inputWidth).Render(v.title.View()),
		"",
		activeStyle.Render(check+" active"),
		"",
		btnStyle.Render(" Save "),
		"",
		status,
		s.TitleMuted.Render("Tab: next • Space: toggle • Ctrl+S: save • Esc: cancel"),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}
