package views

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	apperr "github.com/tgienger/botdesk/internal/errors"
	"github.com/tgienger/botdesk/internal/models"
	"github.com/tgienger/botdesk/internal/tasklist"
	"github.com/tgienger/botdesk/internal/ui/keys"
	"github.com/tgienger/botdesk/internal/ui/styles"
)

// TaskListView shows one page of bot tasks with filters, pager and row actions
type TaskListView struct {
	ctx     context.Context
	store   *tasklist.Store
	history History
	log     *slog.Logger
	styles  *styles.Styles
	keys    keys.KeyMap

	width  int
	height int

	snap    tasklist.Snapshot
	table   table.Model
	pager   paginator.Model
	spinner spinner.Model
	help    help.Model
	notice  notice

	// Delete confirmation
	confirmingDelete bool
	deleteTarget     models.Task

	// Help popup
	showHelpPopup bool
}

// NewTaskListView creates the task list bound to store. Store operations
// only ever run inside commands so Update never blocks on the network.
func NewTaskListView(ctx context.Context, store *tasklist.Store, history History, log *slog.Logger) *TaskListView {
	if log == nil {
		log = slog.Default()
	}

	pager := paginator.New()
	pager.Type = paginator.Arabic

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(styles.Current.Accent)

	tbl := table.New(
		table.WithColumns(taskColumns(styles.MaxWidth)),
		table.WithFocused(true),
		table.WithStyles(styles.TableStyles()),
	)

	v := &TaskListView{
		ctx:     ctx,
		store:   store,
		history: history,
		log:     log,
		styles:  styles.NewStyles(),
		keys:    keys.DefaultKeyMap(),
		table:   tbl,
		pager:   pager,
		spinner: spin,
		help:    help.New(),
	}
	v.refresh()
	return v
}

type deleteDoneMsg struct {
	task    models.Task
	ok      bool
	message string
}

// Init loads the first page
func (v *TaskListView) Init() tea.Cmd {
	return tea.Batch(v.spinner.Tick, v.fetch())
}

// Reload issues a forced fetch of the current page
func (v *TaskListView) Reload() tea.Cmd {
	return v.fetch()
}

// SetNotice replaces the status line
func (v *TaskListView) SetNotice(text string, failed bool) {
	v.notice = notice{text: text, failed: failed}
}

func (v *TaskListView) fetch() tea.Cmd {
	store, ctx := v.store, v.ctx
	return func() tea.Msg {
		_ = store.Fetch(ctx, true)
		return StoreChanged{}
	}
}

func (v *TaskListView) setPage(p int) tea.Cmd {
	store, ctx := v.store, v.ctx
	return func() tea.Msg {
		_ = store.SetPage(ctx, p)
		return StoreChanged{}
	}
}

func (v *TaskListView) resetFilters() tea.Cmd {
	store, ctx := v.store, v.ctx
	return func() tea.Msg {
		_ = store.ResetFilters(ctx)
		return StoreChanged{}
	}
}

func (v *TaskListView) deleteTask(task models.Task) tea.Cmd {
	store, ctx, history, log := v.store, v.ctx, v.history, v.log
	return func() tea.Msg {
		ok, message := store.DeleteTask(ctx, task.ID)
		record(history, log, models.ActionDeleteTask, task.ID, ok, message)
		return deleteDoneMsg{task: task, ok: ok, message: message}
	}
}

// refresh copies the store snapshot into the table and pager
func (v *TaskListView) refresh() {
	v.snap = v.store.Snapshot()

	rows := make([]table.Row, 0, len(v.snap.Result.Items))
	for _, t := range v.snap.Result.Items {
		rows = append(rows, taskRow(t))
	}
	v.table.SetRows(rows)
	v.table.SetCursor(clamp(v.table.Cursor(), 0, max(0, len(rows)-1)))

	v.pager.PerPage = max(1, v.snap.Query.Limit)
	v.pager.TotalPages = v.snap.TotalPages()
	v.pager.Page = clamp(v.snap.Page-1, 0, v.pager.TotalPages-1)
}

func (v *TaskListView) selected() (models.Task, bool) {
	if v.snap.State() != tasklist.StateLoaded {
		return models.Task{}, false
	}
	items := v.snap.Result.Items
	c := v.table.Cursor()
	if c < 0 || c >= len(items) {
		return models.Task{}, false
	}
	return items[c], true
}

// Update handles messages
func (v *TaskListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(v.width)
		v.table.SetColumns(taskColumns(contentWidth))
		v.table.SetHeight(clamp(v.height-12, 3, tasklist.MaxLimit+1))
		v.help.Width = contentWidth
		return v, nil

	case StoreChanged:
		v.refresh()
		return v, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case deleteDoneMsg:
		if !msg.ok {
			v.SetNotice(msg.message, true)
			v.refresh()
			return v, nil
		}
		v.SetNotice(msg.message, false)
		return v, v.fetch()

	case tea.KeyMsg:
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}
		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}
		return v.updateNormal(msg)
	}

	return v, nil
}

func (v *TaskListView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
		return v, nil

	case key.Matches(msg, v.keys.Up):
		if len(v.table.Rows()) > 0 {
			v.table.MoveUp(1)
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if len(v.table.Rows()) > 0 {
			v.table.MoveDown(1)
		}
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if task, ok := v.selected(); ok {
			return v, func() tea.Msg { return OpenTaskDetail{Task: task} }
		}
		return v, nil

	case key.Matches(msg, v.keys.Edit):
		if task, ok := v.selected(); ok {
			return v, func() tea.Msg { return OpenTaskEdit{Task: task} }
		}
		return v, nil

	case key.Matches(msg, v.keys.Delete):
		if task, ok := v.selected(); ok {
			v.confirmingDelete = true
			v.deleteTarget = task
		}
		return v, nil

	case key.Matches(msg, v.keys.New):
		return v, func() tea.Msg { return OpenBotForm{} }

	case key.Matches(msg, v.keys.Reload):
		v.notice = notice{}
		return v, v.fetch()

	case key.Matches(msg, v.keys.Reset):
		v.notice = notice{}
		return v, v.resetFilters()

	case key.Matches(msg, v.keys.Platform):
		v.store.SetFilter(tasklist.WithPlatform(nextPlatform(v.snap.Query.Platform)))
		v.refresh()
		return v, v.fetch()

	case key.Matches(msg, v.keys.Hidden):
		v.store.SetFilter(tasklist.WithIncludeHidden(!v.snap.Query.IncludeHidden))
		v.refresh()
		return v, v.fetch()

	case key.Matches(msg, v.keys.NextPage):
		if v.snap.Page < v.snap.TotalPages() {
			return v, v.setPage(v.snap.Page + 1)
		}
		return v, nil

	case key.Matches(msg, v.keys.PrevPage):
		if v.snap.Page > 1 {
			return v, v.setPage(v.snap.Page - 1)
		}
		return v, nil

	case key.Matches(msg, v.keys.FirstPage):
		return v, v.setPage(1)

	case key.Matches(msg, v.keys.LastPage):
		return v, v.setPage(v.snap.TotalPages())
	}

	return v, nil
}

func (v *TaskListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		return v, v.deleteTask(v.deleteTarget)
	case "n", "N", "esc":
		v.confirmingDelete = false
		return v, nil
	}
	return v, nil
}

// View renders the view
func (v *TaskListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}
	if v.confirmingDelete {
		return v.renderDeleteConfirm()
	}

	var b strings.Builder
	b.WriteString(v.renderToolbar())
	b.WriteString("\n")
	b.WriteString(v.renderNotice())
	b.WriteString("\n")
	b.WriteString(v.renderListRegion())
	b.WriteString("\n")
	b.WriteString(v.renderPager())
	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render(v.help.View(v.keys)))

	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *TaskListView) renderToolbar() string {
	s := v.styles
	q := v.snap.Query

	platformChip := s.Chip
	if q.Platform != "" {
		platformChip = s.ChipActive
	}
	hiddenChip := s.Chip
	hiddenLabel := "hidden: off"
	if q.IncludeHidden {
		hiddenChip = s.ChipActive
		hiddenLabel = "hidden: on"
	}

	bar := lipgloss.JoinHorizontal(lipgloss.Center,
		s.Title.Render("Bot tasks"),
		"  ",
		platformChip.Render("platform: "+platformLabel(q.Platform)),
		" ",
		hiddenChip.Render(hiddenLabel),
		"  ",
		s.TitleMuted.Render(fmt.Sprintf("%d total", v.snap.Result.Total)),
	)
	return s.Toolbar.Render(bar)
}

func (v *TaskListView) renderNotice() string {
	s := v.styles
	if v.snap.Mutate.Loading {
		return s.NoticeOK.Render(v.spinner.View() + " working...")
	}
	if v.notice.text == "" {
		return ""
	}
	if v.notice.failed {
		return s.NoticeError.Render(v.notice.text)
	}
	return s.NoticeOK.Render(v.notice.text)
}

func (v *TaskListView) renderListRegion() string {
	switch v.snap.State() {
	case tasklist.StateLoading:
		return v.renderSkeleton()
	case tasklist.StateError:
		return v.renderError()
	}
	if len(v.snap.Result.Items) == 0 {
		return v.styles.Empty.Render("No tasks match the current filters.")
	}
	return v.table.View()
}

// renderSkeleton draws one placeholder bar per expected row
func (v *TaskListView) renderSkeleton() string {
	s := v.styles
	width := max(styles.ContentWidth(v.width)-4, 20)
	bar := s.Skeleton.Render(strings.Repeat("░", width))

	lines := []string{s.TitleMuted.Render(v.spinner.View() + " loading tasks...")}
	for range max(1, v.snap.Query.Limit) {
		lines = append(lines, bar)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (v *TaskListView) renderError() string {
	s := v.styles
	width := clamp(styles.ContentWidth(v.width)-4, 20, 80)
	content := lipgloss.JoinVertical(lipgloss.Left,
		"Could not load tasks",
		"",
		s.Value.Render(apperr.MessageOf(v.snap.List.Err)),
		"",
		s.TitleMuted.Render("press r to retry"),
	)
	return s.ErrorPanel.Width(width).Render(content)
}

func (v *TaskListView) renderPager() string {
	s := v.styles
	return s.Pager.Render(fmt.Sprintf("page %s  (%d per page)", v.pager.View(), v.pager.PerPage))
}

func (v *TaskListView) renderDeleteConfirm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render("Delete Task?"),
		"",
		s.TitleMuted.Render(fmt.Sprintf("%q will be removed on the server.", v.deleteTarget.Title)),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonDanger.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TaskListView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	full := help.New()
	full.ShowAll = true
	content := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("Keys"),
		"",
		full.View(v.keys),
		"",
		s.TitleMuted.Render("Press any key to close"),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.Panel.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}

// taskColumns sizes the table for width, giving the title what is left
func taskColumns(width int) []table.Column {
	fixed := []table.Column{
		{Title: "Status", Width: 10},
		{Title: "Active", Width: 6},
		{Title: "Error", Width: 5},
		{Title: "Platform", Width: 9},
		{Title: "Type", Width: 12},
		{Title: "Metrics", Width: 18},
		{Title: "Created", Width: 16},
		{Title: "Next run", Width: 16},
	}
	used := 0
	for _, c := range fixed {
		used += c.Width + 2
	}
	title := table.Column{Title: "Title", Width: max(12, width-used-2)}
	return append([]table.Column{title}, fixed...)
}

func taskRow(t models.Task) table.Row {
	errCell := ""
	if t.HasError() {
		errCell = "!"
	}
	return table.Row{
		orDash(t.Title),
		orDash(t.Status),
		yesNo(t.IsActive),
		errCell,
		string(t.Platform),
		orDash(t.TaskType),
		MetricsText(t.MetricsHTML),
		createdText(t),
		NextRunText(t),
	}
}

// record appends to history, logging instead of failing the operation
func record(h History, log *slog.Logger, kind models.ActionKind, target string, ok bool, message string) {
	if h == nil {
		return
	}
	if _, err := h.RecordAction(kind, target, ok, message); err != nil {
		log.Warn("record action", "kind", kind, "target", target, "error", err)
	}
}
