package views

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	apperr "github.com/tgienger/botdesk/internal/errors"
	"github.com/tgienger/botdesk/internal/models"
	"github.com/tgienger/botdesk/internal/ui/keys"
	"github.com/tgienger/botdesk/internal/ui/styles"
)

// BotCreator registers a new bot account
type BotCreator interface {
	CreateBot(ctx context.Context, bot models.Bot) (models.Bot, error)
}

const (
	botFocusPlatform = iota
	botFocusGender
	botFocusUsername
	botFocusPassword
	botFocusToken
	botFocusActive
	botFocusInUse
	botFocusSave
	botFocusCount
)

// BotFormView creates a bot account
type BotFormView struct {
	ctx     context.Context
	bots    BotCreator
	history History
	log     *slog.Logger
	styles  *styles.Styles
	keys    keys.KeyMap

	width  int
	height int

	bot      models.Bot
	username textinput.Model
	password textinput.Model
	token    textinput.Model
	focusIdx int
	saving   bool
	errText  string
}

// NewBotFormView creates an empty bot form with default choices
func NewBotFormView(ctx context.Context, bots BotCreator, history History, log *slog.Logger) *BotFormView {
	if log == nil {
		log = slog.Default()
	}

	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 100

	password := textinput.New()
	password.Placeholder = "password (ctrl+g to generate)"
	password.CharLimit = 100

	token := textinput.New()
	token.Placeholder = "access token (optional)"
	token.CharLimit = 500

	return &BotFormView{
		ctx:      ctx,
		bots:     bots,
		history:  history,
		log:      log,
		styles:   styles.NewStyles(),
		keys:     keys.DefaultKeyMap(),
		bot:      models.NewBot(),
		username: username,
		password: password,
		token:    token,
	}
}

type botCreatedMsg struct {
	bot models.Bot
	err error
}

// Init starts the cursor blinking
func (v *BotFormView) Init() tea.Cmd {
	return textinput.Blink
}

// value collects the form into a Bot
func (v *BotFormView) value() models.Bot {
	b := v.bot
	b.Username = strings.TrimSpace(v.username.Value())
	b.Password = v.password.Value()
	b.AccessToken = strings.TrimSpace(v.token.Value())
	return b
}

func (v *BotFormView) submit() tea.Cmd {
	bot := v.value()
	if err := bot.Validate(); err != nil {
		v.errText = strings.ReplaceAll(err.Error(), "\n", "; ")
		return nil
	}
	v.saving = true
	v.errText = ""
	ctx, bots, history, log := v.ctx, v.bots, v.history, v.log
	return func() tea.Msg {
		created, err := bots.CreateBot(ctx, bot)
		message := fmt.Sprintf("bot %s created", bot.Username)
		if err != nil {
			message = apperr.MessageOf(err)
		}
		record(history, log, models.ActionCreateBot, bot.Username, err == nil, message)
		return botCreatedMsg{bot: created, err: err}
	}
}

// Update handles messages
func (v *BotFormView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		w := clamp(styles.ContentWidth(v.width)-10, 20, 60)
		v.username.Width = w
		v.password.Width = w
		v.token.Width = w
		return v, nil

	case botCreatedMsg:
		v.saving = false
		if msg.err != nil {
			v.errText = apperr.MessageOf(msg.err)
			return v, nil
		}
		name := msg.bot.Username
		if name == "" {
			name = v.value().Username
		}
		return v, func() tea.Msg {
			return BackToList{Notice: fmt.Sprintf("bot %s created", name)}
		}

	case tea.KeyMsg:
		if v.saving {
			return v, nil
		}
		return v.updateKeys(msg)
	}
	return v, nil
}

func (v *BotFormView) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		return v, func() tea.Msg { return BackToList{} }

	case key.Matches(msg, v.keys.Save):
		return v, v.submit()

	case key.Matches(msg, v.keys.Generate):
		pw, err := models.GeneratePassword()
		if err != nil {
			v.errText = err.Error()
			return v, nil
		}
		v.password.SetValue(pw)
		return v, nil

	case key.Matches(msg, v.keys.Tab):
		v.setFocus((v.focusIdx + 1) % botFocusCount)
		return v, nil

	case key.Matches(msg, v.keys.Enter) && v.focusIdx < botFocusActive:
		v.setFocus((v.focusIdx + 1) % botFocusCount)
		return v, nil

	case msg.String() == "shift+tab":
		v.setFocus((v.focusIdx + botFocusCount - 1) % botFocusCount)
		return v, nil
	}

	switch v.focusIdx {
	case botFocusPlatform:
		if key.Matches(msg, v.keys.Toggle) || key.Matches(msg, v.keys.NextPage) {
			v.bot.Platform = nextPlatform(v.bot.Platform)
			if v.bot.Platform == "" {
				v.bot.Platform = models.Platforms[0]
			}
		}
	case botFocusGender:
		if key.Matches(msg, v.keys.Toggle) || key.Matches(msg, v.keys.NextPage) {
			v.bot.Gender = nextGender(v.bot.Gender)
		}
	case botFocusUsername:
		var cmd tea.Cmd
		v.username, cmd = v.username.Update(msg)
		return v, cmd
	case botFocusPassword:
		var cmd tea.Cmd
		v.password, cmd = v.password.Update(msg)
		return v, cmd
	case botFocusToken:
		var cmd tea.Cmd
		v.token, cmd = v.token.Update(msg)
		return v, cmd
	case botFocusActive:
		if key.Matches(msg, v.keys.Toggle) || key.Matches(msg, v.keys.Enter) {
			v.bot.IsActive = !v.bot.IsActive
		}
	case botFocusInUse:
		if key.Matches(msg, v.keys.Toggle) || key.Matches(msg, v.keys.Enter) {
			v.bot.IsInUse = !v.bot.IsInUse
		}
	case botFocusSave:
		if key.Matches(msg, v.keys.Enter) {
			return v, v.submit()
		}
	}
	return v, nil
}

func (v *BotFormView) setFocus(idx int) {
	v.focusIdx = idx
	inputs := map[int]*textinput.Model{
		botFocusUsername: &v.username,
		botFocusPassword: &v.password,
		botFocusToken:    &v.token,
	}
	for i, in := range inputs {
		if i == idx {
			in.Focus()
		} else {
			in.Blur()
		}
	}
}

// View renders the view
func (v *BotFormView) View() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	inputWidth := clamp(contentWidth-6, 20, 60)

	chip := func(idx int, label string) string {
		if v.focusIdx == idx {
			return s.ChipActive.Render(label)
		}
		return s.Chip.Render(label)
	}
	input := func(idx int, in textinput.Model) string {
		st := s.Input
		if v.focusIdx == idx {
			st = s.InputFocused
		}
		return st.Width(inputWidth).Render(in.View())
	}
	check := func(on bool) string {
		if on {
			return "[x]"
		}
		return "[ ]"
	}

	btnStyle := s.Button
	if v.focusIdx == botFocusSave {
		btnStyle = s.ButtonFocused
	}

	status := ""
	switch {
	case v.saving:
		status = s.TitleMuted.Render("creating...")
	case v.errText != "":
		status = s.NoticeError.Render(v.errText)
	}

	form := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("New Bot"),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			chip(botFocusPlatform, "platform: "+string(v.bot.Platform)),
			" ",
			chip(botFocusGender, "gender: "+string(v.bot.Gender)),
		),
		"",
		"Username:",
		input(botFocusUsername, v.username),
		"Password:",
		input(botFocusPassword, v.password),
		"Access token:",
		input(botFocusToken, v.token),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			chip(botFocusActive, check(v.bot.IsActive)+" active"),
			" ",
			chip(botFocusInUse, check(v.bot.IsInUse)+" in use"),
		),
		"",
		btnStyle.Render(" Create "),
		"",
		status,
		s.TitleMuted.Render("Tab: next • Space: change • Ctrl+G: generate password • Ctrl+S: create • Esc: cancel"),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}
