package views

import (
	"github.com/tgienger/botdesk/internal/models"
)

// StoreChanged tells the task list to re-read the store snapshot
type StoreChanged struct{}

// OpenTaskDetail opens the read-only detail view for a task
type OpenTaskDetail struct {
	Task models.Task
}

// OpenTaskEdit opens the edit form for a task
type OpenTaskEdit struct {
	Task models.Task
}

// OpenBotForm opens the bot creation form
type OpenBotForm struct{}

// BackToList returns to the task list, optionally showing a notice and
// reloading the current page
type BackToList struct {
	Notice  string
	Failed  bool
	Refresh bool
}

// History records operator actions. A nil History records nothing.
type History interface {
	RecordAction(kind models.ActionKind, target string, ok bool, message string) (*models.Action, error)
}

// notice is the one-line status shown under the toolbar
type notice struct {
	text   string
	failed bool
}
