package models

import "time"

// ActionKind names an operator mutation recorded in the local history
type ActionKind string

const (
	ActionDeleteTask ActionKind = "delete_task"
	ActionUpdateTask ActionKind = "update_task"
	ActionCreateBot  ActionKind = "create_bot"
)

// Action is one entry of the local history
type Action struct {
	ID        string
	Kind      ActionKind
	Target    string // task id or bot username
	OK        bool
	Message   string
	CreatedAt time.Time
}
