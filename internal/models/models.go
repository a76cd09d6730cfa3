package models

import "time"

// Platform identifies the network a bot operates on
type Platform string

const (
	PlatformTelegram  Platform = "telegram"
	PlatformInstagram Platform = "instagram"
	PlatformVK        Platform = "vk"
	PlatformTikTok    Platform = "tiktok"
	PlatformYouTube   Platform = "youtube"
)

// Platforms lists every known platform in display order
var Platforms = []Platform{
	PlatformTelegram,
	PlatformInstagram,
	PlatformVK,
	PlatformTikTok,
	PlatformYouTube,
}

// Valid reports whether p is one of the known platforms
func (p Platform) Valid() bool {
	for _, known := range Platforms {
		if p == known {
			return true
		}
	}
	return false
}

// Gender of the persona a bot account presents
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Genders lists every known gender in display order
var Genders = []Gender{GenderMale, GenderFemale}

// Valid reports whether g is one of the known genders
func (g Gender) Valid() bool {
	for _, known := range Genders {
		if g == known {
			return true
		}
	}
	return false
}

// Task is a scheduled job run by a bot, as returned by the admin API
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Status      string    `json:"status"`
	IsActive    bool      `json:"is_active"`
	Error       *string   `json:"error,omitempty"` // set when the last run failed
	Platform    Platform  `json:"platform"`
	TaskType    string    `json:"task_type"`
	MetricsHTML string    `json:"metricsLabel"`
	CreatedDate Timestamp `json:"created_date"`
	NextRunAt   UnixTime  `json:"next_run_timestamp"` // unset = not scheduled
}

// HasError reports whether the task carries a failure
func (t Task) HasError() bool {
	return t.Error != nil
}

// NextRun returns the next scheduled run in host-local time
func (t Task) NextRun() (time.Time, bool) {
	if !t.NextRunAt.Valid {
		return time.Time{}, false
	}
	return t.NextRunAt.Time(), true
}

// TaskPatch carries the editable fields of a task; nil fields are left as-is
type TaskPatch struct {
	Title    *string `json:"title,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// PageResult is one page of tasks plus the total matching the query
type PageResult struct {
	Items []Task `json:"bot_tasks"`
	Total int    `json:"total"`
}

// TaskQuery is the filter and pagination window sent with a list request
type TaskQuery struct {
	Limit         int
	Skip          int
	Platform      Platform // empty = all platforms
	IncludeHidden bool
}

// DeleteResult is the server's verdict on a delete request
type DeleteResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
