package views

import (
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
	"golang.org/x/net/html"

	"github.com/tgienger/botdesk/internal/models"
)

const (
	timeLayout = "2006-01-02 15:04"
	noValue    = "---"
)

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// MetricsText reduces the server supplied metrics markup to a single line of
// plain text. Tags are dropped, line breaks become spaces and terminal escape
// sequences are stripped so the label cannot restyle the screen.
func MetricsText(markup string) string {
	if markup == "" {
		return ""
	}
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(markup))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return collapseSpace(ansi.Strip(b.String()))
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style":
				skip++
			case "br", "p", "div", "li", "tr":
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style":
				if skip > 0 {
					skip--
				}
			case "p", "div", "li", "tr", "td":
				b.WriteByte(' ')
			}
		case html.SelfClosingTagToken:
			b.WriteByte(' ')
		}
	}
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NextRunText renders the next scheduled run in host-local time, or "---"
// when none is scheduled.
func NextRunText(t models.Task) string {
	next, ok := t.NextRun()
	if !ok {
		return noValue
	}
	return next.Format(timeLayout)
}

func createdText(t models.Task) string {
	if t.CreatedDate.IsZero() {
		return noValue
	}
	return t.CreatedDate.In(time.Local).Format(timeLayout)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return noValue
	}
	return s
}

// nextPlatform cycles none → each platform in order → none.
func nextPlatform(p models.Platform) models.Platform {
	if p == "" {
		return models.Platforms[0]
	}
	for i, candidate := range models.Platforms {
		if candidate == p && i+1 < len(models.Platforms) {
			return models.Platforms[i+1]
		}
	}
	return ""
}

func nextGender(g models.Gender) models.Gender {
	for i, candidate := range models.Genders {
		if candidate == g {
			return models.Genders[(i+1)%len(models.Genders)]
		}
	}
	return models.Genders[0]
}

func platformLabel(p models.Platform) string {
	if p == "" {
		return "all"
	}
	return string(p)
}
