package views

import (
	"testing"
	"time"

	"github.com/tgienger/botdesk/internal/models"
)

func TestMetricsText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "views: 10", "views: 10"},
		{"markup", "<b>views</b>: 10<br>likes: <i>3</i>", "views: 10 likes: 3"},
		{"entities", "a &amp; b", "a & b"},
		{"script dropped", "ok<script>alert(1)</script>", "ok"},
		{"escapes stripped", "\x1b[31mred\x1b[0m", "red"},
		{"whitespace", "  a \n\t b  ", "a b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MetricsText(tt.in); got != tt.want {
				t.Errorf("MetricsText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNextRunText(t *testing.T) {
	if got := NextRunText(models.Task{}); got != "---" {
		t.Errorf("no next run = %q, want ---", got)
	}

	ts := int64(1700000000)
	want := time.Unix(ts, 0).Local().Format(timeLayout)
	if got := NextRunText(models.Task{NextRunAt: models.Unix(ts)}); got != want {
		t.Errorf("NextRunText = %q, want %q", got, want)
	}
}

func TestNextPlatformCycles(t *testing.T) {
	seen := []models.Platform{}
	p := models.Platform("")
	for range len(models.Platforms) + 1 {
		p = nextPlatform(p)
		seen = append(seen, p)
	}
	if seen[0] != models.Platforms[0] {
		t.Fatalf("first step = %q", seen[0])
	}
	if last := seen[len(seen)-1]; last != "" {
		t.Fatalf("cycle should return to none, got %q", last)
	}
	if got := nextPlatform("myspace"); got != "" {
		t.Fatalf("unknown platform = %q, want none", got)
	}
}

func TestNextGender(t *testing.T) {
	if nextGender(models.Genders[0]) != models.Genders[1] {
		t.Fatal("gender did not advance")
	}
	if nextGender(models.Genders[len(models.Genders)-1]) != models.Genders[0] {
		t.Fatal("gender did not wrap")
	}
}
