package tasklist

import (
	"errors"
	"testing"

	"github.com/tgienger/botdesk/internal/models"
)

func TestDefaultQuery(t *testing.T) {
	tests := []struct {
		limit int
		want  int
	}{
		{0, DefaultLimit},
		{-5, DefaultLimit},
		{25, 25},
		{500, MaxLimit},
	}
	for _, tt := range tests {
		q := DefaultQuery(tt.limit)
		if q.Limit != tt.want || q.Skip != 0 || q.Platform != "" || q.IncludeHidden {
			t.Errorf("DefaultQuery(%d) = %+v", tt.limit, q)
		}
	}
}

func TestQueryModelReset(t *testing.T) {
	m := newQueryModel(DefaultQuery(10))
	m.setFilter(WithPlatform(models.PlatformYouTube), WithIncludeHidden(true))
	m.setSkip(30)

	m.resetDefaults()
	if m.current != DefaultQuery(10) {
		t.Fatalf("after reset: %+v", m.current)
	}
	m.resetDefaults()
	if m.current != DefaultQuery(10) {
		t.Fatalf("after second reset: %+v", m.current)
	}
}

func TestQueryModelClearPlatform(t *testing.T) {
	m := newQueryModel(DefaultQuery(10))
	m.setFilter(WithPlatform(models.PlatformVK))
	m.setFilter(WithPlatform(""))
	if m.current.Platform != "" {
		t.Fatalf("platform = %q, want cleared", m.current.Platform)
	}
}

func TestTrackerSlots(t *testing.T) {
	var tr Tracker
	boom := errors.New("boom")

	tr.Begin(ClassList)
	if s := tr.Slot(ClassList); !s.Loading || s.Err != nil {
		t.Fatalf("after begin: %+v", s)
	}
	if s := tr.Slot(ClassMutate); s.Loading {
		t.Fatal("mutate slot affected by list begin")
	}

	tr.Fail(ClassList, boom)
	if s := tr.Slot(ClassList); s.Loading || !errors.Is(s.Err, boom) {
		t.Fatalf("after fail: %+v", s)
	}

	tr.Begin(ClassList)
	if s := tr.Slot(ClassList); s.Err != nil {
		t.Fatalf("begin did not clear error: %+v", s)
	}
	tr.Succeed(ClassList)
	if s := tr.Slot(ClassList); s.Loading || s.Err != nil {
		t.Fatalf("after succeed: %+v", s)
	}

	// releasing more than was begun must not go negative
	tr.Drop(ClassList)
	tr.Begin(ClassList)
	if s := tr.Slot(ClassList); !s.Loading {
		t.Fatal("expected loading after begin")
	}
}
