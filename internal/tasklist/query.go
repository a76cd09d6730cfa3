package tasklist

import "github.com/tgienger/botdesk/internal/models"

const (
	// DefaultLimit is the page size used when none is configured.
	DefaultLimit = 10
	// MaxLimit caps the page size the console will ask for.
	MaxLimit = 100
)

// Query is the filter and pagination window driving a list fetch.
type Query = models.TaskQuery

// DefaultQuery returns the initial query for the given page size.
func DefaultQuery(limit int) Query {
	q := Query{Limit: limit}
	normalize(&q)
	return q
}

// FilterOption stages a change to the query. Applying one never fetches.
type FilterOption func(*Query)

// WithPlatform restricts the list to one platform; the empty platform clears
// the filter.
func WithPlatform(p models.Platform) FilterOption {
	return func(q *Query) {
		q.Platform = p
	}
}

// WithIncludeHidden toggles listing of hidden tasks.
func WithIncludeHidden(include bool) FilterOption {
	return func(q *Query) {
		q.IncludeHidden = include
	}
}

// queryModel holds the live query and the values it resets to. It knows
// nothing about page numbers; the store keeps skip in step with the page.
type queryModel struct {
	current Query
	initial Query
}

func newQueryModel(initial Query) *queryModel {
	normalize(&initial)
	return &queryModel{current: initial, initial: initial}
}

func (m *queryModel) setFilter(opts ...FilterOption) {
	for _, opt := range opts {
		if opt != nil {
			opt(&m.current)
		}
	}
	normalize(&m.current)
}

func (m *queryModel) setSkip(skip int) {
	m.current.Skip = skip
	normalize(&m.current)
}

func (m *queryModel) resetDefaults() {
	m.current = m.initial
}

func normalize(q *Query) {
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.Skip < 0 {
		q.Skip = 0
	}
	if q.Platform != "" && !q.Platform.Valid() {
		q.Platform = ""
	}
}
