package tasklist

import "github.com/tgienger/botdesk/internal/models"

// resultModel holds the last committed page.
type resultModel struct {
	page   models.PageResult
	loaded bool // true once any page has been committed
}

// replace swaps in a new page; items and total always change together.
func (m *resultModel) replace(page models.PageResult) {
	if page.Total < 0 {
		page.Total = 0
	}
	m.page = models.PageResult{Items: cloneTasks(page.Items), Total: page.Total}
	m.loaded = true
}

func (m *resultModel) snapshot() models.PageResult {
	return models.PageResult{Items: cloneTasks(m.page.Items), Total: m.page.Total}
}

func cloneTasks(in []models.Task) []models.Task {
	out := make([]models.Task, len(in))
	copy(out, in)
	return out
}
