package analysis

import (
	"sync"
	"time"

	domain "github.com/bryanwahyu/pureplate/internal/domain/analysis"
)

// History keeps every successful analysis of this process, newest first when
// read. It doubles as the result cache. It is safe for concurrent use; all
// writes go through one mutex.
type History struct {
	mu      sync.RWMutex
	items   []domain.Result // append order, oldest first
	matcher domain.Matcher
	lastID  domain.ResultID
}

func NewHistory(m domain.Matcher) *History {
	if m == nil {
		m = SubstringMatcher{}
	}
	return &History{matcher: m}
}

// Lookup returns the newest entry whose product name matches query.
func (h *History) Lookup(query string) (domain.Result, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for i := len(h.items) - 1; i >= 0; i-- {
		if h.matcher.Match(h.items[i].ProductName, query) {
			return h.items[i].Clone(), true
		}
	}
	return domain.Result{}, false
}

// Append stamps r with a fresh id and timestamp and stores it. Ids follow the
// wall clock in milliseconds but never repeat or go backwards.
func (h *History) Append(r domain.Result, now time.Time) domain.Result {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := domain.ResultID(now.UnixMilli())
	if id <= h.lastID {
		id = h.lastID + 1
	}
	h.lastID = id

	stored := r.Clone()
	stored.ID = id
	stored.Timestamp = now
	h.items = append(h.items, stored)
	return stored.Clone()
}

// List returns up to limit entries, newest first. limit <= 0 means all.
func (h *History) List(limit int) []domain.Result {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := len(h.items)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.Result, 0, n)
	for i := len(h.items) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, h.items[i].Clone())
	}
	return out
}

func (h *History) Get(id domain.ResultID) (domain.Result, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for i := len(h.items) - 1; i >= 0; i-- {
		if h.items[i].ID == id {
			return h.items[i].Clone(), true
		}
	}
	return domain.Result{}, false
}

// Clear drops every entry. Ids keep growing afterwards.
func (h *History) Clear() {
	h.mu.Lock()
	h.items = nil
	h.mu.Unlock()
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.items)
}
