// Package views derives ephemeral projections over the in-memory guest set
// held by a page. A view is always rebuilt from the authoritative list; it
// never tracks mutations on its own.
package views

import (
	"sort"
	"strings"
	"time"

	"github.com/example/ruangtamu/internal/guest"
)

// Sort keys accepted by the guest collection view.
const (
	SortByName       = "name"
	SortByPhone      = "phone"
	SortByUID        = "uid"
	SortByStatus     = "status"
	SortByCompanions = "companion_count"
	SortByCheckIn    = "check_in_time"
	SortByCreated    = "created_at"
)

// DefaultPageSize matches the operator table default.
const DefaultPageSize = 10

// Collection is a search/sort/paginate projection over a guest list. The
// source slice is authoritative: every Result call re-derives the
// projection from it, so replacing the source after a mutation is the only
// synchronization needed.
type Collection struct {
	source   []guest.Record
	query    string
	sortKey  string
	sortDesc bool
	page     int
	pageSize int
}

// NewCollection builds a view over the authoritative guest list.
func NewCollection(source []guest.Record) *Collection {
	return &Collection{
		source:   source,
		page:     1,
		pageSize: DefaultPageSize,
	}
}

// SetSource replaces the authoritative list, e.g. after a re-fetch
// following a check-in or cancel.
func (c *Collection) SetSource(source []guest.Record) {
	c.source = source
}

// Search sets the filter query. Changing the query resets pagination to the
// first page; an empty query restores the full unfiltered set.
func (c *Collection) Search(query string) {
	query = strings.TrimSpace(query)
	if query != c.query {
		c.page = 1
	}
	c.query = query
}

// SortBy selects the sort field and direction.
func (c *Collection) SortBy(key string, descending bool) {
	c.sortKey = key
	c.sortDesc = descending
}

// Paginate selects the page and page size. Changing the size re-chunks the
// same filtered set; it does not reset the filter.
func (c *Collection) Paginate(page, size int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	c.page = page
	c.pageSize = size
}

// Page is one derived slice of the collection.
type Page struct {
	Items      []guest.Record `json:"items"`
	Total      int            `json:"total"`
	Filtered   int            `json:"filtered"`
	PageNumber int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
}

// Result derives the current page from the source list.
func (c *Collection) Result() Page {
	filtered := c.filter()
	c.sort(filtered)

	totalPages := (len(filtered) + c.pageSize - 1) / c.pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	start := (c.page - 1) * c.pageSize
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + c.pageSize
	if end > len(filtered) {
		end = len(filtered)
	}

	return Page{
		Items:      filtered[start:end],
		Total:      len(c.source),
		Filtered:   len(filtered),
		PageNumber: c.page,
		PageSize:   c.pageSize,
		TotalPages: totalPages,
	}
}

// filter matches the query case-insensitively against name, phone and UID.
// It always works from the full source, never from a previous filter
// result.
func (c *Collection) filter() []guest.Record {
	out := make([]guest.Record, 0, len(c.source))
	if c.query == "" {
		return append(out, c.source...)
	}

	q := strings.ToLower(c.query)
	for _, g := range c.source {
		if strings.Contains(strings.ToLower(g.Name), q) ||
			strings.Contains(strings.ToLower(g.Phone), q) ||
			strings.Contains(strings.ToLower(g.UID), q) {
			out = append(out, g)
		}
	}
	return out
}

// sort orders the slice stably so ties keep their prior relative order.
func (c *Collection) sort(guests []guest.Record) {
	if c.sortKey == "" {
		return
	}

	less := func(a, b guest.Record) bool {
		switch c.sortKey {
		case SortByName:
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		case SortByPhone:
			return a.Phone < b.Phone
		case SortByUID:
			return a.UID < b.UID
		case SortByStatus:
			return statusRank(a.CheckInStatus) < statusRank(b.CheckInStatus)
		case SortByCompanions:
			return a.CompanionCount < b.CompanionCount
		case SortByCheckIn:
			return timeLess(a.CheckInTime, b.CheckInTime)
		case SortByCreated:
			return timeLess(a.CreatedAt, b.CreatedAt)
		default:
			return false
		}
	}

	sort.SliceStable(guests, func(i, j int) bool {
		if c.sortDesc {
			return less(guests[j], guests[i])
		}
		return less(guests[i], guests[j])
	})
}

// statusRank orders statuses by lifecycle progression.
func statusRank(s guest.Status) int {
	switch s {
	case guest.StatusQueue:
		return 1
	case guest.StatusDone:
		return 2
	default:
		return 0
	}
}

// timeLess treats missing timestamps as earliest.
func timeLess(a, b *time.Time) bool {
	switch {
	case a == nil && b == nil:
		return false
	case a == nil:
		return true
	case b == nil:
		return false
	default:
		return a.Before(*b)
	}
}
