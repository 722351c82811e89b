// Package queueview turns a queue into a single bounded page for display.
package queueview

// DefaultPageSize is the number of entries shown per page.
const DefaultPageSize = 10

// Entry is one item on a page with its absolute 1-based queue position.
type Entry[T any] struct {
	Position int
	Item     T
}

// Page is the result of Render.
type Page[T any] struct {
	Entries     []Entry[T]
	CurrentPage int
	TotalPages  int
	Total       int
	HasPrev     bool
	HasNext     bool
}

// TotalPages returns max(1, ceil(total/pageSize)).
func TotalPages(total, pageSize int) int {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

// Clamp forces page into [1, totalPages].
func Clamp(page, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// Render slices items into the requested page. It never fails: out of range
// pages are clamped and an empty queue yields page 1 of 1 with no entries.
// The input slice is not modified.
func Render[T any](items []T, requestedPage, pageSize int) Page[T] {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	total := len(items)
	totalPages := TotalPages(total, pageSize)
	current := Clamp(requestedPage, totalPages)

	start := (current - 1) * pageSize
	end := min(start+pageSize, total)

	entries := make([]Entry[T], 0, end-start)
	for i := start; i < end; i++ {
		entries = append(entries, Entry[T]{Position: i + 1, Item: items[i]})
	}

	return Page[T]{
		Entries:     entries,
		CurrentPage: current,
		TotalPages:  totalPages,
		Total:       total,
		HasPrev:     current > 1,
		HasNext:     current < totalPages,
	}
}
