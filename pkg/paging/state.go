package paging

import "fmt"

// DefaultPageSize is the number of gigs per page in the marketplace UI.
const DefaultPageSize = 10

// Direction tells which edge of the requested page the cursor refers to.
type Direction string

const (
	Forward  Direction = "forward"
	Backward Direction = "backward"
)

// Key is a sort key. The empty key is the null cursor (start of collection).
type Key string

// StartFrom is the wire form of the null cursor.
const StartFrom = "0"

// Status is the lifecycle state of a Cursor.
type Status int

const (
	Idle Status = iota
	Loading
	Loaded
	Error
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// State is the browsing position of one listing view.
//
// Cursor and Direction are the values that produced the current page;
// FirstKey and LastKey are the edges of that page in ascending order and
// seed the next backward/forward step.
type State struct {
	Query      string    `json:"query"`
	PageIndex  int       `json:"page_index"`
	Cursor     Key       `json:"cursor,omitempty"`
	Direction  Direction `json:"direction"`
	PageSize   int       `json:"page_size"`
	TotalCount int       `json:"total_count"`
	FirstKey   Key       `json:"first_key,omitempty"`
	LastKey    Key       `json:"last_key,omitempty"`
}

// Initial returns the reset position for query.
func Initial(query string, pageSize int) State {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return State{
		Query:     query,
		PageIndex: 1,
		Direction: Forward,
		PageSize:  pageSize,
	}
}

// IsInitial reports whether s is at the reset position.
func (s State) IsInitial() bool {
	return s.PageIndex == 1 && s.Cursor == "" && s.Direction == Forward
}

// PageCount is ceil(TotalCount / PageSize).
func (s State) PageCount() int {
	if s.TotalCount <= 0 || s.PageSize <= 0 {
		return 0
	}
	return (s.TotalCount + s.PageSize - 1) / s.PageSize
}

// From renders the cursor as the search service expects it.
func (s State) From() string {
	if s.Cursor == "" {
		return StartFrom
	}
	return string(s.Cursor)
}

// Pages returns the page button numbers, none for an empty result.
func (s State) Pages() []int {
	n := s.PageCount()
	pages := make([]int, n)
	for i := range pages {
		pages[i] = i + 1
	}
	return pages
}

// Ascending returns items in ascending sort key order. Pages fetched
// backward arrive nearest-first and are reversed; forward pages are returned
// as is.
func Ascending[T any](items []T, dir Direction) []T {
	if dir != Backward {
		return items
	}
	out := make([]T, len(items))
	for i, it := range items {
		out[len(items)-1-i] = it
	}
	return out
}
