// Package paging holds the cursor state machine that drives browsing a
// remote, sorted, paginated gig collection.
//
// A Cursor never performs I/O. Callers ask it for a Ticket (the exact request
// to send), perform the request, and hand the outcome back with Complete or
// Fail. Only the most recently issued ticket for the current query may change
// the state; anything else is reported as ErrStale and dropped.
//
//	t, ok := c.Next()
//	if !ok {
//		return // disabled: out of range or a request is in flight
//	}
//	resp, err := search(ctx, t)
//	if err != nil {
//		c.Fail(t, err)
//		return
//	}
//	c.Complete(t, paging.Page{Keys: keys, Total: resp.Total})
//
// Navigation is forward/backward only. A jump to page n is a sequence of
// single steps obtained from Toward(n), because the search service cannot
// seek to an arbitrary offset.
package paging

import (
	"errors"
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// ErrStale reports a response that no longer matches the latest request.
var ErrStale = errors.New("stale response")

// Action identifies why a ticket was issued.
type Action int

const (
	ActionLoad Action = iota
	ActionNext
	ActionPrev
	ActionRefresh
)

func (a Action) String() string {
	switch a {
	case ActionLoad:
		return "load"
	case ActionNext:
		return "next"
	case ActionPrev:
		return "prev"
	case ActionRefresh:
		return "refresh"
	default:
		return "action(" + strconv.Itoa(int(a)) + ")"
	}
}

// Ticket describes one request and the position it leads to.
type Ticket struct {
	ID        string
	Seq       uint64
	Action    Action
	Query     string
	Cursor    Key
	Direction Direction
	PageIndex int
	PageSize  int
}

// From renders the ticket's cursor for the wire.
func (t Ticket) From() string {
	if t.Cursor == "" {
		return StartFrom
	}
	return string(t.Cursor)
}

// Size renders the page size for the wire.
func (t Ticket) Size() string {
	return strconv.Itoa(t.PageSize)
}

// Background reports whether the ticket came from Refresh.
func (t Ticket) Background() bool {
	return t.Action == ActionRefresh
}

// Page is what Complete needs from a response: the sort keys of the page in
// ascending order (see Ascending) and the total reported by the service.
type Page struct {
	Keys  []Key
	Total int
}

// Cursor is the pagination state machine of a single listing view. It is
// safe for concurrent use.
type Cursor struct {
	mu      sync.Mutex
	state   State
	status  Status
	err     error
	seq     uint64
	latest  uint64
	pending uint64
}

// New returns an idle cursor with no query.
func New(pageSize int) *Cursor {
	return &Cursor{state: Initial("", pageSize)}
}

// State returns a copy of the current position.
func (c *Cursor) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Status returns the lifecycle state.
func (c *Cursor) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Err returns the error of the last failed request while in Error.
func (c *Cursor) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Reset moves to the initial position for query. Any in-flight ticket
// becomes stale.
func (c *Cursor) Reset(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Initial(query, c.state.PageSize)
	c.status = Idle
	c.err = nil
	c.seq++
	c.latest = c.seq
	c.pending = 0
}

// Restore replaces the position with a previously saved state. The cursor
// is Idle afterwards; the saved page edges stay usable for Next and Prev.
func (c *Cursor) Restore(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.PageSize <= 0 {
		s.PageSize = c.state.PageSize
	}
	if s.PageIndex < 1 {
		s.PageIndex = 1
	}
	if s.Direction != Backward {
		s.Direction = Forward
	}
	c.state = s
	c.status = Idle
	c.err = nil
	c.seq++
	c.latest = c.seq
	c.pending = 0
}

// CanNext reports whether Next would issue a ticket.
func (c *Cursor) CanNext() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canNext()
}

// CanPrev reports whether Prev would issue a ticket.
func (c *Cursor) CanPrev() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canPrev()
}

func (c *Cursor) canNavigate() bool {
	return c.state.Query != "" && c.status != Loading
}

func (c *Cursor) canNext() bool {
	return c.canNavigate() && c.state.LastKey != "" && c.state.PageIndex < c.state.PageCount()
}

func (c *Cursor) canPrev() bool {
	return c.canNavigate() && c.state.FirstKey != "" && c.state.PageIndex > 1
}

// Load requests the current position again, used on first open and to
// retry after a failure.
func (c *Cursor) Load() (Ticket, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.canNavigate() {
		return Ticket{}, false
	}
	return c.issue(ActionLoad, c.state.Cursor, c.state.Direction, c.state.PageIndex), true
}

// Next requests the page after the current one.
func (c *Cursor) Next() (Ticket, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.canNext() {
		return Ticket{}, false
	}
	return c.issue(ActionNext, c.state.LastKey, Forward, c.state.PageIndex+1), true
}

// Prev requests the page before the current one.
func (c *Cursor) Prev() (Ticket, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.canPrev() {
		return Ticket{}, false
	}
	return c.issue(ActionPrev, c.state.FirstKey, Backward, c.state.PageIndex-1), true
}

// Toward returns the single step moving one page closer to page n. It
// reports false when n is the current page or outside 1..PageCount.
func (c *Cursor) Toward(n int) (Ticket, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n < 1 || n > c.state.PageCount() || n == c.state.PageIndex {
		return Ticket{}, false
	}
	if n > c.state.PageIndex {
		if !c.canNext() {
			return Ticket{}, false
		}
		return c.issue(ActionNext, c.state.LastKey, Forward, c.state.PageIndex+1), true
	}
	if !c.canPrev() {
		return Ticket{}, false
	}
	return c.issue(ActionPrev, c.state.FirstKey, Backward, c.state.PageIndex-1), true
}

// Refresh re-requests the displayed page in the background. It does not
// enter Loading and is refused while a navigation is in flight or before
// the first page has loaded.
func (c *Cursor) Refresh() (Ticket, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Query == "" || c.pending != 0 || c.status != Loaded {
		return Ticket{}, false
	}
	c.seq++
	c.latest = c.seq
	return c.ticket(ActionRefresh, c.state.Cursor, c.state.Direction, c.state.PageIndex), true
}

// issue records a navigation ticket and enters Loading. Caller holds mu.
func (c *Cursor) issue(action Action, cursor Key, dir Direction, page int) Ticket {
	c.seq++
	c.latest = c.seq
	c.pending = c.seq
	c.status = Loading
	return c.ticket(action, cursor, dir, page)
}

func (c *Cursor) ticket(action Action, cursor Key, dir Direction, page int) Ticket {
	return Ticket{
		ID:        uuid.NewString(),
		Seq:       c.seq,
		Action:    action,
		Query:     c.state.Query,
		Cursor:    cursor,
		Direction: dir,
		PageIndex: page,
		PageSize:  c.state.PageSize,
	}
}

func (c *Cursor) current(t Ticket) bool {
	return t.Seq == c.latest && t.Query == c.state.Query
}

// Complete applies a successful response. It returns ErrStale, leaving the
// state untouched, when t is not the latest ticket for the current query.
func (c *Cursor) Complete(t Ticket, p Page) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.current(t) {
		return ErrStale
	}

	c.state.PageIndex = t.PageIndex
	c.state.Cursor = t.Cursor
	c.state.Direction = t.Direction
	c.state.TotalCount = p.Total
	if p.Total < 0 {
		c.state.TotalCount = 0
	}
	// An empty page past the first keeps the boundary it was requested
	// from, so navigation can step away from it again.
	c.state.FirstKey, c.state.LastKey = t.Cursor, t.Cursor
	if len(p.Keys) > 0 {
		c.state.FirstKey = p.Keys[0]
		c.state.LastKey = p.Keys[len(p.Keys)-1]
	}

	c.status = Loaded
	c.err = nil
	c.pending = 0
	return nil
}

// Fail records a failed request. The position is left untouched so the
// same action can be retried. Failed background refreshes do not change the
// status.
func (c *Cursor) Fail(t Ticket, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.current(t) {
		return ErrStale
	}
	if t.Background() {
		return nil
	}
	c.status = Error
	c.err = err
	c.pending = 0
	return nil
}
