// Package browse ties a query, a pagination cursor and the remote search
// service together into a listing view.
package browse

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gigglobal/gigs/pkg/flags"
	"github.com/gigglobal/gigs/pkg/gigapi"
	"github.com/gigglobal/gigs/pkg/log"
	"github.com/gigglobal/gigs/pkg/paging"
	"github.com/gigglobal/gigs/pkg/query"
	"github.com/gigglobal/gigs/pkg/realtime"
	"github.com/google/uuid"
)

// ErrNoResults is returned by Open for a query without terms. It matches
// query.ErrEmptyQuery with errors.Is.
var ErrNoResults = fmt.Errorf("no results: %w", query.ErrEmptyQuery)

// NoResultsMessage is shown for empty queries and empty result sets.
const NoResultsMessage = "no results"

// Searcher performs one page request. *gigapi.Client implements it.
type Searcher interface {
	Search(ctx context.Context, r gigapi.Request) (*gigapi.Response, error)
}

// FetchError wraps a failed page request.
type FetchError struct {
	Action string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Action, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Snapshot is a consistent copy of what the view shows.
type Snapshot struct {
	ID          string
	Query       query.SearchQuery
	State       paging.State
	Status      paging.Status
	Items       []gigapi.Gig
	Message     string
	Placeholder bool
	CanNext     bool
	CanPrev     bool
}

// View is one listing. Each view owns its cursor; views never share
// pagination state.
type View struct {
	id       string
	searcher Searcher
	cursor   *paging.Cursor
	flags    flags.Store
	observer func(Snapshot)
	log      *log.Logger

	mu    sync.Mutex
	query query.SearchQuery
	items []gigapi.Gig
}

// Option customizes a View.
type Option func(*View)

// WithPageSize sets the number of gigs per page.
func WithPageSize(n int) Option {
	return func(v *View) {
		v.cursor = paging.New(n)
	}
}

// WithFlags sets the flag store consulted for the filter placeholder.
func WithFlags(s flags.Store) Option {
	return func(v *View) {
		if s != nil {
			v.flags = s
		}
	}
}

// WithObserver registers fn to be called with a fresh snapshot every time a
// page is applied.
func WithObserver(fn func(Snapshot)) Option {
	return func(v *View) {
		v.observer = fn
	}
}

// NewView returns an idle view. An empty id gets a random one.
func NewView(id string, s Searcher, opts ...Option) *View {
	if id == "" {
		id = uuid.NewString()
	}
	v := &View{
		id:       id,
		searcher: s,
		cursor:   paging.New(paging.DefaultPageSize),
		flags:    flags.NewMemory(),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.log = log.ForService("browse").Named(id)
	return v
}

// ID returns the view identity.
func (v *View) ID() string {
	return v.id
}

// Query returns the query currently shown.
func (v *View) Query() query.SearchQuery {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.query
}

// State returns the pagination position, suitable for persisting.
func (v *View) State() paging.State {
	return v.cursor.State()
}

// Restore resumes a persisted position without fetching.
func (v *View) Restore(s paging.State) error {
	q, err := query.Parse(s.Query)
	if err != nil {
		return fmt.Errorf("parsing saved query: %w", err)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	s.Query = q.Encode()
	v.cursor.Restore(s)
	v.query = q
	v.items = nil
	return nil
}

// Open shows q. A different query resets the position to the first page;
// the same query reloads the current page. It reports false when the view
// is busy with another request.
func (v *View) Open(ctx context.Context, q query.SearchQuery) (bool, error) {
	if q.Empty() {
		v.mu.Lock()
		v.query = query.SearchQuery{}
		v.items = nil
		v.cursor.Reset("")
		v.mu.Unlock()
		return false, ErrNoResults
	}

	enc := q.Encode()
	v.mu.Lock()
	if enc != v.cursor.State().Query {
		v.log.Debugf("query changed to %q", enc)
		v.cursor.Reset(enc)
		v.query = q
		v.items = nil
	}
	v.mu.Unlock()

	t, ok := v.cursor.Load()
	if !ok {
		return false, nil
	}
	return v.fetch(ctx, t)
}

// Filter changes one filter of the current query and reopens it. Until the
// new first page arrives the view reports a placeholder instead of the
// previous results. An empty value clears the filter.
func (v *View) Filter(ctx context.Context, key, value string) (bool, error) {
	q := v.Query()
	if q.Empty() {
		return false, ErrNoResults
	}
	q.Filters.Set(key, value)
	if err := v.flags.Set(flags.FilterApplied); err != nil {
		v.log.Warnf("setting %s: %v", flags.FilterApplied, err)
	}
	return v.Open(ctx, q)
}

// Next moves to the following page. It reports false, without error, when
// there is no next page or a request is in flight.
func (v *View) Next(ctx context.Context) (bool, error) {
	t, ok := v.cursor.Next()
	if !ok {
		return false, nil
	}
	return v.fetch(ctx, t)
}

// Prev moves to the preceding page, see Next.
func (v *View) Prev(ctx context.Context) (bool, error) {
	t, ok := v.cursor.Prev()
	if !ok {
		return false, nil
	}
	return v.fetch(ctx, t)
}

// GoTo moves to page n one step at a time, since the search service only
// pages relative to a sort key. It stops at the first failure, leaving the
// view on the last page reached.
func (v *View) GoTo(ctx context.Context, n int) (bool, error) {
	moved := false
	for {
		t, ok := v.cursor.Toward(n)
		if !ok {
			return moved, nil
		}
		applied, err := v.fetch(ctx, t)
		if err != nil {
			return moved, err
		}
		if !applied {
			return moved, nil
		}
		moved = true
	}
}

// Refresh re-fetches the displayed page in the background. Failures are
// returned but leave the view as it was.
func (v *View) Refresh(ctx context.Context) (bool, error) {
	t, ok := v.cursor.Refresh()
	if !ok {
		return false, nil
	}
	return v.fetch(ctx, t)
}

// Follow refreshes the view for every gig event published on hub until ctx
// ends.
func (v *View) Follow(ctx context.Context, hub *realtime.Hub) error {
	id, events := hub.Register()
	defer hub.Unregister(id)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-events:
			if !ok {
				return nil
			}
			if !e.IsGig() {
				continue
			}
			v.log.Debugf("%s %s, refreshing", e.Type, e.GigID)
			if _, err := v.Refresh(ctx); err != nil {
				v.log.Warnf("refresh after %s: %v", e.Type, err)
			}
		}
	}
}

// fetch performs t and applies the outcome. It reports whether the outcome
// changed the view; stale outcomes are dropped.
func (v *View) fetch(ctx context.Context, t paging.Ticket) (bool, error) {
	req := gigapi.Request{
		Query: t.Query,
		From:  t.From(),
		Size:  t.Size(),
		Type:  string(t.Direction),
	}
	v.log.Debugf("%s %s page %d (request %s)", t.Action, t.Direction, t.PageIndex, t.ID)

	resp, err := v.searcher.Search(ctx, req)
	if err != nil {
		ferr := &FetchError{Action: t.Action.String(), Err: err}
		if errors.Is(v.cursor.Fail(t, ferr), paging.ErrStale) {
			v.log.Debugf("dropping stale failure of request %s: %v", t.ID, err)
			return false, nil
		}
		return false, ferr
	}

	gigs := paging.Ascending(resp.Gigs, t.Direction)
	keys := make([]paging.Key, len(gigs))
	for i, g := range gigs {
		keys[i] = paging.Key(g.SortID)
	}

	v.mu.Lock()
	if err := v.cursor.Complete(t, paging.Page{Keys: keys, Total: resp.Total}); err != nil {
		v.mu.Unlock()
		v.log.Debugf("dropping stale response of request %s", t.ID)
		return false, nil
	}
	v.items = gigs
	v.mu.Unlock()

	if err := v.flags.Clear(flags.FilterApplied); err != nil {
		v.log.Warnf("clearing %s: %v", flags.FilterApplied, err)
	}
	if v.observer != nil {
		v.observer(v.Snapshot())
	}
	return true, nil
}

// Snapshot returns what the view currently shows.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	s := Snapshot{
		ID:     v.id,
		Query:  v.query,
		State:  v.cursor.State(),
		Status: v.cursor.Status(),
		Items:  append([]gigapi.Gig(nil), v.items...),
	}
	v.mu.Unlock()

	s.CanNext = v.cursor.CanNext()
	s.CanPrev = v.cursor.CanPrev()

	placeholder, err := v.flags.IsSet(flags.FilterApplied)
	if err != nil {
		v.log.Warnf("reading %s: %v", flags.FilterApplied, err)
	}
	if placeholder {
		s.Placeholder = true
		s.Items = nil
	}

	switch {
	case s.Status == paging.Error:
		if err := v.cursor.Err(); err != nil {
			s.Message = err.Error()
		}
	case s.Query.Empty():
		s.Message = NoResultsMessage
	case s.Status == paging.Loaded && s.State.TotalCount == 0:
		s.Message = NoResultsMessage
	}
	return s
}
