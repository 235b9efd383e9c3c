package devserver

import (
	"cmp"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/gigglobal/gigs/pkg/category"
	"github.com/gigglobal/gigs/pkg/gigapi"
	"github.com/gigglobal/gigs/pkg/query"
	"github.com/gigglobal/gigs/pkg/realtime"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
)

// firstSortID is assigned to the first gig without a sort key.
const firstSortID = 100

// Catalog is the in-memory gig collection served by the dev search service.
// Gigs are kept ordered by their numeric sort key.
type Catalog struct {
	mu   sync.RWMutex
	gigs []gigapi.Gig
	next int64
}

// NewCatalog returns a catalog holding gigs. Missing ids and sort keys are
// assigned.
func NewCatalog(gigs []gigapi.Gig) (*Catalog, error) {
	c := &Catalog{}
	if err := c.set(gigs); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadCatalog reads a JSON array of gigs from path.
func LoadCatalog(path string) (*Catalog, error) {
	gigs, err := readGigs(path)
	if err != nil {
		return nil, err
	}
	return NewCatalog(gigs)
}

func readGigs(path string) ([]gigapi.Gig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	var gigs []gigapi.Gig
	if err := json.Unmarshal(data, &gigs); err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	return gigs, nil
}

var (
	adjectives = []string{"professional", "modern", "minimalist", "creative", "custom", "fast", "unique", "premium"}
	services   = map[string][]string{
		"Graphics & Design":     {"logo design", "business cards", "brand style guide", "illustration"},
		"Digital Marketing":     {"seo audit", "social media plan", "email campaign", "ad copy"},
		"Writing & Translation": {"blog post", "translation", "proofreading", "product description"},
		"Video & Animation":     {"explainer video", "logo animation", "video editing", "subtitles"},
		"Music & Audio":         {"voice over", "mixing and mastering", "jingle", "podcast editing"},
		"Programming & Tech":    {"wordpress site", "bug fix", "api integration", "landing page"},
		"Photography":           {"product photos", "photo retouching", "background removal", "headshots"},
		"Data":                  {"data entry", "dashboard", "web scraping", "data cleaning"},
		"Business":              {"business plan", "market research", "pitch deck", "virtual assistant"},
	}
	sellers = []string{"ana", "bilal", "chen", "dara", "elif", "femi", "goran", "hana"}
)

// Generate returns n pseudo random gigs spread across the default
// categories. The same seed yields the same catalog.
func Generate(n int, seed uint64) []gigapi.Gig {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	names := category.Default().All()

	gigs := make([]gigapi.Gig, n)
	for i := range gigs {
		cat := names[r.IntN(len(names))]
		svc := services[cat][r.IntN(len(services[cat]))]
		adj := adjectives[r.IntN(len(adjectives))]
		seller := sellers[r.IntN(len(sellers))]
		ratings := r.IntN(50)

		gigs[i] = gigapi.Gig{
			ID:               uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%d/%d", seed, i))).String(),
			SellerID:         "seller-" + seller,
			Username:         seller,
			Title:            fmt.Sprintf("I will create a %s %s", adj, svc),
			BasicTitle:       svc,
			BasicDescription: fmt.Sprintf("A %s %s delivered by %s.", adj, svc, seller),
			Categories:       cat,
			Tags:             strings.Fields(svc),
			Active:           true,
			ExpectedDelivery: strconv.Itoa(1 + r.IntN(14)),
			Price:            float64(5 * (1 + r.IntN(40))),
			RatingsCount:     ratings,
			RatingSum:        ratings * (3 + r.IntN(3)),
			SortID:           gigapi.SortKey(strconv.Itoa(firstSortID + i)),
		}
	}
	return gigs
}

// set replaces the contents. Caller holds mu or owns c exclusively.
func (c *Catalog) set(gigs []gigapi.Gig) error {
	out := make([]gigapi.Gig, len(gigs))
	copy(out, gigs)

	next := int64(firstSortID)
	for _, g := range out {
		if g.SortID == "" {
			continue
		}
		k, err := strconv.ParseInt(string(g.SortID), 10, 64)
		if err != nil {
			return fmt.Errorf("gig %s: non numeric sort key %q", g.ID, g.SortID)
		}
		next = max(next, k+1)
	}
	for i := range out {
		if out[i].ID == "" {
			out[i].ID = uuid.NewString()
		}
		if out[i].SortID == "" {
			out[i].SortID = gigapi.SortKey(strconv.FormatInt(next, 10))
			next++
		}
	}
	slices.SortStableFunc(out, func(a, b gigapi.Gig) int {
		return cmp.Compare(sortKey(a), sortKey(b))
	})

	c.gigs = out
	c.next = next
	return nil
}

func sortKey(g gigapi.Gig) int64 {
	k, _ := strconv.ParseInt(string(g.SortID), 10, 64)
	return k
}

// Len returns the number of gigs.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.gigs)
}

// Add appends g with the next sort key and returns the stored gig.
func (c *Catalog) Add(g gigapi.Gig) gigapi.Gig {
	c.mu.Lock()
	defer c.mu.Unlock()
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	g.SortID = gigapi.SortKey(strconv.FormatInt(c.next, 10))
	c.next++
	c.gigs = append(c.gigs, g)
	return g
}

// Remove deletes the gig with id and reports whether it existed.
func (c *Catalog) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := slices.IndexFunc(c.gigs, func(g gigapi.Gig) bool { return g.ID == id })
	if i < 0 {
		return false
	}
	c.gigs = slices.Delete(c.gigs, i, i+1)
	return true
}

// Replace swaps in a new collection and returns one event per gig that was
// created, updated or deleted.
func (c *Catalog) Replace(gigs []gigapi.Gig) ([]realtime.Event, error) {
	fresh := &Catalog{}
	if err := fresh.set(gigs); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	old := make(map[string]gigapi.Gig, len(c.gigs))
	for _, g := range c.gigs {
		old[g.ID] = g
	}
	var events []realtime.Event
	for _, g := range fresh.gigs {
		prev, ok := old[g.ID]
		switch {
		case !ok:
			events = append(events, realtime.NewEvent(realtime.GigCreated, g.ID, g.Title))
		case !sameGig(prev, g):
			events = append(events, realtime.NewEvent(realtime.GigUpdated, g.ID, g.Title))
		}
		delete(old, g.ID)
	}
	for id, g := range old {
		events = append(events, realtime.NewEvent(realtime.GigDeleted, id, g.Title))
	}

	c.gigs = fresh.gigs
	c.next = max(c.next, fresh.next)
	return events, nil
}

func sameGig(a, b gigapi.Gig) bool {
	aj, _ := json.Marshal(a)
	bj, _ := json.Marshal(b)
	return string(aj) == string(bj)
}

// Search returns one page of active gigs matching q plus the number of
// matches. Forward pages hold the gigs after from in ascending order;
// backward pages hold the gigs before from, nearest first. from is "0" for
// the start of the collection.
func (c *Catalog) Search(q query.SearchQuery, from int64, size int, dir string) ([]gigapi.Gig, int) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var matches []gigapi.Gig
	for _, g := range c.gigs {
		if matchGig(q, g) {
			matches = append(matches, g)
		}
	}

	page := make([]gigapi.Gig, 0, size)
	if dir == gigapi.Backward {
		for i := len(matches) - 1; i >= 0 && len(page) < size; i-- {
			if from == 0 || sortKey(matches[i]) < from {
				page = append(page, matches[i])
			}
		}
	} else {
		for _, g := range matches {
			if len(page) == size {
				break
			}
			if from == 0 || sortKey(g) > from {
				page = append(page, g)
			}
		}
	}
	return page, len(matches)
}

func matchGig(q query.SearchQuery, g gigapi.Gig) bool {
	if !g.Active || q.Empty() {
		return false
	}

	fold := cases.Fold()
	haystack := fold.String(strings.Join([]string{
		g.Title, g.BasicTitle, g.BasicDescription, g.Categories, strings.Join(g.Tags, " "),
	}, " "))
	for _, term := range strings.Fields(fold.String(q.Terms)) {
		if !strings.Contains(haystack, term) {
			return false
		}
	}

	f := q.Filters
	if f.MinPrice != nil && g.Price < float64(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && g.Price > float64(*f.MaxPrice) {
		return false
	}
	if f.Delivery != nil && !f.Delivery.Any {
		days, err := strconv.Atoi(g.ExpectedDelivery)
		if err != nil || days > f.Delivery.Days {
			return false
		}
	}
	return true
}
