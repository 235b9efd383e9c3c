package devserver

import (
	"reflect"
	"testing"

	"github.com/gigglobal/gigs/pkg/gigapi"
	"github.com/gigglobal/gigs/pkg/query"
	"github.com/gigglobal/gigs/pkg/realtime"
)

func ids(gigs []gigapi.Gig) []string {
	out := make([]string, len(gigs))
	for i, g := range gigs {
		out[i] = string(g.SortID)
	}
	return out
}

func TestGenerateIsDeterministic(t *testing.T) {
	a, b := Generate(20, 7), Generate(20, 7)
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed produced different catalogs")
	}
	if reflect.DeepEqual(a, Generate(20, 8)) {
		t.Error("different seeds produced the same catalog")
	}
	for _, g := range a {
		if g.ID == "" || g.SortID == "" || !g.Active || g.Categories == "" {
			t.Fatalf("incomplete generated gig: %+v", g)
		}
	}
}

func TestNewCatalogAssignsKeysAndSorts(t *testing.T) {
	c, err := NewCatalog([]gigapi.Gig{
		{Title: "b", SortID: "205", Active: true},
		{Title: "a", Active: true},
		{Title: "c", SortID: "120", Active: true},
	})
	if err != nil {
		t.Fatal(err)
	}
	c.mu.RLock()
	got := ids(c.gigs)
	noID := c.gigs[0].ID == "" || c.gigs[2].ID == ""
	c.mu.RUnlock()

	if !reflect.DeepEqual(got, []string{"120", "205", "206"}) {
		t.Errorf("unexpected sort keys: %v", got)
	}
	if noID {
		t.Error("missing ids were not assigned")
	}

	if _, err := NewCatalog([]gigapi.Gig{{SortID: "abc"}}); err == nil {
		t.Error("expected error for non numeric sort key")
	}
}

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	price := func(p float64, days string, sort string, title, cat string) gigapi.Gig {
		return gigapi.Gig{ID: "id-" + sort, Title: title, Categories: cat, Price: p, ExpectedDelivery: days, SortID: gigapi.SortKey(sort), Active: true}
	}
	c, err := NewCatalog([]gigapi.Gig{
		price(10, "1", "101", "I will design a logo", "Graphics & Design"),
		price(50, "3", "102", "I will design a modern logo", "Graphics & Design"),
		price(120, "7", "103", "I will design a mascot logo", "Graphics & Design"),
		price(30, "2", "104", "I will write a blog post", "Writing & Translation"),
		{ID: "inactive", Title: "I will design a logo", SortID: "105", Price: 10},
	})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestCatalogSearchFilters(t *testing.T) {
	c := testCatalog(t)
	min20, max100 := 20, 100

	tests := []struct {
		name string
		q    query.SearchQuery
		want []string
	}{
		{"terms", query.SearchQuery{Terms: "logo"}, []string{"101", "102", "103"}},
		{"all terms must match", query.SearchQuery{Terms: "modern logo"}, []string{"102"}},
		{"case insensitive", query.SearchQuery{Terms: "LOGO design"}, []string{"101", "102", "103"}},
		{"category", query.SearchQuery{Terms: "writing & translation"}, []string{"104"}},
		{"price range", query.SearchQuery{Terms: "logo", Filters: query.Filters{MinPrice: &min20, MaxPrice: &max100}}, []string{"102"}},
		{"delivery", query.SearchQuery{Terms: "logo", Filters: query.Filters{Delivery: &query.Delivery{Days: 3}}}, []string{"101", "102"}},
		{"delivery any", query.SearchQuery{Terms: "logo", Filters: query.Filters{Delivery: &query.Delivery{Any: true}}}, []string{"101", "102", "103"}},
		{"empty query", query.SearchQuery{}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total := c.Search(tt.q, 0, 10, gigapi.Forward)
			if !reflect.DeepEqual(ids(got), tt.want) {
				t.Errorf("expected %v, got %v", tt.want, ids(got))
			}
			if total != len(tt.want) {
				t.Errorf("total: expected %d, got %d", len(tt.want), total)
			}
		})
	}
}

func TestCatalogSearchPaging(t *testing.T) {
	c, err := NewCatalog(Generate(47, 1))
	if err != nil {
		t.Fatal(err)
	}
	q := query.SearchQuery{Terms: "i will"}

	page, total := c.Search(q, 0, 10, gigapi.Forward)
	if total != 47 || ids(page)[0] != "100" || ids(page)[9] != "109" {
		t.Fatalf("first page: total=%d ids=%v", total, ids(page))
	}

	page, _ = c.Search(q, 109, 10, gigapi.Forward)
	if ids(page)[0] != "110" || len(page) != 10 {
		t.Errorf("second page: %v", ids(page))
	}

	page, _ = c.Search(q, 110, 10, gigapi.Backward)
	if ids(page)[0] != "109" || ids(page)[9] != "100" {
		t.Errorf("backward page should be nearest first: %v", ids(page))
	}

	page, _ = c.Search(q, 139, 10, gigapi.Forward)
	if len(page) != 7 {
		t.Errorf("last page: expected 7 gigs, got %d", len(page))
	}
}

func TestCatalogReplaceReportsChanges(t *testing.T) {
	c := testCatalog(t)

	c.mu.RLock()
	current := make(map[string]gigapi.Gig)
	for _, g := range c.gigs {
		current[g.ID] = g
	}
	c.mu.RUnlock()

	changed := current["id-101"]
	changed.Title = "I will design a better logo"
	next := []gigapi.Gig{
		changed,
		current["id-103"],
		current["id-104"],
		current["inactive"],
		{ID: "fresh", Title: "new gig", Active: true},
	}

	events, err := c.Replace(next)
	if err != nil {
		t.Fatal(err)
	}

	byType := map[string][]string{}
	for _, e := range events {
		byType[e.Type] = append(byType[e.Type], e.GigID)
	}
	if !reflect.DeepEqual(byType[realtime.GigCreated], []string{"fresh"}) {
		t.Errorf("created: %v", byType[realtime.GigCreated])
	}
	if !reflect.DeepEqual(byType[realtime.GigUpdated], []string{"id-101"}) {
		t.Errorf("updated: %v", byType[realtime.GigUpdated])
	}
	if !reflect.DeepEqual(byType[realtime.GigDeleted], []string{"id-102"}) {
		t.Errorf("deleted: %v", byType[realtime.GigDeleted])
	}
	if c.Len() != 5 {
		t.Errorf("expected 5 gigs, got %d", c.Len())
	}
}

func TestCatalogAddRemove(t *testing.T) {
	c := testCatalog(t)
	g := c.Add(gigapi.Gig{Title: "new", Active: true})
	if g.ID == "" || g.SortID != "106" {
		t.Errorf("unexpected added gig: %+v", g)
	}
	if !c.Remove(g.ID) || c.Remove(g.ID) {
		t.Error("Remove should succeed once")
	}
}
