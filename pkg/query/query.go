// Package query composes the canonical search query sent to the GigGlobal
// search service from route parameters and user chosen filters.
//
// Route segments carry phrases in slug form: spaces become dashes and the
// ampersand is percent-encoded ("Graphics & Design" -> "graphics-%26-design").
// Deslugify reverses that, so for every phrase made of letters, digits,
// spaces and ampersands Deslugify(Slugify(p)) equals the lowercased phrase.
package query

import (
	"errors"
	"net/url"
	"strings"

	"github.com/gigglobal/gigs/pkg/category"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// RouteKind tells Compose how to read the route value.
type RouteKind string

const (
	RouteSearch   RouteKind = "search"
	RouteCategory RouteKind = "category"
)

// KeyQuery is the parameter carrying the search terms.
const KeyQuery = "query"

// ErrEmptyQuery is returned where an empty query cannot be used. Views render
// it as "no results" rather than as a failure.
var ErrEmptyQuery = errors.New("empty search query")

// SearchQuery is the derived query for one listing. It is never persisted on
// its own; Encode gives the canonical form used for comparisons.
type SearchQuery struct {
	Terms   string
	Filters Filters
}

// Empty reports whether the query has no terms.
func (q SearchQuery) Empty() bool {
	return q.Terms == ""
}

// Values returns the query as URL parameters. Unset filters are absent.
func (q SearchQuery) Values() url.Values {
	if q.Empty() {
		return url.Values{}
	}
	v := q.Filters.Values()
	v.Set(KeyQuery, q.Terms)
	return v
}

// Encode renders the canonical query string (keys sorted).
func (q SearchQuery) Encode() string {
	return q.Values().Encode()
}

// Equal reports whether both queries encode identically.
func (q SearchQuery) Equal(other SearchQuery) bool {
	return q.Encode() == other.Encode()
}

func (q SearchQuery) String() string {
	return q.Encode()
}

// Parse is the inverse of Encode.
func Parse(encoded string) (SearchQuery, error) {
	v, err := url.ParseQuery(strings.TrimPrefix(encoded, "?"))
	if err != nil {
		return SearchQuery{}, err
	}
	q := SearchQuery{Terms: normalize(v.Get(KeyQuery))}
	for _, key := range FilterKeys {
		if vals, ok := v[key]; ok && len(vals) > 0 {
			q.Filters.Set(key, vals[len(vals)-1])
		}
	}
	return q.sanitized(), nil
}

// Composer builds queries against a category registry.
type Composer struct {
	Categories *category.Registry
}

// Compose uses the default category registry.
func Compose(kind RouteKind, routeValue string, raw url.Values) SearchQuery {
	return Composer{Categories: category.Default()}.Compose(kind, routeValue, raw)
}

// Compose derives a SearchQuery.
//
// For RouteCategory the route value is a category slug; it must resolve in
// the registry, otherwise the result has empty terms. For RouteSearch the
// route value is the caller's query string ("query=logo-design&minPrice=5");
// its filters are applied first and raw is merged on top, last write wins.
// A query without terms never carries filters.
func (c Composer) Compose(kind RouteKind, routeValue string, raw url.Values) SearchQuery {
	var q SearchQuery

	switch kind {
	case RouteCategory:
		phrase := Deslugify(routeValue)
		if phrase == "" {
			return SearchQuery{}
		}
		reg := c.Categories
		if reg == nil {
			reg = category.Default()
		}
		if _, ok := reg.Lookup(phrase); !ok {
			return SearchQuery{}
		}
		q.Terms = phrase
	case RouteSearch:
		route, err := url.ParseQuery(strings.TrimPrefix(routeValue, "?"))
		if err != nil {
			return SearchQuery{}
		}
		q.Terms = Deslugify(route.Get(KeyQuery))
		q.Filters.Merge(route)
	default:
		return SearchQuery{}
	}

	q.Filters.Merge(raw)
	return q.sanitized()
}

func (q SearchQuery) sanitized() SearchQuery {
	if q.Terms == "" {
		return SearchQuery{}
	}
	return q
}

// Slugify renders a phrase for use in a route segment.
func Slugify(phrase string) string {
	phrase = normalize(phrase)
	phrase = strings.ReplaceAll(phrase, "&", "%26")
	return strings.ReplaceAll(phrase, " ", "-")
}

// Deslugify turns a route segment back into a lowercase, single spaced
// phrase: dashes and %20 become spaces and %26 becomes an ampersand.
func Deslugify(slug string) string {
	s := strings.ReplaceAll(slug, "-", " ")
	if unescaped, err := url.PathUnescape(s); err == nil {
		s = unescaped
	}
	return normalize(s)
}

func normalize(s string) string {
	return cases.Lower(language.Und).String(strings.Join(strings.Fields(s), " "))
}
