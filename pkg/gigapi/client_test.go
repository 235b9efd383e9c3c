package gigapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gigglobal/gigs/pkg/version"
	"github.com/klauspost/compress/gzhttp"
)

func TestSearchRequestShape(t *testing.T) {
	var gotPath, gotQuery, gotAuth, gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"message":"Search gigs results","total":47,"gigs":[{"id":"a","title":"Logo","price":15,"sortId":109,"ratingsCount":2,"ratingSum":9}]}`)
	}))
	defer srv.Close()

	c := New(srv.URL+"/", WithToken("secret"))
	resp, err := c.Search(context.Background(), Request{
		Query: "query=graphic+design",
		From:  "109",
		Size:  "10",
		Type:  Forward,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if gotPath != "/api/v1/gig/search/109/10/forward" {
		t.Errorf("path: got %q", gotPath)
	}
	if gotQuery != "query=graphic+design" {
		t.Errorf("query: got %q", gotQuery)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("authorization: got %q", gotAuth)
	}
	if gotAgent != version.UserAgent() {
		t.Errorf("user agent: got %q", gotAgent)
	}
	if resp.Total != 47 || len(resp.Gigs) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	g := resp.Gigs[0]
	if g.SortID != "109" {
		t.Errorf("SortID: got %q", g.SortID)
	}
	if g.Rating() != 4.5 {
		t.Errorf("Rating: got %v", g.Rating())
	}
}

func TestSearchAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, `{"message":"elasticsearch unavailable"}`)
	}))
	defer srv.Close()

	c := New(srv.URL, WithHTTPClient(srv.Client()))
	_, err := c.Search(context.Background(), Request{Query: "query=x", From: StartCursor, Size: "10", Type: Forward})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Status != http.StatusBadGateway || apiErr.Message != "elasticsearch unavailable" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
}

func TestSearchDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"total": "many"`)
	}))
	defer srv.Close()

	c := New(srv.URL, WithHTTPClient(srv.Client()))
	_, err := c.Search(context.Background(), Request{Query: "query=x", From: StartCursor, Size: "10", Type: Forward})
	if err == nil || !strings.Contains(err.Error(), "decoding search response") {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestSearchValidatesBeforeSending(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := New(srv.URL, WithHTTPClient(srv.Client()))
	bad := []Request{
		{Query: "", From: "0", Size: "10", Type: Forward},
		{Query: "query=x", From: "", Size: "10", Type: Forward},
		{Query: "query=x", From: "0", Size: "0", Type: Forward},
		{Query: "query=x", From: "0", Size: "10", Type: "sideways"},
	}
	for _, r := range bad {
		if _, err := c.Search(context.Background(), r); !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("request %+v: expected ErrInvalidRequest, got %v", r, err)
		}
	}
	if called {
		t.Error("invalid request reached the server")
	}
}

func TestSearchGzipResponse(t *testing.T) {
	gigs := make([]Gig, 40)
	for i := range gigs {
		gigs[i] = Gig{ID: fmt.Sprintf("gig-%d", i), Title: strings.Repeat("padding ", 10), SortID: SortKey(fmt.Sprint(i + 1))}
	}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Response{Total: len(gigs), Gigs: gigs})
	})
	srv := httptest.NewServer(gzhttp.GzipHandler(handler))
	defer srv.Close()

	c := New(srv.URL)
	resp, err := c.Search(context.Background(), Request{Query: "query=x", From: StartCursor, Size: "40", Type: Forward})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Gigs) != 40 || resp.Gigs[39].SortID != "40" {
		t.Errorf("unexpected gigs: %d", len(resp.Gigs))
	}
}

func TestSearchNullGigsBecomesEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"total":0,"gigs":null}`)
	}))
	defer srv.Close()

	c := New(srv.URL, WithHTTPClient(srv.Client()), WithRateLimit(100, 1))
	resp, err := c.Search(context.Background(), Request{Query: "query=x", From: StartCursor, Size: "10", Type: Backward})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.Gigs == nil || len(resp.Gigs) != 0 {
		t.Errorf("expected empty non-nil gigs, got %#v", resp.Gigs)
	}
}

func TestSortKeyJSON(t *testing.T) {
	tests := []struct {
		in   string
		want SortKey
	}{
		{`109`, "109"},
		{`"k5"`, "k5"},
		{`null`, ""},
		{`1.5e3`, "1.5e3"},
	}
	for _, tt := range tests {
		var k SortKey
		if err := json.Unmarshal([]byte(tt.in), &k); err != nil {
			t.Fatalf("Unmarshal(%s): %v", tt.in, err)
		}
		if k != tt.want {
			t.Errorf("Unmarshal(%s) = %q, want %q", tt.in, k, tt.want)
		}
	}

	out, err := json.Marshal(struct {
		A SortKey `json:"a"`
		B SortKey `json:"b"`
	}{"42", "k5"})
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"a":42,"b":"k5"}` {
		t.Errorf("Marshal: got %s", out)
	}

	var bad SortKey
	if err := json.Unmarshal([]byte(`true`), &bad); err == nil {
		t.Error("expected error for boolean sort key")
	}
}
