package gigapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Direction values accepted by the search endpoint's type segment.
const (
	Forward  = "forward"
	Backward = "backward"
)

// StartCursor is the from value requesting the start of the collection.
const StartCursor = "0"

// Request is one page request. All fields travel as strings, exactly as the
// search service expects them.
type Request struct {
	Query string // canonical query string, see query.SearchQuery.Encode
	From  string // sort key boundary, StartCursor for the first page
	Size  string // page size
	Type  string // Forward or Backward
}

// Response is the search service payload.
type Response struct {
	Message string `json:"message,omitempty"`
	Total   int    `json:"total"`
	Gigs    []Gig  `json:"gigs"`
}

// SortKey is the per-gig ordering value. The service sends it as a JSON
// number; strings are accepted as well.
type SortKey string

func (k *SortKey) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*k = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*k = SortKey(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("sort key: %w", err)
	}
	*k = SortKey(n.String())
	return nil
}

func (k SortKey) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(k), 10, 64); err == nil {
		return []byte(k), nil
	}
	return json.Marshal(string(k))
}

// Gig is one listing as returned by the search service.
type Gig struct {
	ID               string   `json:"id"`
	SellerID         string   `json:"sellerId,omitempty"`
	Username         string   `json:"username,omitempty"`
	ProfilePicture   string   `json:"profilePicture,omitempty"`
	Title            string   `json:"title"`
	BasicTitle       string   `json:"basicTitle,omitempty"`
	BasicDescription string   `json:"basicDescription,omitempty"`
	Categories       string   `json:"categories,omitempty"`
	Tags             []string `json:"tags,omitempty"`
	Active           bool     `json:"active"`
	ExpectedDelivery string   `json:"expectedDelivery,omitempty"`
	Price            float64  `json:"price"`
	CoverImage       string   `json:"coverImage,omitempty"`
	RatingsCount     int      `json:"ratingsCount"`
	RatingSum        int      `json:"ratingSum"`
	SortID           SortKey  `json:"sortId"`
}

// Rating returns the average star rating, 0 when unrated.
func (g Gig) Rating() float64 {
	if g.RatingsCount == 0 {
		return 0
	}
	return float64(g.RatingSum) / float64(g.RatingsCount)
}

// ErrorResponse is the body the gateway sends with non-2xx statuses.
type ErrorResponse struct {
	Message string `json:"message"`
}
