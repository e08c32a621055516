package discogs

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Release is one search result, not yet confirmed as the correct pressing.
// Title is free text, usually "Artist - Album". CatNo may be empty or the
// literal placeholder "NONE" that Discogs uses for promo pressings.
type Release struct {
	Title      string `json:"title"`
	CatNo      string `json:"catno"`
	Year       Year   `json:"year"`
	CoverImage string `json:"cover_image"`
	Thumb      string `json:"thumb"`
}

// Year tolerates the search API returning release years as either a JSON
// number or a digit string. The zero value means unknown.
type Year string

// UnmarshalJSON accepts both encodings.
func (y *Year) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch value := raw.(type) {
	case nil:
		*y = ""
	case string:
		*y = Year(strings.TrimSpace(value))
	case float64:
		*y = Year(fmt.Sprintf("%.0f", value))
	default:
		return fmt.Errorf("year: unsupported JSON type %T", raw)
	}
	return nil
}

// Int returns the year as an integer and whether it is a valid 4-digit year.
func (y Year) Int() (int, bool) {
	s := string(y)
	if len(s) != 4 {
		return 0, false
	}
	value := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		value = value*10 + int(r-'0')
	}
	return value, true
}

// Pagination carries the result-paging metadata; read-only, logged only.
type Pagination struct {
	Items   int `json:"items"`
	PerPage int `json:"per_page"`
	Page    int `json:"page"`
}

// SearchResponse models the search endpoint payload.
type SearchResponse struct {
	Pagination Pagination `json:"pagination"`
	Results    []Release  `json:"results"`
}
