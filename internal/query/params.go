package query

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
)

// Sort field selectors accepted by sort_by. Anything else falls back to
// SortLastUpdated.
const (
	SortRelevance   = "relevance"
	SortLastUpdated = "last_updated"
)

// Filter is one non-reserved query-string pair, matched as a
// case-insensitive substring against an entity attribute.
type Filter struct {
	Key   string
	Value string
}

// Params is the parsed control surface of a listing request.
type Params struct {
	Page       int
	PerPage    int
	PerPageSet bool
	OnlyIDs    bool
	SortBy     string
	SortDir    string
	Q          string
	Filters    []Filter

	passthrough url.Values
}

// InvalidParamError reports a malformed pagination or control parameter.
type InvalidParamError struct {
	Key   string
	Value string
}

func (e InvalidParamError) Error() string {
	return fmt.Sprintf("invalid value %q for parameter %q", e.Value, e.Key)
}

// UnknownFilterError reports a filter key that names no known attribute.
type UnknownFilterError struct {
	Key string
}

func (e UnknownFilterError) Error() string {
	return fmt.Sprintf("unknown filter attribute %q", e.Key)
}

// Parse splits the raw query string into pagination controls, sort
// controls, the free-text term, and the remaining attribute filters.
// page and per_page must be positive integers; everything else is kept
// verbatim so paging links can round-trip it.
func Parse(values url.Values, defaultPerPage int) (Params, error) {
	p := Params{
		Page:        1,
		PerPage:     defaultPerPage,
		SortDir:     "desc",
		passthrough: url.Values{},
	}

	for key, vals := range values {
		value := ""
		if len(vals) > 0 {
			value = vals[0]
		}
		switch key {
		case "page":
			n, err := strconv.Atoi(value)
			if err != nil || n < 1 {
				return Params{}, InvalidParamError{Key: "page", Value: value}
			}
			p.Page = n
		case "per_page":
			n, err := strconv.Atoi(value)
			if err != nil || n < 1 {
				return Params{}, InvalidParamError{Key: "per_page", Value: value}
			}
			p.PerPage = n
			p.PerPageSet = true
		case "only_ids":
			p.OnlyIDs = true
			p.passthrough.Set(key, value)
		case "sort_by":
			if value == SortRelevance {
				p.SortBy = SortRelevance
			} else {
				p.SortBy = SortLastUpdated
			}
			p.passthrough.Set(key, value)
		case "sort_dir":
			if value == "asc" {
				p.SortDir = "asc"
			} else {
				p.SortDir = "desc"
			}
			p.passthrough.Set(key, value)
		case "q":
			p.Q = value
			p.passthrough.Set(key, value)
		default:
			p.Filters = append(p.Filters, Filter{Key: key, Value: value})
			p.passthrough.Set(key, value)
		}
	}

	// url.Values iteration order is random; keep SQL generation and tests
	// deterministic.
	sort.Slice(p.Filters, func(i, j int) bool { return p.Filters[i].Key < p.Filters[j].Key })

	return p, nil
}

// Querystring re-encodes every caller-supplied parameter except page and
// per_page, for appending to navigation links.
func (p Params) Querystring() string {
	return p.passthrough.Encode()
}

// Offset is the row offset of the requested page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}
