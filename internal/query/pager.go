package query

import (
	"math"
	"net/url"
	"strconv"
)

// LastPage is the 1-based number of the final page, 0 when there are no
// matching rows.
func LastPage(total, perPage int) int {
	if total == 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(perPage)))
}

// Links builds the navigation-links payload: first/prev only past page one,
// next/last only before the final page. Each link is an absolute URL that
// carries per_page when the caller supplied one and round-trips every other
// caller-supplied parameter so paging preserves active filters.
func Links(pageURL string, p Params, last int) map[string]string {
	pages := map[string]url.Values{}

	if p.Page > 1 {
		first := url.Values{}
		prev := url.Values{}
		prev.Set("page", strconv.Itoa(p.Page-1))
		if p.PerPageSet {
			first.Set("per_page", strconv.Itoa(p.PerPage))
			prev.Set("per_page", strconv.Itoa(p.PerPage))
		}
		pages["first"] = first
		pages["prev"] = prev
	}

	if p.Page < last {
		next := url.Values{}
		next.Set("page", strconv.Itoa(p.Page+1))
		lastPage := url.Values{}
		lastPage.Set("page", strconv.Itoa(last))
		if p.PerPageSet {
			next.Set("per_page", strconv.Itoa(p.PerPage))
			lastPage.Set("per_page", strconv.Itoa(p.PerPage))
		}
		pages["next"] = next
		pages["last"] = lastPage
	}

	querystring := p.Querystring()
	links := make(map[string]string, len(pages))
	for key, vals := range pages {
		encoded := vals.Encode()
		switch {
		case encoded != "" && querystring != "":
			links[key] = pageURL + "?" + encoded + "&" + querystring
		case encoded != "":
			links[key] = pageURL + "?" + encoded
		case querystring != "":
			links[key] = pageURL + "?" + querystring
		default:
			links[key] = pageURL
		}
	}
	return links
}
