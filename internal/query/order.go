package query

import "fmt"

// ResolveOrder decides the ORDER BY clause for a listing query. The default
// is descending recency. A non-empty search term switches to relevance
// ranking and also narrows the result set to matching rows; an empty term
// is a no-op. sort_by may force either field, but relevance without an
// active search term falls back to recency. sort_dir flips direction.
func ResolveOrder(b *Builder, e *Entity, p Params) error {
	field := SortLastUpdated
	rank := ""

	if p.Q != "" {
		if e.TSV == "" {
			return UnknownFilterError{Key: "q"}
		}
		term := b.Arg(p.Q)
		b.Where(fmt.Sprintf("%s @@ plainto_tsquery('english', %s)", e.TSV, term))
		rank = fmt.Sprintf("ts_rank(%s, plainto_tsquery('english', %s))", e.TSV, term)
		field = SortRelevance
	}

	switch p.SortBy {
	case SortLastUpdated:
		field = SortLastUpdated
	case SortRelevance:
		if rank != "" {
			field = SortRelevance
		}
	}

	expr := e.Recency
	if field == SortRelevance {
		expr = rank
	}
	if expr == "" {
		// no deterministic recency field; re-roll per request
		b.OrderBy("random()")
		return nil
	}

	dir := "DESC"
	if p.SortDir == "asc" {
		dir = "ASC"
	}
	order := fmt.Sprintf("%s %s", expr, dir)
	if e.TieBreak != "" {
		order += fmt.Sprintf(", %s ASC", e.TieBreak)
	}
	b.OrderBy(order)
	return nil
}
