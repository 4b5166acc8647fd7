package query

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoLabels reports a label-filter path segment that names no labels.
var ErrNoLabels = errors.New("no labels given")

// SplitLabels parses the comma-separated label list from the request path.
// Entries are trimmed and empties dropped; a list with nothing left is a
// caller error rather than an empty-substring match.
func SplitLabels(raw string) ([]string, error) {
	var labels []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			labels = append(labels, trimmed)
		}
	}
	if len(labels) == 0 {
		return nil, ErrNoLabels
	}
	return labels, nil
}

// Intersection builds an INTERSECT of one sub-query per label requirement
// over the builder's accumulated joins and predicates. Each sub-query
// repeats the identical base query plus a single label substring match, so
// the set intersection keeps exactly the rows satisfying every requirement;
// a row may satisfy one requirement through any of its labels. The caller
// supplies the projection head (column list), the FROM clause including the
// label join, and the label column expression.
func (b *Builder) Intersection(head, from, labelExpr string, labels []string) string {
	subs := make([]string, 0, len(labels))
	for _, label := range labels {
		match := fmt.Sprintf("%s ILIKE %s", labelExpr, b.Arg(pattern(label)))
		conds := make([]string, 0, len(b.where)+1)
		conds = append(conds, b.where...)
		conds = append(conds, match)

		sub := fmt.Sprintf("SELECT %s FROM %s", head, from)
		if len(b.joins) > 0 {
			sub += " " + strings.Join(b.joins, " ")
		}
		sub += " WHERE " + strings.Join(conds, " AND ")
		subs = append(subs, sub)
	}
	return strings.Join(subs, " INTERSECT ")
}
