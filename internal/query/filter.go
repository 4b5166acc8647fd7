package query

import (
	"fmt"
	"strings"
)

// ApplyFilters adds one ILIKE predicate per filter, dispatching keys that
// carry a relation prefix to the related entity. Filters compose as AND.
func (e *Entity) ApplyFilters(b *Builder, filters []Filter) error {
	for _, f := range filters {
		if err := e.applyFilter(b, f); err != nil {
			return err
		}
	}
	return nil
}

func (e *Entity) applyFilter(b *Builder, f Filter) error {
	// Related attributes win over identically-prefixed base columns, so
	// e.g. organization_name on a projects query matches against the
	// joined organization, the way the base column never could for
	// attributes the base entity does not mirror.
	for _, rel := range e.Relations {
		if !strings.HasPrefix(f.Key, rel.Prefix) {
			continue
		}
		attr := strings.TrimPrefix(f.Key, rel.Prefix)
		expr, ok := rel.Target.Filterable[attr]
		if !ok {
			continue
		}
		for _, join := range rel.Joins {
			b.Join(join)
		}
		b.Where(fmt.Sprintf("%s ILIKE %s", expr, b.Arg(pattern(f.Value))))
		return nil
	}

	expr, ok := e.Filterable[f.Key]
	if !ok {
		return UnknownFilterError{Key: f.Key}
	}
	b.Where(fmt.Sprintf("%s ILIKE %s", expr, b.Arg(pattern(f.Value))))
	return nil
}

func pattern(value string) string {
	return "%" + value + "%"
}
