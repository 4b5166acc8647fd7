// Package query turns request parameters into filtered, ordered, paginated
// SQL fragments. The store composes the fragments into full statements; all
// caller-supplied values travel as numbered placeholder arguments.
package query

import (
	"fmt"
	"strings"
)

// Builder accumulates joins, predicates, and ordering for one listing query.
type Builder struct {
	joins   []string
	joined  map[string]struct{}
	where   []string
	args    []any
	orderBy string
}

func NewBuilder() *Builder {
	return &Builder{joined: make(map[string]struct{})}
}

// Arg registers a query argument and returns its placeholder ($1, $2, ...).
func (b *Builder) Arg(value any) string {
	b.args = append(b.args, value)
	return fmt.Sprintf("$%d", len(b.args))
}

// Where adds a predicate; predicates compose as AND.
func (b *Builder) Where(cond string) {
	b.where = append(b.where, cond)
}

// Join adds a JOIN fragment, deduplicating repeats so a filter on two
// related attributes joins the related table once.
func (b *Builder) Join(join string) {
	if _, ok := b.joined[join]; ok {
		return
	}
	b.joined[join] = struct{}{}
	b.joins = append(b.joins, join)
}

func (b *Builder) OrderBy(expr string) {
	b.orderBy = expr
}

// Built is the finished fragment set handed to the store.
type Built struct {
	Joins   []string
	Where   []string
	Args    []any
	OrderBy string
}

func (b *Builder) Built() Built {
	return Built{Joins: b.joins, Where: b.where, Args: b.args, OrderBy: b.orderBy}
}

// JoinSQL renders the JOIN fragments with a leading space, or "".
func (q Built) JoinSQL() string {
	if len(q.Joins) == 0 {
		return ""
	}
	return " " + strings.Join(q.Joins, " ")
}

// WhereSQL renders the WHERE clause with a leading space, or "".
func (q Built) WhereSQL() string {
	if len(q.Where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(q.Where, " AND ")
}

// OrderSQL renders the ORDER BY clause with a leading space, or "".
func (q Built) OrderSQL() string {
	if q.OrderBy == "" {
		return ""
	}
	return " ORDER BY " + q.OrderBy
}
