package query

import (
	"testing"
)

func TestApplyFiltersBaseAttribute(t *testing.T) {
	b := NewBuilder()
	err := Organizations.ApplyFilters(b, []Filter{{Key: "city", Value: "Oakland"}})
	if err != nil {
		t.Fatalf("ApplyFilters failed: %v", err)
	}

	built := b.Built()
	if got := built.WhereSQL(); got != " WHERE o.city ILIKE $1" {
		t.Errorf("unexpected where clause: %q", got)
	}
	if len(built.Args) != 1 || built.Args[0] != "%Oakland%" {
		t.Errorf("expected substring pattern arg, got %v", built.Args)
	}
	if built.JoinSQL() != "" {
		t.Errorf("expected no joins, got %q", built.JoinSQL())
	}
}

func TestApplyFiltersNumericColumnCastsToText(t *testing.T) {
	b := NewBuilder()
	err := Organizations.ApplyFilters(b, []Filter{{Key: "latitude", Value: "37."}})
	if err != nil {
		t.Fatalf("ApplyFilters failed: %v", err)
	}
	if got := b.Built().WhereSQL(); got != " WHERE o.latitude::text ILIKE $1" {
		t.Errorf("unexpected where clause: %q", got)
	}
}

func TestApplyFiltersRelatedAttribute(t *testing.T) {
	b := NewBuilder()
	err := Projects.ApplyFilters(b, []Filter{{Key: "organization_city", Value: "Seattle"}})
	if err != nil {
		t.Fatalf("ApplyFilters failed: %v", err)
	}

	built := b.Built()
	if got := built.JoinSQL(); got != " JOIN organization o ON o.name = p.organization_name" {
		t.Errorf("unexpected join: %q", got)
	}
	if got := built.WhereSQL(); got != " WHERE o.city ILIKE $1" {
		t.Errorf("unexpected where clause: %q", got)
	}
}

// organization_name exists both as a project column and as a related
// attribute; the relation wins, and the outcome is the same match.
func TestApplyFiltersRelationPrefixWinsOverBaseColumn(t *testing.T) {
	b := NewBuilder()
	err := Projects.ApplyFilters(b, []Filter{{Key: "organization_name", Value: "Code for ABQ"}})
	if err != nil {
		t.Fatalf("ApplyFilters failed: %v", err)
	}

	built := b.Built()
	if got := built.WhereSQL(); got != " WHERE o.name ILIKE $1" {
		t.Errorf("unexpected where clause: %q", got)
	}
}

func TestApplyFiltersTwoHopRelation(t *testing.T) {
	b := NewBuilder()
	err := Issues.ApplyFilters(b, []Filter{{Key: "organization_city", Value: "Boston"}})
	if err != nil {
		t.Fatalf("ApplyFilters failed: %v", err)
	}

	built := b.Built()
	want := " JOIN project p ON p.id = i.project_id JOIN organization o ON o.name = p.organization_name"
	if got := built.JoinSQL(); got != want {
		t.Errorf("unexpected joins: %q", got)
	}
}

func TestApplyFiltersDeduplicatesJoins(t *testing.T) {
	b := NewBuilder()
	err := Projects.ApplyFilters(b, []Filter{
		{Key: "organization_city", Value: "Seattle"},
		{Key: "organization_type", Value: "Brigade"},
	})
	if err != nil {
		t.Fatalf("ApplyFilters failed: %v", err)
	}

	built := b.Built()
	if len(built.Joins) != 1 {
		t.Errorf("expected one deduplicated join, got %v", built.Joins)
	}
	if len(built.Where) != 2 {
		t.Errorf("expected two predicates, got %v", built.Where)
	}
}

func TestApplyFiltersUnknownKey(t *testing.T) {
	b := NewBuilder()
	err := Organizations.ApplyFilters(b, []Filter{{Key: "nonexistent", Value: "x"}})
	if err == nil {
		t.Fatal("expected error for unknown filter key")
	}
	unknown, ok := err.(UnknownFilterError)
	if !ok {
		t.Fatalf("expected UnknownFilterError, got %T", err)
	}
	if unknown.Key != "nonexistent" {
		t.Errorf("expected key nonexistent, got %q", unknown.Key)
	}
}

func TestApplyFiltersUnknownRelatedAttribute(t *testing.T) {
	b := NewBuilder()
	// organization_ prefix matches but the target has no such attribute,
	// and projects have no base column by that name either.
	err := Projects.ApplyFilters(b, []Filter{{Key: "organization_bogus", Value: "x"}})
	if err == nil {
		t.Fatal("expected error for unknown related attribute")
	}
}
