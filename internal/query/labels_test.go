package query

import (
	"strings"
	"testing"
)

func TestSplitLabels(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"single", "bug", []string{"bug"}},
		{"multiple", "bug,help wanted", []string{"bug", "help wanted"}},
		{"trims whitespace", " bug , docs ", []string{"bug", "docs"}},
		{"drops empties", "bug,,docs,", []string{"bug", "docs"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SplitLabels(tt.raw)
			if err != nil {
				t.Fatalf("SplitLabels failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("expected %v, got %v", tt.want, got)
				}
			}
		})
	}
}

func TestSplitLabelsEmpty(t *testing.T) {
	for _, raw := range []string{"", ",", " , ", ",,"} {
		if _, err := SplitLabels(raw); err != ErrNoLabels {
			t.Errorf("SplitLabels(%q) expected ErrNoLabels, got %v", raw, err)
		}
	}
}

func TestIntersectionOneLabel(t *testing.T) {
	b := NewBuilder()
	sqlStr := b.Intersection("i.id", "issue i JOIN label l ON l.issue_id = i.id", "l.name", []string{"bug"})

	want := "SELECT i.id FROM issue i JOIN label l ON l.issue_id = i.id WHERE l.name ILIKE $1"
	if sqlStr != want {
		t.Errorf("unexpected sql: %q", sqlStr)
	}
	args := b.Built().Args
	if len(args) != 1 || args[0] != "%bug%" {
		t.Errorf("expected pattern arg, got %v", args)
	}
}

func TestIntersectionMultipleLabels(t *testing.T) {
	b := NewBuilder()
	sqlStr := b.Intersection("i.id", "issue i JOIN label l ON l.issue_id = i.id", "l.name", []string{"bug", "help wanted"})

	if strings.Count(sqlStr, " INTERSECT ") != 1 {
		t.Errorf("expected one INTERSECT between two sub-queries: %q", sqlStr)
	}
	if !strings.Contains(sqlStr, "$1") || !strings.Contains(sqlStr, "$2") {
		t.Errorf("each label needs its own placeholder: %q", sqlStr)
	}
	args := b.Built().Args
	if len(args) != 2 || args[0] != "%bug%" || args[1] != "%help wanted%" {
		t.Errorf("unexpected args: %v", args)
	}
}

// Filters applied before the intersection repeat in every sub-query, so the
// set intersection stays scoped to the filtered base.
func TestIntersectionRepeatsBasePredicates(t *testing.T) {
	b := NewBuilder()
	b.Join("JOIN project p ON p.id = i.project_id")
	b.Where("p.organization_name = " + b.Arg("Code for ABQ"))

	sqlStr := b.Intersection("i.id", "issue i JOIN label l ON l.issue_id = i.id", "l.name", []string{"bug", "docs"})

	if strings.Count(sqlStr, "p.organization_name = $1") != 2 {
		t.Errorf("base predicate must appear in each sub-query: %q", sqlStr)
	}
	if strings.Count(sqlStr, "JOIN project p ON p.id = i.project_id") != 2 {
		t.Errorf("base join must appear in each sub-query: %q", sqlStr)
	}
	args := b.Built().Args
	if len(args) != 3 {
		t.Errorf("expected base arg plus one per label, got %v", args)
	}
}
