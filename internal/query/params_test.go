package query

import (
	"net/url"
	"testing"
)

func TestParseDefaults(t *testing.T) {
	p, err := Parse(url.Values{}, 10)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if p.Page != 1 {
		t.Errorf("expected page 1, got %d", p.Page)
	}
	if p.PerPage != 10 {
		t.Errorf("expected per_page 10, got %d", p.PerPage)
	}
	if p.PerPageSet {
		t.Error("expected PerPageSet=false for defaulted per_page")
	}
	if p.SortDir != "desc" {
		t.Errorf("expected sort_dir desc, got %q", p.SortDir)
	}
	if p.Offset() != 0 {
		t.Errorf("expected offset 0, got %d", p.Offset())
	}
}

func TestParsePagination(t *testing.T) {
	values := url.Values{}
	values.Set("page", "3")
	values.Set("per_page", "25")

	p, err := Parse(values, 10)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if p.Page != 3 || p.PerPage != 25 {
		t.Errorf("expected page=3 per_page=25, got %d/%d", p.Page, p.PerPage)
	}
	if !p.PerPageSet {
		t.Error("expected PerPageSet=true")
	}
	if p.Offset() != 50 {
		t.Errorf("expected offset 50, got %d", p.Offset())
	}
}

func TestParseRejectsBadPagination(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non-numeric page", "page", "abc"},
		{"zero page", "page", "0"},
		{"negative page", "page", "-2"},
		{"non-numeric per_page", "per_page", "ten"},
		{"zero per_page", "per_page", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := url.Values{}
			values.Set(tt.key, tt.value)
			_, err := Parse(values, 10)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			invalid, ok := err.(InvalidParamError)
			if !ok {
				t.Fatalf("expected InvalidParamError, got %T", err)
			}
			if invalid.Key != tt.key {
				t.Errorf("expected key %q, got %q", tt.key, invalid.Key)
			}
		})
	}
}

func TestParseControlsAndFilters(t *testing.T) {
	values := url.Values{}
	values.Set("q", "transit")
	values.Set("sort_by", "relevance")
	values.Set("sort_dir", "asc")
	values.Set("only_ids", "true")
	values.Set("name", "open")
	values.Set("city", "Oakland")

	p, err := Parse(values, 10)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if p.Q != "transit" {
		t.Errorf("expected q=transit, got %q", p.Q)
	}
	if p.SortBy != SortRelevance {
		t.Errorf("expected sort_by relevance, got %q", p.SortBy)
	}
	if p.SortDir != "asc" {
		t.Errorf("expected sort_dir asc, got %q", p.SortDir)
	}
	if !p.OnlyIDs {
		t.Error("expected only_ids=true")
	}
	if len(p.Filters) != 2 {
		t.Fatalf("expected 2 filters, got %d", len(p.Filters))
	}
	// Filters are sorted by key.
	if p.Filters[0].Key != "city" || p.Filters[1].Key != "name" {
		t.Errorf("expected filters sorted by key, got %v", p.Filters)
	}
}

func TestParseUnrecognizedSortByFallsBack(t *testing.T) {
	values := url.Values{}
	values.Set("sort_by", "popularity")

	p, err := Parse(values, 10)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if p.SortBy != SortLastUpdated {
		t.Errorf("expected fallback to last_updated, got %q", p.SortBy)
	}
}

func TestQuerystringOmitsPagination(t *testing.T) {
	values := url.Values{}
	values.Set("page", "2")
	values.Set("per_page", "5")
	values.Set("q", "maps")
	values.Set("type", "Brigade")

	p, err := Parse(values, 10)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	round, err := url.ParseQuery(p.Querystring())
	if err != nil {
		t.Fatalf("parse querystring: %v", err)
	}
	if round.Has("page") || round.Has("per_page") {
		t.Errorf("querystring must not carry pagination, got %q", p.Querystring())
	}
	if round.Get("q") != "maps" || round.Get("type") != "Brigade" {
		t.Errorf("querystring lost parameters, got %q", p.Querystring())
	}
}
