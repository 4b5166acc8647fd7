package app

import (
	"testing"
	"time"

	"civichub/api/internal/store"
)

func TestOffsetTime(t *testing.T) {
	stamp := time.Date(2024, 5, 4, 18, 30, 0, 0, time.UTC)

	tests := []struct {
		name          string
		offsetMinutes int64
		want          string
	}{
		{"pacific", -420, "2024-05-04 18:30:00 -0700"},
		{"utc", 0, "2024-05-04 18:30:00 +0000"},
		{"india", 330, "2024-05-04 18:30:00 +0530"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := offsetTime(&stamp, tt.offsetMinutes); got != tt.want {
				t.Errorf("offsetTime = %v, want %q", got, tt.want)
			}
		})
	}

	if got := offsetTime(nil, -420); got != nil {
		t.Errorf("nil timestamp must render null, got %v", got)
	}
}

func TestDecodeDetails(t *testing.T) {
	if got := decodeDetails([]byte(`{"stars": 3}`)).(map[string]any); got["stars"] != float64(3) {
		t.Errorf("unexpected decode: %v", got)
	}
	if got := decodeDetails(nil).(map[string]any); len(got) != 0 {
		t.Errorf("empty details must decode to an empty object, got %v", got)
	}
	if got := decodeDetails([]byte("not json")).(map[string]any); len(got) != 0 {
		t.Errorf("malformed details must decode to an empty object, got %v", got)
	}
}

func TestRenderOrganizationLinks(t *testing.T) {
	out := renderOrganization("http://example.com", store.Organization{Name: "Code for America"})

	wantSelf := "http://example.com/api/organizations/Code-for-America"
	if out["api_url"] != wantSelf {
		t.Errorf("unexpected api_url: %v", out["api_url"])
	}
	for field, suffix := range map[string]string{
		"all_events":      "/events",
		"upcoming_events": "/upcoming_events",
		"past_events":     "/past_events",
		"all_projects":    "/projects",
		"all_stories":     "/stories",
		"all_issues":      "/issues",
	} {
		if out[field] != wantSelf+suffix {
			t.Errorf("unexpected %s: %v", field, out[field])
		}
	}
}
