package status

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"civichub/api/internal/store"
)

const staleAfter = 16 * time.Hour

type statusStore interface {
	OldestOrganization(ctx context.Context) (*store.Organization, error)
	SampleProject(ctx context.Context) (*store.Project, error)
	LatestUpdaterError(ctx context.Context) (*store.UpdaterError, error)
}

type Service struct {
	store        statusStore
	cache        *Cache
	httpClient   *http.Client
	githubToken  string
	meetupKey    string
	githubAPIURL string
	meetupAPIURL string
	now          func() time.Time
}

func New(st statusStore, cache *Cache, githubToken, meetupKey, githubAPIURL, meetupAPIURL string) *Service {
	return &Service{
		store:        st,
		cache:        cache,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		githubToken:  githubToken,
		meetupKey:    meetupKey,
		githubAPIURL: githubAPIURL,
		meetupAPIURL: meetupAPIURL,
		now:          time.Now,
	}
}

// Check produces the engine-light payload. The status field is "ok" or the
// first problem found, in fixed precedence order.
func (s *Service) Check(ctx context.Context) map[string]any {
	return map[string]any{
		"status":       s.rollup(ctx),
		"updated":      s.now().Unix(),
		"resources":    []string{},
		"dependencies": []string{"Meetup", "Github", "PostgreSQL"},
	}
}

func (s *Service) rollup(ctx context.Context) string {
	org, err := s.store.OldestOrganization(ctx)
	if err != nil {
		return "Error: " + err.Error()
	}
	project, err := s.store.SampleProject(ctx)
	if err != nil {
		return "Error: " + err.Error()
	}
	recentError, err := s.store.LatestUpdaterError(ctx)
	if err != nil {
		return "Error: " + err.Error()
	}
	remainingGithub, err := s.githubRemaining(ctx)
	if err != nil {
		return "Error: " + err.Error()
	}
	meetupStatus, err := s.meetupStatus(ctx)
	if err != nil {
		return "Error: " + err.Error()
	}

	switch {
	case project == nil || project.Name == nil:
		return "Sample project is missing a name"
	case org == nil:
		return "Sample project is missing a name"
	case recentError != nil && sameDay(recentError.Time, s.now().UTC()):
		return recentError.Error
	case s.timeSinceUpdated(org) > staleAfter:
		return fmt.Sprintf("Oldest organization (%s) updated more than 16 hours ago", org.Name)
	case remainingGithub < 1000:
		return fmt.Sprintf("Only %d remaining Github requests", remainingGithub)
	case meetupStatus != "ok":
		return fmt.Sprintf("Meetup status is %q", meetupStatus)
	default:
		return "ok"
	}
}

func (s *Service) timeSinceUpdated(org *store.Organization) time.Duration {
	lastUpdated := int64(-1)
	if org.LastUpdated != nil {
		lastUpdated = *org.LastUpdated
	}
	return time.Duration(s.now().Unix()-lastUpdated) * time.Second
}

func (s *Service) githubRemaining(ctx context.Context) (int, error) {
	if cached, ok := s.cache.Get(ctx, "github_remaining"); ok {
		if remaining, err := strconv.Atoi(cached); err == nil {
			return remaining, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.githubAPIURL+"/rate_limit", nil)
	if err != nil {
		return 0, fmt.Errorf("github rate limit request: %w", err)
	}
	if s.githubToken != "" {
		req.SetBasicAuth(s.githubToken, "")
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("github rate limit: %w", err)
	}
	defer resp.Body.Close()

	var payload struct {
		Resources struct {
			Core struct {
				Remaining int `json:"remaining"`
			} `json:"core"`
		} `json:"resources"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("github rate limit decode: %w", err)
	}

	remaining := payload.Resources.Core.Remaining
	s.cache.Set(ctx, "github_remaining", strconv.Itoa(remaining))
	return remaining, nil
}

func (s *Service) meetupStatus(ctx context.Context) (string, error) {
	if s.meetupKey == "" {
		return "No Meetup key set", nil
	}

	if cached, ok := s.cache.Get(ctx, "meetup_status"); ok {
		return cached, nil
	}

	url := s.meetupAPIURL + "/status?format=json&key=" + s.meetupKey
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("meetup status request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("meetup status: %w", err)
	}
	defer resp.Body.Close()

	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("meetup status decode: %w", err)
	}

	s.cache.Set(ctx, "meetup_status", payload.Status)
	return payload.Status, nil
}

// sameDay reports whether an ingestion error is from today; errors from
// earlier days do not degrade the status. That is a deliberate operator
// policy carried over from the updater's monitoring conventions.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
