package app

import (
	"context"
	"database/sql"
	"time"

	"civichub/api/internal/query"
	"civichub/api/internal/search"
	"civichub/api/internal/store"
)

// fakeStore implements dataStore with overridable function fields; methods
// without an override return empty results.
type fakeStore struct {
	pingFn func(context.Context) error

	countOrganizationsFn    func(context.Context, query.Built) (int, error)
	listOrganizationsFn     func(context.Context, query.Built, int, int) ([]store.Organization, error)
	listOrganizationNamesFn func(context.Context, query.Built, int, int) ([]string, error)
	getOrganizationFn       func(context.Context, string) (store.Organization, error)
	allOrganizationsFn      func(context.Context) ([]store.Organization, error)
	currentEventsFn         func(context.Context, string, time.Time, int) ([]store.Event, error)
	currentProjectsFn       func(context.Context, string, int) ([]store.Project, error)
	currentStoriesFn        func(context.Context, string, int) ([]store.Story, error)

	countProjectsFn  func(context.Context, query.Built) (int, error)
	listProjectsFn   func(context.Context, query.Built, int, int) ([]store.Project, error)
	listProjectIDsFn func(context.Context, query.Built, int, int) ([]int64, error)
	getProjectFn     func(context.Context, int64) (store.Project, error)

	countIssuesFn        func(context.Context, query.Built) (int, error)
	listIssuesFn         func(context.Context, query.Built, int, int) ([]store.Issue, error)
	listIssueIDsFn       func(context.Context, query.Built, int, int) ([]int64, error)
	getIssueFn           func(context.Context, int64) (store.Issue, error)
	listIssuesByLabelsFn func(context.Context, *query.Builder, []string, int, int) ([]store.Issue, int, error)
	issuesForProjectsFn  func(context.Context, []int64) (map[int64][]store.Issue, error)
	labelsForIssuesFn    func(context.Context, []int64) (map[int64][]store.Label, error)

	countEventsFn  func(context.Context, query.Built) (int, error)
	listEventsFn   func(context.Context, query.Built, int, int) ([]store.Event, error)
	listEventIDsFn func(context.Context, query.Built, int, int) ([]int64, error)
	getEventFn     func(context.Context, int64) (store.Event, error)

	countStoriesFn  func(context.Context, query.Built) (int, error)
	listStoriesFn   func(context.Context, query.Built, int, int) ([]store.Story, error)
	listStoryIDsFn  func(context.Context, query.Built, int, int) ([]int64, error)
	getStoryFn      func(context.Context, int64) (store.Story, error)
}

func (f *fakeStore) Ping(ctx context.Context) error {
	if f.pingFn != nil {
		return f.pingFn(ctx)
	}
	return nil
}

func (f *fakeStore) CountOrganizations(ctx context.Context, q query.Built) (int, error) {
	if f.countOrganizationsFn != nil {
		return f.countOrganizationsFn(ctx, q)
	}
	return 0, nil
}

func (f *fakeStore) ListOrganizations(ctx context.Context, q query.Built, limit, offset int) ([]store.Organization, error) {
	if f.listOrganizationsFn != nil {
		return f.listOrganizationsFn(ctx, q, limit, offset)
	}
	return nil, nil
}

func (f *fakeStore) ListOrganizationNames(ctx context.Context, q query.Built, limit, offset int) ([]string, error) {
	if f.listOrganizationNamesFn != nil {
		return f.listOrganizationNamesFn(ctx, q, limit, offset)
	}
	return nil, nil
}

func (f *fakeStore) GetOrganization(ctx context.Context, name string) (store.Organization, error) {
	if f.getOrganizationFn != nil {
		return f.getOrganizationFn(ctx, name)
	}
	return store.Organization{}, sql.ErrNoRows
}

func (f *fakeStore) AllOrganizations(ctx context.Context) ([]store.Organization, error) {
	if f.allOrganizationsFn != nil {
		return f.allOrganizationsFn(ctx)
	}
	return nil, nil
}

func (f *fakeStore) CurrentEvents(ctx context.Context, organizationName string, now time.Time, limit int) ([]store.Event, error) {
	if f.currentEventsFn != nil {
		return f.currentEventsFn(ctx, organizationName, now, limit)
	}
	return nil, nil
}

func (f *fakeStore) CurrentProjects(ctx context.Context, organizationName string, limit int) ([]store.Project, error) {
	if f.currentProjectsFn != nil {
		return f.currentProjectsFn(ctx, organizationName, limit)
	}
	return nil, nil
}

func (f *fakeStore) CurrentStories(ctx context.Context, organizationName string, limit int) ([]store.Story, error) {
	if f.currentStoriesFn != nil {
		return f.currentStoriesFn(ctx, organizationName, limit)
	}
	return nil, nil
}

func (f *fakeStore) CountProjects(ctx context.Context, q query.Built) (int, error) {
	if f.countProjectsFn != nil {
		return f.countProjectsFn(ctx, q)
	}
	return 0, nil
}

func (f *fakeStore) ListProjects(ctx context.Context, q query.Built, limit, offset int) ([]store.Project, error) {
	if f.listProjectsFn != nil {
		return f.listProjectsFn(ctx, q, limit, offset)
	}
	return nil, nil
}

func (f *fakeStore) ListProjectIDs(ctx context.Context, q query.Built, limit, offset int) ([]int64, error) {
	if f.listProjectIDsFn != nil {
		return f.listProjectIDsFn(ctx, q, limit, offset)
	}
	return nil, nil
}

func (f *fakeStore) GetProject(ctx context.Context, id int64) (store.Project, error) {
	if f.getProjectFn != nil {
		return f.getProjectFn(ctx, id)
	}
	return store.Project{}, sql.ErrNoRows
}

func (f *fakeStore) CountIssues(ctx context.Context, q query.Built) (int, error) {
	if f.countIssuesFn != nil {
		return f.countIssuesFn(ctx, q)
	}
	return 0, nil
}

func (f *fakeStore) ListIssues(ctx context.Context, q query.Built, limit, offset int) ([]store.Issue, error) {
	if f.listIssuesFn != nil {
		return f.listIssuesFn(ctx, q, limit, offset)
	}
	return nil, nil
}

func (f *fakeStore) ListIssueIDs(ctx context.Context, q query.Built, limit, offset int) ([]int64, error) {
	if f.listIssueIDsFn != nil {
		return f.listIssueIDsFn(ctx, q, limit, offset)
	}
	return nil, nil
}

func (f *fakeStore) GetIssue(ctx context.Context, id int64) (store.Issue, error) {
	if f.getIssueFn != nil {
		return f.getIssueFn(ctx, id)
	}
	return store.Issue{}, sql.ErrNoRows
}

func (f *fakeStore) ListIssuesByLabels(ctx context.Context, b *query.Builder, labels []string, limit, offset int) ([]store.Issue, int, error) {
	if f.listIssuesByLabelsFn != nil {
		return f.listIssuesByLabelsFn(ctx, b, labels, limit, offset)
	}
	return nil, 0, nil
}

func (f *fakeStore) IssuesForProjects(ctx context.Context, projectIDs []int64) (map[int64][]store.Issue, error) {
	if f.issuesForProjectsFn != nil {
		return f.issuesForProjectsFn(ctx, projectIDs)
	}
	return map[int64][]store.Issue{}, nil
}

func (f *fakeStore) LabelsForIssues(ctx context.Context, issueIDs []int64) (map[int64][]store.Label, error) {
	if f.labelsForIssuesFn != nil {
		return f.labelsForIssuesFn(ctx, issueIDs)
	}
	return map[int64][]store.Label{}, nil
}

func (f *fakeStore) CountEvents(ctx context.Context, q query.Built) (int, error) {
	if f.countEventsFn != nil {
		return f.countEventsFn(ctx, q)
	}
	return 0, nil
}

func (f *fakeStore) ListEvents(ctx context.Context, q query.Built, limit, offset int) ([]store.Event, error) {
	if f.listEventsFn != nil {
		return f.listEventsFn(ctx, q, limit, offset)
	}
	return nil, nil
}

func (f *fakeStore) ListEventIDs(ctx context.Context, q query.Built, limit, offset int) ([]int64, error) {
	if f.listEventIDsFn != nil {
		return f.listEventIDsFn(ctx, q, limit, offset)
	}
	return nil, nil
}

func (f *fakeStore) GetEvent(ctx context.Context, id int64) (store.Event, error) {
	if f.getEventFn != nil {
		return f.getEventFn(ctx, id)
	}
	return store.Event{}, sql.ErrNoRows
}

func (f *fakeStore) CountStories(ctx context.Context, q query.Built) (int, error) {
	if f.countStoriesFn != nil {
		return f.countStoriesFn(ctx, q)
	}
	return 0, nil
}

func (f *fakeStore) ListStories(ctx context.Context, q query.Built, limit, offset int) ([]store.Story, error) {
	if f.listStoriesFn != nil {
		return f.listStoriesFn(ctx, q, limit, offset)
	}
	return nil, nil
}

func (f *fakeStore) ListStoryIDs(ctx context.Context, q query.Built, limit, offset int) ([]int64, error) {
	if f.listStoryIDsFn != nil {
		return f.listStoryIDsFn(ctx, q, limit, offset)
	}
	return nil, nil
}

func (f *fakeStore) GetStory(ctx context.Context, id int64) (store.Story, error) {
	if f.getStoryFn != nil {
		return f.getStoryFn(ctx, id)
	}
	return store.Story{}, sql.ErrNoRows
}

type fakeSearcher struct {
	searchFn func(search.Query) search.Response
}

func (f *fakeSearcher) Search(q search.Query) search.Response {
	if f.searchFn != nil {
		return f.searchFn(q)
	}
	return search.Response{Results: []search.Result{}, Query: q.Text}
}

type fakeStatus struct {
	checkFn func(context.Context) map[string]any
}

func (f *fakeStatus) Check(ctx context.Context) map[string]any {
	if f.checkFn != nil {
		return f.checkFn(ctx)
	}
	return map[string]any{"status": "ok"}
}

func ptr[T any](v T) *T {
	return &v
}
