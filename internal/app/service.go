package app

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"civichub/api/internal/query"
	"civichub/api/internal/slug"
	"civichub/api/internal/store"
)

// Default page sizes per entity.
const (
	perPageDefault = 10
	perPageFeeds   = 25
)

// Embed sizes for the organization detail view.
const (
	currentEventsLimit   = 2
	currentProjectsLimit = 3
	currentStoriesLimit  = 2
)

type dataStore interface {
	Ping(ctx context.Context) error

	CountOrganizations(ctx context.Context, q query.Built) (int, error)
	ListOrganizations(ctx context.Context, q query.Built, limit, offset int) ([]store.Organization, error)
	ListOrganizationNames(ctx context.Context, q query.Built, limit, offset int) ([]string, error)
	GetOrganization(ctx context.Context, name string) (store.Organization, error)
	AllOrganizations(ctx context.Context) ([]store.Organization, error)
	CurrentEvents(ctx context.Context, organizationName string, now time.Time, limit int) ([]store.Event, error)
	CurrentProjects(ctx context.Context, organizationName string, limit int) ([]store.Project, error)
	CurrentStories(ctx context.Context, organizationName string, limit int) ([]store.Story, error)

	CountProjects(ctx context.Context, q query.Built) (int, error)
	ListProjects(ctx context.Context, q query.Built, limit, offset int) ([]store.Project, error)
	ListProjectIDs(ctx context.Context, q query.Built, limit, offset int) ([]int64, error)
	GetProject(ctx context.Context, id int64) (store.Project, error)

	CountIssues(ctx context.Context, q query.Built) (int, error)
	ListIssues(ctx context.Context, q query.Built, limit, offset int) ([]store.Issue, error)
	ListIssueIDs(ctx context.Context, q query.Built, limit, offset int) ([]int64, error)
	GetIssue(ctx context.Context, id int64) (store.Issue, error)
	ListIssuesByLabels(ctx context.Context, b *query.Builder, labels []string, limit, offset int) ([]store.Issue, int, error)
	IssuesForProjects(ctx context.Context, projectIDs []int64) (map[int64][]store.Issue, error)
	LabelsForIssues(ctx context.Context, issueIDs []int64) (map[int64][]store.Label, error)

	CountEvents(ctx context.Context, q query.Built) (int, error)
	ListEvents(ctx context.Context, q query.Built, limit, offset int) ([]store.Event, error)
	ListEventIDs(ctx context.Context, q query.Built, limit, offset int) ([]int64, error)
	GetEvent(ctx context.Context, id int64) (store.Event, error)

	CountStories(ctx context.Context, q query.Built) (int, error)
	ListStories(ctx context.Context, q query.Built, limit, offset int) ([]store.Story, error)
	ListStoryIDs(ctx context.Context, q query.Built, limit, offset int) ([]int64, error)
	GetStory(ctx context.Context, id int64) (store.Story, error)
}

// Service holds the read paths of the API: filtered, ordered, paginated
// listings and single-resource lookups over the catalog.
type Service struct {
	store dataStore
	now   func() time.Time
}

func NewService(st dataStore) *Service {
	return &Service{store: st, now: time.Now}
}

func (s *Service) Ready(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func envelope(total int, pageURL string, p query.Params, objects any) map[string]any {
	return map[string]any{
		"total":   total,
		"pages":   query.Links(pageURL, p, query.LastPage(total, p.PerPage)),
		"objects": objects,
	}
}

// scopeToOrganization narrows a listing to one organization after verifying
// the organization exists, so a bad slug is a 404 rather than an empty page.
func (s *Service) scopeToOrganization(ctx context.Context, b *query.Builder, column, orgSlug string) error {
	name := slug.Raw(orgSlug)
	if _, err := s.store.GetOrganization(ctx, name); err != nil {
		return err
	}
	b.Where(column + " = " + b.Arg(name))
	return nil
}

// Organizations

func (s *Service) ListOrganizations(ctx context.Context, base, pageURL string, values url.Values) (map[string]any, error) {
	p, err := query.Parse(values, perPageDefault)
	if err != nil {
		return nil, err
	}
	b := query.NewBuilder()
	if err := query.Organizations.ApplyFilters(b, p.Filters); err != nil {
		return nil, err
	}
	if err := query.ResolveOrder(b, query.Organizations, p); err != nil {
		return nil, err
	}
	built := b.Built()

	total, err := s.store.CountOrganizations(ctx, built)
	if err != nil {
		return nil, err
	}

	if p.OnlyIDs {
		names, err := s.store.ListOrganizationNames(ctx, built, p.PerPage, p.Offset())
		if err != nil {
			return nil, err
		}
		return envelope(total, pageURL, p, names), nil
	}

	items, err := s.store.ListOrganizations(ctx, built, p.PerPage, p.Offset())
	if err != nil {
		return nil, err
	}
	objects := make([]map[string]any, 0, len(items))
	for _, item := range items {
		objects = append(objects, renderOrganization(base, item))
	}
	return envelope(total, pageURL, p, objects), nil
}

func (s *Service) GetOrganizationDetail(ctx context.Context, base, orgSlug string) (map[string]any, error) {
	name := slug.Raw(orgSlug)
	org, err := s.store.GetOrganization(ctx, name)
	if err != nil {
		return nil, err
	}
	out := renderOrganization(base, org)

	events, err := s.store.CurrentEvents(ctx, org.Name, s.now().UTC(), currentEventsLimit)
	if err != nil {
		return nil, err
	}
	currentEvents := make([]map[string]any, 0, len(events))
	for _, event := range events {
		currentEvents = append(currentEvents, renderEvent(base, event, nil))
	}
	out["current_events"] = currentEvents

	projects, err := s.store.CurrentProjects(ctx, org.Name, currentProjectsLimit)
	if err != nil {
		return nil, err
	}
	currentProjects := make([]map[string]any, 0, len(projects))
	for _, project := range projects {
		currentProjects = append(currentProjects, renderProject(base, project, nil, nil))
	}
	out["current_projects"] = currentProjects

	stories, err := s.store.CurrentStories(ctx, org.Name, currentStoriesLimit)
	if err != nil {
		return nil, err
	}
	currentStories := make([]map[string]any, 0, len(stories))
	for _, story := range stories {
		currentStories = append(currentStories, renderStory(base, story, nil))
	}
	out["current_stories"] = currentStories

	return out, nil
}

// OrganizationsGeoJSON renders every organization as a GeoJSON feature;
// organizations without coordinates get a null geometry.
func (s *Service) OrganizationsGeoJSON(ctx context.Context, base string) (map[string]any, error) {
	items, err := s.store.AllOrganizations(ctx)
	if err != nil {
		return nil, err
	}
	features := make([]map[string]any, 0, len(items))
	for _, item := range items {
		properties := renderOrganization(base, item)
		delete(properties, "latitude")
		delete(properties, "longitude")

		var geometry any
		if item.Latitude != nil && item.Longitude != nil {
			geometry = map[string]any{
				"type":        "Point",
				"coordinates": []float64{*item.Longitude, *item.Latitude},
			}
		}
		features = append(features, map[string]any{
			"type":       "Feature",
			"id":         slug.Safe(item.Name),
			"geometry":   geometry,
			"properties": properties,
		})
	}
	return map[string]any{"type": "FeatureCollection", "features": features}, nil
}

// Projects

func (s *Service) ListProjects(ctx context.Context, base, pageURL string, values url.Values, orgSlug string) (map[string]any, error) {
	p, err := query.Parse(values, perPageDefault)
	if err != nil {
		return nil, err
	}
	b := query.NewBuilder()
	if orgSlug != "" {
		if err := s.scopeToOrganization(ctx, b, "p.organization_name", orgSlug); err != nil {
			return nil, err
		}
	}
	if err := query.Projects.ApplyFilters(b, p.Filters); err != nil {
		return nil, err
	}
	if err := query.ResolveOrder(b, query.Projects, p); err != nil {
		return nil, err
	}
	built := b.Built()

	total, err := s.store.CountProjects(ctx, built)
	if err != nil {
		return nil, err
	}

	if p.OnlyIDs {
		ids, err := s.store.ListProjectIDs(ctx, built, p.PerPage, p.Offset())
		if err != nil {
			return nil, err
		}
		return envelope(total, pageURL, p, ids), nil
	}

	items, err := s.store.ListProjects(ctx, built, p.PerPage, p.Offset())
	if err != nil {
		return nil, err
	}
	objects, err := s.renderProjects(ctx, base, items)
	if err != nil {
		return nil, err
	}
	return envelope(total, pageURL, p, objects), nil
}

// renderProjects renders a page of projects with their issues embedded,
// batch-loading issues and labels to keep it at a fixed number of queries.
func (s *Service) renderProjects(ctx context.Context, base string, items []store.Project) ([]map[string]any, error) {
	projectIDs := make([]int64, 0, len(items))
	for _, item := range items {
		projectIDs = append(projectIDs, item.ID)
	}
	issuesByProject, err := s.store.IssuesForProjects(ctx, projectIDs)
	if err != nil {
		return nil, err
	}
	issueIDs := make([]int64, 0)
	for _, issues := range issuesByProject {
		for _, issue := range issues {
			issueIDs = append(issueIDs, issue.ID)
		}
	}
	labelsByIssue, err := s.store.LabelsForIssues(ctx, issueIDs)
	if err != nil {
		return nil, err
	}

	objects := make([]map[string]any, 0, len(items))
	for _, item := range items {
		issues := make([]map[string]any, 0, len(issuesByProject[item.ID]))
		for _, issue := range issuesByProject[item.ID] {
			issues = append(issues, renderIssue(base, issue, labelsByIssue[issue.ID], nil))
		}
		objects = append(objects, renderProject(base, item, issues, nil))
	}
	return objects, nil
}

func (s *Service) GetProjectDetail(ctx context.Context, base string, id int64) (map[string]any, error) {
	project, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	issuesByProject, err := s.store.IssuesForProjects(ctx, []int64{project.ID})
	if err != nil {
		return nil, err
	}
	issueIDs := make([]int64, 0, len(issuesByProject[project.ID]))
	for _, issue := range issuesByProject[project.ID] {
		issueIDs = append(issueIDs, issue.ID)
	}
	labelsByIssue, err := s.store.LabelsForIssues(ctx, issueIDs)
	if err != nil {
		return nil, err
	}
	issues := make([]map[string]any, 0, len(issuesByProject[project.ID]))
	for _, issue := range issuesByProject[project.ID] {
		issues = append(issues, renderIssue(base, issue, labelsByIssue[issue.ID], nil))
	}

	org, err := s.store.GetOrganization(ctx, project.OrganizationName)
	if err != nil {
		return nil, err
	}
	return renderProject(base, project, issues, renderOrganization(base, org)), nil
}

// Issues

func (s *Service) ListIssues(ctx context.Context, base, pageURL string, values url.Values, orgSlug string) (map[string]any, error) {
	p, err := query.Parse(values, perPageDefault)
	if err != nil {
		return nil, err
	}
	b := query.NewBuilder()
	if err := s.scopeIssues(ctx, b, orgSlug); err != nil {
		return nil, err
	}
	if err := query.Issues.ApplyFilters(b, p.Filters); err != nil {
		return nil, err
	}
	if err := query.ResolveOrder(b, query.Issues, p); err != nil {
		return nil, err
	}
	built := b.Built()

	total, err := s.store.CountIssues(ctx, built)
	if err != nil {
		return nil, err
	}

	if p.OnlyIDs {
		ids, err := s.store.ListIssueIDs(ctx, built, p.PerPage, p.Offset())
		if err != nil {
			return nil, err
		}
		return envelope(total, pageURL, p, ids), nil
	}

	items, err := s.store.ListIssues(ctx, built, p.PerPage, p.Offset())
	if err != nil {
		return nil, err
	}
	objects, err := s.renderIssues(ctx, base, items)
	if err != nil {
		return nil, err
	}
	return envelope(total, pageURL, p, objects), nil
}

// ListIssuesByLabels lists issues carrying every named label. The matched
// set is shuffled per request, so paging links exist but pages overlap.
func (s *Service) ListIssuesByLabels(ctx context.Context, base, pageURL string, values url.Values, orgSlug, rawLabels string) (map[string]any, error) {
	labels, err := query.SplitLabels(rawLabels)
	if err != nil {
		return nil, err
	}
	p, err := query.Parse(values, perPageDefault)
	if err != nil {
		return nil, err
	}
	b := query.NewBuilder()
	if err := s.scopeIssues(ctx, b, orgSlug); err != nil {
		return nil, err
	}
	if err := query.Issues.ApplyFilters(b, p.Filters); err != nil {
		return nil, err
	}

	items, total, err := s.store.ListIssuesByLabels(ctx, b, labels, p.PerPage, p.Offset())
	if err != nil {
		return nil, err
	}
	objects, err := s.renderIssues(ctx, base, items)
	if err != nil {
		return nil, err
	}
	return envelope(total, pageURL, p, objects), nil
}

func (s *Service) scopeIssues(ctx context.Context, b *query.Builder, orgSlug string) error {
	if orgSlug == "" {
		return nil
	}
	name := slug.Raw(orgSlug)
	if _, err := s.store.GetOrganization(ctx, name); err != nil {
		return err
	}
	b.Join("JOIN project p ON p.id = i.project_id")
	b.Where("p.organization_name = " + b.Arg(name))
	return nil
}

func (s *Service) renderIssues(ctx context.Context, base string, items []store.Issue) ([]map[string]any, error) {
	issueIDs := make([]int64, 0, len(items))
	for _, item := range items {
		issueIDs = append(issueIDs, item.ID)
	}
	labelsByIssue, err := s.store.LabelsForIssues(ctx, issueIDs)
	if err != nil {
		return nil, err
	}
	objects := make([]map[string]any, 0, len(items))
	for _, item := range items {
		objects = append(objects, renderIssue(base, item, labelsByIssue[item.ID], nil))
	}
	return objects, nil
}

func (s *Service) GetIssueDetail(ctx context.Context, base string, id int64) (map[string]any, error) {
	issue, err := s.store.GetIssue(ctx, id)
	if err != nil {
		return nil, err
	}
	labelsByIssue, err := s.store.LabelsForIssues(ctx, []int64{issue.ID})
	if err != nil {
		return nil, err
	}
	project, err := s.store.GetProject(ctx, issue.ProjectID)
	if err != nil {
		return nil, err
	}
	return renderIssue(base, issue, labelsByIssue[issue.ID], renderProject(base, project, nil, nil)), nil
}

// Events

// ListEvents lists events, optionally scoped to one organization and to a
// time window: "upcoming" keeps future events soonest first, "past" keeps
// finished events newest first, and "" applies no window.
func (s *Service) ListEvents(ctx context.Context, base, pageURL string, values url.Values, orgSlug, window string) (map[string]any, error) {
	p, err := query.Parse(values, perPageFeeds)
	if err != nil {
		return nil, err
	}
	b := query.NewBuilder()
	if orgSlug != "" {
		if err := s.scopeToOrganization(ctx, b, "e.organization_name", orgSlug); err != nil {
			return nil, err
		}
	}
	if err := query.Events.ApplyFilters(b, p.Filters); err != nil {
		return nil, err
	}
	if err := query.ResolveOrder(b, query.Events, p); err != nil {
		return nil, err
	}
	switch window {
	case "upcoming":
		b.Where("e.start_time_notz >= " + b.Arg(s.now().UTC()))
		b.OrderBy("e.start_time_notz ASC, e.id ASC")
	case "past":
		b.Where("e.start_time_notz <= " + b.Arg(s.now().UTC()))
		b.OrderBy("e.start_time_notz DESC, e.id ASC")
	}
	built := b.Built()

	total, err := s.store.CountEvents(ctx, built)
	if err != nil {
		return nil, err
	}

	if p.OnlyIDs {
		ids, err := s.store.ListEventIDs(ctx, built, p.PerPage, p.Offset())
		if err != nil {
			return nil, err
		}
		return envelope(total, pageURL, p, ids), nil
	}

	items, err := s.store.ListEvents(ctx, built, p.PerPage, p.Offset())
	if err != nil {
		return nil, err
	}
	objects := make([]map[string]any, 0, len(items))
	for _, item := range items {
		objects = append(objects, renderEvent(base, item, nil))
	}
	return envelope(total, pageURL, p, objects), nil
}

func (s *Service) GetEventDetail(ctx context.Context, base string, id int64) (map[string]any, error) {
	event, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	org, err := s.store.GetOrganization(ctx, event.OrganizationName)
	if err != nil {
		return nil, err
	}
	return renderEvent(base, event, renderOrganization(base, org)), nil
}

// Stories

func (s *Service) ListStories(ctx context.Context, base, pageURL string, values url.Values, orgSlug string) (map[string]any, error) {
	p, err := query.Parse(values, perPageFeeds)
	if err != nil {
		return nil, err
	}
	b := query.NewBuilder()
	if orgSlug != "" {
		if err := s.scopeToOrganization(ctx, b, "s.organization_name", orgSlug); err != nil {
			return nil, err
		}
	}
	if err := query.Stories.ApplyFilters(b, p.Filters); err != nil {
		return nil, err
	}
	if err := query.ResolveOrder(b, query.Stories, p); err != nil {
		return nil, err
	}
	built := b.Built()

	total, err := s.store.CountStories(ctx, built)
	if err != nil {
		return nil, err
	}

	if p.OnlyIDs {
		ids, err := s.store.ListStoryIDs(ctx, built, p.PerPage, p.Offset())
		if err != nil {
			return nil, err
		}
		return envelope(total, pageURL, p, ids), nil
	}

	items, err := s.store.ListStories(ctx, built, p.PerPage, p.Offset())
	if err != nil {
		return nil, err
	}
	objects := make([]map[string]any, 0, len(items))
	for _, item := range items {
		objects = append(objects, renderStory(base, item, nil))
	}
	return envelope(total, pageURL, p, objects), nil
}

func (s *Service) GetStoryDetail(ctx context.Context, base string, id int64) (map[string]any, error) {
	story, err := s.store.GetStory(ctx, id)
	if err != nil {
		return nil, err
	}
	org, err := s.store.GetOrganization(ctx, story.OrganizationName)
	if err != nil {
		return nil, err
	}
	return renderStory(base, story, renderOrganization(base, org)), nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
