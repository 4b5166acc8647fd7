package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"civichub/api/internal/query"
)

const (
	organizationColumns = "o.name, o.website, o.events_url, o.rss, o.projects_list_url, o.type, o.city, o.latitude, o.longitude, o.last_updated, o.started_on"
	projectColumns      = "p.id, p.name, p.code_url, p.link_url, p.description, p.type, p.categories, p.tags, p.github_details, p.last_updated, p.status, p.organization_name"
	issueColumns        = "i.id, i.title, i.html_url, i.body, i.project_id"
	eventColumns        = "e.id, e.name, e.description, e.event_url, e.location, e.created_at, e.start_time_notz, e.end_time_notz, e.utc_offset, e.organization_name"
	storyColumns        = "s.id, s.title, s.link, s.type, s.organization_name"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) count(ctx context.Context, from string, q query.Built) (int, error) {
	var total int
	sqlStr := "SELECT count(*) FROM " + from + q.JoinSQL() + q.WhereSQL()
	if err := s.db.QueryRowContext(ctx, sqlStr, q.Args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count %s: %w", from, err)
	}
	return total, nil
}

func (s *PostgresStore) listIDs(ctx context.Context, expr, from string, q query.Built, limit, offset int) ([]int64, error) {
	sqlStr := fmt.Sprintf("SELECT %s FROM %s%s%s%s LIMIT %d OFFSET %d",
		expr, from, q.JoinSQL(), q.WhereSQL(), q.OrderSQL(), limit, offset)
	rows, err := s.db.QueryContext(ctx, sqlStr, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("list %s ids: %w", from, err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan %s id: %w", from, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Organizations

func (s *PostgresStore) CountOrganizations(ctx context.Context, q query.Built) (int, error) {
	return s.count(ctx, "organization o", q)
}

func (s *PostgresStore) ListOrganizations(ctx context.Context, q query.Built, limit, offset int) ([]Organization, error) {
	sqlStr := fmt.Sprintf("SELECT %s FROM organization o%s%s%s LIMIT %d OFFSET %d",
		organizationColumns, q.JoinSQL(), q.WhereSQL(), q.OrderSQL(), limit, offset)
	return s.scanOrganizations(ctx, sqlStr, q.Args...)
}

// ListOrganizationNames is the only_ids projection; the organization key is
// its name, not a serial id.
func (s *PostgresStore) ListOrganizationNames(ctx context.Context, q query.Built, limit, offset int) ([]string, error) {
	sqlStr := fmt.Sprintf("SELECT o.name FROM organization o%s%s%s LIMIT %d OFFSET %d",
		q.JoinSQL(), q.WhereSQL(), q.OrderSQL(), limit, offset)
	rows, err := s.db.QueryContext(ctx, sqlStr, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("list organization names: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan organization name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *PostgresStore) GetOrganization(ctx context.Context, name string) (Organization, error) {
	sqlStr := fmt.Sprintf("SELECT %s FROM organization o WHERE o.name = $1", organizationColumns)
	var item Organization
	err := s.db.QueryRowContext(ctx, sqlStr, name).Scan(
		&item.Name, &item.Website, &item.EventsURL, &item.RSS, &item.ProjectsListURL,
		&item.Type, &item.City, &item.Latitude, &item.Longitude, &item.LastUpdated, &item.StartedOn,
	)
	if err != nil {
		return Organization{}, err
	}
	return item, nil
}

// AllOrganizations feeds the geojson feed; no paging, natural order.
func (s *PostgresStore) AllOrganizations(ctx context.Context) ([]Organization, error) {
	return s.scanOrganizations(ctx, fmt.Sprintf("SELECT %s FROM organization o", organizationColumns))
}

// OldestOrganization returns the least recently updated organization, used
// by the status endpoint as the freshness probe.
func (s *PostgresStore) OldestOrganization(ctx context.Context) (*Organization, error) {
	sqlStr := fmt.Sprintf("SELECT %s FROM organization o ORDER BY o.last_updated ASC LIMIT 1", organizationColumns)
	items, err := s.scanOrganizations(ctx, sqlStr)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

func (s *PostgresStore) scanOrganizations(ctx context.Context, sqlStr string, args ...any) ([]Organization, error) {
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	items := make([]Organization, 0)
	for rows.Next() {
		var item Organization
		if err := rows.Scan(
			&item.Name, &item.Website, &item.EventsURL, &item.RSS, &item.ProjectsListURL,
			&item.Type, &item.City, &item.Latitude, &item.Longitude, &item.LastUpdated, &item.StartedOn,
		); err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Projects

func (s *PostgresStore) CountProjects(ctx context.Context, q query.Built) (int, error) {
	return s.count(ctx, "project p", q)
}

func (s *PostgresStore) ListProjects(ctx context.Context, q query.Built, limit, offset int) ([]Project, error) {
	sqlStr := fmt.Sprintf("SELECT %s FROM project p%s%s%s LIMIT %d OFFSET %d",
		projectColumns, q.JoinSQL(), q.WhereSQL(), q.OrderSQL(), limit, offset)
	return s.scanProjects(ctx, sqlStr, q.Args...)
}

func (s *PostgresStore) ListProjectIDs(ctx context.Context, q query.Built, limit, offset int) ([]int64, error) {
	return s.listIDs(ctx, "p.id", "project p", q, limit, offset)
}

func (s *PostgresStore) GetProject(ctx context.Context, id int64) (Project, error) {
	sqlStr := fmt.Sprintf("SELECT %s FROM project p WHERE p.id = $1", projectColumns)
	var item Project
	err := s.db.QueryRowContext(ctx, sqlStr, id).Scan(
		&item.ID, &item.Name, &item.CodeURL, &item.LinkURL, &item.Description,
		&item.Type, &item.Categories, &item.Tags, &item.GithubDetails,
		&item.LastUpdated, &item.Status, &item.OrganizationName,
	)
	if err != nil {
		return Project{}, err
	}
	return item, nil
}

// SampleProject returns an arbitrary project, used as a data sanity probe
// by the status endpoint.
func (s *PostgresStore) SampleProject(ctx context.Context) (*Project, error) {
	sqlStr := fmt.Sprintf("SELECT %s FROM project p LIMIT 1", projectColumns)
	items, err := s.scanProjects(ctx, sqlStr)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

// CurrentProjects returns an organization's most recently updated projects.
func (s *PostgresStore) CurrentProjects(ctx context.Context, organizationName string, limit int) ([]Project, error) {
	sqlStr := fmt.Sprintf(
		"SELECT %s FROM project p WHERE p.organization_name = $1 ORDER BY p.last_updated DESC, p.id ASC LIMIT %d",
		projectColumns, limit)
	return s.scanProjects(ctx, sqlStr, organizationName)
}

func (s *PostgresStore) scanProjects(ctx context.Context, sqlStr string, args ...any) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	items := make([]Project, 0)
	for rows.Next() {
		var item Project
		if err := rows.Scan(
			&item.ID, &item.Name, &item.CodeURL, &item.LinkURL, &item.Description,
			&item.Type, &item.Categories, &item.Tags, &item.GithubDetails,
			&item.LastUpdated, &item.Status, &item.OrganizationName,
		); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Issues

func (s *PostgresStore) CountIssues(ctx context.Context, q query.Built) (int, error) {
	return s.count(ctx, "issue i", q)
}

func (s *PostgresStore) ListIssues(ctx context.Context, q query.Built, limit, offset int) ([]Issue, error) {
	sqlStr := fmt.Sprintf("SELECT %s FROM issue i%s%s%s LIMIT %d OFFSET %d",
		issueColumns, q.JoinSQL(), q.WhereSQL(), q.OrderSQL(), limit, offset)
	return s.scanIssues(ctx, sqlStr, q.Args...)
}

func (s *PostgresStore) ListIssueIDs(ctx context.Context, q query.Built, limit, offset int) ([]int64, error) {
	return s.listIDs(ctx, "i.id", "issue i", q, limit, offset)
}

func (s *PostgresStore) GetIssue(ctx context.Context, id int64) (Issue, error) {
	sqlStr := fmt.Sprintf("SELECT %s FROM issue i WHERE i.id = $1", issueColumns)
	var item Issue
	err := s.db.QueryRowContext(ctx, sqlStr, id).Scan(&item.ID, &item.Title, &item.HTMLURL, &item.Body, &item.ProjectID)
	if err != nil {
		return Issue{}, err
	}
	return item, nil
}

// ListIssuesByLabels runs the label-intersection query: one sub-query per
// requested label over the identical base query, INTERSECTed, shuffled, and
// paged. Returns the page of issues plus the total intersection size.
func (s *PostgresStore) ListIssuesByLabels(ctx context.Context, b *query.Builder, labels []string, limit, offset int) ([]Issue, int, error) {
	intersection := b.Intersection(issueColumns, "issue i JOIN label l ON l.issue_id = i.id", "l.name", labels)
	args := b.Built().Args

	var total int
	countSQL := fmt.Sprintf("SELECT count(*) FROM (%s) AS matched", intersection)
	if err := s.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count issues by labels: %w", err)
	}

	// INTERSECT restricts ORDER BY to output columns, hence the wrap.
	dataSQL := fmt.Sprintf("SELECT * FROM (%s) AS matched ORDER BY random() LIMIT %d OFFSET %d",
		intersection, limit, offset)
	items, err := s.scanIssues(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// IssuesForProjects batch-loads the issues of several projects, keyed by
// project id, so project listings avoid a per-row query.
func (s *PostgresStore) IssuesForProjects(ctx context.Context, projectIDs []int64) (map[int64][]Issue, error) {
	result := make(map[int64][]Issue)
	if len(projectIDs) == 0 {
		return result, nil
	}
	placeholders, args := int64Placeholders(projectIDs)
	sqlStr := fmt.Sprintf("SELECT %s FROM issue i WHERE i.project_id IN (%s) ORDER BY i.id ASC", issueColumns, placeholders)
	items, err := s.scanIssues(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		result[item.ProjectID] = append(result[item.ProjectID], item)
	}
	return result, nil
}

func (s *PostgresStore) scanIssues(ctx context.Context, sqlStr string, args ...any) ([]Issue, error) {
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer rows.Close()

	items := make([]Issue, 0)
	for rows.Next() {
		var item Issue
		if err := rows.Scan(&item.ID, &item.Title, &item.HTMLURL, &item.Body, &item.ProjectID); err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Labels

// LabelsForIssues batch-loads the labels of several issues, keyed by issue id.
func (s *PostgresStore) LabelsForIssues(ctx context.Context, issueIDs []int64) (map[int64][]Label, error) {
	result := make(map[int64][]Label)
	if len(issueIDs) == 0 {
		return result, nil
	}
	placeholders, args := int64Placeholders(issueIDs)
	sqlStr := fmt.Sprintf("SELECT l.issue_id, l.name, l.color, l.url FROM label l WHERE l.issue_id IN (%s) ORDER BY l.id ASC", placeholders)
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var issueID int64
		var label Label
		if err := rows.Scan(&issueID, &label.Name, &label.Color, &label.URL); err != nil {
			return nil, fmt.Errorf("scan label: %w", err)
		}
		result[issueID] = append(result[issueID], label)
	}
	return result, rows.Err()
}

// Events

func (s *PostgresStore) CountEvents(ctx context.Context, q query.Built) (int, error) {
	return s.count(ctx, "event e", q)
}

func (s *PostgresStore) ListEvents(ctx context.Context, q query.Built, limit, offset int) ([]Event, error) {
	sqlStr := fmt.Sprintf("SELECT %s FROM event e%s%s%s LIMIT %d OFFSET %d",
		eventColumns, q.JoinSQL(), q.WhereSQL(), q.OrderSQL(), limit, offset)
	return s.scanEvents(ctx, sqlStr, q.Args...)
}

func (s *PostgresStore) ListEventIDs(ctx context.Context, q query.Built, limit, offset int) ([]int64, error) {
	return s.listIDs(ctx, "e.id", "event e", q, limit, offset)
}

func (s *PostgresStore) GetEvent(ctx context.Context, id int64) (Event, error) {
	sqlStr := fmt.Sprintf("SELECT %s FROM event e WHERE e.id = $1", eventColumns)
	var item Event
	err := s.db.QueryRowContext(ctx, sqlStr, id).Scan(
		&item.ID, &item.Name, &item.Description, &item.EventURL, &item.Location,
		&item.CreatedAt, &item.StartTime, &item.EndTime, &item.UTCOffset, &item.OrganizationName,
	)
	if err != nil {
		return Event{}, err
	}
	return item, nil
}

// CurrentEvents returns an organization's soonest upcoming events.
func (s *PostgresStore) CurrentEvents(ctx context.Context, organizationName string, now time.Time, limit int) ([]Event, error) {
	sqlStr := fmt.Sprintf(
		"SELECT %s FROM event e WHERE e.organization_name = $1 AND e.start_time_notz >= $2 ORDER BY e.start_time_notz ASC, e.id ASC LIMIT %d",
		eventColumns, limit)
	return s.scanEvents(ctx, sqlStr, organizationName, now)
}

func (s *PostgresStore) scanEvents(ctx context.Context, sqlStr string, args ...any) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	items := make([]Event, 0)
	for rows.Next() {
		var item Event
		if err := rows.Scan(
			&item.ID, &item.Name, &item.Description, &item.EventURL, &item.Location,
			&item.CreatedAt, &item.StartTime, &item.EndTime, &item.UTCOffset, &item.OrganizationName,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Stories

func (s *PostgresStore) CountStories(ctx context.Context, q query.Built) (int, error) {
	return s.count(ctx, "story s", q)
}

func (s *PostgresStore) ListStories(ctx context.Context, q query.Built, limit, offset int) ([]Story, error) {
	sqlStr := fmt.Sprintf("SELECT %s FROM story s%s%s%s LIMIT %d OFFSET %d",
		storyColumns, q.JoinSQL(), q.WhereSQL(), q.OrderSQL(), limit, offset)
	return s.scanStories(ctx, sqlStr, q.Args...)
}

func (s *PostgresStore) ListStoryIDs(ctx context.Context, q query.Built, limit, offset int) ([]int64, error) {
	return s.listIDs(ctx, "s.id", "story s", q, limit, offset)
}

func (s *PostgresStore) GetStory(ctx context.Context, id int64) (Story, error) {
	sqlStr := fmt.Sprintf("SELECT %s FROM story s WHERE s.id = $1", storyColumns)
	var item Story
	err := s.db.QueryRowContext(ctx, sqlStr, id).Scan(&item.ID, &item.Title, &item.Link, &item.Type, &item.OrganizationName)
	if err != nil {
		return Story{}, err
	}
	return item, nil
}

// CurrentStories returns an organization's newest stories.
func (s *PostgresStore) CurrentStories(ctx context.Context, organizationName string, limit int) ([]Story, error) {
	sqlStr := fmt.Sprintf(
		"SELECT %s FROM story s WHERE s.organization_name = $1 ORDER BY s.id DESC LIMIT %d",
		storyColumns, limit)
	return s.scanStories(ctx, sqlStr, organizationName)
}

func (s *PostgresStore) scanStories(ctx context.Context, sqlStr string, args ...any) ([]Story, error) {
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	defer rows.Close()

	items := make([]Story, 0)
	for rows.Next() {
		var item Story
		if err := rows.Scan(&item.ID, &item.Title, &item.Link, &item.Type, &item.OrganizationName); err != nil {
			return nil, fmt.Errorf("scan story: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Updater errors

// LatestUpdaterError returns the most recent ingestion failure, if any.
func (s *PostgresStore) LatestUpdaterError(ctx context.Context) (*UpdaterError, error) {
	var item UpdaterError
	err := s.db.QueryRowContext(ctx,
		`SELECT id, error, time FROM error ORDER BY time DESC LIMIT 1`,
	).Scan(&item.ID, &item.Error, &item.Time)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest updater error: %w", err)
	}
	return &item, nil
}

func int64Placeholders(ids []int64) (string, []any) {
	parts := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	return strings.Join(parts, ","), args
}
