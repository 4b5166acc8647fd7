package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using the catalog's own tsvector columns as a
// fallback when Meilisearch is not configured or unhealthy.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true — if Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search runs a UNION ALL over organizations and projects, ranking with
// ts_rank and snipping with ts_headline.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	tsQuery := "plainto_tsquery('english', $1)"
	args := []any{q.Text}

	var subQueries []string

	if q.FilterType == "" || q.FilterType == ResultOrganization {
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'organization'::text AS type, replace(o.name, ' ', '-') AS id, o.name,
				ts_headline('english', coalesce(o.city, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				''::text AS organization_name,
				ts_rank(o.tsv_body, %s) AS rank
			FROM organization o
			WHERE o.tsv_body @@ %s`, tsQuery, tsQuery, tsQuery))
	}

	if q.FilterType == "" || q.FilterType == ResultProject {
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'project'::text AS type, p.id::text, coalesce(p.name, ''),
				ts_headline('english', coalesce(p.description, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				p.organization_name,
				ts_rank(p.tsv_body, %s) AS rank
			FROM project p
			WHERE p.tsv_body @@ %s`, tsQuery, tsQuery, tsQuery))
	}

	if len(subQueries) == 0 {
		return nil, 0, nil
	}

	countSQL := fmt.Sprintf("SELECT count(*) FROM (%s) sub",
		strings.Join(subQueries, " UNION ALL "))

	dataSQL := fmt.Sprintf(`SELECT type, id, name, snippet, organization_name
		FROM (%s) sub
		ORDER BY rank DESC
		LIMIT %d OFFSET %d`,
		strings.Join(subQueries, " UNION ALL "),
		limit, offset)

	ctx := context.Background()

	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var typ string
		if err := rows.Scan(&typ, &r.ID, &r.Name, &r.Snippet, &r.OrganizationName); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		r.Type = ResultType(typ)
		results = append(results, r)
	}

	return results, total, rows.Err()
}

// LoadAllRecords returns all searchable records for full reindexing.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]OrganizationRecord, []ProjectRecord, error) {
	orgRows, err := p.db.QueryContext(ctx, `
		SELECT replace(name, ' ', '-'), name, coalesce(city, ''), coalesce(type, '')
		FROM organization
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("load organizations: %w", err)
	}
	defer orgRows.Close()

	organizations := make([]OrganizationRecord, 0)
	for orgRows.Next() {
		var o OrganizationRecord
		if err := orgRows.Scan(&o.ID, &o.Name, &o.City, &o.Type); err != nil {
			return nil, nil, fmt.Errorf("scan organization: %w", err)
		}
		organizations = append(organizations, o)
	}
	if err := orgRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate organizations: %w", err)
	}

	projectRows, err := p.db.QueryContext(ctx, `
		SELECT p.id::text, coalesce(p.name, ''), coalesce(p.description, ''),
			coalesce(p.status, ''), coalesce(p.tags, ''), coalesce(p.categories, ''),
			p.organization_name
		FROM project p
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("load projects: %w", err)
	}
	defer projectRows.Close()

	projects := make([]ProjectRecord, 0)
	for projectRows.Next() {
		var pr ProjectRecord
		if err := projectRows.Scan(&pr.ID, &pr.Name, &pr.Description, &pr.Status, &pr.Tags, &pr.Categories, &pr.OrganizationName); err != nil {
			return nil, nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, pr)
	}
	if err := projectRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate projects: %w", err)
	}

	return organizations, projects, nil
}
