package store

import "time"

// Organization is a brigade or other civic-tech group. Its name doubles as
// the primary key and, dash-escaped, as the URL slug.
type Organization struct {
	Name            string
	Website         *string
	EventsURL       *string
	RSS             *string
	ProjectsListURL *string
	Type            *string
	City            *string
	Latitude        *float64
	Longitude       *float64
	LastUpdated     *int64
	StartedOn       *string
}

// Project is a civic-tech code project belonging to one organization.
// GithubDetails holds the raw JSON blob the updater scraped from the
// code host; it is decoded only at render time.
type Project struct {
	ID               int64
	Name             *string
	CodeURL          *string
	LinkURL          *string
	Description      *string
	Type             *string
	Categories       *string
	Tags             *string
	GithubDetails    []byte
	LastUpdated      *time.Time
	Status           *string
	OrganizationName string
}

type Issue struct {
	ID        int64
	Title     *string
	HTMLURL   *string
	Body      *string
	ProjectID int64
}

type Label struct {
	Name  *string
	Color *string
	URL   *string
}

// Event stores start/end as naive timestamps plus a UTC offset in minutes;
// timezone-aware strings are derived at render time, never stored.
type Event struct {
	ID               int64
	Name             *string
	Description      *string
	EventURL         *string
	Location         *string
	CreatedAt        *string
	StartTime        *time.Time
	EndTime          *time.Time
	UTCOffset        int64
	OrganizationName string
}

type Story struct {
	ID               int64
	Title            *string
	Link             *string
	Type             *string
	OrganizationName string
}

// UpdaterError is a failure row written by the external ingestion job,
// surfaced through the status endpoint.
type UpdaterError struct {
	ID    int64
	Error string
	Time  time.Time
}
