package search

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultOrganization ResultType = "organization"
	ResultProject      ResultType = "project"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Type             ResultType `json:"type"`
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Snippet          string     `json:"snippet"`
	OrganizationName string     `json:"organization_name,omitempty"`
}

// Query describes a search request.
type Query struct {
	Text       string
	FilterType ResultType // empty = all types
	Limit      int
	Offset     int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a ranked full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// OrganizationRecord is the data we index for an organization.
type OrganizationRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	City string `json:"city"`
	Type string `json:"type"`
}

// ProjectRecord is the data we index for a project.
type ProjectRecord struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	Status           string `json:"status"`
	Tags             string `json:"tags"`
	Categories       string `json:"categories"`
	OrganizationName string `json:"organization_name"`
}
