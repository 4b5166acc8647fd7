package query

// Relation describes a filterable related entity reachable from a base
// entity, e.g. the organization behind a project. A filter key carrying the
// relation prefix is dispatched to the target entity's attribute.
type Relation struct {
	Prefix string
	Joins  []string
	Target *Entity
}

// Entity maps allowed filter keys to typed column expressions so unknown
// keys fail as caller errors instead of runtime dispatch errors. Numeric
// columns are cast to text; every attribute accepts a substring pattern.
type Entity struct {
	Name       string
	Alias      string
	Filterable map[string]string
	Relations  []Relation
	// TSV is the full-text index column, empty when the entity is not
	// searchable.
	TSV string
	// Recency is the default ordering expression; empty means no
	// deterministic recency field exists and listings shuffle randomly.
	Recency string
	// TieBreak is a stable secondary sort key appended ascending so
	// pagination stays consistent across pages.
	TieBreak string
}

var Organizations = &Entity{
	Name:  "organization",
	Alias: "o",
	Filterable: map[string]string{
		"name":              "o.name",
		"website":           "o.website",
		"events_url":        "o.events_url",
		"rss":               "o.rss",
		"projects_list_url": "o.projects_list_url",
		"type":              "o.type",
		"city":              "o.city",
		"latitude":          "o.latitude::text",
		"longitude":         "o.longitude::text",
		"last_updated":      "o.last_updated::text",
		"started_on":        "o.started_on",
	},
	TSV:      "o.tsv_body",
	Recency:  "o.last_updated",
	TieBreak: "o.name",
}

var Projects = &Entity{
	Name:  "project",
	Alias: "p",
	Filterable: map[string]string{
		"name":              "p.name",
		"code_url":          "p.code_url",
		"link_url":          "p.link_url",
		"description":       "p.description",
		"type":              "p.type",
		"categories":        "p.categories",
		"tags":              "p.tags",
		"github_details":    "p.github_details",
		"status":            "p.status",
		"last_updated":      "p.last_updated::text",
		"organization_name": "p.organization_name",
	},
	Relations: []Relation{
		{
			Prefix: "organization_",
			Joins:  []string{"JOIN organization o ON o.name = p.organization_name"},
			Target: Organizations,
		},
	},
	TSV:      "p.tsv_body",
	Recency:  "p.last_updated",
	TieBreak: "p.id",
}

var Issues = &Entity{
	Name:  "issue",
	Alias: "i",
	Filterable: map[string]string{
		"title":      "i.title",
		"html_url":   "i.html_url",
		"body":       "i.body",
		"project_id": "i.project_id::text",
	},
	Relations: []Relation{
		{
			Prefix: "project_",
			Joins:  []string{"JOIN project p ON p.id = i.project_id"},
			Target: Projects,
		},
		{
			Prefix: "organization_",
			Joins: []string{
				"JOIN project p ON p.id = i.project_id",
				"JOIN organization o ON o.name = p.organization_name",
			},
			Target: Organizations,
		},
	},
}

var Events = &Entity{
	Name:  "event",
	Alias: "e",
	Filterable: map[string]string{
		"name":              "e.name",
		"description":       "e.description",
		"event_url":         "e.event_url",
		"location":          "e.location",
		"created_at":        "e.created_at",
		"organization_name": "e.organization_name",
	},
	Relations: []Relation{
		{
			Prefix: "organization_",
			Joins:  []string{"JOIN organization o ON o.name = e.organization_name"},
			Target: Organizations,
		},
	},
	Recency:  "e.start_time_notz",
	TieBreak: "e.id",
}

var Stories = &Entity{
	Name:  "story",
	Alias: "s",
	Filterable: map[string]string{
		"title":             "s.title",
		"link":              "s.link",
		"type":              "s.type",
		"organization_name": "s.organization_name",
	},
	Relations: []Relation{
		{
			Prefix: "organization_",
			Joins:  []string{"JOIN organization o ON o.name = s.organization_name"},
			Target: Organizations,
		},
	},
	Recency: "s.id",
}
