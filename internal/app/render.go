package app

import (
	"encoding/json"
	"time"

	"civichub/api/internal/slug"
	"civichub/api/internal/store"
)

// Projections strip internal bookkeeping (retention flag, tsvector columns,
// updater timestamps) and add computed links. base is "scheme://host" of the
// current request.

func renderOrganization(base string, org store.Organization) map[string]any {
	id := slug.Safe(org.Name)
	self := base + "/api/organizations/" + id
	return map[string]any{
		"name":              org.Name,
		"website":           org.Website,
		"events_url":        org.EventsURL,
		"rss":               org.RSS,
		"projects_list_url": org.ProjectsListURL,
		"type":              org.Type,
		"city":              org.City,
		"latitude":          org.Latitude,
		"longitude":         org.Longitude,
		"last_updated":      org.LastUpdated,
		"started_on":        org.StartedOn,
		"api_url":           self,
		"all_events":        self + "/events",
		"upcoming_events":   self + "/upcoming_events",
		"past_events":       self + "/past_events",
		"all_projects":      self + "/projects",
		"all_stories":       self + "/stories",
		"all_issues":        self + "/issues",
	}
}

// renderProject includes issues and organization only when the caller
// passes them: listings carry issues, detail adds the organization, and the
// nested summaries on an organization carry neither.
func renderProject(base string, project store.Project, issues []map[string]any, organization map[string]any) map[string]any {
	out := map[string]any{
		"id":                project.ID,
		"name":              project.Name,
		"code_url":          project.CodeURL,
		"link_url":          project.LinkURL,
		"description":       project.Description,
		"type":              project.Type,
		"categories":        project.Categories,
		"tags":              project.Tags,
		"github_details":    decodeDetails(project.GithubDetails),
		"last_updated":      project.LastUpdated,
		"status":            project.Status,
		"organization_name": project.OrganizationName,
		"api_url":           base + "/api/projects/" + formatID(project.ID),
	}
	if issues != nil {
		out["issues"] = issues
	}
	if organization != nil {
		out["organization"] = organization
	}
	return out
}

// renderIssue always embeds labels. Detail lookups embed the parent project
// (itself rendered without issues) and drop the now-redundant project_id.
func renderIssue(base string, issue store.Issue, labels []store.Label, project map[string]any) map[string]any {
	out := map[string]any{
		"id":       issue.ID,
		"title":    issue.Title,
		"html_url": issue.HTMLURL,
		"body":     issue.Body,
		"labels":   renderLabels(labels),
		"api_url":  base + "/api/issues/" + formatID(issue.ID),
	}
	if project != nil {
		out["project"] = project
	} else {
		out["project_id"] = issue.ProjectID
	}
	return out
}

func renderLabels(labels []store.Label) []map[string]any {
	out := make([]map[string]any, 0, len(labels))
	for _, label := range labels {
		out = append(out, map[string]any{
			"name":  label.Name,
			"color": label.Color,
			"url":   label.URL,
		})
	}
	return out
}

func renderEvent(base string, event store.Event, organization map[string]any) map[string]any {
	out := map[string]any{
		"id":                event.ID,
		"name":              event.Name,
		"description":       event.Description,
		"event_url":         event.EventURL,
		"location":          event.Location,
		"created_at":        event.CreatedAt,
		"organization_name": event.OrganizationName,
		"start_time":        offsetTime(event.StartTime, event.UTCOffset),
		"end_time":          offsetTime(event.EndTime, event.UTCOffset),
		"api_url":           base + "/api/events/" + formatID(event.ID),
	}
	if organization != nil {
		out["organization"] = organization
	}
	return out
}

func renderStory(base string, story store.Story, organization map[string]any) map[string]any {
	out := map[string]any{
		"id":                story.ID,
		"title":             story.Title,
		"link":              story.Link,
		"type":              story.Type,
		"organization_name": story.OrganizationName,
		"api_url":           base + "/api/stories/" + formatID(story.ID),
	}
	if organization != nil {
		out["organization"] = organization
	}
	return out
}

// offsetTime renders a naive timestamp in the wall clock of its stored UTC
// offset (minutes), e.g. "2024-05-04 18:30:00 -0700".
func offsetTime(t *time.Time, offsetMinutes int64) any {
	if t == nil {
		return nil
	}
	zone := time.FixedZone("", int(offsetMinutes)*60)
	local := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, zone)
	return local.Format("2006-01-02 15:04:05 -0700")
}

func decodeDetails(raw []byte) any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return map[string]any{}
	}
	return decoded
}
