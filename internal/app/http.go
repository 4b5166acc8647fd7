package app

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"civichub/api/internal/query"
	"civichub/api/internal/search"
)

type searcher interface {
	Search(q search.Query) search.Response
}

type statusChecker interface {
	Check(ctx context.Context) map[string]any
}

type HTTPServer struct {
	service    *Service
	search     searcher
	status     statusChecker
	corsOrigin string
}

func NewHTTPServer(service *Service, searchSvc searcher, statusSvc statusChecker, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, search: searchSvc, status: statusSvc, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	// The API is read-only.
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	if r.URL.Path == "/" {
		http.Redirect(w, r, "/api", http.StatusFound)
		return
	}

	if r.URL.Path == "/api" || r.URL.Path == "/api/" {
		writeJSON(w, http.StatusOK, apiIndex(baseURL(r)))
		return
	}

	if r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{
			"database": map[string]any{"status": "ok"},
		}

		if err := s.service.Ready(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["database"] = map[string]any{
				"status": "error",
				"error":  err.Error(),
			}
		}

		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	if r.URL.Path == "/api/.well-known/status" {
		writeJSON(w, http.StatusOK, s.status.Check(r.Context()))
		return
	}

	if r.URL.Path == "/api/search" {
		s.handleSearch(w, r)
		return
	}

	base := baseURL(r)
	pageURL := base + r.URL.Path

	if r.URL.Path == "/api/organizations.geojson" {
		payload, err := s.service.OrganizationsGeoJSON(r.Context(), base)
		s.respond(w, payload, err)
		return
	}

	parts := splitPath(r.URL.Path)
	if len(parts) < 2 || parts[0] != "api" {
		writeError(w, http.StatusNotFound, "Resource Not Found")
		return
	}

	switch parts[1] {
	case "organizations":
		s.handleOrganizations(w, r, base, pageURL, parts[2:])
		return
	case "projects":
		if len(parts) == 2 {
			payload, err := s.service.ListProjects(r.Context(), base, pageURL, r.URL.Query(), "")
			s.respond(w, payload, err)
			return
		}
		if len(parts) == 3 {
			id, ok := parseID(parts[2])
			if !ok {
				writeError(w, http.StatusNotFound, "Resource Not Found")
				return
			}
			payload, err := s.service.GetProjectDetail(r.Context(), base, id)
			s.respond(w, payload, err)
			return
		}
	case "issues":
		if len(parts) == 2 {
			payload, err := s.service.ListIssues(r.Context(), base, pageURL, r.URL.Query(), "")
			s.respond(w, payload, err)
			return
		}
		if len(parts) == 4 && parts[2] == "labels" {
			payload, err := s.service.ListIssuesByLabels(r.Context(), base, pageURL, r.URL.Query(), "", parts[3])
			s.respond(w, payload, err)
			return
		}
		if len(parts) == 3 {
			id, ok := parseID(parts[2])
			if !ok {
				writeError(w, http.StatusNotFound, "Resource Not Found")
				return
			}
			payload, err := s.service.GetIssueDetail(r.Context(), base, id)
			s.respond(w, payload, err)
			return
		}
	case "events":
		if len(parts) == 2 {
			payload, err := s.service.ListEvents(r.Context(), base, pageURL, r.URL.Query(), "", "")
			s.respond(w, payload, err)
			return
		}
		if len(parts) == 3 && (parts[2] == "upcoming_events" || parts[2] == "past_events") {
			payload, err := s.service.ListEvents(r.Context(), base, pageURL, r.URL.Query(), "", eventWindow(parts[2]))
			s.respond(w, payload, err)
			return
		}
		if len(parts) == 3 {
			id, ok := parseID(parts[2])
			if !ok {
				writeError(w, http.StatusNotFound, "Resource Not Found")
				return
			}
			payload, err := s.service.GetEventDetail(r.Context(), base, id)
			s.respond(w, payload, err)
			return
		}
	case "stories":
		if len(parts) == 2 {
			payload, err := s.service.ListStories(r.Context(), base, pageURL, r.URL.Query(), "")
			s.respond(w, payload, err)
			return
		}
		if len(parts) == 3 {
			id, ok := parseID(parts[2])
			if !ok {
				writeError(w, http.StatusNotFound, "Resource Not Found")
				return
			}
			payload, err := s.service.GetStoryDetail(r.Context(), base, id)
			s.respond(w, payload, err)
			return
		}
	}

	writeError(w, http.StatusNotFound, "Resource Not Found")
}

// handleOrganizations routes everything under /api/organizations; rest holds
// the path segments after "organizations".
func (s *HTTPServer) handleOrganizations(w http.ResponseWriter, r *http.Request, base, pageURL string, rest []string) {
	if len(rest) == 0 {
		payload, err := s.service.ListOrganizations(r.Context(), base, pageURL, r.URL.Query())
		s.respond(w, payload, err)
		return
	}

	orgSlug := rest[0]

	if len(rest) == 1 {
		payload, err := s.service.GetOrganizationDetail(r.Context(), base, orgSlug)
		s.respond(w, payload, err)
		return
	}

	if len(rest) == 2 {
		switch rest[1] {
		case "events", "upcoming_events", "past_events":
			payload, err := s.service.ListEvents(r.Context(), base, pageURL, r.URL.Query(), orgSlug, eventWindow(rest[1]))
			s.respond(w, payload, err)
			return
		case "stories":
			payload, err := s.service.ListStories(r.Context(), base, pageURL, r.URL.Query(), orgSlug)
			s.respond(w, payload, err)
			return
		case "projects":
			payload, err := s.service.ListProjects(r.Context(), base, pageURL, r.URL.Query(), orgSlug)
			s.respond(w, payload, err)
			return
		case "issues":
			payload, err := s.service.ListIssues(r.Context(), base, pageURL, r.URL.Query(), orgSlug)
			s.respond(w, payload, err)
			return
		}
	}

	if len(rest) == 4 && rest[1] == "issues" && rest[2] == "labels" {
		payload, err := s.service.ListIssuesByLabels(r.Context(), base, pageURL, r.URL.Query(), orgSlug, rest[3])
		s.respond(w, payload, err)
		return
	}

	writeError(w, http.StatusNotFound, "Resource Not Found")
}

func (s *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	filterType := strings.TrimSpace(r.URL.Query().Get("type"))
	if filterType != "" && filterType != string(search.ResultOrganization) && filterType != string(search.ResultProject) {
		s.respond(w, nil, domainError(http.StatusBadRequest, "type must be organization or project"))
		return
	}
	limit := 20
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	offset := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("offset")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
			return
		}
		offset = parsed
	}

	writeJSON(w, http.StatusOK, s.search.Search(search.Query{
		Text:       q,
		FilterType: search.ResultType(filterType),
		Limit:      limit,
		Offset:     offset,
	}))
}

func (s *HTTPServer) respond(w http.ResponseWriter, payload any, err error) {
	if err != nil {
		status, message := mapError(err)
		if status == http.StatusInternalServerError {
			log.Printf("request failed: %v", err)
		}
		writeError(w, status, message)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,HEAD,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"status": message})
}

// apiIndex lists the top-level resources so a bare /api request lands on
// something navigable.
func apiIndex(base string) map[string]any {
	return map[string]any{
		"organizations": base + "/api/organizations",
		"projects":      base + "/api/projects",
		"issues":        base + "/api/issues",
		"events":        base + "/api/events",
		"stories":       base + "/api/stories",
		"search":        base + "/api/search",
		"status":        base + "/api/.well-known/status",
	}
}

// baseURL reconstructs the absolute URL prefix of the request so computed
// links survive a TLS-terminating proxy.
func baseURL(r *http.Request) string {
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "http"
		if r.TLS != nil {
			scheme = "https"
		}
	}
	return scheme + "://" + r.Host
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	return id, err == nil
}

func eventWindow(segment string) string {
	switch segment {
	case "upcoming_events":
		return "upcoming"
	case "past_events":
		return "past"
	default:
		return ""
	}
}

func mapError(err error) (int, string) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Message
	}
	if errors.Is(err, sql.ErrNoRows) {
		return http.StatusNotFound, "Resource Not Found"
	}
	var invalidParam query.InvalidParamError
	if errors.As(err, &invalidParam) {
		return http.StatusBadRequest, invalidParam.Error()
	}
	var unknownFilter query.UnknownFilterError
	if errors.As(err, &unknownFilter) {
		return http.StatusBadRequest, unknownFilter.Error()
	}
	if errors.Is(err, query.ErrNoLabels) {
		return http.StatusBadRequest, "No labels given"
	}
	return http.StatusInternalServerError, "Internal Server Error"
}
