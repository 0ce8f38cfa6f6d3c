package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Problem is the RFC 7807 error body returned by every failing endpoint.
// Not to be confused with the CVRP problem instance; the name follows the
// RFC. Type carries a vrpsolve-namespaced URN derived from the title so
// clients can switch on it without parsing the human-readable text.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, title, detail, instance string) {
	writeJSON(w, status, Problem{
		Type:     problemType(title),
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: instance,
	})
}

func problemType(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = strings.ReplaceAll(slug, " ", "-")
	return "urn:vrpsolve:error:" + slug
}
