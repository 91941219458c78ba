// Package handler provides the HTTP layer for the Campstack API: the chi
// router, one handler per resource, the response envelope and the error
// normalizer.
package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/campstack/campstack/internal/domain"
	"github.com/campstack/campstack/internal/query"
)

// envelope is the uniform response body. Every success carries Data; list
// responses add Count and, when adjacent pages exist, Pagination.
type envelope struct {
	Success    bool              `json:"success"`
	Count      *int              `json:"count,omitempty"`
	Pagination *query.Pagination `json:"pagination,omitempty"`
	Data       any               `json:"data"`
}

// respond writes a success envelope.
func respond(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

// respondList writes a success envelope with a count and optional pagination
// links.
func respondList(w http.ResponseWriter, data any, count int, pagination *query.Pagination) {
	writeJSON(w, http.StatusOK, envelope{
		Success:    true,
		Count:      &count,
		Pagination: pagination,
		Data:       data,
	})
}

// writeError writes a failure envelope. message is a string or, for
// validation failures, a list of strings.
func writeError(w http.ResponseWriter, status int, message any) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   message,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// pathID parses a uuid route parameter. A malformed id reads as a missing
// resource, not a client error.
func pathID(r *http.Request, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: resource id %q", domain.ErrNotFound, chi.URLParam(r, param))
	}
	return id, nil
}

func hasPopulate(populate []string, name string) bool {
	for _, p := range populate {
		if p == name {
			return true
		}
	}
	return false
}

// recordMap renders a record as the json object the client will see,
// projected when fields are selected.
func recordMap(record any, fields []string) (map[string]any, error) {
	if len(fields) > 0 {
		return query.Project(record, fields)
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	var full map[string]any
	if err := json.Unmarshal(raw, &full); err != nil {
		return nil, err
	}
	return full, nil
}

// projectRecords applies a select projection to a slice of records. An empty
// field list passes the records through untouched.
func projectRecords[T any](items []*T, fields []string) (any, error) {
	if len(fields) == 0 {
		return items, nil
	}
	projected := make([]map[string]any, 0, len(items))
	for _, item := range items {
		p, err := query.Project(item, fields)
		if err != nil {
			return nil, err
		}
		projected = append(projected, p)
	}
	return projected, nil
}
