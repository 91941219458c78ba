// Package query translates URL query-string syntax into store-agnostic
// shaped queries: field filters with comparison suffixes, sorting, field
// selection and pagination.
//
// Reserved keys are select, sort, page and limit. Every other key must name
// a whitelisted filter field, optionally carrying a comparison suffix:
//
//	?averageCost[lte]=10000&careers[in]=Business,UI/UX&sort=-createdAt&page=2&limit=10
//
// Keys outside the whitelist are dropped rather than rejected, matching the
// permissive behavior of the public list endpoints.
package query

import (
	"strconv"
	"strings"

	"github.com/campstack/campstack/internal/repository"
)

// Pagination defaults.
const (
	DefaultPage  = 1
	DefaultLimit = 25
)

// reserved query keys stripped before filter construction.
var reserved = map[string]bool{
	"select":   true,
	"sort":     true,
	"page":     true,
	"limit":    true,
	"populate": true,
}

// suffix operators rewritten into store comparison operators.
var operators = map[string]repository.FilterOp{
	"gt":  repository.OpGt,
	"gte": repository.OpGte,
	"lt":  repository.OpLt,
	"lte": repository.OpLte,
	"in":  repository.OpIn,
}

// Shaped is the full result of parsing a query string: the store query plus
// the serialization directives that apply after the store returns.
type Shaped struct {
	Query repository.ShapedQuery

	// Select lists the field names to project in the response. Empty means
	// every field.
	Select []string

	// Populate lists the relation names to attach to each record.
	Populate []string
}

// Shape parses raw query parameters against a whitelist of json field name to
// column mappings. createdAt descending is the default sort.
func Shape(values map[string][]string, fields map[string]string) Shaped {
	shaped := Shaped{
		Query: repository.ShapedQuery{
			Page:  DefaultPage,
			Limit: DefaultLimit,
		},
	}

	for key, vals := range values {
		if len(vals) == 0 || reserved[key] {
			continue
		}
		field, op := splitOperator(key)
		column, ok := fields[field]
		if !ok {
			continue
		}
		filter := repository.Filter{Column: column, Op: op}
		if op == repository.OpIn {
			filter.Values = splitList(vals[0])
		} else {
			filter.Values = []string{vals[0]}
		}
		if len(filter.Values) == 0 {
			continue
		}
		shaped.Query.Filters = append(shaped.Query.Filters, filter)
	}

	shaped.Query.Sort = parseSort(first(values, "sort"), fields)

	if page, err := strconv.Atoi(first(values, "page")); err == nil && page > 0 {
		shaped.Query.Page = page
	}
	if limit, err := strconv.Atoi(first(values, "limit")); err == nil && limit > 0 {
		shaped.Query.Limit = limit
	}

	// select is applied to the serialized records, not the store query, so
	// any json field name is accepted.
	shaped.Select = splitList(first(values, "select"))
	if pop := first(values, "populate"); pop != "" {
		shaped.Populate = splitList(pop)
	}

	return shaped
}

// splitOperator separates "field[op]" into its parts. A key without a suffix
// (or with an unknown suffix) is an equality filter.
func splitOperator(key string) (string, repository.FilterOp) {
	open := strings.IndexByte(key, '[')
	if open <= 0 || !strings.HasSuffix(key, "]") {
		return key, repository.OpEq
	}
	op, ok := operators[key[open+1:len(key)-1]]
	if !ok {
		return key, repository.OpEq
	}
	return key[:open], op
}

func parseSort(raw string, fields map[string]string) []repository.Sort {
	var sorts []repository.Sort
	for _, term := range splitList(raw) {
		desc := strings.HasPrefix(term, "-")
		name := strings.TrimPrefix(term, "-")
		column, ok := fields[name]
		if !ok {
			continue
		}
		sorts = append(sorts, repository.Sort{Column: column, Descending: desc})
	}
	if len(sorts) == 0 {
		// Default sort: creation time descending.
		sorts = []repository.Sort{{Column: "created_at", Descending: true}}
	}
	return sorts
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func first(values map[string][]string, key string) string {
	if vals := values[key]; len(vals) > 0 {
		return vals[0]
	}
	return ""
}
