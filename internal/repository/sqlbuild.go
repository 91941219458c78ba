package repository

import (
	"fmt"
	"strconv"
	"strings"
)

// PlaceholderStyle selects the SQL parameter syntax of the target driver.
type PlaceholderStyle int

const (
	// Question is SQLite's "?" placeholder.
	Question PlaceholderStyle = iota

	// Dollar is PostgreSQL's "$1" placeholder.
	Dollar
)

func (s PlaceholderStyle) placeholder(n int) string {
	if s == Dollar {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// BuildWhere renders the filters of a shaped query into a WHERE fragment and
// its arguments. The fragment is empty when no filters apply. Placeholder
// numbering starts at argOffset+1 (for queries that bind arguments before
// the filter block).
func BuildWhere(q ShapedQuery, style PlaceholderStyle, argOffset int) (string, []any) {
	if len(q.Filters) == 0 {
		return "", nil
	}

	var (
		conds []string
		args  []any
	)
	n := argOffset
	for _, f := range q.Filters {
		// careers holds a json array; filter by containment rather than
		// scalar comparison.
		if f.Column == "careers" {
			var sub []string
			for _, v := range f.Values {
				n++
				sub = append(sub, fmt.Sprintf("careers LIKE '%%' || %s || '%%'", style.placeholder(n)))
				args = append(args, v)
			}
			conds = append(conds, "("+strings.Join(sub, " OR ")+")")
			continue
		}

		switch f.Op {
		case OpIn:
			var ph []string
			for _, v := range f.Values {
				n++
				ph = append(ph, style.placeholder(n))
				args = append(args, CoerceValue(v))
			}
			conds = append(conds, fmt.Sprintf("%s IN (%s)", f.Column, strings.Join(ph, ", ")))
		default:
			n++
			conds = append(conds, fmt.Sprintf("%s %s %s", f.Column, sqlOperator(f.Op), style.placeholder(n)))
			args = append(args, CoerceValue(f.Values[0]))
		}
	}

	return "WHERE " + strings.Join(conds, " AND "), args
}

// BuildOrderBy renders the sort terms of a shaped query. Columns come from
// the query package's whitelists, never from raw client input.
func BuildOrderBy(q ShapedQuery) string {
	if len(q.Sort) == 0 {
		return ""
	}
	terms := make([]string, 0, len(q.Sort))
	for _, s := range q.Sort {
		dir := "ASC"
		if s.Descending {
			dir = "DESC"
		}
		terms = append(terms, s.Column+" "+dir)
	}
	return "ORDER BY " + strings.Join(terms, ", ")
}

func sqlOperator(op FilterOp) string {
	switch op {
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	default:
		return "="
	}
}

// CoerceValue converts a query-string value to the narrowest Go type so the
// driver binds numbers and booleans with the right affinity. PostgreSQL in
// particular will not compare a text parameter against a numeric column.
func CoerceValue(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if s == "true" || s == "false" {
		return s == "true"
	}
	return s
}
