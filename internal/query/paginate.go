package query

import "encoding/json"

// PageLink points at an adjacent page of a shaped list.
type PageLink struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Pagination carries links to the pages adjacent to the returned one.
// A link is present only when that page actually holds records.
type Pagination struct {
	Prev *PageLink `json:"prev,omitempty"`
	Next *PageLink `json:"next,omitempty"`
}

// Paginate computes the prev/next links for a page window over total records.
// Returns nil when neither link exists.
func Paginate(total int64, page, limit int) *Pagination {
	if page < 1 || limit < 1 {
		return nil
	}

	var p Pagination
	// The previous page exists when we are past page one and its window
	// starts before the end of the record set.
	if page > 1 && int64(page-2)*int64(limit) < total {
		p.Prev = &PageLink{Page: page - 1, Limit: limit}
	}
	// The next page exists when records remain beyond this window.
	if int64(page)*int64(limit) < total {
		p.Next = &PageLink{Page: page + 1, Limit: limit}
	}

	if p.Prev == nil && p.Next == nil {
		return nil
	}
	return &p
}

// Project reduces a record to the selected json fields. The identity field is
// always retained. Records pass through a json round-trip so the projection
// sees the same names the client does.
func Project(record any, fields []string) (map[string]any, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	var full map[string]any
	if err := json.Unmarshal(raw, &full); err != nil {
		return nil, err
	}

	keep := map[string]bool{"id": true}
	for _, f := range fields {
		keep[f] = true
	}
	for key := range full {
		if !keep[key] {
			delete(full, key)
		}
	}
	return full, nil
}
