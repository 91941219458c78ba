package query

import "testing"

func TestPaginate(t *testing.T) {
	tests := []struct {
		name     string
		total    int64
		page     int
		limit    int
		wantPrev int // 0 means absent
		wantNext int
	}{
		{name: "single page", total: 5, page: 1, limit: 25},
		{name: "first of many", total: 60, page: 1, limit: 25, wantNext: 2},
		{name: "middle page", total: 60, page: 2, limit: 25, wantPrev: 1, wantNext: 3},
		{name: "last page", total: 60, page: 3, limit: 25, wantPrev: 2},
		{name: "exact boundary", total: 50, page: 2, limit: 25, wantPrev: 1},
		{name: "page just past data", total: 10, page: 2, limit: 25, wantPrev: 1},
		{name: "page far beyond data", total: 10, page: 5, limit: 25},
		{name: "empty set", total: 0, page: 1, limit: 25},
		{name: "invalid page", total: 10, page: 0, limit: 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paginate(tt.total, tt.page, tt.limit)

			gotPrev, gotNext := 0, 0
			if p != nil && p.Prev != nil {
				gotPrev = p.Prev.Page
			}
			if p != nil && p.Next != nil {
				gotNext = p.Next.Page
			}

			if gotPrev != tt.wantPrev {
				t.Errorf("Prev = %d, want %d", gotPrev, tt.wantPrev)
			}
			if gotNext != tt.wantNext {
				t.Errorf("Next = %d, want %d", gotNext, tt.wantNext)
			}
		})
	}
}

func TestProject(t *testing.T) {
	type record struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Cost int    `json:"cost"`
	}

	got, err := Project(record{ID: "abc", Name: "x", Cost: 9}, []string{"name"})
	if err != nil {
		t.Fatalf("Project() error = %v", err)
	}

	if got["id"] != "abc" || got["name"] != "x" {
		t.Errorf("Project() = %v, want id and name retained", got)
	}
	if _, ok := got["cost"]; ok {
		t.Errorf("Project() retained unselected field cost")
	}
}
