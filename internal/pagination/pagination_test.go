package pagination

import "testing"

func TestOptionsNormalize(t *testing.T) {
	tests := []struct {
		name      string
		opts      Options
		wantLimit int
		wantPage  int
	}{
		{"zero values get defaults", Options{}, 10, 1},
		{"negative values get defaults", Options{Limit: -5, Page: -1}, 10, 1},
		{"explicit values kept", Options{Limit: 25, Page: 3}, 25, 3},
		{"limit clamped to max", Options{Limit: 5000, Page: 1}, 100, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := tt.opts.Normalize()
			if n.Limit != tt.wantLimit || n.Page != tt.wantPage {
				t.Errorf("Normalize() = limit %d page %d, want limit %d page %d",
					n.Limit, n.Page, tt.wantLimit, tt.wantPage)
			}
		})
	}
}

func TestOptionsOffset(t *testing.T) {
	if got := (Options{}).Offset(); got != 0 {
		t.Errorf("default offset = %d, want 0", got)
	}
	if got := (Options{Limit: 20, Page: 3}).Offset(); got != 40 {
		t.Errorf("offset for page 3 limit 20 = %d, want 40", got)
	}
}

func TestResolveSort(t *testing.T) {
	allowed := map[string]string{
		"createdAt": "created_at",
		"price":     "price",
	}
	def := Sort{Column: "created_at", Desc: true}

	tests := []struct {
		name   string
		sortBy string
		want   Sort
	}{
		{"empty token falls back to default", "", def},
		{"unknown field falls back to default", "secret_column:asc", def},
		{"known field ascending", "price:asc", Sort{Column: "price", Desc: false}},
		{"known field descending", "price:desc", Sort{Column: "price", Desc: true}},
		{"missing direction means ascending", "createdAt", Sort{Column: "created_at", Desc: false}},
		{"direction is case insensitive", "price:DESC", Sort{Column: "price", Desc: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveSort(tt.sortBy, allowed, def)
			if got != tt.want {
				t.Errorf("ResolveSort(%q) = %+v, want %+v", tt.sortBy, got, tt.want)
			}
		})
	}
}

func TestSortOrderBy(t *testing.T) {
	if got := (Sort{Column: "created_at", Desc: true}).OrderBy(); got != "created_at DESC, id DESC" {
		t.Errorf("OrderBy() = %q", got)
	}
	if got := (Sort{Column: "price"}).OrderBy(); got != "price ASC, id ASC" {
		t.Errorf("OrderBy() = %q", got)
	}
}

func TestNewPage(t *testing.T) {
	t.Run("rounds total pages up", func(t *testing.T) {
		p := NewPage([]int{1, 2, 3}, 23, Options{Limit: 10, Page: 1})
		if p.TotalPages != 3 {
			t.Errorf("TotalPages = %d, want 3", p.TotalPages)
		}
		if p.TotalResults != 23 {
			t.Errorf("TotalResults = %d, want 23", p.TotalResults)
		}
	})

	t.Run("exact division", func(t *testing.T) {
		p := NewPage([]int{}, 20, Options{Limit: 10, Page: 2})
		if p.TotalPages != 2 {
			t.Errorf("TotalPages = %d, want 2", p.TotalPages)
		}
	})

	t.Run("nil results become empty slice", func(t *testing.T) {
		p := NewPage[int](nil, 0, Options{})
		if p.Results == nil {
			t.Error("expected non-nil results slice")
		}
		if p.TotalPages != 0 {
			t.Errorf("TotalPages = %d, want 0", p.TotalPages)
		}
	})
}
