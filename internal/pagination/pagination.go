// Package pagination turns a sortBy/limit/page triple from the query
// string into a deterministic paged fetch. It is shared by the listings
// and orders repositories.
package pagination

import "strings"

const (
	DefaultLimit = 10
	DefaultPage  = 1
	MaxLimit     = 100
)

// Options carries the raw paging inputs. SortBy uses a "field:direction"
// token, e.g. "price:asc" or "created_at:desc".
type Options struct {
	SortBy string
	Limit  int
	Page   int
}

// Normalize applies the defaults and clamps the limit.
func (o Options) Normalize() Options {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Limit > MaxLimit {
		o.Limit = MaxLimit
	}
	if o.Page <= 0 {
		o.Page = DefaultPage
	}
	return o
}

// Offset is the row offset for the normalized page.
func (o Options) Offset() int {
	n := o.Normalize()
	return (n.Page - 1) * n.Limit
}

// Sort is a resolved sort column and direction.
type Sort struct {
	Column string
	Desc   bool
}

// ResolveSort maps the sortBy token onto a whitelisted column. Unknown
// fields and empty tokens fall back to def, so a caller can never inject
// arbitrary SQL through sortBy.
func ResolveSort(sortBy string, allowed map[string]string, def Sort) Sort {
	field, direction, _ := strings.Cut(sortBy, ":")
	column, ok := allowed[field]
	if !ok {
		return def
	}
	return Sort{Column: column, Desc: strings.EqualFold(direction, "desc")}
}

// OrderBy renders the sort as a SQL ORDER BY expression, with id as a
// tiebreaker so identical inputs against an unchanged data set always
// return identical ordering.
func (s Sort) OrderBy() string {
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	return s.Column + " " + dir + ", id " + dir
}

// Page is one page of results plus the paging envelope.
type Page[T any] struct {
	Results      []T `json:"results"`
	Page         int `json:"page"`
	Limit        int `json:"limit"`
	TotalPages   int `json:"totalPages"`
	TotalResults int `json:"totalResults"`
}

// NewPage builds the envelope for results fetched with opts against a
// total row count.
func NewPage[T any](results []T, total int, opts Options) Page[T] {
	n := opts.Normalize()
	if results == nil {
		results = []T{}
	}
	totalPages := total / n.Limit
	if total%n.Limit != 0 {
		totalPages++
	}
	return Page[T]{
		Results:      results,
		Page:         n.Page,
		Limit:        n.Limit,
		TotalPages:   totalPages,
		TotalResults: total,
	}
}
