package store

import (
	"fmt"
	"strings"
)

const (
	defaultPageLimit = 10
	defaultPageNum   = 1
)

// PageOptions controls paginated listing. SortBy takes the form
// "field:asc|desc", with multiple criteria separated by commas. Populate
// requests expansion of related entities by dot-separated paths.
type PageOptions struct {
	SortBy   string
	Limit    int
	Page     int
	Populate string
}

// Page is one page of results plus pagination metadata.
type Page[T any] struct {
	Results      []T `json:"results"`
	Page         int `json:"page"`
	Limit        int `json:"limit"`
	TotalPages   int `json:"totalPages"`
	TotalResults int `json:"totalResults"`
}

// limit clamps the requested page size to a positive integer, defaulting to 10.
func (o PageOptions) limit() int {
	if o.Limit > 0 {
		return o.Limit
	}
	return defaultPageLimit
}

// page clamps the requested page number to a positive integer, defaulting to 1.
func (o PageOptions) page() int {
	if o.Page > 0 {
		return o.Page
	}
	return defaultPageNum
}

func (o PageOptions) offset() int {
	return (o.page() - 1) * o.limit()
}

// orderBy renders the SortBy string into an ORDER BY clause. Fields are
// resolved through the allowed column map so callers cannot inject arbitrary
// SQL; unknown fields are skipped. The zero SortBy sorts by creation order.
func (o PageOptions) orderBy(allowed map[string]string, fallback string) string {
	if o.SortBy == "" {
		return fallback
	}
	var criteria []string
	for _, part := range strings.Split(o.SortBy, ",") {
		key, order, _ := strings.Cut(strings.TrimSpace(part), ":")
		column, ok := allowed[key]
		if !ok {
			continue
		}
		direction := "ASC"
		if order == "desc" {
			direction = "DESC"
		}
		criteria = append(criteria, fmt.Sprintf("%s %s", column, direction))
	}
	if len(criteria) == 0 {
		return fallback
	}
	return strings.Join(criteria, ", ")
}

// qualify prefixes each column in a comma-separated list with its table name.
func qualify(table, columns string) string {
	parts := strings.Split(columns, ", ")
	for i := range parts {
		parts[i] = table + "." + parts[i]
	}
	return strings.Join(parts, ", ")
}

// newPage assembles a Page from one query's worth of rows and the total count.
func newPage[T any](results []T, totalResults int, opts PageOptions) Page[T] {
	limit := opts.limit()
	totalPages := (totalResults + limit - 1) / limit
	if results == nil {
		results = []T{}
	}
	return Page[T]{
		Results:      results,
		Page:         opts.page(),
		Limit:        limit,
		TotalPages:   totalPages,
		TotalResults: totalResults,
	}
}
