package utils

import (
	"net/http"
	"strconv"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// Page holds parsed ?page=&limit= values. Enabled is false when neither was given.
type Page struct {
	Page    int
	Limit   int
	Enabled bool
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// ParsePage reads page and limit from the query string, clamping bad values.
func ParsePage(r *http.Request) Page {
	q := r.URL.Query()
	p := Page{Page: 1, Limit: defaultPageSize}
	if v := q.Get("page"); v != "" {
		p.Enabled = true
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.Page = n
		}
	}
	if v := q.Get("limit"); v != "" {
		p.Enabled = true
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.Limit = n
		}
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
	return p
}
