// Package listing derives the visible slice of a fetched collection: search,
// filter, sort, then paginate. Inputs are never modified.
package listing

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
)

const DefaultPerPage = 10

type Query struct {
	Search  string
	Filter  string
	Sort    string
	Desc    bool
	Page    int
	PerPage int
}

// Fields describes how a T is searched, grouped and ordered.
type Fields[T any] struct {
	Text  func(T) []string
	Group func(T) string
	Sorts map[string]func(a, b T) int
}

type Page[T any] struct {
	Items   []T
	Page    int
	Pages   int
	Total   int
	PerPage int
	Query   Query
}

func (p Page[T]) HasPrev() bool { return p.Page > 1 }
func (p Page[T]) HasNext() bool { return p.Page < p.Pages }

func Apply[T any](items []T, q Query, f Fields[T]) Page[T] {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	filter := strings.TrimSpace(q.Filter)

	out := make([]T, 0, len(items))
	for _, it := range items {
		if filter != "" && f.Group != nil && !strings.EqualFold(f.Group(it), filter) {
			continue
		}
		if search != "" && f.Text != nil && !matches(f.Text(it), search) {
			continue
		}
		out = append(out, it)
	}

	if cmp, ok := f.Sorts[q.Sort]; ok {
		slices.SortStableFunc(out, func(a, b T) int {
			if q.Desc {
				return cmp(b, a)
			}
			return cmp(a, b)
		})
	}

	per := q.PerPage
	if per < 1 {
		per = DefaultPerPage
	}
	pages := (len(out) + per - 1) / per
	if pages < 1 {
		pages = 1
	}
	page := min(max(q.Page, 1), pages)

	start := min((page-1)*per, len(out))
	end := min(start+per, len(out))

	q.Page, q.PerPage = page, per
	return Page[T]{
		Items:   out[start:end],
		Page:    page,
		Pages:   pages,
		Total:   len(out),
		PerPage: per,
		Query:   q,
	}
}

func matches(fields []string, needle string) bool {
	for _, s := range fields {
		if strings.Contains(strings.ToLower(s), needle) {
			return true
		}
	}
	return false
}

// FromValues reads q, filter, sort, dir and page.
func FromValues(v url.Values) Query {
	page, _ := strconv.Atoi(v.Get("page"))
	return Query{
		Search: v.Get("q"),
		Filter: v.Get("filter"),
		Sort:   v.Get("sort"),
		Desc:   v.Get("dir") == "desc",
		Page:   page,
	}
}

// Values is the inverse of FromValues, with page replaced.
func (q Query) Values(page int) url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("q", q.Search)
	}
	if q.Filter != "" {
		v.Set("filter", q.Filter)
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Desc {
		v.Set("dir", "desc")
	}
	if page > 1 {
		v.Set("page", strconv.Itoa(page))
	}
	return v
}
