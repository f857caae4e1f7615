package listing

import (
	"cmp"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

type dish struct {
	ID       int
	Name     string
	Category string
	Price    int
}

var dishFields = Fields[dish]{
	Text:  func(d dish) []string { return []string{d.Name} },
	Group: func(d dish) string { return d.Category },
	Sorts: map[string]func(a, b dish) int{
		"price": func(a, b dish) int { return cmp.Compare(a.Price, b.Price) },
		"name":  func(a, b dish) int { return cmp.Compare(a.Name, b.Name) },
	},
}

var menu = []dish{
	{1, "Pad Thai", "noodles", 60},
	{2, "Tom Yum", "soup", 90},
	{3, "Pad See Ew", "noodles", 60},
	{4, "Green Curry", "curry", 80},
	{5, "Khao Soi", "noodles", 75},
}

func ids(ds []dish) []int {
	out := make([]int, len(ds))
	for i, d := range ds {
		out[i] = d.ID
	}
	return out
}

func TestApply(t *testing.T) {
	tests := []struct {
		name  string
		q     Query
		want  []int
		total int
		pages int
		page  int
	}{
		{name: "everything", q: Query{}, want: []int{1, 2, 3, 4, 5}, total: 5, pages: 1, page: 1},
		{name: "search is case insensitive", q: Query{Search: "  PAD "}, want: []int{1, 3}, total: 2, pages: 1, page: 1},
		{name: "filter", q: Query{Filter: "Noodles"}, want: []int{1, 3, 5}, total: 3, pages: 1, page: 1},
		{name: "sort is stable", q: Query{Sort: "price"}, want: []int{1, 3, 5, 4, 2}, total: 5, pages: 1, page: 1},
		{name: "sort desc", q: Query{Sort: "price", Desc: true}, want: []int{2, 4, 5, 1, 3}, total: 5, pages: 1, page: 1},
		{name: "unknown sort keeps order", q: Query{Sort: "calories"}, want: []int{1, 2, 3, 4, 5}, total: 5, pages: 1, page: 1},
		{name: "second page", q: Query{Sort: "name", Page: 2, PerPage: 2}, want: []int{3, 1}, total: 5, pages: 3, page: 2},
		{name: "page clamped high", q: Query{Page: 9, PerPage: 2}, want: []int{5}, total: 5, pages: 3, page: 3},
		{name: "page clamped low", q: Query{Page: -3, PerPage: 2}, want: []int{1, 2}, total: 5, pages: 3, page: 1},
		{name: "no match", q: Query{Search: "pizza"}, want: []int{}, total: 0, pages: 1, page: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Apply(menu, tt.q, dishFields)
			assert.Equal(t, tt.want, ids(p.Items))
			assert.Equal(t, tt.total, p.Total)
			assert.Equal(t, tt.pages, p.Pages)
			assert.Equal(t, tt.page, p.Page)
		})
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	in := append([]dish(nil), menu...)
	Apply(in, Query{Sort: "price", Desc: true}, dishFields)
	assert.Equal(t, menu, in)
}

func TestPage_Navigation(t *testing.T) {
	p := Apply(menu, Query{Page: 2, PerPage: 2}, dishFields)
	assert.True(t, p.HasPrev())
	assert.True(t, p.HasNext())

	p = Apply(menu, Query{PerPage: 10}, dishFields)
	assert.False(t, p.HasPrev())
	assert.False(t, p.HasNext())
}

func TestQueryValuesRoundTrip(t *testing.T) {
	v := url.Values{"q": {"pad"}, "filter": {"noodles"}, "sort": {"price"}, "dir": {"desc"}, "page": {"2"}}
	q := FromValues(v)
	assert.Equal(t, Query{Search: "pad", Filter: "noodles", Sort: "price", Desc: true, Page: 2}, q)
	assert.Equal(t, "dir=desc&filter=noodles&page=3&q=pad&sort=price", q.Values(3).Encode())
	assert.Equal(t, "", Query{}.Values(1).Encode())
}
