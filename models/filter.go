package models

import (
	"net/url"
	"strconv"
)

const (
	DefaultLimit     = 10
	DefaultSortOrder = "asc"
	AllTags          = "all"
)

type Source int

const (
	SourceList Source = iota
	SourceSearch
	SourceTag
)

// PostFilter is the post table state carried in the console URL:
// search, tag, limit, skip, sortBy and sortOrder.
type PostFilter struct {
	Search    string `json:"search,omitempty"`
	Tag       string `json:"tag,omitempty"`
	Limit     int    `json:"limit"`
	Skip      int    `json:"skip"`
	SortBy    string `json:"sortBy,omitempty"`
	SortOrder string `json:"sortOrder"`
}

func ParsePostFilter(values url.Values) PostFilter {
	f := PostFilter{
		Search:    values.Get("search"),
		Tag:       values.Get("tag"),
		Limit:     DefaultLimit,
		SortBy:    values.Get("sortBy"),
		SortOrder: values.Get("sortOrder"),
	}
	if n, err := strconv.Atoi(values.Get("limit")); err == nil && n > 0 {
		f.Limit = n
	}
	if n, err := strconv.Atoi(values.Get("skip")); err == nil && n >= 0 {
		f.Skip = n
	}
	if f.SortOrder == "" {
		f.SortOrder = DefaultSortOrder
	}
	return f
}

// Encode drops empty values so the resulting query string stays minimal.
func (f PostFilter) Encode() url.Values {
	values := url.Values{}
	set := func(key, value string) {
		if value != "" {
			values.Set(key, value)
		}
	}
	set("search", f.Search)
	set("tag", f.Tag)
	set("limit", strconv.Itoa(f.Limit))
	set("skip", strconv.Itoa(f.Skip))
	set("sortBy", f.SortBy)
	set("sortOrder", f.SortOrder)
	return values
}

// WithTag switches the tag filter and returns to the first page.
func (f PostFilter) WithTag(tag string) PostFilter {
	f.Tag = tag
	f.Skip = 0
	return f
}

func (f PostFilter) WithSearch(search string) PostFilter {
	f.Search = search
	return f
}

func (f PostFilter) WithPage(skip int) PostFilter {
	if skip < 0 {
		skip = 0
	}
	f.Skip = skip
	return f
}

func (f PostFilter) WithLimit(limit int) PostFilter {
	if limit > 0 {
		f.Limit = limit
	}
	return f
}

func (f PostFilter) TagActive() bool {
	return f.Tag != "" && f.Tag != AllTags
}

// Source reports which query feeds the table. A search wins over a tag.
func (f PostFilter) Source() Source {
	switch {
	case f.Search != "":
		return SourceSearch
	case f.TagActive():
		return SourceTag
	default:
		return SourceList
	}
}

func (f PostFilter) ListFilter() ListFilter {
	return ListFilter{
		Limit:     f.Limit,
		Skip:      f.Skip,
		SortBy:    f.SortBy,
		SortOrder: f.SortOrder,
	}
}

type Pagination struct {
	Limit int `json:"limit"`
	Skip  int `json:"skip"`
	Total int `json:"total"`
}

func (p Pagination) Page() int {
	if p.Limit <= 0 {
		return 0
	}
	return p.Skip / p.Limit
}

func (p Pagination) IsFirstPage() bool {
	return p.Page() == 0
}

func (p Pagination) IsLastPage() bool {
	return p.Skip+p.Limit >= p.Total
}

func (p Pagination) PrevSkip() int {
	if p.IsFirstPage() {
		return p.Skip
	}
	return max(0, p.Skip-p.Limit)
}

func (p Pagination) NextSkip() int {
	if p.IsLastPage() {
		return p.Skip
	}
	return p.Skip + p.Limit
}
