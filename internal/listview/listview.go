// Package listview filters, sorts and pages in-memory record lists the way
// the portal screens present them.
package listview

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// AllValues is the filter value meaning "no filter".
const AllValues = "All"

// Direction of a sort.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// EmptyReason explains why a result has no items.
type EmptyReason string

const (
	NoData  EmptyReason = "no_data"
	NoMatch EmptyReason = "no_match"
)

// Record is anything a view can filter and sort.
type Record interface {
	ListID() string
	// FieldValue returns a string, time.Time, int, int64, float64, bool or nil.
	FieldValue(name string) any
}

// Sort is the active sort field and direction.
type Sort struct {
	Field     string    `json:"field"`
	Direction Direction `json:"direction"`
}

// Toggle flips direction when field is already active; a new field starts descending.
func (s Sort) Toggle(field string) Sort {
	if s.Field == field {
		if s.Direction == Desc {
			return Sort{Field: field, Direction: Asc}
		}
		return Sort{Field: field, Direction: Desc}
	}
	return Sort{Field: field, Direction: Desc}
}

// Query is the user's current search state.
type Query struct {
	Text    string
	Filters map[string]string
	Sort    Sort
	Page    int
	PerPage int
}

// View configures which fields a record type exposes to search, filters and sort.
type View struct {
	TextFields   []string
	FilterFields []string
	SortFields   []string
	DefaultSort  Sort
}

// Result is one page of matching items.
type Result[T Record] struct {
	Items       []T         `json:"items"`
	Total       int         `json:"total"`
	Matched     int         `json:"matched"`
	Page        int         `json:"page"`
	PerPage     int         `json:"per_page"`
	Sort        Sort        `json:"sort"`
	EmptyReason EmptyReason `json:"empty_reason,omitempty"`
}

// ParseQuery reads q, sort, dir, toggle, page, per_page and any configured
// filter keys from query-string values.
func (v View) ParseQuery(values url.Values) Query {
	q := Query{
		Text:    strings.TrimSpace(values.Get("q")),
		Filters: map[string]string{},
		Sort:    Sort{Field: values.Get("sort"), Direction: Direction(strings.ToLower(values.Get("dir")))},
	}
	for _, f := range v.FilterFields {
		if val := strings.TrimSpace(values.Get(f)); val != "" {
			q.Filters[f] = val
		}
	}
	if toggle := values.Get("toggle"); toggle != "" {
		q.Sort = q.Sort.Toggle(toggle)
	}
	q.Page, _ = strconv.Atoi(values.Get("page"))
	q.PerPage, _ = strconv.Atoi(values.Get("per_page"))
	return q
}

// Apply filters, sorts and pages items. The input slice is not modified.
func Apply[T Record](v View, items []T, q Query) Result[T] {
	s := v.resolveSort(q.Sort)
	text := strings.ToLower(strings.TrimSpace(q.Text))

	matched := make([]T, 0, len(items))
	for _, it := range items {
		if v.matchesText(it, text) && v.matchesFilters(it, q.Filters) {
			matched = append(matched, it)
		}
	}

	if s.Field != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			c := compare(matched[i].FieldValue(s.Field), matched[j].FieldValue(s.Field))
			if s.Direction == Asc {
				return c < 0
			}
			return c > 0
		})
	}

	res := Result[T]{Total: len(items), Matched: len(matched), Sort: s}
	switch {
	case len(items) == 0:
		res.EmptyReason = NoData
	case len(matched) == 0:
		res.EmptyReason = NoMatch
	}

	res.Items = matched
	if q.PerPage > 0 {
		page := max(q.Page, 1)
		perPage := min(q.PerPage, 100)
		start := min((page-1)*perPage, len(matched))
		end := min(start+perPage, len(matched))
		res.Items = matched[start:end]
		res.Page, res.PerPage = page, perPage
	}
	return res
}

// Detail finds an item by id among already-fetched items.
func Detail[T Record](items []T, id string) (T, bool) {
	for _, it := range items {
		if it.ListID() == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

func (v View) resolveSort(s Sort) Sort {
	if s.Field == "" || !contains(v.SortFields, s.Field) {
		return v.DefaultSort
	}
	if s.Direction != Asc {
		s.Direction = Desc
	}
	return s
}

func (v View) matchesText(it Record, text string) bool {
	if text == "" {
		return true
	}
	for _, f := range v.TextFields {
		if strings.Contains(strings.ToLower(stringify(it.FieldValue(f))), text) {
			return true
		}
	}
	return false
}

func (v View) matchesFilters(it Record, filters map[string]string) bool {
	for field, want := range filters {
		if want == "" || strings.EqualFold(want, AllValues) || !contains(v.FilterFields, field) {
			continue
		}
		if !strings.EqualFold(stringify(it.FieldValue(field)), want) {
			return false
		}
	}
	return true
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}

// compare orders nil first, then by the natural order of the value type.
// Mixed types fall back to their string forms.
func compare(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}

	switch x := a.(type) {
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	case int:
		if y, ok := b.(int); ok {
			return cmpOrdered(x, y)
		}
	case int64:
		if y, ok := b.(int64); ok {
			return cmpOrdered(x, y)
		}
	case float64:
		if y, ok := b.(float64); ok {
			return cmpOrdered(x, y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			default:
				return 1
			}
		}
	}
	return strings.Compare(strings.ToLower(stringify(a)), strings.ToLower(stringify(b)))
}

func cmpOrdered[N int | int64 | float64](a, b N) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
