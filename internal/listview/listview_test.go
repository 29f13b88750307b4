package listview

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID       string
	Title    string
	Location string
	Status   string
	Date     time.Time
	Votes    int
}

func (i item) ListID() string { return i.ID }

func (i item) FieldValue(name string) any {
	switch name {
	case "id":
		return i.ID
	case "title":
		return i.Title
	case "location":
		return i.Location
	case "status":
		return i.Status
	case "date":
		return i.Date
	case "votes":
		return i.Votes
	}
	return nil
}

var view = View{
	TextFields:   []string{"title", "id", "location"},
	FilterFields: []string{"status"},
	SortFields:   []string{"date", "title", "votes"},
	DefaultSort:  Sort{Field: "date", Direction: Desc},
}

func day(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }

func fixtures() []item {
	return []item{
		{ID: "LF-001", Title: "Blue Backpack", Location: "Library", Status: "Pending", Date: day(3), Votes: 2},
		{ID: "LF-002", Title: "Calculator", Location: "Lab 2", Status: "Found", Date: day(1), Votes: 5},
		{ID: "LF-003", Title: "ID Card", Location: "Canteen", Status: "Pending", Date: day(2), Votes: 2},
	}
}

func ids(items []item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestApplyTextAndFilter(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{name: "no query returns all by date desc", query: Query{}, want: []string{"LF-001", "LF-003", "LF-002"}},
		{name: "text is case-insensitive", query: Query{Text: "LIBRARY"}, want: []string{"LF-001"}},
		{name: "text matches id", query: Query{Text: "lf-002"}, want: []string{"LF-002"}},
		{name: "status filter", query: Query{Filters: map[string]string{"status": "Pending"}}, want: []string{"LF-001", "LF-003"}},
		{name: "All means no filter", query: Query{Filters: map[string]string{"status": "All"}}, want: []string{"LF-001", "LF-003", "LF-002"}},
		{name: "text AND filter", query: Query{Text: "card", Filters: map[string]string{"status": "Pending"}}, want: []string{"LF-003"}},
		{name: "unknown filter ignored", query: Query{Filters: map[string]string{"color": "red"}}, want: []string{"LF-001", "LF-003", "LF-002"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Apply(view, fixtures(), tt.query)
			assert.Equal(t, tt.want, ids(res.Items))
			assert.Empty(t, res.EmptyReason)
		})
	}
}

func TestApplyZeroMatchIsNotAnError(t *testing.T) {
	res := Apply(view, fixtures(), Query{Text: "umbrella"})

	assert.Empty(t, res.Items)
	assert.Equal(t, NoMatch, res.EmptyReason)
	assert.Equal(t, 3, res.Total)
}

func TestApplyNoData(t *testing.T) {
	res := Apply(view, []item{}, Query{Text: "anything"})
	assert.Equal(t, NoData, res.EmptyReason)
}

func TestSortToggle(t *testing.T) {
	s := Sort{Field: "date", Direction: Desc}

	s = s.Toggle("date")
	assert.Equal(t, Sort{Field: "date", Direction: Asc}, s)

	s = s.Toggle("date")
	assert.Equal(t, Sort{Field: "date", Direction: Desc}, s)

	s = s.Toggle("date").Toggle("title")
	assert.Equal(t, Sort{Field: "title", Direction: Desc}, s)
}

func TestSortIsStableOnTies(t *testing.T) {
	res := Apply(view, fixtures(), Query{Sort: Sort{Field: "votes", Direction: Asc}})
	assert.Equal(t, []string{"LF-001", "LF-003", "LF-002"}, ids(res.Items))

	res = Apply(view, fixtures(), Query{Sort: Sort{Field: "votes", Direction: Desc}})
	assert.Equal(t, []string{"LF-002", "LF-001", "LF-003"}, ids(res.Items))
}

func TestSortUnknownFieldUsesDefault(t *testing.T) {
	res := Apply(view, fixtures(), Query{Sort: Sort{Field: "location"}})
	assert.Equal(t, view.DefaultSort, res.Sort)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	in := fixtures()
	_ = Apply(view, in, Query{Sort: Sort{Field: "title", Direction: Asc}})
	assert.Equal(t, []string{"LF-001", "LF-002", "LF-003"}, ids(in))
}

func TestApplyPaging(t *testing.T) {
	res := Apply(view, fixtures(), Query{Page: 2, PerPage: 2})
	assert.Equal(t, []string{"LF-002"}, ids(res.Items))
	assert.Equal(t, 3, res.Matched)

	res = Apply(view, fixtures(), Query{Page: 9, PerPage: 2})
	assert.Empty(t, res.Items)
}

func TestParseQuery(t *testing.T) {
	values := url.Values{
		"q":      {"  bag "},
		"status": {"Found"},
		"color":  {"red"},
		"sort":   {"title"},
		"dir":    {"ASC"},
		"toggle": {"title"},
		"page":   {"2"},
	}

	q := view.ParseQuery(values)

	assert.Equal(t, "bag", q.Text)
	assert.Equal(t, map[string]string{"status": "Found"}, q.Filters)
	assert.Equal(t, Sort{Field: "title", Direction: Desc}, q.Sort)
	assert.Equal(t, 2, q.Page)
}

func TestDetail(t *testing.T) {
	items := fixtures()

	got, ok := Detail(items, "LF-002")
	require.True(t, ok)
	assert.Equal(t, "Calculator", got.Title)

	_, ok = Detail(items, "LF-404")
	assert.False(t, ok)
}
