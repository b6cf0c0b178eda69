package table_test

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/Spok95/cpq/internal/table"
)

type row struct {
	ID     int64
	Name   string
	Status string
	Amount float64
}

func testTable() *table.Table[row] {
	return table.New(
		table.Column[row]{Key: "name", Title: "Name", Value: func(r row) string { return r.Name }, Searchable: true, Sortable: true},
		table.Column[row]{Key: "status", Title: "Status", Value: func(r row) string { return r.Status }, Searchable: true, Sortable: true},
		table.Column[row]{
			Key: "amount", Title: "Amount",
			Value:    func(r row) string { return table.FormatNumber(r.Amount) },
			Number:   func(r row) (float64, bool) { return r.Amount, true },
			Sortable: true,
		},
	)
}

func names(rows []row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name
	}
	return out
}

func TestFreeTextFilter(t *testing.T) {
	tb := testTable()
	rows := []row{{ID: 1, Name: "John"}, {ID: 2, Name: "Jane"}}

	got := tb.Filter(rows, table.Query{Text: "jo"})
	if !slices.Equal(names(got), []string{"John"}) {
		t.Fatalf("expected [John], got %v", names(got))
	}

	got = tb.Filter(rows, table.Query{Text: "  "})
	if len(got) != 2 {
		t.Fatalf("empty query should return all rows, got %d", len(got))
	}
}

func TestFreeTextSkipsNonSearchableColumns(t *testing.T) {
	tb := testTable()
	rows := []row{{Name: "A", Amount: 42}}
	if got := tb.Filter(rows, table.Query{Text: "42"}); len(got) != 0 {
		t.Fatalf("amount column is not searchable, got %v", got)
	}
}

func TestStructuredFilter(t *testing.T) {
	tb := testTable()
	rows := []row{
		{Name: "a", Status: "Approved"},
		{Name: "b", Status: "Pending"},
		{Name: "c", Status: "Declined"},
		{Name: "d", Status: "pending"},
	}

	f, err := table.ParseFilter("status:Approved,Pending")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got := tb.Filter(rows, table.Query{Filter: f, Text: "zzz"})
	if !slices.Equal(names(got), []string{"a", "b", "d"}) {
		t.Fatalf("unexpected rows %v", names(got))
	}
}

func TestStructuredFilterEmptyValueListIsNoop(t *testing.T) {
	tb := testTable()
	rows := []row{{Name: "a", Status: "x"}, {Name: "b", Status: "y"}}

	f, err := table.ParseFilter("status:;name:a,b")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := tb.Filter(rows, table.Query{Filter: f}); len(got) != 2 {
		t.Fatalf("expected both rows, got %v", names(got))
	}
}

func TestParseFilterErrors(t *testing.T) {
	for _, in := range []string{"status", ":x", "a:b;novalue"} {
		if _, err := table.ParseFilter(in); !errors.Is(err, table.ErrBadQuery) {
			t.Errorf("%q: expected ErrBadQuery, got %v", in, err)
		}
	}
	f, err := table.ParseFilter("")
	if err != nil || len(f) != 0 {
		t.Fatalf("empty filter: %v %v", f, err)
	}
}

func TestRangeFilter(t *testing.T) {
	tb := testTable()
	rows := []row{{Name: "a", Amount: 50}, {Name: "b", Amount: 100}, {Name: "c", Amount: 500}, {Name: "d", Amount: 900}}

	r, err := table.ParseRange("amount:100..500")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got := tb.Filter(rows, table.Query{Ranges: []table.Range{r}})
	if !slices.Equal(names(got), []string{"b", "c"}) {
		t.Fatalf("unexpected rows %v", names(got))
	}

	open, err := table.ParseRange("amount:..100")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got = tb.Filter(rows, table.Query{Ranges: []table.Range{open}})
	if !slices.Equal(names(got), []string{"a", "b"}) {
		t.Fatalf("unexpected rows %v", names(got))
	}

	if _, err := table.ParseRange("amount:abc..1"); !errors.Is(err, table.ErrBadQuery) {
		t.Fatalf("expected ErrBadQuery, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tb := testTable()
	tests := []struct {
		name string
		q    table.Query
		ok   bool
	}{
		{"empty", table.Query{}, true},
		{"unknown filter", table.Query{Filter: table.Filter{"nope": {"x"}}}, false},
		{"range on text", table.Query{Ranges: []table.Range{{Column: "name"}}}, false},
		{"unknown sort", table.Query{Sort: table.SortState{Column: "nope", Direction: table.Asc}}, false},
		{"good sort", table.Query{Sort: table.SortState{Column: "Amount", Direction: table.Desc}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tb.Validate(tt.q)
			if (err == nil) != tt.ok {
				t.Fatalf("ok=%v, err=%v", tt.ok, err)
			}
		})
	}
}

func TestSortToggleCycle(t *testing.T) {
	var s table.SortState
	s = s.Toggle("name")
	if s.Column != "name" || s.Direction != table.Asc {
		t.Fatalf("first toggle: %+v", s)
	}
	s = s.Toggle("name")
	if s.Direction != table.Desc {
		t.Fatalf("second toggle: %+v", s)
	}
	s = s.Toggle("name")
	if s.Direction != table.None {
		t.Fatalf("third toggle: %+v", s)
	}
	s = s.Toggle("name").Toggle("amount")
	if s.Column != "amount" || s.Direction != table.Asc {
		t.Fatalf("switching column: %+v", s)
	}
}

func TestSortIsStableAndIdempotent(t *testing.T) {
	tb := testTable()
	rows := []row{
		{Name: "first", Amount: 2},
		{Name: "second", Amount: 1},
		{Name: "third", Amount: 2},
		{Name: "fourth", Amount: 1},
	}

	asc := tb.Sort(rows, table.SortState{Column: "amount", Direction: table.Asc})
	if !slices.Equal(names(asc), []string{"second", "fourth", "first", "third"}) {
		t.Fatalf("asc: %v", names(asc))
	}
	desc := tb.Sort(rows, table.SortState{Column: "amount", Direction: table.Desc})
	if !slices.Equal(names(desc), []string{"first", "third", "second", "fourth"}) {
		t.Fatalf("desc: %v", names(desc))
	}
	again := tb.Sort(asc, table.SortState{Column: "amount", Direction: table.Asc})
	if !slices.Equal(names(again), names(asc)) {
		t.Fatalf("sorting twice changed order: %v", names(again))
	}
	if !slices.Equal(names(tb.Sort(rows, table.SortState{})), names(rows)) {
		t.Fatalf("unsorted must keep input order")
	}
	if rows[0].Name != "first" {
		t.Fatalf("input slice was modified")
	}
}

func TestSortNumericNotLexicographic(t *testing.T) {
	tb := testTable()
	rows := []row{{Name: "a", Amount: 10}, {Name: "b", Amount: 9}, {Name: "c", Amount: 100}}
	got := tb.Sort(rows, table.SortState{Column: "amount", Direction: table.Asc})
	if !slices.Equal(names(got), []string{"b", "a", "c"}) {
		t.Fatalf("numeric sort: %v", names(got))
	}
}

func TestPaginationPageSizes(t *testing.T) {
	tb := testTable()
	rows := make([]row, 25)
	for i := range rows {
		rows[i] = row{ID: int64(i + 1), Name: fmt.Sprintf("r%02d", i+1)}
	}

	var sizes []int
	for page := 1; page <= 3; page++ {
		v := tb.Apply(rows, table.Query{Page: page, PageSize: 10})
		sizes = append(sizes, len(v.Rows))
		if v.TotalPages != 3 || v.Total != 25 {
			t.Fatalf("page %d: total=%d pages=%d", page, v.Total, v.TotalPages)
		}
	}
	if !slices.Equal(sizes, []int{10, 10, 5}) {
		t.Fatalf("page sizes %v", sizes)
	}

	v := tb.Apply(rows, table.Query{Page: 99, PageSize: 10})
	if v.Page != 3 || len(v.Rows) != 5 {
		t.Fatalf("out of range page should clamp to last: page=%d rows=%d", v.Page, len(v.Rows))
	}
}

func TestPaginatorNavigation(t *testing.T) {
	p := table.NewPaginator(25, 10)
	if p.Pages() != 3 {
		t.Fatalf("pages=%d", p.Pages())
	}
	if got := p.Last().Page; got != 3 {
		t.Fatalf("last=%d", got)
	}
	if got := p.Last().Next().Page; got != 3 {
		t.Fatalf("next past last=%d", got)
	}
	if got := p.First().Prev().Page; got != 1 {
		t.Fatalf("prev before first=%d", got)
	}
	if got := p.Goto(2).Next().Page; got != 3 {
		t.Fatalf("goto 2 then next=%d", got)
	}

	empty := table.NewPaginator(0, 0)
	if empty.PageSize != table.DefaultPageSize || empty.Pages() != 1 {
		t.Fatalf("empty paginator: %+v pages=%d", empty, empty.Pages())
	}
	start, end := empty.Last().Bounds()
	if start != 0 || end != 0 {
		t.Fatalf("empty bounds %d %d", start, end)
	}
	if table.NewPaginator(10, 1000).PageSize != table.MaxPageSize {
		t.Fatalf("page size must be capped")
	}
}

func TestRender(t *testing.T) {
	tb := testTable()
	cells := tb.Render([]row{{Name: "x", Status: "Drafted", Amount: 12.5}})
	if !slices.Equal(cells[0], []string{"x", "Drafted", "12.5"}) {
		t.Fatalf("cells %v", cells[0])
	}
	if !slices.Equal(tb.Headers(), []string{"Name", "Status", "Amount"}) {
		t.Fatalf("headers %v", tb.Headers())
	}
}
