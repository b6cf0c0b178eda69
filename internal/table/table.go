// Package table implements the filter/sort/paginate/select engine shared by
// every list view: customers, quotes, users and quote line items.
package table

import (
	"fmt"
	"strconv"
	"strings"
)

// Column describes one displayed column of a record type.
type Column[T any] struct {
	Key   string
	Title string
	// Value renders the cell text. It is also what free-text search and
	// structured filters compare against.
	Value func(T) string
	// Number is optional. When set, sorting and range filters use it.
	Number func(T) (float64, bool)

	Searchable bool
	Sortable   bool
	Editable   bool
}

// ColumnInfo is the client-facing description of a column.
type ColumnInfo struct {
	Key      string `json:"key"`
	Title    string `json:"title"`
	Sortable bool   `json:"sortable"`
	Editable bool   `json:"editable"`
	Numeric  bool   `json:"numeric"`
}

type Table[T any] struct {
	columns []Column[T]
	byKey   map[string]int
}

func New[T any](cols ...Column[T]) *Table[T] {
	t := &Table[T]{columns: cols, byKey: make(map[string]int, len(cols))}
	for i, c := range cols {
		t.byKey[strings.ToLower(c.Key)] = i
	}
	return t
}

func (t *Table[T]) Column(key string) (Column[T], bool) {
	i, ok := t.byKey[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return Column[T]{}, false
	}
	return t.columns[i], true
}

func (t *Table[T]) Columns() []ColumnInfo {
	out := make([]ColumnInfo, 0, len(t.columns))
	for _, c := range t.columns {
		out = append(out, ColumnInfo{
			Key:      c.Key,
			Title:    c.Title,
			Sortable: c.Sortable,
			Editable: c.Editable,
			Numeric:  c.Number != nil,
		})
	}
	return out
}

// Validate reports references to unknown columns, unsortable sort columns
// and range filters on non-numeric columns.
func (t *Table[T]) Validate(q Query) error {
	for key := range q.Filter {
		if _, ok := t.Column(key); !ok {
			return fmt.Errorf("%w: unknown filter column %q", ErrBadQuery, key)
		}
	}
	for _, r := range q.Ranges {
		c, ok := t.Column(r.Column)
		if !ok {
			return fmt.Errorf("%w: unknown range column %q", ErrBadQuery, r.Column)
		}
		if c.Number == nil {
			return fmt.Errorf("%w: column %q is not numeric", ErrBadQuery, r.Column)
		}
	}
	if q.Sort.Direction != None {
		c, ok := t.Column(q.Sort.Column)
		if !ok {
			return fmt.Errorf("%w: unknown sort column %q", ErrBadQuery, q.Sort.Column)
		}
		if !c.Sortable {
			return fmt.Errorf("%w: column %q is not sortable", ErrBadQuery, q.Sort.Column)
		}
	}
	return nil
}

// Apply filters, sorts and paginates rows. The input slice is not modified.
func (t *Table[T]) Apply(rows []T, q Query) View[T] {
	filtered := t.Filter(rows, q)
	sorted := t.Sort(filtered, q.Sort)

	p := NewPaginator(len(sorted), q.PageSize).Goto(q.Page)
	start, end := p.Bounds()

	page := make([]T, end-start)
	copy(page, sorted[start:end])

	return View[T]{
		Rows:       page,
		Total:      p.Total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: p.Pages(),
		Sort:       q.Sort,
	}
}

// Headers returns column titles in display order.
func (t *Table[T]) Headers() []string {
	out := make([]string, len(t.columns))
	for i, c := range t.columns {
		out[i] = c.Title
	}
	return out
}

// Render maps records to display cells.
func (t *Table[T]) Render(rows []T) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		cells := make([]string, len(t.columns))
		for j, c := range t.columns {
			cells[j] = c.Value(r)
		}
		out[i] = cells
	}
	return out
}

// View is one page of a filtered, sorted result.
type View[T any] struct {
	Rows       []T       `json:"rows"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
	Sort       SortState `json:"sort"`
}

// FormatNumber renders numbers the way list cells show them.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
