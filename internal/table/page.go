package table

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Query is everything a list request can ask of a table.
type Query struct {
	Text     string
	Filter   Filter
	Ranges   []Range
	Sort     SortState
	Page     int
	PageSize int
}

// Paginator windows Total rows into 1-based pages.
type Paginator struct {
	Page     int
	PageSize int
	Total    int
}

func NewPaginator(total, pageSize int) Paginator {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if total < 0 {
		total = 0
	}
	return Paginator{Page: 1, PageSize: pageSize, Total: total}
}

// Pages is at least 1: an empty result still has one empty page.
func (p Paginator) Pages() int {
	if p.Total == 0 {
		return 1
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

// Goto clamps n into [1, Pages()].
func (p Paginator) Goto(n int) Paginator {
	if n < 1 {
		n = 1
	}
	if last := p.Pages(); n > last {
		n = last
	}
	p.Page = n
	return p
}

func (p Paginator) First() Paginator { return p.Goto(1) }
func (p Paginator) Last() Paginator  { return p.Goto(p.Pages()) }
func (p Paginator) Next() Paginator  { return p.Goto(p.Page + 1) }
func (p Paginator) Prev() Paginator  { return p.Goto(p.Page - 1) }

// Bounds returns the [start, end) slice indexes of the current page.
func (p Paginator) Bounds() (int, int) {
	start := (p.Page - 1) * p.PageSize
	if start > p.Total {
		start = p.Total
	}
	end := start + p.PageSize
	if end > p.Total {
		end = p.Total
	}
	return start, end
}
