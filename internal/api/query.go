package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Spok95/cpq/internal/export"
	"github.com/Spok95/cpq/internal/service"
	"github.com/Spok95/cpq/internal/table"
)

// listSource binds a table to its data source. AmountColumn is where the
// min and max shortcuts apply.
type listSource[T any] struct {
	Table        *table.Table[T]
	AmountColumn string
	Sheet        string
	Load         func(ctx context.Context) ([]T, error)
	ID           func(T) int64
}

type listResponse[T any] struct {
	table.View[T]
	Columns []table.ColumnInfo `json:"columns"`
}

func bound(s string) (*float64, error) {
	if s = strings.TrimSpace(s); s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bound %q", table.ErrBadQuery, s)
	}
	return &v, nil
}

// parseQuery reads q, filter, range, min, max, sort, dir, toggle, page and
// page_size. toggle=col advances the sort given by sort and dir.
func parseQuery[T any](r *http.Request, src listSource[T], defaultPageSize int) (table.Query, error) {
	v := r.URL.Query()
	q := table.Query{Text: strings.TrimSpace(v.Get("q")), PageSize: defaultPageSize, Page: 1}

	f, err := table.ParseFilter(v.Get("filter"))
	if err != nil {
		return q, err
	}
	q.Filter = f

	for _, s := range v["range"] {
		rg, err := table.ParseRange(s)
		if err != nil {
			return q, err
		}
		q.Ranges = append(q.Ranges, rg)
	}
	if v.Has("min") || v.Has("max") {
		if src.AmountColumn == "" {
			return q, fmt.Errorf("%w: this list has no amount column", table.ErrBadQuery)
		}
		rg := table.Range{Column: src.AmountColumn}
		if rg.Min, err = bound(v.Get("min")); err != nil {
			return q, err
		}
		if rg.Max, err = bound(v.Get("max")); err != nil {
			return q, err
		}
		q.Ranges = append(q.Ranges, rg)
	}

	dir, err := table.ParseDirection(v.Get("dir"))
	if err != nil {
		return q, err
	}
	if col := strings.TrimSpace(v.Get("sort")); col != "" {
		q.Sort = table.SortState{Column: strings.ToLower(col), Direction: dir}
		if dir == table.None {
			q.Sort.Direction = table.Asc
		}
	}
	if col := v.Get("toggle"); col != "" {
		q.Sort = q.Sort.Toggle(col)
	}

	if s := v.Get("page"); s != "" {
		if q.Page, err = strconv.Atoi(s); err != nil {
			return q, fmt.Errorf("%w: page %q", table.ErrBadQuery, s)
		}
	}
	if s := v.Get("page_size"); s != "" {
		if q.PageSize, err = strconv.Atoi(s); err != nil {
			return q, fmt.Errorf("%w: page_size %q", table.ErrBadQuery, s)
		}
	}
	return q, src.Table.Validate(q)
}

func serveList[T any](h *Handler, src listSource[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := parseQuery(r, src, h.pageSize)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		rows, err := src.Load(r.Context())
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, listResponse[T]{View: src.Table.Apply(rows, q), Columns: src.Table.Columns()})
	}
}

// serveExport writes every row of the current filter and sort, not just
// the visible page.
func serveExport[T any](h *Handler, src listSource[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := parseQuery(r, src, h.pageSize)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		rows, err := src.Load(r.Context())
		if err != nil {
			h.fail(w, r, err)
			return
		}
		rows = src.Table.Sort(src.Table.Filter(rows, q), q.Sort)
		b, err := export.Workbook(src.Sheet, src.Table.Headers(), src.Table.Render(rows))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeFile(w, export.XLSXContentType, strings.ToLower(src.Sheet)+".xlsx", b)
	}
}

type bulkRequest struct {
	IDs []int64 `json:"ids"`
}

// serveBulk runs action on the selected ids that are still visible under
// the request's filter. The rest are reported as hidden and left alone.
func serveBulk[T any](h *Handler, src listSource[T], action func(r *http.Request, ids []int64) service.BulkResult) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := parseQuery(r, src, h.pageSize)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		var req bulkRequest
		if err := decode(r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
		rows, err := src.Load(r.Context())
		if err != nil {
			h.fail(w, r, err)
			return
		}
		visible := src.Table.Filter(rows, q)
		ids := make([]int64, len(visible))
		for i, row := range visible {
			ids[i] = src.ID(row)
		}
		kept, hidden := table.NewSelection(req.IDs...).Visible(ids)

		res := action(r, kept)
		res.Hidden = hidden
		writeJSON(w, http.StatusOK, res)
	}
}
