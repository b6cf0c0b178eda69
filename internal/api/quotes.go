package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Spok95/cpq/internal/apperr"
	"github.com/Spok95/cpq/internal/domain/quotes"
	"github.com/Spok95/cpq/internal/export"
	"github.com/Spok95/cpq/internal/service"
)

func (h *Handler) customerNames(ctx context.Context) (map[int64]string, error) {
	cs, err := h.customers.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(cs))
	for _, c := range cs {
		names[c.ID] = c.Name
	}
	return names, nil
}

func (h *Handler) quoteRows(ctx context.Context) ([]quoteRow, error) {
	qs, err := h.quotes.List(ctx)
	if err != nil {
		return nil, err
	}
	names, err := h.customerNames(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]quoteRow, len(qs))
	for i, q := range qs {
		rows[i] = quoteRow{Quote: q, CustomerName: names[q.CustomerID]}
	}
	return rows, nil
}

func (h *Handler) quoteList() listSource[quoteRow] {
	return listSource[quoteRow]{
		Table:        quoteTable,
		AmountColumn: "total",
		Sheet:        "Quotes",
		Load:         h.quoteRows,
		ID:           func(q quoteRow) int64 { return q.ID },
	}
}

func (h *Handler) pendingQuotes(w http.ResponseWriter, r *http.Request) {
	qs, err := h.quotes.PendingFor(r.Context(), actor(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, qs)
}

func (h *Handler) getQuote(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	q, err := h.quotes.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *Handler) createQuote(w http.ResponseWriter, r *http.Request) {
	var q quotes.Quote
	if err := decode(r, &q); err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.quotes.Create(r.Context(), actor(r).UserID, q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *Handler) updateQuote(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var q quotes.Quote
	if err := decode(r, &q); err != nil {
		h.fail(w, r, err)
		return
	}
	q.ID = id
	out, err := h.quotes.Update(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) deleteQuote(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.quotes.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listItems serves the line items of one quote through the same table
// engine as the top-level lists.
func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	src := listSource[itemRow]{
		Table:        itemTable,
		AmountColumn: "amount",
		Load: func(ctx context.Context) ([]itemRow, error) {
			q, err := h.quotes.Get(ctx, id)
			if err != nil {
				return nil, err
			}
			rows := make([]itemRow, len(q.Items))
			for i, it := range q.Items {
				rows[i] = itemRow{Index: i, Item: it}
			}
			return rows, nil
		},
	}
	serveList(h, src)(w, r)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		h.fail(w, r, apperr.Invalid("invalid item index"))
		return
	}
	var p quotes.ItemPatch
	if err := decode(r, &p); err != nil {
		h.fail(w, r, err)
		return
	}
	q, err := h.quotes.UpdateItem(r.Context(), id, index, p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

type submitRequest struct {
	Approvers []int64 `json:"approvers"`
}

func (h *Handler) submitQuote(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req submitRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	q, err := h.quotes.Submit(r.Context(), id, req.Approvers)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *Handler) approveQuote(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	q, err := h.quotes.Approve(r.Context(), id, actor(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

type declineRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) declineQuote(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req declineRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	q, err := h.quotes.Decline(r.Context(), id, actor(r).UserID, req.Reason)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *Handler) quotePDF(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	q, err := h.quotes.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	c, err := h.customers.Get(r.Context(), q.CustomerID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	b, err := export.QuotePDF(*q, *c, h.company, h.now())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeFile(w, "application/pdf", q.Reference+".pdf", b)
}

func (h *Handler) orderFromQuote(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in service.OrderInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	o, err := h.orders.CreateFromQuote(r.Context(), actor(r).UserID, id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}
