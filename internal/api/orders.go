package api

import (
	"context"
	"net/http"

	"github.com/Spok95/cpq/internal/service"
)

func (h *Handler) orderRows(ctx context.Context) ([]orderRow, error) {
	ords, err := h.orders.List(ctx)
	if err != nil {
		return nil, err
	}
	names, err := h.customerNames(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]orderRow, len(ords))
	for i, o := range ords {
		rows[i] = orderRow{Order: o, CustomerName: names[o.CustomerID]}
	}
	return rows, nil
}

func (h *Handler) orderList() listSource[orderRow] {
	return listSource[orderRow]{
		Table:        orderTable,
		AmountColumn: "grand_total",
		Sheet:        "Orders",
		Load:         h.orderRows,
		ID:           func(o orderRow) int64 { return o.ID },
	}
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

type createOrderRequest struct {
	QuoteID int64 `json:"quote_id"`
	service.OrderInput
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	o, err := h.orders.CreateFromQuote(r.Context(), actor(r).UserID, req.QuoteID, req.OrderInput)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
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
	o, err := h.orders.Update(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}
