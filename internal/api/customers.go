package api

import (
	"net/http"

	"github.com/Spok95/cpq/internal/domain/customers"
)

func (h *Handler) customerList() listSource[customers.Customer] {
	return listSource[customers.Customer]{
		Table: customerTable,
		Sheet: "Customers",
		Load:  h.customers.List,
		ID:    func(c customers.Customer) int64 { return c.ID },
	}
}

func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	c, err := h.customers.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var c customers.Customer
	if err := decode(r, &c); err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.customers.Create(r.Context(), c)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var c customers.Customer
	if err := decode(r, &c); err != nil {
		h.fail(w, r, err)
		return
	}
	c.ID = id
	out, err := h.customers.Update(r.Context(), c)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.customers.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
