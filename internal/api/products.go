package api

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/Spok95/cpq/internal/apperr"
	"github.com/Spok95/cpq/internal/domain/products"
	"github.com/Spok95/cpq/internal/export"
)

const maxImportSize = 10 << 20

func (h *Handler) productList() listSource[products.Product] {
	return listSource[products.Product]{
		Table:        productTable,
		AmountColumn: "price",
		Sheet:        "Products",
		Load:         h.products.List,
		ID:           func(p products.Product) int64 { return p.ID },
	}
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.products.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var p products.Product
	if err := decode(r, &p); err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.products.Create(r.Context(), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var p products.Product
	if err := decode(r, &p); err != nil {
		h.fail(w, r, err)
		return
	}
	p.ID = id
	out, err := h.products.Update(r.Context(), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.products.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type restockRequest struct {
	Qty  int64  `json:"qty"`
	Note string `json:"note"`
}

func (h *Handler) restockProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req restockRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.products.Restock(r.Context(), actor(r).UserID, id, req.Qty, req.Note)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) productMovements(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ms, err := h.products.Movements(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ms)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	cs, err := h.products.Categories(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

func (h *Handler) setCategoryActive(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req struct {
		Active bool `json:"active"`
	}
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	c, err := h.products.SetCategoryActive(r.Context(), id, req.Active)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// importProducts accepts a price list either as the multipart field
// "file" or as the raw request body.
func (h *Handler) importProducts(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)

	var src io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		f, _, err := r.FormFile("file")
		if err != nil {
			h.fail(w, r, apperr.Invalid("file field: %v", err))
			return
		}
		defer func() { _ = f.Close() }()
		src = f
	}
	data, err := io.ReadAll(src)
	if err != nil {
		h.fail(w, r, apperr.Invalid("read upload: %v", err))
		return
	}
	rows, err := export.ReadProducts(bytes.NewReader(data))
	if err != nil {
		h.fail(w, r, apperr.Invalid("%v", err))
		return
	}
	writeJSON(w, http.StatusOK, h.products.Import(r.Context(), actor(r).UserID, rows))
}
