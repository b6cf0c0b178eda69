package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Spok95/cpq/internal/apperr"
	"github.com/Spok95/cpq/internal/domain/users"
	"github.com/Spok95/cpq/internal/service"
)

func (h *Handler) userList() listSource[users.User] {
	return listSource[users.User]{
		Table: userTable,
		Sheet: "Users",
		Load:  h.users.List,
		ID:    func(u users.User) int64 { return u.ID },
	}
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Get(r.Context(), actor(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handler) approvers(w http.ResponseWriter, r *http.Request) {
	us, err := h.users.Approvers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, us)
}

type approveUserRequest struct {
	Role users.Role `json:"role"`
}

// approveUser takes an optional body with the role to grant.
func (h *Handler) approveUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req approveUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.fail(w, r, apperr.Invalid("invalid json: %v", err))
		return
	}
	u, err := h.users.Approve(r.Context(), id, req.Role)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var p service.UserPatch
	if err := decode(r, &p); err != nil {
		h.fail(w, r, err)
		return
	}
	u, err := h.users.Update(r.Context(), actor(r).UserID, id, p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.users.Delete(r.Context(), actor(r).UserID, id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
