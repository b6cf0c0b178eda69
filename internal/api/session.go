package api

import (
	"net/http"

	"github.com/Spok95/cpq/internal/auth"
	"github.com/Spok95/cpq/internal/service"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type statusResponse struct {
	Status        string       `json:"status"`
	Authenticated bool         `json:"authenticated"`
	User          *auth.Claims `json:"user,omitempty"`
}

// status needs no token. The UI calls it after a 401 to tell an expired
// session from a dead backend.
func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	res := statusResponse{Status: "ok"}
	if token := auth.BearerToken(r); token != "" {
		if c, err := h.issuer.Parse(token); err == nil {
			res.Authenticated = true
			res.User = c
		}
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	s, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req service.Registration
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	u, err := h.users.Register(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := service.Summary(r.Context(), h.customers, h.products, h.quotes, h.orders, actor(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
