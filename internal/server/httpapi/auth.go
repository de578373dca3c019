package httpapi

import (
	"net/http"
)

type credentials struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err, "user")
		return
	}

	token, err := h.users.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		h.fail(w, r, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err, "user")
		return
	}

	token, err := h.users.Register(r.Context(), req.Login, req.Password)
	if err != nil {
		h.fail(w, r, err, "user")
		return
	}
	writeJSON(w, http.StatusCreated, tokenResponse{Token: token})
}
