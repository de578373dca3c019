package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/filekeeper/internal/server/models"
)

type roleRequest struct {
	Role string `json:"role"`
}

// setRole promotes or demotes a user. The change is visible to the gate on
// the user's next request because roles are read from the store, not the
// token.
func (h *handler) setRole(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err, "user")
		return
	}

	var req roleRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err, "user")
		return
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		h.fail(w, r, err, "user")
		return
	}

	if err := h.users.SetRole(r.Context(), id, role); err != nil {
		h.fail(w, r, err, "user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
