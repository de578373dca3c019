package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/server/httpapi/apierrors"
	"github.com/go-chi/chi/v5"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: malformed JSON body", common.ErrInvalidInput)
	}
	return nil
}

func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", common.ErrInvalidInput, name)
	}
	return id, nil
}

// fail writes the error response and logs anything that is not a client
// error. resource is used in not-found and conflict messages.
func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error, resource string) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		apierrors.PayloadTooLarge(w, tooLarge.Limit)
		return
	}

	switch {
	case errors.Is(err, common.ErrorNotFound),
		errors.Is(err, common.ErrConflict),
		errors.Is(err, common.ErrInvalidInput),
		errors.Is(err, common.ErrInvalidOwner),
		errors.Is(err, common.ErrInvalidRole),
		errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrForbidden):
	default:
		h.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	apierrors.FromError(w, err, resource)
}
