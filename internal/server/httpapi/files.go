package httpapi

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/server/access"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
	"github.com/dmitrijs2005/filekeeper/internal/server/registry"
)

type fileResponse struct {
	*models.StoredFile
	State string `json:"state"`
}

func toFileResponse(f *models.StoredFile) fileResponse {
	return fileResponse{StoredFile: f, State: f.State().String()}
}

func (h *handler) listFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.files.List(r.Context())
	if err != nil {
		h.fail(w, r, err, "file")
		return
	}

	out := make([]fileResponse, 0, len(files))
	for _, f := range files {
		out = append(out, toFileResponse(f))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) getFile(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err, "file")
		return
	}

	f, err := h.files.GetByID(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "file")
		return
	}
	writeJSON(w, http.StatusOK, toFileResponse(f))
}

// uploadFile stores a file without an owner. It stays orphaned, and is
// eventually swept, unless something associates it.
func (h *handler) uploadFile(w http.ResponseWriter, r *http.Request) {
	data, err := h.readUpload(w, r, "file")
	if err != nil {
		h.fail(w, r, err, "file")
		return
	}
	if len(data) == 0 {
		h.fail(w, r, fmt.Errorf("%w: empty file", common.ErrInvalidInput), "file")
		return
	}

	f, err := h.files.Create(r.Context(), nil, data)
	if err != nil {
		h.fail(w, r, err, "file")
		return
	}

	if p, ok := access.PrincipalFromContext(r.Context()); ok {
		h.logger.Info(r.Context(), "file uploaded", "id", f.ID, "user", p.Login, "size", len(data))
	}
	writeJSON(w, http.StatusCreated, toFileResponse(f))
}

// sweep purges orphaned files now. The optional retention query parameter
// (a Go duration such as "30m") overrides the configured window.
func (h *handler) sweep(w http.ResponseWriter, r *http.Request) {
	var (
		res *registry.SweepResult
		err error
	)

	if v := r.URL.Query().Get("retention"); v != "" {
		retention, perr := time.ParseDuration(v)
		if perr != nil || retention < 0 {
			h.fail(w, r, fmt.Errorf("%w: retention must be a non-negative duration", common.ErrInvalidInput), "file")
			return
		}
		res, err = h.sweeper.Sweep(r.Context(), retention)
	} else {
		res, err = h.sweeper.RunOnce(r.Context())
	}
	if err != nil {
		h.fail(w, r, err, "file")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// readUpload reads the request payload: the named part of a multipart form,
// or the raw body for any other content type. A multipart form without the
// part yields nil data.
func (h *handler) readUpload(w http.ResponseWriter, r *http.Request, field string) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	if !isMultipart(r) {
		return io.ReadAll(r.Body)
	}

	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: malformed multipart form", common.ErrInvalidInput)
	}

	file, _, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", common.ErrInvalidInput, field, err)
	}
	defer file.Close()

	return io.ReadAll(file)
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}
