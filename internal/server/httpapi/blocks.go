package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
	"github.com/go-chi/chi/v5"
)

const blockResource = "text block"

type blockRequest struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Title string `json:"title"`
	Text  string `json:"text"`
	Group string `json:"group"`
}

func (b blockRequest) model() *models.TextBlock {
	return &models.TextBlock{ID: b.ID, Name: b.Name, Title: b.Title, Text: b.Text, Group: b.Group}
}

func (h *handler) listBlocks(w http.ResponseWriter, r *http.Request) {
	blocks, err := h.blocks.List(r.Context())
	if err != nil {
		h.fail(w, r, err, blockResource)
		return
	}
	writeJSON(w, http.StatusOK, blocks)
}

func (h *handler) listBlocksByGroup(w http.ResponseWriter, r *http.Request) {
	blocks, err := h.blocks.ListByGroup(r.Context(), chi.URLParam(r, "group"))
	if err != nil {
		h.fail(w, r, err, blockResource)
		return
	}
	writeJSON(w, http.StatusOK, blocks)
}

func (h *handler) getBlock(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err, blockResource)
		return
	}

	b, err := h.blocks.GetByID(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, blockResource)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *handler) createBlock(w http.ResponseWriter, r *http.Request) {
	req, image, err := h.readBlock(w, r)
	if err != nil {
		h.fail(w, r, err, blockResource)
		return
	}

	b, err := h.blocks.Create(r.Context(), req.model(), image)
	if err != nil {
		h.fail(w, r, err, blockResource)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *handler) updateBlock(w http.ResponseWriter, r *http.Request) {
	req, image, err := h.readBlock(w, r)
	if err != nil {
		h.fail(w, r, err, blockResource)
		return
	}
	if req.ID <= 0 {
		h.fail(w, r, fmt.Errorf("%w: id is required", common.ErrInvalidInput), blockResource)
		return
	}

	b, err := h.blocks.Update(r.Context(), req.model(), image)
	if err != nil {
		h.fail(w, r, err, blockResource)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *handler) deleteBlock(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err, blockResource)
		return
	}

	if err := h.blocks.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err, blockResource)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// readBlock accepts either a JSON body, which never carries an image, or a
// multipart form with the block fields and an optional "image" part.
func (h *handler) readBlock(w http.ResponseWriter, r *http.Request) (blockRequest, []byte, error) {
	var req blockRequest

	if !isMultipart(r) {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
		err := decodeJSON(r, &req)
		return req, nil, err
	}

	image, err := h.readUpload(w, r, "image")
	if err != nil {
		return req, nil, err
	}

	req.Name = r.FormValue("name")
	req.Title = r.FormValue("title")
	req.Text = r.FormValue("text")
	req.Group = r.FormValue("group")
	if v := r.FormValue("id"); v != "" {
		req.ID, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return req, nil, fmt.Errorf("%w: id must be an integer", common.ErrInvalidInput)
		}
	}
	return req, image, nil
}
