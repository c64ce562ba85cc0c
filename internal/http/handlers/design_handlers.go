package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/diagnosis/inkbook/internal/domain"
	"github.com/diagnosis/inkbook/internal/http/response"
)

func (h *Handlers) ListDesigns(w http.ResponseWriter, r *http.Request) {
	f := domain.DesignFilter{Style: r.URL.Query().Get("style")}
	if v := r.URL.Query().Get("artist_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			response.BadRequest(w, "invalid artist_id")
			return
		}
		f.ArtistID = id
	}
	list, err := h.designs.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handlers) GetDesign(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	d, err := h.designs.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handlers) CreateDesign(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateDesignRequest
	if !decode(w, r, &in) {
		return
	}
	d, err := h.designs.Create(r.Context(), principal(r), &in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (h *Handlers) LikeDesign(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	likes, err := h.designs.Like(r.Context(), principal(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"likes": likes})
}

// UploadDesignImage takes a multipart "file" field and returns the stored image URL.
func (h *Handlers) UploadDesignImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1024)
	file, _, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			response.WriteError(w, http.StatusRequestEntityTooLarge, "file too large", response.CodeInvalidInput)
			return
		}
		response.BadRequest(w, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
	if err != nil {
		response.BadRequest(w, "could not read file")
		return
	}
	if int64(len(data)) > h.maxUpload {
		response.WriteError(w, http.StatusRequestEntityTooLarge, "file too large", response.CodeInvalidInput)
		return
	}

	url, err := h.designs.UploadImage(r.Context(), principal(r), data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}
