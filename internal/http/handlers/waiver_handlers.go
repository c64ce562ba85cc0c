package handlers

import (
	"net/http"

	"github.com/diagnosis/inkbook/internal/domain"
)

func (h *Handlers) ArtistWaivers(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	list, err := h.waivers.ForArtist(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handlers) MyWaivers(w http.ResponseWriter, r *http.Request) {
	list, err := h.waivers.Mine(r.Context(), principal(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handlers) CreateWaiver(w http.ResponseWriter, r *http.Request) {
	var in domain.WaiverRequest
	if !decode(w, r, &in) {
		return
	}
	wv, err := h.waivers.Create(r.Context(), principal(r), &in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, wv)
}

func (h *Handlers) UpdateWaiver(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in domain.WaiverRequest
	if !decode(w, r, &in) {
		return
	}
	wv, err := h.waivers.Update(r.Context(), principal(r), id, &in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wv)
}

func (h *Handlers) DeleteWaiver(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.waivers.Delete(r.Context(), principal(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) SignWaiver(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in domain.SignWaiverRequest
	if !decode(w, r, &in) {
		return
	}
	sig, err := h.waivers.Sign(r.Context(), principal(r), id, &in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sig)
}

func (h *Handlers) WaiverSignatures(w http.ResponseWriter, r *http.Request) {
	list, err := h.waivers.Signatures(r.Context(), principal(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
