package handlers

import (
	"net/http"

	"github.com/diagnosis/inkbook/internal/domain"
)

func (h *Handlers) RequestConsultation(w http.ResponseWriter, r *http.Request) {
	var in domain.ConsultationRequest
	if !decode(w, r, &in) {
		return
	}
	c, err := h.consultations.Request(r.Context(), principal(r), &in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handlers) ListConsultations(w http.ResponseWriter, r *http.Request) {
	list, err := h.consultations.List(r.Context(), principal(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handlers) RespondConsultation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in domain.ConsultationDecision
	if !decode(w, r, &in) {
		return
	}
	c, err := h.consultations.Respond(r.Context(), principal(r), id, in.Accept)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handlers) CancelConsultation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	c, err := h.consultations.Cancel(r.Context(), principal(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
