package handlers

import (
	"net/http"

	"github.com/diagnosis/inkbook/internal/domain"
)

func (h *Handlers) SendMessage(w http.ResponseWriter, r *http.Request) {
	var in domain.SendMessageRequest
	if !decode(w, r, &in) {
		return
	}
	msg, err := h.messaging.Send(r.Context(), principal(r), &in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (h *Handlers) ListConversations(w http.ResponseWriter, r *http.Request) {
	list, err := h.messaging.Conversations(r.Context(), principal(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handlers) ListMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	list, err := h.messaging.Messages(r.Context(), principal(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handlers) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	n, err := h.messaging.MarkRead(r.Context(), principal(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": n})
}
