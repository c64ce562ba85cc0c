package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/diagnosis/inkbook/internal/domain"
	"github.com/diagnosis/inkbook/internal/http/response"
	"github.com/diagnosis/inkbook/internal/payments"
	"github.com/diagnosis/inkbook/pkg/logger"
)

const maxWebhookBody = 64 << 10

func (h *Handlers) AvailableSlots(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	slots, err := h.bookings.AvailableSlots(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

func (h *Handlers) MySlots(w http.ResponseWriter, r *http.Request) {
	slots, err := h.bookings.MySlots(r.Context(), principal(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

func (h *Handlers) CreateSlot(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateSlotRequest
	if !decode(w, r, &in) {
		return
	}
	slot, err := h.bookings.CreateSlot(r.Context(), principal(r), &in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, slot)
}

func (h *Handlers) DeleteSlot(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.bookings.DeleteSlot(r.Context(), principal(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BookSlot honours the Idempotency-Key header. A replay answers 200 with the original booking.
func (h *Handlers) BookSlot(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	key := r.Header.Get("Idempotency-Key")
	if len(key) > 255 {
		response.BadRequest(w, "Idempotency-Key is too long")
		return
	}
	res, err := h.bookings.BookSlot(r.Context(), principal(r), id, key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusCreated
	if res.Replayed {
		w.Header().Set("Idempotent-Replayed", "true")
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}

func (h *Handlers) ListBookings(w http.ResponseWriter, r *http.Request) {
	list, err := h.bookings.List(r.Context(), principal(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handlers) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	b, err := h.bookings.Cancel(r.Context(), principal(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handlers) PayDeposit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	res, err := h.bookings.PayDeposit(r.Context(), principal(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		response.BadRequest(w, "could not read body")
		return
	}
	if err := h.bookings.HandlePaymentWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		logger.WarnContext(r.Context(), "Stripe webhook rejected", "error", err)
		if errors.Is(err, payments.ErrInvalidWebhook) {
			response.BadRequest(w, "invalid webhook")
			return
		}
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
