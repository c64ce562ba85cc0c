package handlers

import (
	"net/http"

	"github.com/diagnosis/inkbook/internal/domain"
)

func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var in domain.SignupRequest
	if !decode(w, r, &in) {
		return
	}
	out, err := h.accounts.Signup(r.Context(), &in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in domain.LoginRequest
	if !decode(w, r, &in) {
		return
	}
	out, err := h.accounts.Login(r.Context(), &in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var in domain.RefreshRequest
	if !decode(w, r, &in) {
		return
	}
	out, err := h.accounts.Refresh(r.Context(), in.RefreshToken)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.accounts.Me(r.Context(), principal(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if u == nil {
		writeError(w, r, domain.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handlers) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var in domain.UpdateProfileRequest
	if !decode(w, r, &in) {
		return
	}
	u, err := h.accounts.UpdateProfile(r.Context(), principal(r), &in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handlers) SubmitAgeVerification(w http.ResponseWriter, r *http.Request) {
	var in domain.AgeVerificationRequest
	if !decode(w, r, &in) {
		return
	}
	out, err := h.verification.Submit(r.Context(), principal(r), &in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) AgeVerificationStatus(w http.ResponseWriter, r *http.Request) {
	out, err := h.verification.Status(r.Context(), principal(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
