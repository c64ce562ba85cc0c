package handlers

import (
	"math"
	"net/http"
	"strconv"

	"github.com/diagnosis/inkbook/internal/domain"
	"github.com/diagnosis/inkbook/internal/http/response"
)

// ListArtists accepts specialty, location, available, and lat/lng/radius_km for proximity search.
func (h *Handlers) ListArtists(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := domain.ArtistFilter{
		Specialty: q.Get("specialty"),
		Location:  q.Get("location"),
	}
	if v := q.Get("available"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			response.BadRequest(w, "invalid available")
			return
		}
		f.Available = &b
	}
	if q.Get("lat") != "" || q.Get("lng") != "" {
		lat, okLat := domain.ParseCoordinate(q.Get("lat"), 90)
		lng, okLng := domain.ParseCoordinate(q.Get("lng"), 180)
		if !okLat || !okLng {
			response.BadRequest(w, "lat and lng must both be valid coordinates")
			return
		}
		f.Near = &domain.GeoPoint{Lat: lat, Lng: lng}
		if v := q.Get("radius_km"); v != "" {
			radius, err := strconv.ParseFloat(v, 64)
			if err != nil || !(radius > 0) || math.IsInf(radius, 0) {
				response.BadRequest(w, "invalid radius_km")
				return
			}
			f.RadiusKm = radius
		}
	}

	list, err := h.artists.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handlers) GetArtist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	a, err := h.artists.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handlers) MyArtistProfile(w http.ResponseWriter, r *http.Request) {
	a, err := h.artists.Mine(r.Context(), principal(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handlers) UpdateArtistProfile(w http.ResponseWriter, r *http.Request) {
	var in domain.ArtistProfilePatch
	if !decode(w, r, &in) {
		return
	}
	a, err := h.artists.UpdateProfile(r.Context(), principal(r), &in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handlers) UpdateAvailability(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Available *bool `json:"available"`
	}
	if !decode(w, r, &in) {
		return
	}
	if in.Available == nil {
		response.BadRequest(w, "available is required")
		return
	}
	a, err := h.artists.UpdateAvailability(r.Context(), principal(r), *in.Available)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handlers) RequestVerification(w http.ResponseWriter, r *http.Request) {
	a, err := h.artists.RequestVerification(r.Context(), principal(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// SetVerificationStatus is the admin review step.
func (h *Handlers) SetVerificationStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in struct {
		Status string `json:"status"`
	}
	if !decode(w, r, &in) {
		return
	}
	a, err := h.artists.SetVerificationStatus(r.Context(), principal(r), id, in.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handlers) ArtistReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	list, err := h.reviews.List(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handlers) CreateReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in domain.ReviewRequest
	if !decode(w, r, &in) {
		return
	}
	rv, err := h.reviews.Create(r.Context(), principal(r), id, &in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rv)
}
