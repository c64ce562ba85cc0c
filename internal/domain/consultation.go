package domain

import (
	"time"

	"github.com/diagnosis/inkbook/internal/utils"
)

type ConsultationType string

const (
	ConsultationVirtual  ConsultationType = "virtual"
	ConsultationInPerson ConsultationType = "in_person"
)

type ConsultationStatus string

const (
	ConsultationPending  ConsultationStatus = "pending"
	ConsultationAccepted ConsultationStatus = "accepted"
	ConsultationDeclined ConsultationStatus = "declined"
	ConsultationCanceled ConsultationStatus = "canceled"
)

type Consultation struct {
	ID          int64              `json:"id"`
	ArtistID    int64              `json:"artist_id"`
	ClientID    int64              `json:"client_id"`
	Type        ConsultationType   `json:"type"`
	Date        string             `json:"date"`
	Time        string             `json:"time"`
	Description string             `json:"description"`
	Status      ConsultationStatus `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

type ConsultationRequest struct {
	ArtistID    int64            `json:"artist_id"`
	Type        ConsultationType `json:"type"`
	Date        string           `json:"date"`
	Time        string           `json:"time"`
	Description string           `json:"description"`
}

type ConsultationDecision struct {
	Accept bool `json:"accept"`
}

func (r *ConsultationRequest) Normalize() {
	r.Description = utils.NormalizeString(r.Description)
	// the booking modal sends camelCase
	if r.Type == "inPerson" {
		r.Type = ConsultationInPerson
	}
}

func (r *ConsultationRequest) Validate(now time.Time) error {
	if r.ArtistID <= 0 {
		return Invalid("artist_id", "is required")
	}
	if r.Type != ConsultationVirtual && r.Type != ConsultationInPerson {
		return Invalid("type", "must be virtual or in_person")
	}
	at, err := ParseSlotTime(r.Date, r.Time)
	if err != nil {
		return err
	}
	if !at.After(now) {
		return Invalid("date", "consultation must be in the future")
	}
	if r.Description == "" {
		return Invalid("description", "is required")
	}
	return nil
}

// Transition reports whether moving from the current status to next is allowed.
func (c *Consultation) Transition(next ConsultationStatus) bool {
	switch next {
	case ConsultationAccepted, ConsultationDeclined:
		return c.Status == ConsultationPending
	case ConsultationCanceled:
		return c.Status == ConsultationPending || c.Status == ConsultationAccepted
	default:
		return false
	}
}
