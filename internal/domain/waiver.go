package domain

import (
	"time"

	"github.com/diagnosis/inkbook/internal/utils"
)

type Waiver struct {
	ID        int64     `json:"id"`
	ArtistID  int64     `json:"artist_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Required  bool      `json:"required"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"last_updated"`
}

type WaiverRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Required *bool  `json:"required,omitempty"`
}

type WaiverSignature struct {
	ID        int64     `json:"id"`
	WaiverID  int64     `json:"waiver_id"`
	ClientID  int64     `json:"client_id"`
	Signature string    `json:"signature"`
	SignedAt  time.Time `json:"signed_at"`
}

type SignWaiverRequest struct {
	Signature string `json:"signature"`
	HasRead   bool   `json:"has_read"`
}

func (r *WaiverRequest) Normalize() {
	r.Title = utils.NormalizeString(r.Title)
	r.Content = utils.NormalizeString(r.Content)
}

func (r *WaiverRequest) Validate() error {
	if r.Title == "" {
		return Invalid("title", "is required")
	}
	if r.Content == "" {
		return Invalid("content", "is required")
	}
	return nil
}

// IsRequired defaults to true when the field is omitted.
func (r *WaiverRequest) IsRequired() bool {
	return r.Required == nil || *r.Required
}

func (r *SignWaiverRequest) Validate() error {
	if !r.HasRead {
		return Invalid("has_read", "the waiver must be read before signing")
	}
	if utils.NormalizeString(r.Signature) == "" {
		return Invalid("signature", "is required")
	}
	return nil
}
