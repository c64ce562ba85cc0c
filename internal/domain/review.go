package domain

import (
	"time"

	"github.com/diagnosis/inkbook/internal/utils"
)

type Review struct {
	ID         int64     `json:"id"`
	ArtistID   int64     `json:"artist_id"`
	ClientID   int64     `json:"client_id"`
	ClientName string    `json:"client_name"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"date"`
}

type ReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (r *ReviewRequest) Normalize() {
	r.Comment = utils.NormalizeString(r.Comment)
}

func (r *ReviewRequest) Validate() error {
	if r.Rating < 1 || r.Rating > 5 {
		return Invalid("rating", "must be between 1 and 5")
	}
	if len(r.Comment) > 2000 {
		return Invalid("comment", "is too long")
	}
	return nil
}
