package domain

import (
	"time"

	"github.com/diagnosis/inkbook/internal/utils"
)

type Design struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	ImageURL   string    `json:"image_url"`
	Price      float64   `json:"price"`
	ArtistID   int64     `json:"artist_id"`
	ArtistName string    `json:"artist_name"`
	Style      string    `json:"style"`
	Likes      int       `json:"likes"`
	CreatedAt  time.Time `json:"created_at"`
}

type CreateDesignRequest struct {
	Title    string  `json:"title"`
	ImageURL string  `json:"image_url"`
	Price    float64 `json:"price"`
	Style    string  `json:"style"`
}

type DesignFilter struct {
	Style    string
	ArtistID int64
}

func (r *CreateDesignRequest) Normalize() {
	r.Title = utils.NormalizeString(r.Title)
	r.ImageURL = utils.NormalizeString(r.ImageURL)
	r.Style = utils.NormalizeString(r.Style)
}

func (r *CreateDesignRequest) Validate() error {
	if r.Title == "" {
		return Invalid("title", "is required")
	}
	if r.ImageURL == "" {
		return Invalid("image_url", "is required")
	}
	if r.Price < 0 {
		return Invalid("price", "cannot be negative")
	}
	return nil
}
