package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/diagnosis/inkbook/internal/domain"
	"github.com/diagnosis/inkbook/internal/repo/postgres"
)

type ReviewService interface {
	Create(ctx context.Context, p domain.Principal, artistID int64, req *domain.ReviewRequest) (*domain.Review, error)
	List(ctx context.Context, artistID int64) ([]domain.Review, error)
}

type reviewService struct {
	reviews  postgres.ReviewsRepo
	bookings postgres.BookingRepo
	artists  postgres.ArtistsRepo
	cache    Cache
}

func NewReviewService(reviews postgres.ReviewsRepo, bookings postgres.BookingRepo, artists postgres.ArtistsRepo, cache Cache) ReviewService {
	return &reviewService{reviews: reviews, bookings: bookings, artists: artists, cache: cache}
}

func (s *reviewService) Create(ctx context.Context, p domain.Principal, artistID int64, req *domain.ReviewRequest) (*domain.Review, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	artist, err := s.artists.FindByID(ctx, artistID)
	if err != nil {
		return nil, fmt.Errorf("get artist: %w", err)
	}
	if artist == nil {
		return nil, domain.ErrNotFound
	}
	ok, err := s.bookings.HasConfirmed(ctx, p.UserID, artist.ID)
	if err != nil {
		return nil, fmt.Errorf("check bookings: %w", err)
	}
	if !ok {
		return nil, domain.ErrForbidden
	}

	rv, err := s.reviews.Create(ctx, artist.ID, p.UserID, req)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("create review: %w", err)
	}
	invalidateArtists(ctx, s.cache)
	return rv, nil
}

func (s *reviewService) List(ctx context.Context, artistID int64) ([]domain.Review, error) {
	return s.reviews.ListByArtist(ctx, artistID)
}
