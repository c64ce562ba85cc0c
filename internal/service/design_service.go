package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/diagnosis/inkbook/internal/domain"
	"github.com/diagnosis/inkbook/internal/repo/postgres"
	"github.com/diagnosis/inkbook/internal/storage"
	"github.com/diagnosis/inkbook/pkg/logger"
)

type DesignService interface {
	List(ctx context.Context, f domain.DesignFilter) ([]domain.Design, error)
	Get(ctx context.Context, id int64) (*domain.Design, error)
	Create(ctx context.Context, p domain.Principal, req *domain.CreateDesignRequest) (*domain.Design, error)
	Like(ctx context.Context, p domain.Principal, designID int64) (int, error)
	UploadImage(ctx context.Context, p domain.Principal, data []byte) (string, error)
}

type designService struct {
	designs postgres.DesignsRepo
	artists postgres.ArtistsRepo
	images  storage.ImageStore
}

func NewDesignService(designs postgres.DesignsRepo, artists postgres.ArtistsRepo, images storage.ImageStore) DesignService {
	return &designService{designs: designs, artists: artists, images: images}
}

func (s *designService) List(ctx context.Context, f domain.DesignFilter) ([]domain.Design, error) {
	list, err := s.designs.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list designs: %w", err)
	}
	return list, nil
}

func (s *designService) Get(ctx context.Context, id int64) (*domain.Design, error) {
	d, err := s.designs.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get design: %w", err)
	}
	if d == nil {
		return nil, domain.ErrNotFound
	}
	return d, nil
}

// Create files the design under the caller's artist profile, never under the user id.
func (s *designService) Create(ctx context.Context, p domain.Principal, req *domain.CreateDesignRequest) (*domain.Design, error) {
	artist, err := callerArtist(ctx, s.artists, p)
	if err != nil {
		return nil, err
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	d, err := s.designs.Create(ctx, artist.ID, req)
	if err != nil {
		return nil, fmt.Errorf("create design: %w", err)
	}
	logger.InfoContext(ctx, "Design created", "design_id", d.ID, "artist_id", artist.ID)
	return d, nil
}

func (s *designService) Like(ctx context.Context, p domain.Principal, designID int64) (int, error) {
	if err := requireUser(p); err != nil {
		return 0, err
	}
	if _, err := s.Get(ctx, designID); err != nil {
		return 0, err
	}
	likes, _, err := s.designs.Like(ctx, designID, p.UserID)
	if err != nil {
		return 0, fmt.Errorf("like design: %w", err)
	}
	return likes, nil
}

func (s *designService) UploadImage(ctx context.Context, p domain.Principal, data []byte) (string, error) {
	if _, err := callerArtist(ctx, s.artists, p); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", domain.Invalid("file", "is required")
	}
	url, err := s.images.Upload(p.UserID, "designs", data)
	if errors.Is(err, storage.ErrUnsupportedType) {
		return "", domain.Invalid("file", "must be a jpeg, png, webp or gif image")
	}
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	return url, nil
}
