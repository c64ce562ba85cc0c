package service

import (
	"context"
	"fmt"

	"github.com/diagnosis/inkbook/internal/domain"
	"github.com/diagnosis/inkbook/internal/repo/postgres"
	"github.com/diagnosis/inkbook/internal/utils"
)

type WaiverService interface {
	Create(ctx context.Context, p domain.Principal, req *domain.WaiverRequest) (*domain.Waiver, error)
	Update(ctx context.Context, p domain.Principal, id int64, req *domain.WaiverRequest) (*domain.Waiver, error)
	Delete(ctx context.Context, p domain.Principal, id int64) error
	Mine(ctx context.Context, p domain.Principal) ([]domain.Waiver, error)
	ForArtist(ctx context.Context, artistID int64) ([]domain.Waiver, error)
	Sign(ctx context.Context, p domain.Principal, waiverID int64, req *domain.SignWaiverRequest) (*domain.WaiverSignature, error)
	Signatures(ctx context.Context, p domain.Principal) ([]postgres.SignatureRow, error)
}

type waiverService struct {
	waivers postgres.WaiversRepo
	artists postgres.ArtistsRepo
}

func NewWaiverService(waivers postgres.WaiversRepo, artists postgres.ArtistsRepo) WaiverService {
	return &waiverService{waivers: waivers, artists: artists}
}

func (s *waiverService) Create(ctx context.Context, p domain.Principal, req *domain.WaiverRequest) (*domain.Waiver, error) {
	artist, err := callerArtist(ctx, s.artists, p)
	if err != nil {
		return nil, err
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.waivers.Create(ctx, artist.ID, req)
}

func (s *waiverService) Update(ctx context.Context, p domain.Principal, id int64, req *domain.WaiverRequest) (*domain.Waiver, error) {
	artist, err := callerArtist(ctx, s.artists, p)
	if err != nil {
		return nil, err
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	w, err := s.waivers.Update(ctx, artist.ID, id, req)
	if err != nil {
		return nil, fmt.Errorf("update waiver: %w", err)
	}
	if w == nil {
		return nil, domain.ErrNotFound
	}
	return w, nil
}

func (s *waiverService) Delete(ctx context.Context, p domain.Principal, id int64) error {
	artist, err := callerArtist(ctx, s.artists, p)
	if err != nil {
		return err
	}
	ok, err := s.waivers.Delete(ctx, artist.ID, id)
	if err != nil {
		return fmt.Errorf("delete waiver: %w", err)
	}
	if !ok {
		return domain.ErrNotFound
	}
	return nil
}

func (s *waiverService) Mine(ctx context.Context, p domain.Principal) ([]domain.Waiver, error) {
	artist, err := callerArtist(ctx, s.artists, p)
	if err != nil {
		return nil, err
	}
	return s.waivers.ListByArtist(ctx, artist.ID)
}

func (s *waiverService) ForArtist(ctx context.Context, artistID int64) ([]domain.Waiver, error) {
	return s.waivers.ListByArtist(ctx, artistID)
}

// Sign is idempotent per waiver and client. A second call returns the first signature.
func (s *waiverService) Sign(ctx context.Context, p domain.Principal, waiverID int64, req *domain.SignWaiverRequest) (*domain.WaiverSignature, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	w, err := s.waivers.FindByID(ctx, waiverID)
	if err != nil {
		return nil, fmt.Errorf("get waiver: %w", err)
	}
	if w == nil {
		return nil, domain.ErrNotFound
	}
	return s.waivers.Sign(ctx, w.ID, p.UserID, utils.NormalizeString(req.Signature))
}

func (s *waiverService) Signatures(ctx context.Context, p domain.Principal) ([]postgres.SignatureRow, error) {
	artist, err := callerArtist(ctx, s.artists, p)
	if err != nil {
		return nil, err
	}
	return s.waivers.ListSignatures(ctx, artist.ID)
}
