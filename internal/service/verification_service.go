package service

import (
	"context"
	"fmt"
	"time"

	"github.com/diagnosis/inkbook/internal/domain"
	"github.com/diagnosis/inkbook/internal/repo/postgres"
	"github.com/diagnosis/inkbook/pkg/config"
	"github.com/diagnosis/inkbook/pkg/logger"
)

type VerificationService interface {
	Submit(ctx context.Context, p domain.Principal, req *domain.AgeVerificationRequest) (*domain.AgeVerificationStatus, error)
	Status(ctx context.Context, p domain.Principal) (*domain.AgeVerificationStatus, error)
}

type verificationService struct {
	verifications postgres.VerificationRepo
	config        *config.Config
	now           func() time.Time
}

func NewVerificationService(verifications postgres.VerificationRepo, cfg *config.Config) VerificationService {
	return &verificationService{verifications: verifications, config: cfg, now: time.Now}
}

// Submit checks the date of birth against the minimum age. Nothing is stored for a rejected submission.
func (s *verificationService) Submit(ctx context.Context, p domain.Principal, req *domain.AgeVerificationRequest) (*domain.AgeVerificationStatus, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	req.Normalize()
	dob, err := req.Validate()
	if err != nil {
		return nil, err
	}
	now := s.now()
	if dob.After(now) {
		return nil, domain.Invalid("date_of_birth", "cannot be in the future")
	}
	if domain.AgeOn(dob, now) < s.config.Booking.MinimumAge {
		logger.InfoContext(ctx, "Age verification rejected", "user_id", p.UserID)
		return nil, domain.ErrUnderage
	}

	v, err := s.verifications.Upsert(ctx, &domain.AgeVerification{
		UserID: p.UserID,
		IDType: req.IDType,
		// salt with the user id so equal document numbers do not collide across accounts
		IDNumberHash: postgres.HashKey(fmt.Sprintf("%d:%s", p.UserID, req.IDNumber)),
		IDLast4:      req.IDNumber[len(req.IDNumber)-4:],
		DateOfBirth:  dob,
	})
	if err != nil {
		return nil, fmt.Errorf("store verification: %w", err)
	}
	return &domain.AgeVerificationStatus{
		Verified:   true,
		MinimumAge: s.config.Booking.MinimumAge,
		VerifiedAt: &v.VerifiedAt,
	}, nil
}

func (s *verificationService) Status(ctx context.Context, p domain.Principal) (*domain.AgeVerificationStatus, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	out := &domain.AgeVerificationStatus{MinimumAge: s.config.Booking.MinimumAge}
	v, err := s.verifications.Find(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("get verification: %w", err)
	}
	if v != nil && domain.AgeOn(v.DateOfBirth, s.now()) >= s.config.Booking.MinimumAge {
		out.Verified = true
		out.VerifiedAt = &v.VerifiedAt
	}
	return out, nil
}
