package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/diagnosis/inkbook/internal/domain"
	"github.com/diagnosis/inkbook/internal/repo/postgres"
	"github.com/diagnosis/inkbook/pkg/auth"
	"github.com/diagnosis/inkbook/pkg/config"
	"github.com/diagnosis/inkbook/pkg/logger"
)

type AccountService interface {
	Signup(ctx context.Context, req *domain.SignupRequest) (*domain.AuthPayload, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthPayload, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.AuthPayload, error)
	Me(ctx context.Context, p domain.Principal) (*domain.User, error)
	UpdateProfile(ctx context.Context, p domain.Principal, req *domain.UpdateProfileRequest) (*domain.User, error)
}

type accountService struct {
	users  postgres.UsersRepo
	cache  Cache
	config *config.Config
}

func NewAccountService(users postgres.UsersRepo, cache Cache, cfg *config.Config) AccountService {
	return &accountService{users: users, cache: cache, config: cfg}
}

func (s *accountService) Signup(ctx context.Context, req *domain.SignupRequest) (*domain.AuthPayload, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var user *domain.User
	if req.Role == domain.RoleArtist {
		user, _, err = s.users.CreateArtist(ctx, req.Email, hash, req.Name)
		if err == nil {
			invalidateArtists(ctx, s.cache)
		}
	} else {
		user, err = s.users.Create(ctx, req.Email, hash, req.Name, req.Role)
	}
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	logger.InfoContext(ctx, "User signed up", "user_id", user.ID, "role", user.Role)
	return s.issue(user)
}

func (s *accountService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthPayload, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		burnPasswordCheck(req.Password)
		return nil, domain.ErrInvalidCredentials
	}

	ok, err := CheckPassword(req.Password, user.PasswordHash)
	if err != nil || !ok {
		return nil, domain.ErrInvalidCredentials
	}

	if NeedsRehash(user.PasswordHash) {
		if hash, err := HashPassword(req.Password); err == nil {
			if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
				logger.WarnContext(ctx, "Failed to upgrade password hash", "error", err, "user_id", user.ID)
			}
		}
	}

	return s.issue(user)
}

func (s *accountService) Refresh(ctx context.Context, refreshToken string) (*domain.AuthPayload, error) {
	claims, err := auth.Parse(refreshToken, s.config.Auth.JWTSecret)
	if err != nil || claims.Role != auth.RoleRefresh {
		return nil, domain.ErrUnauthenticated
	}
	user, err := s.users.FindByID(ctx, claims.Sub)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUnauthenticated
	}
	return s.issue(user)
}

func (s *accountService) Me(ctx context.Context, p domain.Principal) (*domain.User, error) {
	if !p.Authenticated() {
		return nil, nil
	}
	return s.users.FindByID(ctx, p.UserID)
}

func (s *accountService) UpdateProfile(ctx context.Context, p domain.Principal, req *domain.UpdateProfileRequest) (*domain.User, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	user, err := s.users.UpdateProfile(ctx, p.UserID, req)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	if user.IsArtist() && req.Name != nil {
		invalidateArtists(ctx, s.cache)
	}
	return user, nil
}

func (s *accountService) issue(user *domain.User) (*domain.AuthPayload, error) {
	ttl := s.config.Auth.AccessTokenTTL
	token, err := auth.NewAccessToken(user.ID, user.Email, user.Role, scopeFor(user.Role), s.config.Auth.JWTSecret, ttl)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	refresh, err := auth.NewRefreshToken(user.ID, user.Email, s.config.Auth.JWTSecret, s.config.Auth.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &domain.AuthPayload{
		Token:        token,
		RefreshToken: refresh,
		ExpiresIn:    int64(ttl.Seconds()),
		User:         user,
	}, nil
}

func scopeFor(role string) string {
	switch role {
	case domain.RoleAdmin:
		return "admin"
	case domain.RoleArtist:
		return "artist client"
	default:
		return "client"
	}
}
