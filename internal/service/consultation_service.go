package service

import (
	"context"
	"fmt"
	"time"

	"github.com/diagnosis/inkbook/internal/domain"
	"github.com/diagnosis/inkbook/internal/repo/postgres"
	"github.com/diagnosis/inkbook/pkg/events"
	"github.com/diagnosis/inkbook/pkg/logger"
)

type ConsultationService interface {
	Request(ctx context.Context, p domain.Principal, req *domain.ConsultationRequest) (*domain.Consultation, error)
	List(ctx context.Context, p domain.Principal) ([]domain.Consultation, error)
	Respond(ctx context.Context, p domain.Principal, id int64, accept bool) (*domain.Consultation, error)
	Cancel(ctx context.Context, p domain.Principal, id int64) (*domain.Consultation, error)
}

type consultationService struct {
	consultations postgres.ConsultationsRepo
	artists       postgres.ArtistsRepo
	users         postgres.UsersRepo
	eventBus      events.EventBus
	now           func() time.Time
}

func NewConsultationService(
	consultations postgres.ConsultationsRepo,
	artists postgres.ArtistsRepo,
	users postgres.UsersRepo,
	bus events.EventBus,
) ConsultationService {
	return &consultationService{
		consultations: consultations,
		artists:       artists,
		users:         users,
		eventBus:      bus,
		now:           time.Now,
	}
}

func (s *consultationService) Request(ctx context.Context, p domain.Principal, req *domain.ConsultationRequest) (*domain.Consultation, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	req.Normalize()
	if err := req.Validate(s.now()); err != nil {
		return nil, err
	}
	at, _ := domain.ParseSlotTime(req.Date, req.Time)
	req.Date, req.Time = at.Format(domain.DateLayout), at.Format(domain.TimeLayout)

	artist, err := s.artists.FindByID(ctx, req.ArtistID)
	if err != nil {
		return nil, fmt.Errorf("get artist: %w", err)
	}
	if artist == nil {
		return nil, domain.ErrNotFound
	}
	if artist.UserID == p.UserID {
		return nil, domain.ErrForbidden
	}

	c, err := s.consultations.Create(ctx, p.UserID, req)
	if err != nil {
		return nil, fmt.Errorf("create consultation: %w", err)
	}
	logger.InfoContext(ctx, "Consultation requested", "consultation_id", c.ID, "artist_id", artist.ID)
	publish(ctx, s.eventBus, events.ConsultationRequested, events.ConsultationRequestedEvent{
		ConsultationID: c.ID,
		Client:         party(ctx, s.users, p.UserID),
		Artist:         party(ctx, s.users, artist.UserID),
		Type:           string(c.Type),
		Date:           c.Date,
		Time:           c.Time,
		Description:    c.Description,
	})
	return c, nil
}

func (s *consultationService) List(ctx context.Context, p domain.Principal) ([]domain.Consultation, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	if p.IsArtist() {
		artist, err := s.artists.FindByUserID(ctx, p.UserID)
		if err != nil {
			return nil, fmt.Errorf("get artist: %w", err)
		}
		if artist != nil {
			return s.consultations.ListByArtist(ctx, artist.ID)
		}
	}
	return s.consultations.ListByClient(ctx, p.UserID)
}

func (s *consultationService) Respond(ctx context.Context, p domain.Principal, id int64, accept bool) (*domain.Consultation, error) {
	artist, err := callerArtist(ctx, s.artists, p)
	if err != nil {
		return nil, err
	}
	c, err := s.consultations.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get consultation: %w", err)
	}
	if c == nil || c.ArtistID != artist.ID {
		return nil, domain.ErrNotFound
	}

	next := domain.ConsultationDeclined
	if accept {
		next = domain.ConsultationAccepted
	}
	if !c.Transition(next) {
		return nil, domain.ErrConflict
	}
	updated, err := s.consultations.Transition(ctx, c.ID, c.Status, next)
	if err != nil {
		return nil, fmt.Errorf("update consultation: %w", err)
	}
	if updated == nil {
		return nil, domain.ErrConflict
	}

	publish(ctx, s.eventBus, events.ConsultationResponded, events.ConsultationRespondedEvent{
		ConsultationID: updated.ID,
		Client:         party(ctx, s.users, updated.ClientID),
		Artist:         party(ctx, s.users, artist.UserID),
		Status:         string(updated.Status),
		Date:           updated.Date,
		Time:           updated.Time,
	})
	return updated, nil
}

func (s *consultationService) Cancel(ctx context.Context, p domain.Principal, id int64) (*domain.Consultation, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	c, err := s.consultations.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get consultation: %w", err)
	}
	if c == nil || c.ClientID != p.UserID {
		return nil, domain.ErrNotFound
	}
	if !c.Transition(domain.ConsultationCanceled) {
		return nil, domain.ErrConflict
	}
	updated, err := s.consultations.Transition(ctx, c.ID, c.Status, domain.ConsultationCanceled)
	if err != nil {
		return nil, fmt.Errorf("cancel consultation: %w", err)
	}
	if updated == nil {
		return nil, domain.ErrConflict
	}
	return updated, nil
}
