package service

import (
	"context"
	"time"

	"github.com/diagnosis/inkbook/internal/domain"
	"github.com/diagnosis/inkbook/internal/repo/postgres"
	"github.com/diagnosis/inkbook/pkg/events"
	"github.com/diagnosis/inkbook/pkg/logger"
)

// Cache is the slice of pkg/cache the services use. Implementations must tolerate a missing backend.
type Cache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// Pusher delivers realtime frames to a user's open connections.
type Pusher interface {
	SendTo(userID int64, msgType string, data any)
}

const artistCachePattern = "artists:*"

func requireUser(p domain.Principal) error {
	if !p.Authenticated() {
		return domain.ErrUnauthenticated
	}
	return nil
}

// callerArtist loads the artist profile owned by the caller.
func callerArtist(ctx context.Context, artists postgres.ArtistsRepo, p domain.Principal) (*domain.Artist, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	if !p.IsArtist() {
		return nil, domain.ErrForbidden
	}
	a, err := artists.FindByUserID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, domain.ErrForbidden
	}
	return a, nil
}

// party resolves a user for an event payload. Lookup failures degrade to the bare id.
func party(ctx context.Context, users postgres.UsersRepo, userID int64) events.Party {
	out := events.Party{UserID: userID}
	u, err := users.FindByID(ctx, userID)
	if err != nil {
		logger.WarnContext(ctx, "Failed to resolve event party", "error", err, "user_id", userID)
		return out
	}
	if u != nil {
		out.Email = u.Email
		out.Name = u.Name
	}
	return out
}

func publish(ctx context.Context, bus events.Publisher, subject string, payload any) {
	if bus == nil {
		return
	}
	if err := bus.Publish(ctx, subject, payload); err != nil {
		logger.ErrorContext(ctx, "Failed to publish event", "error", err, "subject", subject)
	}
}

func invalidateArtists(ctx context.Context, cache Cache) {
	if cache == nil {
		return
	}
	if err := cache.DeleteByPattern(ctx, artistCachePattern); err != nil {
		logger.WarnContext(ctx, "Failed to invalidate artist cache", "error", err)
	}
}
