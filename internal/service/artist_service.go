package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/diagnosis/inkbook/internal/domain"
	"github.com/diagnosis/inkbook/internal/repo/postgres"
	"github.com/diagnosis/inkbook/pkg/config"
	"github.com/diagnosis/inkbook/pkg/logger"
)

type ArtistService interface {
	List(ctx context.Context, f domain.ArtistFilter) ([]domain.Artist, error)
	Get(ctx context.Context, id int64) (*domain.Artist, error)
	Mine(ctx context.Context, p domain.Principal) (*domain.Artist, error)
	UpdateAvailability(ctx context.Context, p domain.Principal, available bool) (*domain.Artist, error)
	UpdateProfile(ctx context.Context, p domain.Principal, patch *domain.ArtistProfilePatch) (*domain.Artist, error)
	SetVerificationStatus(ctx context.Context, p domain.Principal, artistID int64, status string) (*domain.Artist, error)
	RequestVerification(ctx context.Context, p domain.Principal) (*domain.Artist, error)
}

type artistService struct {
	artists postgres.ArtistsRepo
	cache   Cache
	config  *config.Config
}

func NewArtistService(artists postgres.ArtistsRepo, cache Cache, cfg *config.Config) ArtistService {
	return &artistService{artists: artists, cache: cache, config: cfg}
}

func (s *artistService) List(ctx context.Context, f domain.ArtistFilter) ([]domain.Artist, error) {
	if f.Near != nil && f.RadiusKm <= 0 {
		f.RadiusKm = domain.DefaultRadiusKm
	}
	key := artistListKey(f)

	var cached []domain.Artist
	if found, err := s.cache.GetJSON(ctx, key, &cached); err == nil && found {
		return cached, nil
	}

	list, err := s.artists.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list artists: %w", err)
	}
	if f.Near != nil {
		list = filterNear(list, *f.Near, f.RadiusKm)
	}

	if err := s.cache.SetJSON(ctx, key, list, s.config.Redis.CacheTTL); err != nil {
		logger.DebugContext(ctx, "Artist list not cached", "error", err)
	}
	return list, nil
}

// filterNear keeps artists with coordinates inside radiusKm, nearest first.
func filterNear(list []domain.Artist, origin domain.GeoPoint, radiusKm float64) []domain.Artist {
	type hit struct {
		artist domain.Artist
		dist   float64
	}
	hits := make([]hit, 0, len(list))
	for _, a := range list {
		pt, ok := a.Coordinates()
		if !ok {
			continue
		}
		if d := domain.DistanceKm(origin, pt); d <= radiusKm {
			hits = append(hits, hit{artist: a, dist: d})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })

	out := make([]domain.Artist, len(hits))
	for i, h := range hits {
		out[i] = h.artist
	}
	return out
}

func artistListKey(f domain.ArtistFilter) string {
	var b strings.Builder
	b.WriteString("artists:list:")
	b.WriteString(strings.ToLower(f.Specialty))
	b.WriteByte('|')
	b.WriteString(strings.ToLower(f.Location))
	b.WriteByte('|')
	if f.Available != nil {
		b.WriteString(strconv.FormatBool(*f.Available))
	}
	b.WriteByte('|')
	if f.Near != nil {
		fmt.Fprintf(&b, "%.4f,%.4f,%.1f", f.Near.Lat, f.Near.Lng, f.RadiusKm)
	}
	return b.String()
}

func (s *artistService) Get(ctx context.Context, id int64) (*domain.Artist, error) {
	a, err := s.artists.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get artist: %w", err)
	}
	if a == nil {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

func (s *artistService) Mine(ctx context.Context, p domain.Principal) (*domain.Artist, error) {
	return callerArtist(ctx, s.artists, p)
}

func (s *artistService) UpdateAvailability(ctx context.Context, p domain.Principal, available bool) (*domain.Artist, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	if !p.IsArtist() {
		return nil, domain.ErrForbidden
	}
	a, err := s.artists.SetAvailability(ctx, p.UserID, available)
	if err != nil {
		return nil, fmt.Errorf("update availability: %w", err)
	}
	if a == nil {
		return nil, domain.ErrForbidden
	}
	invalidateArtists(ctx, s.cache)
	return a, nil
}

func (s *artistService) UpdateProfile(ctx context.Context, p domain.Principal, patch *domain.ArtistProfilePatch) (*domain.Artist, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	if !p.IsArtist() {
		return nil, domain.ErrForbidden
	}
	patch.Normalize()
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	a, err := s.artists.UpdateProfile(ctx, p.UserID, patch)
	if err != nil {
		return nil, fmt.Errorf("update artist profile: %w", err)
	}
	if a == nil {
		return nil, domain.ErrForbidden
	}
	invalidateArtists(ctx, s.cache)
	return a, nil
}

func (s *artistService) SetVerificationStatus(ctx context.Context, p domain.Principal, artistID int64, status string) (*domain.Artist, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	if !p.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	vs, ok := domain.ParseVerificationStatus(status)
	if !ok {
		return nil, domain.Invalid("status", "must be verified, pending or unverified")
	}
	a, err := s.artists.SetVerificationStatus(ctx, artistID, vs)
	if err != nil {
		return nil, fmt.Errorf("set verification status: %w", err)
	}
	if a == nil {
		return nil, domain.ErrNotFound
	}
	logger.InfoContext(ctx, "Artist verification status changed", "artist_id", artistID, "status", vs)
	invalidateArtists(ctx, s.cache)
	return a, nil
}

func (s *artistService) RequestVerification(ctx context.Context, p domain.Principal) (*domain.Artist, error) {
	current, err := callerArtist(ctx, s.artists, p)
	if err != nil {
		return nil, err
	}
	if current.VerificationStatus != domain.VerificationUnverified {
		return nil, domain.ErrConflict
	}
	a, err := s.artists.RequestVerification(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("request verification: %w", err)
	}
	if a == nil {
		return nil, domain.ErrConflict
	}
	invalidateArtists(ctx, s.cache)
	return a, nil
}
