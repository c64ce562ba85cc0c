package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/diagnosis/inkbook/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ArtistsRepo interface {
	List(ctx context.Context, f domain.ArtistFilter) ([]domain.Artist, error)
	FindByID(ctx context.Context, id int64) (*domain.Artist, error)
	FindByUserID(ctx context.Context, userID int64) (*domain.Artist, error)
	SetAvailability(ctx context.Context, userID int64, available bool) (*domain.Artist, error)
	UpdateProfile(ctx context.Context, userID int64, p *domain.ArtistProfilePatch) (*domain.Artist, error)
	SetVerificationStatus(ctx context.Context, id int64, status domain.VerificationStatus) (*domain.Artist, error)
	// RequestVerification moves an unverified profile to pending. It returns nil when the profile was not unverified.
	RequestVerification(ctx context.Context, userID int64) (*domain.Artist, error)
}

type ArtistsRepoImpl struct{ pool *pgxpool.Pool }

func NewArtistsRepo(pool *pgxpool.Pool) *ArtistsRepoImpl { return &ArtistsRepoImpl{pool: pool} }

const artistCols = `a.id, a.user_id, u.name, a.specialty, a.location, a.rating,
a.image_url, a.bio, a.available, a.latitude, a.longitude,
a.verification_status, a.deposit_cents, a.created_at, a.updated_at`

const selectArtists = `SELECT ` + artistCols + ` FROM artists a JOIN users u ON u.id = a.user_id`

func scanArtist(row rowScanner) (*domain.Artist, error) {
	var a domain.Artist
	if err := row.Scan(
		&a.ID, &a.UserID, &a.Name, &a.Specialty, &a.Location, &a.Rating,
		&a.ImageURL, &a.Bio, &a.Available, &a.Latitude, &a.Longitude,
		&a.VerificationStatus, &a.DepositCents, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if a.Specialty == nil {
		a.Specialty = []string{}
	}
	return &a, nil
}

// List applies the column filters in SQL. Proximity is left to the caller.
func (r *ArtistsRepoImpl) List(ctx context.Context, f domain.ArtistFilter) ([]domain.Artist, error) {
	var (
		where []string
		args  []any
	)
	if f.Specialty != "" {
		args = append(args, f.Specialty)
		where = append(where, fmt.Sprintf("EXISTS (SELECT 1 FROM unnest(a.specialty) s WHERE lower(s) = lower($%d))", len(args)))
	}
	if f.Location != "" {
		args = append(args, "%"+f.Location+"%")
		where = append(where, fmt.Sprintf("a.location ILIKE $%d", len(args)))
	}
	if f.Available != nil {
		args = append(args, *f.Available)
		where = append(where, fmt.Sprintf("a.available = $%d", len(args)))
	}

	q := selectArtists
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY a.rating DESC, a.id"

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Artist, 0)
	for rows.Next() {
		a, err := scanArtist(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *ArtistsRepoImpl) FindByID(ctx context.Context, id int64) (*domain.Artist, error) {
	return r.findOne(ctx, selectArtists+` WHERE a.id=$1`, id)
}

func (r *ArtistsRepoImpl) FindByUserID(ctx context.Context, userID int64) (*domain.Artist, error) {
	return r.findOne(ctx, selectArtists+` WHERE a.user_id=$1`, userID)
}

func (r *ArtistsRepoImpl) findOne(ctx context.Context, q string, args ...any) (*domain.Artist, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	a, err := scanArtist(r.pool.QueryRow(ctx, q, args...))
	if isNoRows(err) {
		return nil, nil
	}
	return a, err
}

// updateReturning runs an UPDATE on artists whose RETURNING clause yields the row id, then reloads the joined row.
func (r *ArtistsRepoImpl) updateReturning(ctx context.Context, q string, args ...any) (*domain.Artist, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var id int64
	err := r.pool.QueryRow(ctx, q, args...).Scan(&id)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a, err := scanArtist(r.pool.QueryRow(ctx, selectArtists+` WHERE a.id=$1`, id))
	if isNoRows(err) {
		return nil, nil
	}
	return a, err
}

func (r *ArtistsRepoImpl) SetAvailability(ctx context.Context, userID int64, available bool) (*domain.Artist, error) {
	const q = `UPDATE artists SET available=$2, updated_at=now() WHERE user_id=$1 RETURNING id`
	return r.updateReturning(ctx, q, userID, available)
}

func (r *ArtistsRepoImpl) UpdateProfile(ctx context.Context, userID int64, p *domain.ArtistProfilePatch) (*domain.Artist, error) {
	const q = `
UPDATE artists
SET bio = COALESCE($2, bio),
    location = COALESCE($3, location),
    specialty = COALESCE($4, specialty),
    image_url = COALESCE($5, image_url),
    latitude = COALESCE($6, latitude),
    longitude = COALESCE($7, longitude),
    deposit_cents = COALESCE($8, deposit_cents),
    updated_at = now()
WHERE user_id = $1
RETURNING id`
	return r.updateReturning(ctx, q, userID,
		p.Bio, p.Location, p.Specialty, p.ImageURL, p.Latitude, p.Longitude, p.DepositCents,
	)
}

func (r *ArtistsRepoImpl) SetVerificationStatus(ctx context.Context, id int64, status domain.VerificationStatus) (*domain.Artist, error) {
	const q = `UPDATE artists SET verification_status=$2, updated_at=now() WHERE id=$1 RETURNING id`
	return r.updateReturning(ctx, q, id, string(status))
}

func (r *ArtistsRepoImpl) RequestVerification(ctx context.Context, userID int64) (*domain.Artist, error) {
	const q = `
UPDATE artists SET verification_status='pending', updated_at=now()
WHERE user_id=$1 AND verification_status='unverified'
RETURNING id`
	return r.updateReturning(ctx, q, userID)
}

var _ ArtistsRepo = (*ArtistsRepoImpl)(nil)
