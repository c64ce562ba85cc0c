package postgres

import (
	"context"
	"time"

	"github.com/diagnosis/inkbook/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SlotsRepo interface {
	ListAvailable(ctx context.Context, artistID int64, from time.Time) ([]domain.TimeSlot, error)
	ListByArtist(ctx context.Context, artistID int64) ([]domain.TimeSlot, error)
	FindByID(ctx context.Context, id int64) (*domain.TimeSlot, error)
	Create(ctx context.Context, artistID int64, date, clock string, startsAt time.Time) (*domain.TimeSlot, error)
	// Delete removes an open slot owned by the artist. It reports false when nothing matched.
	Delete(ctx context.Context, artistID, slotID int64) (bool, error)
}

type SlotsRepoImpl struct{ pool *pgxpool.Pool }

func NewSlotsRepo(pool *pgxpool.Pool) *SlotsRepoImpl { return &SlotsRepoImpl{pool: pool} }

const slotCols = `id, artist_id, date, time, starts_at, available, created_at, updated_at`

func scanSlot(row rowScanner) (*domain.TimeSlot, error) {
	var s domain.TimeSlot
	if err := row.Scan(
		&s.ID, &s.ArtistID, &s.Date, &s.Time, &s.StartsAt, &s.Available, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SlotsRepoImpl) ListAvailable(ctx context.Context, artistID int64, from time.Time) ([]domain.TimeSlot, error) {
	const q = `SELECT ` + slotCols + ` FROM time_slots
WHERE artist_id=$1 AND available=true AND starts_at > $2
ORDER BY starts_at`
	return r.list(ctx, q, artistID, from)
}

func (r *SlotsRepoImpl) ListByArtist(ctx context.Context, artistID int64) ([]domain.TimeSlot, error) {
	const q = `SELECT ` + slotCols + ` FROM time_slots WHERE artist_id=$1 ORDER BY starts_at`
	return r.list(ctx, q, artistID)
}

func (r *SlotsRepoImpl) list(ctx context.Context, q string, args ...any) ([]domain.TimeSlot, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.TimeSlot, 0)
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *SlotsRepoImpl) FindByID(ctx context.Context, id int64) (*domain.TimeSlot, error) {
	const q = `SELECT ` + slotCols + ` FROM time_slots WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	s, err := scanSlot(r.pool.QueryRow(ctx, q, id))
	if isNoRows(err) {
		return nil, nil
	}
	return s, err
}

func (r *SlotsRepoImpl) Create(ctx context.Context, artistID int64, date, clock string, startsAt time.Time) (*domain.TimeSlot, error) {
	const q = `INSERT INTO time_slots (artist_id, date, time, starts_at)
VALUES ($1,$2,$3,$4)
RETURNING ` + slotCols
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	s, err := scanSlot(r.pool.QueryRow(ctx, q, artistID, date, clock, startsAt))
	if isUniqueViolation(err) {
		return nil, domain.ErrSlotExists
	}
	return s, err
}

func (r *SlotsRepoImpl) Delete(ctx context.Context, artistID, slotID int64) (bool, error) {
	const q = `
DELETE FROM time_slots s
WHERE s.id=$1 AND s.artist_id=$2 AND s.available=true
  AND NOT EXISTS (SELECT 1 FROM bookings b WHERE b.slot_id = s.id)`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ct, err := r.pool.Exec(ctx, q, slotID, artistID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

var _ SlotsRepo = (*SlotsRepoImpl)(nil)
