package postgres

import (
	"context"

	"github.com/diagnosis/inkbook/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ConsultationsRepo interface {
	Create(ctx context.Context, clientID int64, in *domain.ConsultationRequest) (*domain.Consultation, error)
	FindByID(ctx context.Context, id int64) (*domain.Consultation, error)
	ListByClient(ctx context.Context, clientID int64) ([]domain.Consultation, error)
	ListByArtist(ctx context.Context, artistID int64) ([]domain.Consultation, error)
	// Transition sets status only if the row is still in the expected state. It returns nil when it was not.
	Transition(ctx context.Context, id int64, from domain.ConsultationStatus, to domain.ConsultationStatus) (*domain.Consultation, error)
}

type ConsultationsRepoImpl struct{ pool *pgxpool.Pool }

func NewConsultationsRepo(pool *pgxpool.Pool) *ConsultationsRepoImpl {
	return &ConsultationsRepoImpl{pool: pool}
}

const consultationCols = `id, artist_id, client_id, type, date, time, description, status, created_at, updated_at`

func scanConsultation(row rowScanner) (*domain.Consultation, error) {
	var c domain.Consultation
	if err := row.Scan(
		&c.ID, &c.ArtistID, &c.ClientID, &c.Type, &c.Date, &c.Time, &c.Description, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ConsultationsRepoImpl) Create(ctx context.Context, clientID int64, in *domain.ConsultationRequest) (*domain.Consultation, error) {
	const q = `INSERT INTO consultations (artist_id, client_id, type, date, time, description)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING ` + consultationCols
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return scanConsultation(r.pool.QueryRow(ctx, q,
		in.ArtistID, clientID, string(in.Type), in.Date, in.Time, in.Description))
}

func (r *ConsultationsRepoImpl) FindByID(ctx context.Context, id int64) (*domain.Consultation, error) {
	const q = `SELECT ` + consultationCols + ` FROM consultations WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	c, err := scanConsultation(r.pool.QueryRow(ctx, q, id))
	if isNoRows(err) {
		return nil, nil
	}
	return c, err
}

func (r *ConsultationsRepoImpl) ListByClient(ctx context.Context, clientID int64) ([]domain.Consultation, error) {
	const q = `SELECT ` + consultationCols + ` FROM consultations WHERE client_id=$1 ORDER BY created_at DESC`
	return r.list(ctx, q, clientID)
}

func (r *ConsultationsRepoImpl) ListByArtist(ctx context.Context, artistID int64) ([]domain.Consultation, error) {
	const q = `SELECT ` + consultationCols + ` FROM consultations WHERE artist_id=$1 ORDER BY created_at DESC`
	return r.list(ctx, q, artistID)
}

func (r *ConsultationsRepoImpl) list(ctx context.Context, q string, args ...any) ([]domain.Consultation, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Consultation, 0)
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *ConsultationsRepoImpl) Transition(ctx context.Context, id int64, from, to domain.ConsultationStatus) (*domain.Consultation, error) {
	const q = `UPDATE consultations SET status=$3, updated_at=now()
WHERE id=$1 AND status=$2
RETURNING ` + consultationCols
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	c, err := scanConsultation(r.pool.QueryRow(ctx, q, id, string(from), string(to)))
	if isNoRows(err) {
		return nil, nil
	}
	return c, err
}

var _ ConsultationsRepo = (*ConsultationsRepoImpl)(nil)
