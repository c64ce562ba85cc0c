package postgres

import (
	"context"

	"github.com/diagnosis/inkbook/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// VerificationRepo stores age verification results. Raw id numbers never reach it.
type VerificationRepo interface {
	Upsert(ctx context.Context, v *domain.AgeVerification) (*domain.AgeVerification, error)
	Find(ctx context.Context, userID int64) (*domain.AgeVerification, error)
}

type VerificationRepoImpl struct{ pool *pgxpool.Pool }

func NewVerificationRepo(pool *pgxpool.Pool) *VerificationRepoImpl {
	return &VerificationRepoImpl{pool: pool}
}

const verificationCols = `user_id, id_type, id_number_hash, id_last4, date_of_birth, verified_at`

func scanVerification(row rowScanner) (*domain.AgeVerification, error) {
	var v domain.AgeVerification
	if err := row.Scan(&v.UserID, &v.IDType, &v.IDNumberHash, &v.IDLast4, &v.DateOfBirth, &v.VerifiedAt); err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VerificationRepoImpl) Upsert(ctx context.Context, v *domain.AgeVerification) (*domain.AgeVerification, error) {
	const q = `
INSERT INTO age_verifications (user_id, id_type, id_number_hash, id_last4, date_of_birth)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (user_id) DO UPDATE
SET id_type = EXCLUDED.id_type,
    id_number_hash = EXCLUDED.id_number_hash,
    id_last4 = EXCLUDED.id_last4,
    date_of_birth = EXCLUDED.date_of_birth,
    verified_at = now()
RETURNING ` + verificationCols
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return scanVerification(r.pool.QueryRow(ctx, q, v.UserID, v.IDType, v.IDNumberHash, v.IDLast4, v.DateOfBirth))
}

func (r *VerificationRepoImpl) Find(ctx context.Context, userID int64) (*domain.AgeVerification, error) {
	const q = `SELECT ` + verificationCols + ` FROM age_verifications WHERE user_id=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	v, err := scanVerification(r.pool.QueryRow(ctx, q, userID))
	if isNoRows(err) {
		return nil, nil
	}
	return v, err
}

var _ VerificationRepo = (*VerificationRepoImpl)(nil)
