package postgres

import (
	"context"

	"github.com/diagnosis/inkbook/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReviewsRepo interface {
	// Create inserts the review and recomputes the artist's rating in the same transaction.
	Create(ctx context.Context, artistID, clientID int64, in *domain.ReviewRequest) (*domain.Review, error)
	ListByArtist(ctx context.Context, artistID int64) ([]domain.Review, error)
}

type ReviewsRepoImpl struct{ pool *pgxpool.Pool }

func NewReviewsRepo(pool *pgxpool.Pool) *ReviewsRepoImpl { return &ReviewsRepoImpl{pool: pool} }

func (r *ReviewsRepoImpl) Create(ctx context.Context, artistID, clientID int64, in *domain.ReviewRequest) (*domain.Review, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var rv domain.Review
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		// serialize reviews per artist so each rating recompute sees every committed review
		const lock = `SELECT 1 FROM artists WHERE id=$1 FOR UPDATE`
		var one int
		if err := tx.QueryRow(ctx, lock, artistID).Scan(&one); err != nil {
			if isNoRows(err) {
				return domain.ErrNotFound
			}
			return err
		}

		const insert = `
WITH ins AS (
  INSERT INTO reviews (artist_id, client_id, rating, comment)
  VALUES ($1,$2,$3,$4)
  RETURNING id, artist_id, client_id, rating, comment, created_at
)
SELECT ins.id, ins.artist_id, ins.client_id, u.name, ins.rating, ins.comment, ins.created_at
FROM ins JOIN users u ON u.id = ins.client_id`
		if err := tx.QueryRow(ctx, insert, artistID, clientID, in.Rating, in.Comment).Scan(
			&rv.ID, &rv.ArtistID, &rv.ClientID, &rv.ClientName, &rv.Rating, &rv.Comment, &rv.CreatedAt,
		); err != nil {
			return err
		}
		const rate = `UPDATE artists
SET rating = (SELECT COALESCE(AVG(rating), 0) FROM reviews WHERE artist_id=$1), updated_at=now()
WHERE id=$1`
		_, err := tx.Exec(ctx, rate, artistID)
		return err
	})
	if isUniqueViolation(err) {
		return nil, domain.ErrConflict
	}
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *ReviewsRepoImpl) ListByArtist(ctx context.Context, artistID int64) ([]domain.Review, error) {
	const q = `
SELECT r.id, r.artist_id, r.client_id, u.name, r.rating, r.comment, r.created_at
FROM reviews r JOIN users u ON u.id = r.client_id
WHERE r.artist_id=$1
ORDER BY r.created_at DESC`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, artistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Review, 0)
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(&rv.ID, &rv.ArtistID, &rv.ClientID, &rv.ClientName, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

var _ ReviewsRepo = (*ReviewsRepoImpl)(nil)
