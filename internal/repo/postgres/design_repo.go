package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/diagnosis/inkbook/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DesignsRepo interface {
	List(ctx context.Context, f domain.DesignFilter) ([]domain.Design, error)
	FindByID(ctx context.Context, id int64) (*domain.Design, error)
	Create(ctx context.Context, artistID int64, in *domain.CreateDesignRequest) (*domain.Design, error)
	// Like records one like per user and returns the design's like count.
	Like(ctx context.Context, designID, userID int64) (likes int, added bool, err error)
}

type DesignsRepoImpl struct{ pool *pgxpool.Pool }

func NewDesignsRepo(pool *pgxpool.Pool) *DesignsRepoImpl { return &DesignsRepoImpl{pool: pool} }

const designCols = `d.id, d.title, d.image_url, d.price, d.artist_id, u.name, d.style, d.likes, d.created_at`

const selectDesigns = `SELECT ` + designCols + `
FROM designs d
JOIN artists a ON a.id = d.artist_id
JOIN users u ON u.id = a.user_id`

func scanDesign(row rowScanner) (*domain.Design, error) {
	var d domain.Design
	if err := row.Scan(
		&d.ID, &d.Title, &d.ImageURL, &d.Price, &d.ArtistID, &d.ArtistName, &d.Style, &d.Likes, &d.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DesignsRepoImpl) List(ctx context.Context, f domain.DesignFilter) ([]domain.Design, error) {
	var (
		where []string
		args  []any
	)
	if f.Style != "" {
		args = append(args, f.Style)
		where = append(where, fmt.Sprintf("lower(d.style) = lower($%d)", len(args)))
	}
	if f.ArtistID > 0 {
		args = append(args, f.ArtistID)
		where = append(where, fmt.Sprintf("d.artist_id = $%d", len(args)))
	}
	q := selectDesigns
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY d.created_at DESC, d.id DESC"

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Design, 0)
	for rows.Next() {
		d, err := scanDesign(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (r *DesignsRepoImpl) FindByID(ctx context.Context, id int64) (*domain.Design, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	d, err := scanDesign(r.pool.QueryRow(ctx, selectDesigns+` WHERE d.id=$1`, id))
	if isNoRows(err) {
		return nil, nil
	}
	return d, err
}

func (r *DesignsRepoImpl) Create(ctx context.Context, artistID int64, in *domain.CreateDesignRequest) (*domain.Design, error) {
	const q = `
WITH d AS (
  INSERT INTO designs (title, image_url, price, artist_id, style)
  VALUES ($1,$2,$3,$4,$5)
  RETURNING *
)
SELECT ` + designCols + `
FROM d
JOIN artists a ON a.id = d.artist_id
JOIN users u ON u.id = a.user_id`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return scanDesign(r.pool.QueryRow(ctx, q, in.Title, in.ImageURL, in.Price, artistID, in.Style))
}

func (r *DesignsRepoImpl) Like(ctx context.Context, designID, userID int64) (int, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var (
		likes int
		added bool
	)
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx,
			`INSERT INTO design_likes (design_id, user_id) VALUES ($1,$2) ON CONFLICT DO NOTHING`,
			designID, userID)
		if err != nil {
			return err
		}
		added = ct.RowsAffected() == 1
		if added {
			return tx.QueryRow(ctx, `UPDATE designs SET likes = likes + 1 WHERE id=$1 RETURNING likes`, designID).Scan(&likes)
		}
		return tx.QueryRow(ctx, `SELECT likes FROM designs WHERE id=$1`, designID).Scan(&likes)
	})
	if err != nil {
		return 0, false, err
	}
	return likes, added, nil
}

var _ DesignsRepo = (*DesignsRepoImpl)(nil)
