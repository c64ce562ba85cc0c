package postgres

import (
	"context"

	"github.com/diagnosis/inkbook/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type WaiversRepo interface {
	Create(ctx context.Context, artistID int64, in *domain.WaiverRequest) (*domain.Waiver, error)
	Update(ctx context.Context, artistID, id int64, in *domain.WaiverRequest) (*domain.Waiver, error)
	Delete(ctx context.Context, artistID, id int64) (bool, error)
	FindByID(ctx context.Context, id int64) (*domain.Waiver, error)
	ListByArtist(ctx context.Context, artistID int64) ([]domain.Waiver, error)
	// Sign stores the client's signature. An existing signature is returned unchanged.
	Sign(ctx context.Context, waiverID, clientID int64, signature string) (*domain.WaiverSignature, error)
	ListSignatures(ctx context.Context, artistID int64) ([]SignatureRow, error)
	// UnsignedRequired counts the artist's required waivers the client has not signed.
	UnsignedRequired(ctx context.Context, artistID, clientID int64) (int, error)
}

// SignatureRow joins a signature with its waiver title and the signer's name.
type SignatureRow struct {
	domain.WaiverSignature
	WaiverTitle string `json:"waiver_title"`
	ClientName  string `json:"client_name"`
}

type WaiversRepoImpl struct{ pool *pgxpool.Pool }

func NewWaiversRepo(pool *pgxpool.Pool) *WaiversRepoImpl { return &WaiversRepoImpl{pool: pool} }

const waiverCols = `id, artist_id, title, content, required, created_at, updated_at`

func scanWaiver(row rowScanner) (*domain.Waiver, error) {
	var w domain.Waiver
	if err := row.Scan(&w.ID, &w.ArtistID, &w.Title, &w.Content, &w.Required, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WaiversRepoImpl) Create(ctx context.Context, artistID int64, in *domain.WaiverRequest) (*domain.Waiver, error) {
	const q = `INSERT INTO waivers (artist_id, title, content, required)
VALUES ($1,$2,$3,$4)
RETURNING ` + waiverCols
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return scanWaiver(r.pool.QueryRow(ctx, q, artistID, in.Title, in.Content, in.IsRequired()))
}

func (r *WaiversRepoImpl) Update(ctx context.Context, artistID, id int64, in *domain.WaiverRequest) (*domain.Waiver, error) {
	const q = `UPDATE waivers
SET title=$3, content=$4, required=COALESCE($5, required), updated_at=now()
WHERE id=$1 AND artist_id=$2
RETURNING ` + waiverCols
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	w, err := scanWaiver(r.pool.QueryRow(ctx, q, id, artistID, in.Title, in.Content, in.Required))
	if isNoRows(err) {
		return nil, nil
	}
	return w, err
}

func (r *WaiversRepoImpl) Delete(ctx context.Context, artistID, id int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ct, err := r.pool.Exec(ctx, `DELETE FROM waivers WHERE id=$1 AND artist_id=$2`, id, artistID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (r *WaiversRepoImpl) FindByID(ctx context.Context, id int64) (*domain.Waiver, error) {
	const q = `SELECT ` + waiverCols + ` FROM waivers WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	w, err := scanWaiver(r.pool.QueryRow(ctx, q, id))
	if isNoRows(err) {
		return nil, nil
	}
	return w, err
}

func (r *WaiversRepoImpl) ListByArtist(ctx context.Context, artistID int64) ([]domain.Waiver, error) {
	const q = `SELECT ` + waiverCols + ` FROM waivers WHERE artist_id=$1 ORDER BY required DESC, id`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, artistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Waiver, 0)
	for rows.Next() {
		w, err := scanWaiver(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}

func (r *WaiversRepoImpl) Sign(ctx context.Context, waiverID, clientID int64, signature string) (*domain.WaiverSignature, error) {
	const q = `
WITH ins AS (
  INSERT INTO waiver_signatures (waiver_id, client_id, signature)
  VALUES ($1,$2,$3)
  ON CONFLICT (waiver_id, client_id) DO NOTHING
  RETURNING id, waiver_id, client_id, signature, signed_at
)
SELECT id, waiver_id, client_id, signature, signed_at FROM ins
UNION ALL
SELECT id, waiver_id, client_id, signature, signed_at FROM waiver_signatures
WHERE waiver_id=$1 AND client_id=$2
LIMIT 1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var s domain.WaiverSignature
	if err := r.pool.QueryRow(ctx, q, waiverID, clientID, signature).Scan(
		&s.ID, &s.WaiverID, &s.ClientID, &s.Signature, &s.SignedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *WaiversRepoImpl) ListSignatures(ctx context.Context, artistID int64) ([]SignatureRow, error) {
	const q = `
SELECT s.id, s.waiver_id, s.client_id, s.signature, s.signed_at, w.title, u.name
FROM waiver_signatures s
JOIN waivers w ON w.id = s.waiver_id
JOIN users u ON u.id = s.client_id
WHERE w.artist_id = $1
ORDER BY s.signed_at DESC`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, artistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]SignatureRow, 0)
	for rows.Next() {
		var s SignatureRow
		if err := rows.Scan(&s.ID, &s.WaiverID, &s.ClientID, &s.Signature, &s.SignedAt, &s.WaiverTitle, &s.ClientName); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *WaiversRepoImpl) UnsignedRequired(ctx context.Context, artistID, clientID int64) (int, error) {
	const q = `
SELECT count(*) FROM waivers w
WHERE w.artist_id = $1 AND w.required
  AND NOT EXISTS (
    SELECT 1 FROM waiver_signatures s
    WHERE s.waiver_id = w.id AND s.client_id = $2
  )`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var n int
	err := r.pool.QueryRow(ctx, q, artistID, clientID).Scan(&n)
	return n, err
}

var _ WaiversRepo = (*WaiversRepoImpl)(nil)
