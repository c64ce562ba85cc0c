package postgres

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/diagnosis/inkbook/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// IdempotencyRepo resolves booking Idempotency-Keys recorded by BookingRepo.Book.
type IdempotencyRepo interface {
	// FindBooking returns the booking an unexpired key produced for this client, or nil.
	FindBooking(ctx context.Context, clientID int64, keyHash string) (*domain.Booking, error)
	// CleanupExpired removes expired idempotency records
	CleanupExpired(ctx context.Context) (int64, error)
}

type IdempotencyRepoImpl struct {
	pool *pgxpool.Pool
}

func NewIdempotencyRepo(pool *pgxpool.Pool) *IdempotencyRepoImpl {
	return &IdempotencyRepoImpl{pool: pool}
}

// HashKey hashes the idempotency key for privacy and consistent length.
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func (r *IdempotencyRepoImpl) FindBooking(ctx context.Context, clientID int64, keyHash string) (*domain.Booking, error) {
	const q = `
SELECT b.id, b.slot_id, b.artist_id, b.client_id, b.status, b.starts_at,
       b.deposit_cents, b.payment_status, b.payment_intent_id, b.canceled_at,
       b.created_at, b.updated_at
FROM booking_idempotency i
JOIN bookings b ON b.id = i.booking_id
WHERE i.client_id = $1 AND i.key_hash = $2 AND i.expires_at > now()`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q, clientID, keyHash))
	if isNoRows(err) {
		return nil, nil
	}
	return b, err
}

func (r *IdempotencyRepoImpl) CleanupExpired(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := `DELETE FROM booking_idempotency WHERE expires_at < now()`
	result, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected(), nil
}

var _ IdempotencyRepo = (*IdempotencyRepoImpl)(nil)
