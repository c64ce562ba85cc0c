package postgres

import (
	"context"
	"fmt"

	"github.com/diagnosis/inkbook/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepo interface {
	// Book claims the slot, inserts the booking and, when a key hash is given,
	// records it for replay. All three writes share one transaction.
	Book(ctx context.Context, p domain.BookSlotParams) (*domain.Booking, *domain.TimeSlot, error)
	FindByID(ctx context.Context, id int64) (*domain.Booking, error)
	ListByClient(ctx context.Context, clientID int64) ([]domain.Booking, error)
	ListByArtist(ctx context.Context, artistID int64) ([]domain.Booking, error)
	// Cancel marks a confirmed booking canceled and reopens its slot.
	Cancel(ctx context.Context, id int64) (*domain.Booking, error)
	SetPayment(ctx context.Context, id int64, intentID string, status domain.PaymentStatus) error
	SetPaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) error
	UpdatePaymentByIntent(ctx context.Context, intentID string, status domain.PaymentStatus) (*domain.Booking, error)
	HasConfirmed(ctx context.Context, clientID, artistID int64) (bool, error)
}

type BookingRepoImpl struct{ pool *pgxpool.Pool }

func NewBookingRepo(pool *pgxpool.Pool) *BookingRepoImpl { return &BookingRepoImpl{pool: pool} }

const bookingCols = `id, slot_id, artist_id, client_id, status, starts_at,
deposit_cents, payment_status, payment_intent_id, canceled_at,
created_at, updated_at`

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(
		&b.ID, &b.SlotID, &b.ArtistID, &b.ClientID, &b.Status, &b.StartsAt,
		&b.DepositCents, &b.PaymentStatus, &b.PaymentIntentID, &b.CanceledAt,
		&b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookingRepoImpl) Book(ctx context.Context, p domain.BookSlotParams) (*domain.Booking, *domain.TimeSlot, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var (
		b    *domain.Booking
		slot *domain.TimeSlot
	)
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		const claim = `UPDATE time_slots SET available=false, updated_at=now()
WHERE id=$1 AND available=true AND starts_at > now()
RETURNING ` + slotCols
		var err error
		slot, err = scanSlot(tx.QueryRow(ctx, claim, p.SlotID))
		if isNoRows(err) {
			return domain.ErrSlotUnavailable
		}
		if err != nil {
			return fmt.Errorf("claim slot: %w", err)
		}

		const insert = `
INSERT INTO bookings (slot_id, artist_id, client_id, starts_at, deposit_cents, payment_status)
SELECT $1, a.id, $2, $3, a.deposit_cents,
       CASE WHEN a.deposit_cents > 0 THEN 'requires_payment' ELSE 'none' END
FROM artists a WHERE a.id = $4
RETURNING ` + bookingCols
		b, err = scanBooking(tx.QueryRow(ctx, insert, slot.ID, p.ClientID, slot.StartsAt, slot.ArtistID))
		if isUniqueViolation(err) {
			return domain.ErrSlotUnavailable
		}
		if err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}

		if p.KeyHash == "" {
			return nil
		}
		const remember = `
INSERT INTO booking_idempotency (key_hash, client_id, booking_id, expires_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (client_id, key_hash) DO NOTHING`
		ct, err := tx.Exec(ctx, remember, p.KeyHash, p.ClientID, b.ID, p.KeyExpiresAt)
		if err != nil {
			return fmt.Errorf("record idempotency key: %w", err)
		}
		if ct.RowsAffected() == 0 {
			// a concurrent request with the same key won
			return domain.ErrIdempotencyReplay
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return b, slot, nil
}

func (r *BookingRepoImpl) FindByID(ctx context.Context, id int64) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q, id))
	if isNoRows(err) {
		return nil, nil
	}
	return b, err
}

func (r *BookingRepoImpl) ListByClient(ctx context.Context, clientID int64) ([]domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE client_id=$1 ORDER BY starts_at DESC`
	return r.list(ctx, q, clientID)
}

func (r *BookingRepoImpl) ListByArtist(ctx context.Context, artistID int64) ([]domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE artist_id=$1 ORDER BY starts_at DESC`
	return r.list(ctx, q, artistID)
}

func (r *BookingRepoImpl) list(ctx context.Context, q string, args ...any) ([]domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bs := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bs = append(bs, *b)
	}
	return bs, rows.Err()
}

func (r *BookingRepoImpl) Cancel(ctx context.Context, id int64) (*domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var b *domain.Booking
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		const q = `UPDATE bookings
SET status='canceled', canceled_at=now(), updated_at=now()
WHERE id=$1 AND status='confirmed'
RETURNING ` + bookingCols
		var err error
		b, err = scanBooking(tx.QueryRow(ctx, q, id))
		if isNoRows(err) {
			return domain.ErrConflict
		}
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE time_slots SET available=true, updated_at=now() WHERE id=$1`, b.SlotID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *BookingRepoImpl) SetPayment(ctx context.Context, id int64, intentID string, status domain.PaymentStatus) error {
	const q = `UPDATE bookings SET payment_intent_id=$2, payment_status=$3, updated_at=now() WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err := r.pool.Exec(ctx, q, id, intentID, string(status))
	return err
}

func (r *BookingRepoImpl) SetPaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) error {
	const q = `UPDATE bookings SET payment_status=$2, updated_at=now() WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err := r.pool.Exec(ctx, q, id, string(status))
	return err
}

func (r *BookingRepoImpl) UpdatePaymentByIntent(ctx context.Context, intentID string, status domain.PaymentStatus) (*domain.Booking, error) {
	const q = `UPDATE bookings SET payment_status=$2, updated_at=now()
WHERE payment_intent_id=$1 AND payment_status <> 'refunded'
RETURNING ` + bookingCols
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q, intentID, string(status)))
	if isNoRows(err) {
		return nil, nil
	}
	return b, err
}

func (r *BookingRepoImpl) HasConfirmed(ctx context.Context, clientID, artistID int64) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM bookings WHERE client_id=$1 AND artist_id=$2 AND status='confirmed')`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var ok bool
	err := r.pool.QueryRow(ctx, q, clientID, artistID).Scan(&ok)
	return ok, err
}

var _ BookingRepo = (*BookingRepoImpl)(nil)
