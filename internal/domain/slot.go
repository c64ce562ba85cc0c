package domain

import (
	"time"

	"github.com/diagnosis/inkbook/internal/utils"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

type TimeSlot struct {
	ID        int64     `json:"id"`
	ArtistID  int64     `json:"artist_id"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	StartsAt  time.Time `json:"starts_at"`
	Available bool      `json:"available"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateSlotRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// ParseSlotTime combines a YYYY-MM-DD date and an HH:MM time into a UTC instant.
func ParseSlotTime(date, clock string) (time.Time, error) {
	d, err := time.Parse(DateLayout, utils.NormalizeString(date))
	if err != nil {
		return time.Time{}, Invalid("date", "must be YYYY-MM-DD")
	}
	c, err := time.Parse(TimeLayout, utils.NormalizeString(clock))
	if err != nil {
		return time.Time{}, Invalid("time", "must be HH:MM")
	}
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), 0, 0, time.UTC), nil
}

func (r *CreateSlotRequest) Validate(now time.Time) (time.Time, error) {
	startsAt, err := ParseSlotTime(r.Date, r.Time)
	if err != nil {
		return time.Time{}, err
	}
	if !startsAt.After(now) {
		return time.Time{}, Invalid("date", "slot must be in the future")
	}
	r.Date = startsAt.Format(DateLayout)
	r.Time = startsAt.Format(TimeLayout)
	return startsAt, nil
}

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCanceled  BookingStatus = "canceled"
)

type PaymentStatus string

const (
	PaymentNone            PaymentStatus = "none"
	PaymentRequiresPayment PaymentStatus = "requires_payment"
	PaymentPaid            PaymentStatus = "paid"
	PaymentFailed          PaymentStatus = "failed"
	PaymentRefunded        PaymentStatus = "refunded"
)

type Booking struct {
	ID              int64         `json:"id"`
	SlotID          int64         `json:"slot_id"`
	ArtistID        int64         `json:"artist_id"`
	ClientID        int64         `json:"client_id"`
	Status          BookingStatus `json:"status"`
	StartsAt        time.Time     `json:"starts_at"`
	DepositCents    int64         `json:"deposit_cents"`
	PaymentStatus   PaymentStatus `json:"payment_status"`
	PaymentIntentID *string       `json:"payment_intent_id,omitempty"`
	CanceledAt      *time.Time    `json:"canceled_at,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// BookingResult is returned from a booking attempt. Replayed is set when an
// Idempotency-Key matched an earlier booking and nothing new was written.
type BookingResult struct {
	Booking      *Booking  `json:"booking"`
	Slot         *TimeSlot `json:"slot"`
	ClientSecret string    `json:"client_secret,omitempty"`
	Replayed     bool      `json:"replayed"`
}

type BookSlotParams struct {
	SlotID       int64
	ClientID     int64
	KeyHash      string
	KeyExpiresAt time.Time
}

// CanClientCancel applies the cutoff rule to a client-initiated cancellation.
func (b *Booking) CanClientCancel(now time.Time, cutoff time.Duration) bool {
	if b.Status != BookingConfirmed {
		return false
	}
	return now.Before(b.StartsAt.Add(-cutoff))
}
