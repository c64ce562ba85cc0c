package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/diagnosis/inkbook/internal/domain"
	"github.com/diagnosis/inkbook/internal/payments"
	"github.com/diagnosis/inkbook/internal/repo/postgres"
	"github.com/diagnosis/inkbook/pkg/config"
	"github.com/diagnosis/inkbook/pkg/events"
	"github.com/diagnosis/inkbook/pkg/logger"
)

type BookingService interface {
	AvailableSlots(ctx context.Context, artistID int64) ([]domain.TimeSlot, error)
	MySlots(ctx context.Context, p domain.Principal) ([]domain.TimeSlot, error)
	CreateSlot(ctx context.Context, p domain.Principal, req *domain.CreateSlotRequest) (*domain.TimeSlot, error)
	DeleteSlot(ctx context.Context, p domain.Principal, slotID int64) error
	BookSlot(ctx context.Context, p domain.Principal, slotID int64, idempotencyKey string) (*domain.BookingResult, error)
	PayDeposit(ctx context.Context, p domain.Principal, bookingID int64) (*domain.BookingResult, error)
	Cancel(ctx context.Context, p domain.Principal, bookingID int64) (*domain.Booking, error)
	List(ctx context.Context, p domain.Principal) ([]domain.Booking, error)
	HandlePaymentWebhook(ctx context.Context, payload []byte, signature string) error
	CleanupExpired(ctx context.Context) (int64, error)
	RunCleanup(ctx context.Context) error
}

type bookingService struct {
	slots         postgres.SlotsRepo
	bookings      postgres.BookingRepo
	idempotency   postgres.IdempotencyRepo
	artists       postgres.ArtistsRepo
	users         postgres.UsersRepo
	waivers       postgres.WaiversRepo
	verifications postgres.VerificationRepo
	payments      payments.Gateway
	eventBus      events.EventBus
	config        *config.Config
	now           func() time.Time
}

type BookingDeps struct {
	Slots         postgres.SlotsRepo
	Bookings      postgres.BookingRepo
	Idempotency   postgres.IdempotencyRepo
	Artists       postgres.ArtistsRepo
	Users         postgres.UsersRepo
	Waivers       postgres.WaiversRepo
	Verifications postgres.VerificationRepo
	Payments      payments.Gateway
	EventBus      events.EventBus
}

func NewBookingService(deps BookingDeps, cfg *config.Config) BookingService {
	return &bookingService{
		slots:         deps.Slots,
		bookings:      deps.Bookings,
		idempotency:   deps.Idempotency,
		artists:       deps.Artists,
		users:         deps.Users,
		waivers:       deps.Waivers,
		verifications: deps.Verifications,
		payments:      deps.Payments,
		eventBus:      deps.EventBus,
		config:        cfg,
		now:           time.Now,
	}
}

func (s *bookingService) AvailableSlots(ctx context.Context, artistID int64) ([]domain.TimeSlot, error) {
	slots, err := s.slots.ListAvailable(ctx, artistID, s.now())
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return slots, nil
}

func (s *bookingService) MySlots(ctx context.Context, p domain.Principal) ([]domain.TimeSlot, error) {
	artist, err := callerArtist(ctx, s.artists, p)
	if err != nil {
		return nil, err
	}
	return s.slots.ListByArtist(ctx, artist.ID)
}

func (s *bookingService) CreateSlot(ctx context.Context, p domain.Principal, req *domain.CreateSlotRequest) (*domain.TimeSlot, error) {
	artist, err := callerArtist(ctx, s.artists, p)
	if err != nil {
		return nil, err
	}
	startsAt, err := req.Validate(s.now())
	if err != nil {
		return nil, err
	}
	slot, err := s.slots.Create(ctx, artist.ID, req.Date, req.Time, startsAt)
	if err != nil {
		if errors.Is(err, domain.ErrSlotExists) {
			return nil, err
		}
		return nil, fmt.Errorf("create slot: %w", err)
	}
	return slot, nil
}

func (s *bookingService) DeleteSlot(ctx context.Context, p domain.Principal, slotID int64) error {
	artist, err := callerArtist(ctx, s.artists, p)
	if err != nil {
		return err
	}
	ok, err := s.slots.Delete(ctx, artist.ID, slotID)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	if ok {
		return nil
	}
	slot, err := s.slots.FindByID(ctx, slotID)
	if err != nil {
		return fmt.Errorf("get slot: %w", err)
	}
	if slot == nil || slot.ArtistID != artist.ID {
		return domain.ErrNotFound
	}
	// it exists and is ours, so it has been booked
	return domain.ErrConflict
}

func (s *bookingService) BookSlot(ctx context.Context, p domain.Principal, slotID int64, idempotencyKey string) (*domain.BookingResult, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}

	var keyHash string
	if idempotencyKey != "" {
		keyHash = postgres.HashKey(idempotencyKey)
		if res, err := s.replay(ctx, p.UserID, keyHash, slotID); err != nil || res != nil {
			return res, err
		}
	}

	slot, err := s.slots.FindByID(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	if slot == nil || !slot.Available || !slot.StartsAt.After(s.now()) {
		return nil, domain.ErrSlotUnavailable
	}
	artist, err := s.artists.FindByID(ctx, slot.ArtistID)
	if err != nil {
		return nil, fmt.Errorf("get artist: %w", err)
	}
	if artist == nil {
		return nil, domain.ErrSlotUnavailable
	}
	if artist.UserID == p.UserID {
		return nil, domain.ErrForbidden
	}
	if err := s.checkEligibility(ctx, p.UserID, artist.ID); err != nil {
		return nil, err
	}

	booking, slot, err := s.bookings.Book(ctx, domain.BookSlotParams{
		SlotID:       slotID,
		ClientID:     p.UserID,
		KeyHash:      keyHash,
		KeyExpiresAt: s.now().Add(s.config.Booking.IdempotencyTTL),
	})
	if errors.Is(err, domain.ErrIdempotencyReplay) {
		res, rerr := s.replay(ctx, p.UserID, keyHash, slotID)
		if rerr != nil {
			return nil, rerr
		}
		if res != nil {
			return res, nil
		}
		return nil, domain.ErrSlotUnavailable
	}
	if err != nil {
		if errors.Is(err, domain.ErrSlotUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("book slot: %w", err)
	}

	result := &domain.BookingResult{Booking: booking, Slot: slot}
	key := idempotencyKey
	if key == "" {
		key = depositKey(booking.ID)
	}
	s.collectDeposit(ctx, result, key)

	logger.InfoContext(ctx, "Slot booked", "booking_id", booking.ID, "slot_id", slot.ID, "artist_id", booking.ArtistID)
	publish(ctx, s.eventBus, events.BookingCreated, events.BookingCreatedEvent{
		BookingID:    booking.ID,
		SlotID:       slot.ID,
		Client:       party(ctx, s.users, booking.ClientID),
		Artist:       party(ctx, s.users, artist.UserID),
		StartsAt:     booking.StartsAt,
		DepositCents: booking.DepositCents,
		CreatedAt:    booking.CreatedAt,
	})
	return result, nil
}

// replay returns the booking an earlier request with the same key produced, or nil.
// A key already spent on another slot is a conflict.
func (s *bookingService) replay(ctx context.Context, clientID int64, keyHash string, slotID int64) (*domain.BookingResult, error) {
	existing, err := s.idempotency.FindBooking(ctx, clientID, keyHash)
	if err != nil {
		return nil, fmt.Errorf("idempotency check failed: %w", err)
	}
	if existing == nil {
		return nil, nil
	}
	if existing.SlotID != slotID {
		return nil, domain.ErrConflict
	}
	slot, err := s.slots.FindByID(ctx, existing.SlotID)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	logger.InfoContext(ctx, "Replaying booking for idempotency key", "booking_id", existing.ID)
	return &domain.BookingResult{Booking: existing, Slot: slot, Replayed: true}, nil
}

func (s *bookingService) checkEligibility(ctx context.Context, clientID, artistID int64) error {
	if s.config.Booking.RequireAgeVerification {
		v, err := s.verifications.Find(ctx, clientID)
		if err != nil {
			return fmt.Errorf("get age verification: %w", err)
		}
		if v == nil {
			return domain.ErrAgeVerification
		}
		if domain.AgeOn(v.DateOfBirth, s.now()) < s.config.Booking.MinimumAge {
			return domain.ErrUnderage
		}
	}
	missing, err := s.waivers.UnsignedRequired(ctx, artistID, clientID)
	if err != nil {
		return fmt.Errorf("check waivers: %w", err)
	}
	if missing > 0 {
		return domain.ErrWaiverRequired
	}
	return nil
}

func depositKey(bookingID int64) string {
	return "booking-" + strconv.FormatInt(bookingID, 10)
}

// collectDeposit opens a PaymentIntent for the artist's deposit. Payment trouble never undoes the booking;
// a failed attempt leaves the booking in payment_status=failed for PayDeposit to retry.
func (s *bookingService) collectDeposit(ctx context.Context, res *domain.BookingResult, key string) {
	b := res.Booking
	if b.DepositCents <= 0 {
		return
	}
	if s.payments == nil || !s.payments.Enabled() {
		if err := s.bookings.SetPaymentStatus(ctx, b.ID, domain.PaymentNone); err != nil {
			logger.ErrorContext(ctx, "Failed to clear payment status", "error", err, "booking_id", b.ID)
		}
		b.PaymentStatus = domain.PaymentNone
		return
	}

	intent, err := s.payments.CreateDeposit(ctx, b.ID, b.DepositCents, key)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to create deposit intent", "error", err, "booking_id", b.ID)
		if err := s.bookings.SetPaymentStatus(ctx, b.ID, domain.PaymentFailed); err != nil {
			logger.ErrorContext(ctx, "Failed to mark payment failed", "error", err, "booking_id", b.ID)
		}
		b.PaymentStatus = domain.PaymentFailed
		return
	}
	if err := s.bookings.SetPayment(ctx, b.ID, intent.ID, domain.PaymentRequiresPayment); err != nil {
		logger.ErrorContext(ctx, "Failed to store payment intent", "error", err, "booking_id", b.ID)
	}
	b.PaymentIntentID = &intent.ID
	b.PaymentStatus = domain.PaymentRequiresPayment
	res.ClientSecret = intent.ClientSecret
}

// PayDeposit retries the deposit of the caller's confirmed booking whose payment failed or is still open.
func (s *bookingService) PayDeposit(ctx context.Context, p domain.Principal, bookingID int64) (*domain.BookingResult, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if b == nil || b.ClientID != p.UserID {
		return nil, domain.ErrNotFound
	}
	if b.Status != domain.BookingConfirmed || b.DepositCents <= 0 {
		return nil, domain.ErrConflict
	}
	if b.PaymentStatus != domain.PaymentFailed && b.PaymentStatus != domain.PaymentRequiresPayment {
		return nil, domain.ErrConflict
	}
	if s.payments == nil || !s.payments.Enabled() {
		return nil, payments.ErrNotConfigured
	}

	slot, err := s.slots.FindByID(ctx, b.SlotID)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	res := &domain.BookingResult{Booking: b, Slot: slot}
	s.collectDeposit(ctx, res, depositKey(b.ID))
	if b.PaymentStatus == domain.PaymentFailed {
		return nil, fmt.Errorf("create deposit for booking %d: %w", b.ID, domain.ErrPaymentFailed)
	}
	logger.InfoContext(ctx, "Deposit intent reopened", "booking_id", b.ID)
	return res, nil
}

func (s *bookingService) Cancel(ctx context.Context, p domain.Principal, bookingID int64) (*domain.Booking, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if b == nil {
		return nil, domain.ErrNotFound
	}
	artist, err := s.artists.FindByID(ctx, b.ArtistID)
	if err != nil {
		return nil, fmt.Errorf("get artist: %w", err)
	}

	var canceledBy string
	switch {
	case p.IsAdmin():
		canceledBy = domain.RoleAdmin
	case artist != nil && artist.UserID == p.UserID:
		canceledBy = domain.RoleArtist
	case b.ClientID == p.UserID:
		canceledBy = domain.RoleClient
	default:
		return nil, domain.ErrNotFound
	}
	if b.Status != domain.BookingConfirmed {
		return nil, domain.ErrConflict
	}
	if canceledBy == domain.RoleClient && !b.CanClientCancel(s.now(), s.config.Booking.CancelCutoff) {
		return nil, domain.ErrCancelWindowClosed
	}

	canceled, err := s.bookings.Cancel(ctx, b.ID)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("cancel booking: %w", err)
	}

	refunded := s.refund(ctx, canceled)

	var artistParty events.Party
	if artist != nil {
		artistParty = party(ctx, s.users, artist.UserID)
	}
	publish(ctx, s.eventBus, events.BookingCanceled, events.BookingCanceledEvent{
		BookingID:  canceled.ID,
		Client:     party(ctx, s.users, canceled.ClientID),
		Artist:     artistParty,
		StartsAt:   canceled.StartsAt,
		CanceledBy: canceledBy,
		Refunded:   refunded,
		CanceledAt: s.now(),
	})
	return canceled, nil
}

func (s *bookingService) refund(ctx context.Context, b *domain.Booking) bool {
	if b.PaymentStatus != domain.PaymentPaid || b.PaymentIntentID == nil {
		return false
	}
	if s.payments == nil || !s.payments.Enabled() {
		logger.WarnContext(ctx, "Paid booking canceled without a payment gateway", "booking_id", b.ID)
		return false
	}
	if err := s.payments.Refund(ctx, *b.PaymentIntentID); err != nil {
		logger.ErrorContext(ctx, "Refund failed", "error", err, "booking_id", b.ID)
		return false
	}
	if err := s.bookings.SetPaymentStatus(ctx, b.ID, domain.PaymentRefunded); err != nil {
		logger.ErrorContext(ctx, "Failed to mark booking refunded", "error", err, "booking_id", b.ID)
	}
	b.PaymentStatus = domain.PaymentRefunded
	publish(ctx, s.eventBus, events.PaymentRefunded, events.PaymentEvent{
		BookingID: b.ID,
		IntentID:  *b.PaymentIntentID,
		Amount:    b.DepositCents,
		Status:    string(domain.PaymentRefunded),
	})
	return true
}

func (s *bookingService) List(ctx context.Context, p domain.Principal) ([]domain.Booking, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	if p.IsArtist() {
		artist, err := s.artists.FindByUserID(ctx, p.UserID)
		if err != nil {
			return nil, fmt.Errorf("get artist: %w", err)
		}
		if artist != nil {
			return s.bookings.ListByArtist(ctx, artist.ID)
		}
	}
	return s.bookings.ListByClient(ctx, p.UserID)
}

func (s *bookingService) HandlePaymentWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.payments == nil {
		return payments.ErrNotConfigured
	}
	evt, err := s.payments.ParseWebhook(payload, signature)
	if err != nil {
		return err
	}

	var (
		status  domain.PaymentStatus
		subject string
	)
	switch evt.Type {
	case "payment_intent.succeeded":
		status, subject = domain.PaymentPaid, events.PaymentCaptured
	case "payment_intent.payment_failed":
		status, subject = domain.PaymentFailed, events.PaymentFailed
	default:
		logger.DebugContext(ctx, "Ignoring stripe event", "type", evt.Type, "event_id", evt.ID)
		return nil
	}

	b, err := s.bookings.UpdatePaymentByIntent(ctx, evt.IntentID, status)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if b == nil {
		logger.WarnContext(ctx, "Stripe event for unknown intent", "intent_id", evt.IntentID, "event_id", evt.ID)
		return nil
	}
	publish(ctx, s.eventBus, subject, events.PaymentEvent{
		BookingID: b.ID,
		IntentID:  evt.IntentID,
		Amount:    evt.Amount,
		Status:    string(status),
	})
	return nil
}

func (s *bookingService) CleanupExpired(ctx context.Context) (int64, error) {
	return s.idempotency.CleanupExpired(ctx)
}

// RunCleanup purges expired idempotency keys every CleanupInterval until ctx is done.
func (s *bookingService) RunCleanup(ctx context.Context) error {
	interval := s.config.Booking.CleanupInterval
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := s.CleanupExpired(ctx)
			if err != nil {
				logger.ErrorContext(ctx, "Idempotency cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				logger.InfoContext(ctx, "Expired idempotency keys removed", "count", n)
			}
		}
	}
}
