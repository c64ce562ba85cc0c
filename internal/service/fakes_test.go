package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/diagnosis/inkbook/internal/domain"
	"github.com/diagnosis/inkbook/internal/payments"
	"github.com/diagnosis/inkbook/internal/repo/postgres"
	"github.com/diagnosis/inkbook/pkg/config"
	"github.com/diagnosis/inkbook/pkg/events"
)

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:       "test-secret",
			AccessTokenTTL:  time.Hour,
			RefreshTokenTTL: 24 * time.Hour,
		},
		Booking: config.BookingConfig{
			CancelCutoff:           24 * time.Hour,
			RequireAgeVerification: true,
			MinimumAge:             18,
			IdempotencyTTL:         24 * time.Hour,
			CleanupInterval:        time.Minute,
		},
		Redis: config.RedisConfig{CacheTTL: time.Minute},
	}
}

// store backs every fake repo so cross-table behaviour stays consistent.
type store struct {
	mu            sync.Mutex
	nextID        int64
	users         map[int64]*domain.User
	artists       map[int64]*domain.Artist
	slots         map[int64]*domain.TimeSlot
	bookings      map[int64]*domain.Booking
	keys          map[string]int64
	waivers       map[int64]*domain.Waiver
	signatures    map[[2]int64]*domain.WaiverSignature
	verifications map[int64]*domain.AgeVerification
	conversations map[int64]*domain.Conversation
	messages      []*domain.Message
	consultations map[int64]*domain.Consultation
	reviews       []*domain.Review
	designs       map[int64]*domain.Design
	likes         map[[2]int64]bool
}

func newStore() *store {
	return &store{
		users:         map[int64]*domain.User{},
		artists:       map[int64]*domain.Artist{},
		slots:         map[int64]*domain.TimeSlot{},
		bookings:      map[int64]*domain.Booking{},
		keys:          map[string]int64{},
		waivers:       map[int64]*domain.Waiver{},
		signatures:    map[[2]int64]*domain.WaiverSignature{},
		verifications: map[int64]*domain.AgeVerification{},
		conversations: map[int64]*domain.Conversation{},
		consultations: map[int64]*domain.Consultation{},
		designs:       map[int64]*domain.Design{},
		likes:         map[[2]int64]bool{},
	}
}

func (s *store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *store) addUser(email, role string) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &domain.User{ID: s.id(), Email: email, Name: strings.Split(email, "@")[0], Role: role}
	s.users[u.ID] = u
	return u
}

func (s *store) addArtist(u *domain.User, deposit int64) *domain.Artist {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := &domain.Artist{ID: s.id(), UserID: u.ID, Name: u.Name, Available: true, Specialty: []string{},
		VerificationStatus: domain.VerificationUnverified, DepositCents: deposit}
	s.artists[a.ID] = a
	return a
}

func (s *store) addSlot(artistID int64, startsAt time.Time) *domain.TimeSlot {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl := &domain.TimeSlot{ID: s.id(), ArtistID: artistID, StartsAt: startsAt,
		Date: startsAt.Format(domain.DateLayout), Time: startsAt.Format(domain.TimeLayout), Available: true}
	s.slots[sl.ID] = sl
	return sl
}

func (s *store) verify(userID int64, dob time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verifications[userID] = &domain.AgeVerification{UserID: userID, DateOfBirth: dob, VerifiedAt: time.Now()}
}

// users

type fakeUsers struct{ s *store }

func (f fakeUsers) Create(_ context.Context, email, hash, name, role string) (*domain.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, u := range f.s.users {
		if strings.EqualFold(u.Email, email) {
			return nil, domain.ErrUserExists
		}
	}
	u := &domain.User{ID: f.s.id(), Email: email, PasswordHash: hash, Name: name, Role: role}
	f.s.users[u.ID] = u
	return u, nil
}

func (f fakeUsers) CreateArtist(ctx context.Context, email, hash, name string) (*domain.User, *domain.Artist, error) {
	u, err := f.Create(ctx, email, hash, name, domain.RoleArtist)
	if err != nil {
		return nil, nil, err
	}
	return u, f.s.addArtist(u, 0), nil
}

func (f fakeUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, u := range f.s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f fakeUsers) FindByID(_ context.Context, id int64) (*domain.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if u, ok := f.s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (f fakeUsers) UpdateProfile(_ context.Context, id int64, in *domain.UpdateProfileRequest) (*domain.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	u, ok := f.s.users[id]
	if !ok {
		return nil, nil
	}
	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.ProfileImage != nil {
		u.ProfileImage = in.ProfileImage
	}
	cp := *u
	return &cp, nil
}

func (f fakeUsers) UpdatePasswordHash(_ context.Context, id int64, hash string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.users[id].PasswordHash = hash
	return nil
}

// artists

type fakeArtists struct{ s *store }

func (f fakeArtists) List(_ context.Context, flt domain.ArtistFilter) ([]domain.Artist, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []domain.Artist{}
	for _, a := range f.s.artists {
		if flt.Available != nil && a.Available != *flt.Available {
			continue
		}
		if flt.Location != "" && !strings.Contains(strings.ToLower(a.Location), strings.ToLower(flt.Location)) {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (f fakeArtists) FindByID(_ context.Context, id int64) (*domain.Artist, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if a, ok := f.s.artists[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (f fakeArtists) FindByUserID(_ context.Context, userID int64) (*domain.Artist, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, a := range f.s.artists {
		if a.UserID == userID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (f fakeArtists) mutate(userID int64, fn func(a *domain.Artist)) (*domain.Artist, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, a := range f.s.artists {
		if a.UserID == userID {
			fn(a)
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (f fakeArtists) SetAvailability(_ context.Context, userID int64, available bool) (*domain.Artist, error) {
	return f.mutate(userID, func(a *domain.Artist) { a.Available = available })
}

func (f fakeArtists) UpdateProfile(_ context.Context, userID int64, p *domain.ArtistProfilePatch) (*domain.Artist, error) {
	return f.mutate(userID, func(a *domain.Artist) {
		if p.Bio != nil {
			a.Bio = *p.Bio
		}
		if p.Specialty != nil {
			a.Specialty = p.Specialty
		}
		if p.DepositCents != nil {
			a.DepositCents = *p.DepositCents
		}
	})
}

func (f fakeArtists) SetVerificationStatus(_ context.Context, id int64, status domain.VerificationStatus) (*domain.Artist, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	a, ok := f.s.artists[id]
	if !ok {
		return nil, nil
	}
	a.VerificationStatus = status
	cp := *a
	return &cp, nil
}

func (f fakeArtists) RequestVerification(_ context.Context, userID int64) (*domain.Artist, error) {
	var changed bool
	a, err := f.mutate(userID, func(a *domain.Artist) {
		if a.VerificationStatus == domain.VerificationUnverified {
			a.VerificationStatus = domain.VerificationPending
			changed = true
		}
	})
	if !changed {
		return nil, err
	}
	return a, err
}

// slots and bookings

type fakeSlots struct{ s *store }

func (f fakeSlots) ListAvailable(_ context.Context, artistID int64, from time.Time) ([]domain.TimeSlot, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []domain.TimeSlot{}
	for _, sl := range f.s.slots {
		if sl.ArtistID == artistID && sl.Available && sl.StartsAt.After(from) {
			out = append(out, *sl)
		}
	}
	return out, nil
}

func (f fakeSlots) ListByArtist(_ context.Context, artistID int64) ([]domain.TimeSlot, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []domain.TimeSlot{}
	for _, sl := range f.s.slots {
		if sl.ArtistID == artistID {
			out = append(out, *sl)
		}
	}
	return out, nil
}

func (f fakeSlots) FindByID(_ context.Context, id int64) (*domain.TimeSlot, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if sl, ok := f.s.slots[id]; ok {
		cp := *sl
		return &cp, nil
	}
	return nil, nil
}

func (f fakeSlots) Create(_ context.Context, artistID int64, date, clock string, startsAt time.Time) (*domain.TimeSlot, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, sl := range f.s.slots {
		if sl.ArtistID == artistID && sl.StartsAt.Equal(startsAt) {
			return nil, domain.ErrSlotExists
		}
	}
	sl := &domain.TimeSlot{ID: f.s.id(), ArtistID: artistID, Date: date, Time: clock, StartsAt: startsAt, Available: true}
	f.s.slots[sl.ID] = sl
	cp := *sl
	return &cp, nil
}

func (f fakeSlots) Delete(_ context.Context, artistID, slotID int64) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	sl, ok := f.s.slots[slotID]
	if !ok || sl.ArtistID != artistID || !sl.Available {
		return false, nil
	}
	for _, b := range f.s.bookings {
		if b.SlotID == slotID {
			return false, nil
		}
	}
	delete(f.s.slots, slotID)
	return true, nil
}

type fakeBookings struct{ s *store }

// Book mirrors the transactional conditional update: claim, insert, remember key.
func (f fakeBookings) Book(_ context.Context, p domain.BookSlotParams) (*domain.Booking, *domain.TimeSlot, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	sl, ok := f.s.slots[p.SlotID]
	if !ok || !sl.Available {
		return nil, nil, domain.ErrSlotUnavailable
	}
	keyID := ""
	if p.KeyHash != "" {
		keyID = keyOf(p.ClientID, p.KeyHash)
		if _, dup := f.s.keys[keyID]; dup {
			return nil, nil, domain.ErrIdempotencyReplay
		}
	}
	sl.Available = false
	a := f.s.artists[sl.ArtistID]
	b := &domain.Booking{
		ID: f.s.id(), SlotID: sl.ID, ArtistID: sl.ArtistID, ClientID: p.ClientID,
		Status: domain.BookingConfirmed, StartsAt: sl.StartsAt, DepositCents: a.DepositCents,
		PaymentStatus: domain.PaymentNone, CreatedAt: time.Now(),
	}
	if a.DepositCents > 0 {
		b.PaymentStatus = domain.PaymentRequiresPayment
	}
	f.s.bookings[b.ID] = b
	if keyID != "" {
		f.s.keys[keyID] = b.ID
	}
	bc, sc := *b, *sl
	return &bc, &sc, nil
}

func keyOf(clientID int64, hash string) string {
	return fmt.Sprintf("%d|%s", clientID, hash)
}

func (f fakeBookings) FindByID(_ context.Context, id int64) (*domain.Booking, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if b, ok := f.s.bookings[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, nil
}

func (f fakeBookings) list(match func(*domain.Booking) bool) []domain.Booking {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []domain.Booking{}
	for _, b := range f.s.bookings {
		if match(b) {
			out = append(out, *b)
		}
	}
	return out
}

func (f fakeBookings) ListByClient(_ context.Context, clientID int64) ([]domain.Booking, error) {
	return f.list(func(b *domain.Booking) bool { return b.ClientID == clientID }), nil
}

func (f fakeBookings) ListByArtist(_ context.Context, artistID int64) ([]domain.Booking, error) {
	return f.list(func(b *domain.Booking) bool { return b.ArtistID == artistID }), nil
}

func (f fakeBookings) Cancel(_ context.Context, id int64) (*domain.Booking, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	b, ok := f.s.bookings[id]
	if !ok || b.Status != domain.BookingConfirmed {
		return nil, domain.ErrConflict
	}
	now := time.Now()
	b.Status = domain.BookingCanceled
	b.CanceledAt = &now
	f.s.slots[b.SlotID].Available = true
	cp := *b
	return &cp, nil
}

func (f fakeBookings) SetPayment(_ context.Context, id int64, intentID string, status domain.PaymentStatus) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	b := f.s.bookings[id]
	b.PaymentIntentID = &intentID
	b.PaymentStatus = status
	return nil
}

func (f fakeBookings) SetPaymentStatus(_ context.Context, id int64, status domain.PaymentStatus) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.bookings[id].PaymentStatus = status
	return nil
}

func (f fakeBookings) UpdatePaymentByIntent(_ context.Context, intentID string, status domain.PaymentStatus) (*domain.Booking, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, b := range f.s.bookings {
		if b.PaymentIntentID != nil && *b.PaymentIntentID == intentID {
			b.PaymentStatus = status
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (f fakeBookings) HasConfirmed(_ context.Context, clientID, artistID int64) (bool, error) {
	return len(f.list(func(b *domain.Booking) bool {
		return b.ClientID == clientID && b.ArtistID == artistID && b.Status == domain.BookingConfirmed
	})) > 0, nil
}

type fakeIdempotency struct{ s *store }

func (f fakeIdempotency) FindBooking(_ context.Context, clientID int64, keyHash string) (*domain.Booking, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	id, ok := f.s.keys[keyOf(clientID, keyHash)]
	if !ok {
		return nil, nil
	}
	cp := *f.s.bookings[id]
	return &cp, nil
}

func (f fakeIdempotency) CleanupExpired(context.Context) (int64, error) { return 0, nil }

// waivers and verifications

type fakeWaivers struct{ s *store }

func (f fakeWaivers) Create(_ context.Context, artistID int64, in *domain.WaiverRequest) (*domain.Waiver, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	w := &domain.Waiver{ID: f.s.id(), ArtistID: artistID, Title: in.Title, Content: in.Content, Required: in.IsRequired()}
	f.s.waivers[w.ID] = w
	cp := *w
	return &cp, nil
}

func (f fakeWaivers) Update(_ context.Context, artistID, id int64, in *domain.WaiverRequest) (*domain.Waiver, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	w, ok := f.s.waivers[id]
	if !ok || w.ArtistID != artistID {
		return nil, nil
	}
	w.Title, w.Content = in.Title, in.Content
	if in.Required != nil {
		w.Required = *in.Required
	}
	cp := *w
	return &cp, nil
}

func (f fakeWaivers) Delete(_ context.Context, artistID, id int64) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	w, ok := f.s.waivers[id]
	if !ok || w.ArtistID != artistID {
		return false, nil
	}
	delete(f.s.waivers, id)
	return true, nil
}

func (f fakeWaivers) FindByID(_ context.Context, id int64) (*domain.Waiver, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if w, ok := f.s.waivers[id]; ok {
		cp := *w
		return &cp, nil
	}
	return nil, nil
}

func (f fakeWaivers) ListByArtist(_ context.Context, artistID int64) ([]domain.Waiver, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []domain.Waiver{}
	for _, w := range f.s.waivers {
		if w.ArtistID == artistID {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (f fakeWaivers) Sign(_ context.Context, waiverID, clientID int64, signature string) (*domain.WaiverSignature, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	k := [2]int64{waiverID, clientID}
	if sig, ok := f.s.signatures[k]; ok {
		cp := *sig
		return &cp, nil
	}
	sig := &domain.WaiverSignature{ID: f.s.id(), WaiverID: waiverID, ClientID: clientID, Signature: signature, SignedAt: time.Now()}
	f.s.signatures[k] = sig
	cp := *sig
	return &cp, nil
}

func (f fakeWaivers) ListSignatures(_ context.Context, artistID int64) ([]postgres.SignatureRow, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []postgres.SignatureRow{}
	for _, sig := range f.s.signatures {
		if w := f.s.waivers[sig.WaiverID]; w != nil && w.ArtistID == artistID {
			out = append(out, postgres.SignatureRow{WaiverSignature: *sig, WaiverTitle: w.Title})
		}
	}
	return out, nil
}

func (f fakeWaivers) UnsignedRequired(_ context.Context, artistID, clientID int64) (int, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	n := 0
	for _, w := range f.s.waivers {
		if w.ArtistID == artistID && w.Required {
			if _, ok := f.s.signatures[[2]int64{w.ID, clientID}]; !ok {
				n++
			}
		}
	}
	return n, nil
}

type fakeVerifications struct{ s *store }

func (f fakeVerifications) Upsert(_ context.Context, v *domain.AgeVerification) (*domain.AgeVerification, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	cp := *v
	cp.VerifiedAt = time.Now()
	f.s.verifications[v.UserID] = &cp
	out := cp
	return &out, nil
}

func (f fakeVerifications) Find(_ context.Context, userID int64) (*domain.AgeVerification, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if v, ok := f.s.verifications[userID]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, nil
}

// infrastructure

type fakeBus struct {
	mu        sync.Mutex
	published []string
}

func (b *fakeBus) Publish(_ context.Context, subject string, _ interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, subject)
	return nil
}
func (b *fakeBus) Subscribe(string, func(*events.Message)) error              { return nil }
func (b *fakeBus) QueueSubscribe(string, string, func(*events.Message)) error { return nil }
func (b *fakeBus) Close() error                                               { return nil }

func (b *fakeBus) subjects() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.published...)
}

type fakePayments struct {
	enabled   bool
	created   int
	keys      []string
	refunded  []string
	event     *payments.WebhookEvent
	createErr error
	refundErr error
}

func (p *fakePayments) Enabled() bool { return p.enabled }

func (p *fakePayments) CreateDeposit(_ context.Context, bookingID, _ int64, key string) (*payments.Intent, error) {
	p.keys = append(p.keys, key)
	if p.createErr != nil {
		return nil, p.createErr
	}
	p.created++
	return &payments.Intent{ID: "pi_" + strings.Repeat("x", int(bookingID%5)+1), ClientSecret: "secret_123"}, nil
}

func (p *fakePayments) Refund(_ context.Context, intentID string) error {
	if p.refundErr != nil {
		return p.refundErr
	}
	p.refunded = append(p.refunded, intentID)
	return nil
}

func (p *fakePayments) ParseWebhook([]byte, string) (*payments.WebhookEvent, error) {
	if p.event == nil {
		return nil, payments.ErrNotConfigured
	}
	return p.event, nil
}

type fakeCache struct {
	mu          sync.Mutex
	data        map[string]any
	invalidated int
}

func newFakeCache() *fakeCache { return &fakeCache{data: map[string]any{}} }

func (c *fakeCache) GetJSON(_ context.Context, key string, out any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return false, nil
	}
	if dst, ok := out.(*[]domain.Artist); ok {
		*dst = v.([]domain.Artist)
	}
	return true, nil
}

func (c *fakeCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *fakeCache) DeleteByPattern(context.Context, string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = map[string]any{}
	c.invalidated++
	return nil
}

type pushed struct {
	userID  int64
	msgType string
}

type fakePusher struct {
	mu   sync.Mutex
	sent []pushed
}

func (p *fakePusher) SendTo(userID int64, msgType string, _ any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, pushed{userID, msgType})
}

func principal(u *domain.User) domain.Principal {
	return domain.Principal{UserID: u.ID, Email: u.Email, Role: u.Role}
}

// messages

type fakeMessages struct{ s *store }

func (f fakeMessages) Conversation(_ context.Context, userA, userB int64) (*domain.Conversation, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	a, b := domain.ParticipantPair(userA, userB)
	for _, c := range f.s.conversations {
		if c.UserA == a && c.UserB == b {
			cp := *c
			return &cp, nil
		}
	}
	c := &domain.Conversation{ID: f.s.id(), UserA: a, UserB: b}
	f.s.conversations[c.ID] = c
	cp := *c
	return &cp, nil
}

func (f fakeMessages) FindConversation(_ context.Context, id int64) (*domain.Conversation, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if c, ok := f.s.conversations[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (f fakeMessages) ListConversations(_ context.Context, userID int64) ([]domain.ConversationSummary, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []domain.ConversationSummary{}
	for _, c := range f.s.conversations {
		if !c.HasParticipant(userID) {
			continue
		}
		sum := domain.ConversationSummary{ID: c.ID, RecipientID: c.Other(userID)}
		for _, m := range f.s.messages {
			if m.ConversationID != c.ID {
				continue
			}
			sum.LastMessage = m.Content
			if m.SenderID != userID && m.Status != domain.MessageRead {
				sum.UnreadCount++
			}
		}
		out = append(out, sum)
	}
	return out, nil
}

func (f fakeMessages) Create(_ context.Context, conversationID, senderID int64, in *domain.SendMessageRequest) (*domain.Message, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	m := &domain.Message{ID: f.s.id(), ConversationID: conversationID, SenderID: senderID, Type: in.Type,
		Content: in.Content, Status: domain.MessageSent, CreatedAt: time.Now()}
	if in.ImageURL != "" {
		u := in.ImageURL
		m.ImageURL = &u
	}
	f.s.messages = append(f.s.messages, m)
	cp := *m
	return &cp, nil
}

func (f fakeMessages) List(_ context.Context, conversationID int64) ([]domain.Message, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []domain.Message{}
	for _, m := range f.s.messages {
		if m.ConversationID == conversationID {
			out = append(out, *m)
		}
	}
	return out, nil
}

var statusRank = map[domain.MessageStatus]int{domain.MessageSent: 0, domain.MessageDelivered: 1, domain.MessageRead: 2}

func (f fakeMessages) Advance(_ context.Context, conversationID, readerID int64, status domain.MessageStatus) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var n int64
	for _, m := range f.s.messages {
		if m.ConversationID == conversationID && m.SenderID != readerID && statusRank[m.Status] < statusRank[status] {
			m.Status = status
			n++
		}
	}
	return n, nil
}

// consultations

type fakeConsultations struct{ s *store }

func (f fakeConsultations) Create(_ context.Context, clientID int64, in *domain.ConsultationRequest) (*domain.Consultation, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	c := &domain.Consultation{ID: f.s.id(), ArtistID: in.ArtistID, ClientID: clientID, Type: in.Type,
		Date: in.Date, Time: in.Time, Description: in.Description, Status: domain.ConsultationPending}
	f.s.consultations[c.ID] = c
	cp := *c
	return &cp, nil
}

func (f fakeConsultations) FindByID(_ context.Context, id int64) (*domain.Consultation, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if c, ok := f.s.consultations[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (f fakeConsultations) list(match func(*domain.Consultation) bool) []domain.Consultation {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []domain.Consultation{}
	for _, c := range f.s.consultations {
		if match(c) {
			out = append(out, *c)
		}
	}
	return out
}

func (f fakeConsultations) ListByClient(_ context.Context, clientID int64) ([]domain.Consultation, error) {
	return f.list(func(c *domain.Consultation) bool { return c.ClientID == clientID }), nil
}

func (f fakeConsultations) ListByArtist(_ context.Context, artistID int64) ([]domain.Consultation, error) {
	return f.list(func(c *domain.Consultation) bool { return c.ArtistID == artistID }), nil
}

func (f fakeConsultations) Transition(_ context.Context, id int64, from, to domain.ConsultationStatus) (*domain.Consultation, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	c, ok := f.s.consultations[id]
	if !ok || c.Status != from {
		return nil, nil
	}
	c.Status = to
	cp := *c
	return &cp, nil
}

// reviews

type fakeReviews struct{ s *store }

func (f fakeReviews) Create(_ context.Context, artistID, clientID int64, in *domain.ReviewRequest) (*domain.Review, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	sum, n := 0, 0
	for _, r := range f.s.reviews {
		if r.ArtistID == artistID {
			if r.ClientID == clientID {
				return nil, domain.ErrConflict
			}
			sum += r.Rating
			n++
		}
	}
	rv := &domain.Review{ID: f.s.id(), ArtistID: artistID, ClientID: clientID, Rating: in.Rating, Comment: in.Comment}
	f.s.reviews = append(f.s.reviews, rv)
	f.s.artists[artistID].Rating = float64(sum+in.Rating) / float64(n+1)
	cp := *rv
	return &cp, nil
}

func (f fakeReviews) ListByArtist(_ context.Context, artistID int64) ([]domain.Review, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []domain.Review{}
	for _, r := range f.s.reviews {
		if r.ArtistID == artistID {
			out = append(out, *r)
		}
	}
	return out, nil
}

// designs

type fakeDesigns struct{ s *store }

func (f fakeDesigns) List(_ context.Context, flt domain.DesignFilter) ([]domain.Design, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []domain.Design{}
	for _, d := range f.s.designs {
		if flt.Style != "" && !strings.EqualFold(d.Style, flt.Style) {
			continue
		}
		if flt.ArtistID != 0 && d.ArtistID != flt.ArtistID {
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

func (f fakeDesigns) FindByID(_ context.Context, id int64) (*domain.Design, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if d, ok := f.s.designs[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, nil
}

func (f fakeDesigns) Create(_ context.Context, artistID int64, in *domain.CreateDesignRequest) (*domain.Design, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	d := &domain.Design{ID: f.s.id(), Title: in.Title, ImageURL: in.ImageURL, Price: in.Price, ArtistID: artistID,
		ArtistName: f.s.artists[artistID].Name, Style: in.Style}
	f.s.designs[d.ID] = d
	cp := *d
	return &cp, nil
}

func (f fakeDesigns) Like(_ context.Context, designID, userID int64) (int, bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	d := f.s.designs[designID]
	k := [2]int64{designID, userID}
	if f.s.likes[k] {
		return d.Likes, false, nil
	}
	f.s.likes[k] = true
	d.Likes++
	return d.Likes, true, nil
}

type fakeImages struct {
	uploads int
	err     error
}

func (i *fakeImages) Enabled() bool { return true }

func (i *fakeImages) Upload(ownerID int64, kind string, _ []byte) (string, error) {
	if i.err != nil {
		return "", i.err
	}
	i.uploads++
	return fmt.Sprintf("https://cdn.example.com/%s/%d/%d.png", kind, ownerID, i.uploads), nil
}

func (i *fakeImages) Delete(string) error { return nil }
