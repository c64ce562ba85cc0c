package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/diagnosis/inkbook/internal/domain"
	mw "github.com/diagnosis/inkbook/internal/http/middleware"
	"github.com/diagnosis/inkbook/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAccounts struct {
	service.AccountService
}

func (stubAccounts) Me(_ context.Context, p domain.Principal) (*domain.User, error) {
	if !p.Authenticated() {
		return nil, nil
	}
	return &domain.User{ID: p.UserID, Email: p.Email, Name: "Ann", Role: p.Role}, nil
}

func (stubAccounts) Login(_ context.Context, req *domain.LoginRequest) (*domain.AuthPayload, error) {
	if req.Password != "password1" {
		return nil, domain.ErrInvalidCredentials
	}
	return &domain.AuthPayload{Token: "tok", User: &domain.User{ID: 1, Email: req.Email, Name: "Ann", Role: "client"}}, nil
}

type stubArtists struct {
	service.ArtistService
	byID map[int64]*domain.Artist
}

func (s *stubArtists) List(context.Context, domain.ArtistFilter) ([]domain.Artist, error) {
	out := make([]domain.Artist, 0, len(s.byID))
	for i := int64(1); i <= int64(len(s.byID)); i++ {
		out = append(out, *s.byID[i])
	}
	return out, nil
}

func (s *stubArtists) Get(_ context.Context, id int64) (*domain.Artist, error) {
	if a, ok := s.byID[id]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("get artist: %w", domain.ErrNotFound)
}

func (s *stubArtists) UpdateAvailability(_ context.Context, p domain.Principal, available bool) (*domain.Artist, error) {
	if !p.IsArtist() {
		return nil, domain.ErrForbidden
	}
	a := *s.byID[1]
	a.Available = available
	return &a, nil
}

type stubDesigns struct {
	service.DesignService
}

func (stubDesigns) List(context.Context, domain.DesignFilter) ([]domain.Design, error) {
	return []domain.Design{{ID: 7, Title: "Rose", ArtistID: 1, Likes: 3, Price: 120}}, nil
}

func (stubDesigns) Create(_ context.Context, p domain.Principal, req *domain.CreateDesignRequest) (*domain.Design, error) {
	if !p.IsArtist() {
		return nil, domain.ErrForbidden
	}
	return &domain.Design{ID: 8, Title: req.Title, ImageURL: req.ImageURL, Price: req.Price, Style: req.Style, ArtistID: 1}, nil
}

type stubBookings struct {
	service.BookingService
	lastKey string
}

func (s *stubBookings) AvailableSlots(_ context.Context, artistID int64) ([]domain.TimeSlot, error) {
	return []domain.TimeSlot{{ID: 5, ArtistID: artistID, Date: "2026-03-02", Time: "10:00", Available: true}}, nil
}

func (s *stubBookings) BookSlot(_ context.Context, p domain.Principal, slotID int64, key string) (*domain.BookingResult, error) {
	s.lastKey = key
	if !p.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if slotID != 5 {
		return nil, fmt.Errorf("book slot: %w", domain.ErrSlotUnavailable)
	}
	return &domain.BookingResult{Slot: &domain.TimeSlot{ID: 5, ArtistID: 1, Date: "2026-03-02", Time: "10:00"}}, nil
}

type graphFixture struct {
	resolver *Resolver
	bookings *stubBookings
}

func newGraphFixture() *graphFixture {
	artists := &stubArtists{byID: map[int64]*domain.Artist{
		1: {ID: 1, Name: "Ink", Specialty: []string{"Blackwork"}, Rating: 4.5, VerificationStatus: domain.VerificationVerified},
	}}
	bookings := &stubBookings{}
	return &graphFixture{
		resolver: NewResolver(stubAccounts{}, artists, stubDesigns{}, bookings),
		bookings: bookings,
	}
}

func exec(t *testing.T, f *graphFixture, ctx context.Context, query string) (map[string]any, []string) {
	t.Helper()
	res := NewSchema(f.resolver).Exec(ctx, query, "", nil)
	var msgs []string
	for _, e := range res.Errors {
		msgs = append(msgs, e.Message)
	}
	var data map[string]any
	if len(res.Data) > 0 {
		require.NoError(t, json.Unmarshal(res.Data, &data))
	}
	return data, msgs
}

func asClient(ctx context.Context) context.Context {
	return mw.WithPrincipal(ctx, domain.Principal{UserID: 3, Email: "c@example.com", Role: domain.RoleClient})
}

func TestQuery_ArtistsAndDesigns(t *testing.T) {
	f := newGraphFixture()

	data, errs := exec(t, f, context.Background(), `{ artists { id name specialty rating verificationStatus } designs { id title likes artist { name } } }`)
	require.Empty(t, errs)

	artists := data["artists"].([]any)
	require.Len(t, artists, 1)
	first := artists[0].(map[string]any)
	assert.Equal(t, "1", first["id"])
	assert.Equal(t, "verified", first["verificationStatus"])
	assert.Equal(t, []any{"Blackwork"}, first["specialty"])

	design := data["designs"].([]any)[0].(map[string]any)
	assert.Equal(t, float64(3), design["likes"])
	assert.Equal(t, "Ink", design["artist"].(map[string]any)["name"])
}

func TestQuery_ArtistMissingIsNull(t *testing.T) {
	f := newGraphFixture()

	data, errs := exec(t, f, context.Background(), `{ artist(id: "99") { id } }`)
	require.Empty(t, errs)
	assert.Nil(t, data["artist"])
}

func TestQuery_Me(t *testing.T) {
	f := newGraphFixture()

	data, errs := exec(t, f, context.Background(), `{ me { id } }`)
	require.Empty(t, errs)
	assert.Nil(t, data["me"])

	data, errs = exec(t, f, asClient(context.Background()), `{ me { id email role } }`)
	require.Empty(t, errs)
	assert.Equal(t, "3", data["me"].(map[string]any)["id"])
}

func TestQuery_AvailableSlots(t *testing.T) {
	f := newGraphFixture()

	data, errs := exec(t, f, context.Background(), `{ availableSlots(artistId: "1") { id artistId date time available } }`)
	require.Empty(t, errs)
	slot := data["availableSlots"].([]any)[0].(map[string]any)
	assert.Equal(t, "1", slot["artistId"])
	assert.Equal(t, true, slot["available"])
}

func TestMutation_BookSlot(t *testing.T) {
	f := newGraphFixture()

	_, errs := exec(t, f, context.Background(), `mutation { bookSlot(slotId: "5") { id } }`)
	assert.Equal(t, []string{"Not authenticated"}, errs)

	ctx := WithIdempotencyKey(asClient(context.Background()), "key-1")
	data, errs := exec(t, f, ctx, `mutation { bookSlot(slotId: "5") { id available } }`)
	require.Empty(t, errs)
	assert.Equal(t, "5", data["bookSlot"].(map[string]any)["id"])
	assert.Equal(t, "key-1", f.bookings.lastKey)

	_, errs = exec(t, f, asClient(context.Background()), `mutation { bookSlot(slotId: "6") { id } }`)
	assert.Equal(t, []string{"Slot not available"}, errs)
}

func TestMutation_LoginAndAvailability(t *testing.T) {
	f := newGraphFixture()

	data, errs := exec(t, f, context.Background(), `mutation { login(email: "a@b.co", password: "password1") { token user { email } } }`)
	require.Empty(t, errs)
	assert.Equal(t, "tok", data["login"].(map[string]any)["token"])

	_, errs = exec(t, f, context.Background(), `mutation { login(email: "a@b.co", password: "nope") { token } }`)
	assert.Equal(t, []string{"Invalid credentials"}, errs)

	_, errs = exec(t, f, asClient(context.Background()), `mutation { updateArtistAvailability(available: false) { available } }`)
	assert.Equal(t, []string{"Not authorized"}, errs)

	artist := mw.WithPrincipal(context.Background(), domain.Principal{UserID: 2, Role: domain.RoleArtist})
	data, errs = exec(t, f, artist, `mutation { updateArtistAvailability(available: false) { available } }`)
	require.Empty(t, errs)
	assert.Equal(t, false, data["updateArtistAvailability"].(map[string]any)["available"])
}

func TestMutation_CreateDesign(t *testing.T) {
	f := newGraphFixture()
	artist := mw.WithPrincipal(context.Background(), domain.Principal{UserID: 2, Role: domain.RoleArtist})

	data, errs := exec(t, f, artist, `mutation { createDesign(title: "Koi", imageUrl: "https://x/koi.png", price: 80.5, style: "Japanese") { id price artist { id } } }`)
	require.Empty(t, errs)
	d := data["createDesign"].(map[string]any)
	assert.Equal(t, 80.5, d["price"])
	assert.Equal(t, "1", d["artist"].(map[string]any)["id"])
}

func TestHandler_PassesIdempotencyKey(t *testing.T) {
	f := newGraphFixture()
	h := Handler(NewSchema(f.resolver))

	body := `{"query":"mutation { bookSlot(slotId: \"5\") { id } }"}`
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", "abc")
	req = req.WithContext(asClient(req.Context()))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", f.bookings.lastKey)
	assert.Contains(t, rec.Body.String(), `"bookSlot":{"id":"5"}`)
}
