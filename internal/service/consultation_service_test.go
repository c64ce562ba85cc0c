package service

import (
	"context"
	"testing"
	"time"

	"github.com/diagnosis/inkbook/internal/domain"
	"github.com/diagnosis/inkbook/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type consultationFixture struct {
	store  *store
	svc    ConsultationService
	bus    *fakeBus
	owner  *domain.User
	artist *domain.Artist
	client *domain.User
}

func newConsultationFixture() *consultationFixture {
	s := newStore()
	f := &consultationFixture{store: s, bus: &fakeBus{}}
	svc := NewConsultationService(fakeConsultations{s}, fakeArtists{s}, fakeUsers{s}, f.bus).(*consultationService)
	svc.now = func() time.Time { return fixedNow }
	f.svc = svc
	f.owner = s.addUser("ink@example.com", domain.RoleArtist)
	f.artist = s.addArtist(f.owner, 0)
	f.client = s.addUser("client@example.com", domain.RoleClient)
	return f
}

func (f *consultationFixture) request(t *testing.T) *domain.Consultation {
	t.Helper()
	c, err := f.svc.Request(context.Background(), principal(f.client), &domain.ConsultationRequest{
		ArtistID: f.artist.ID, Type: "inPerson", Date: "2026-03-05", Time: "9:30", Description: " sleeve ",
	})
	require.NoError(t, err)
	return c
}

func TestConsultationRequest(t *testing.T) {
	f := newConsultationFixture()
	c := f.request(t)

	assert.Equal(t, domain.ConsultationPending, c.Status)
	assert.Equal(t, domain.ConsultationInPerson, c.Type)
	assert.Equal(t, "09:30", c.Time)
	assert.Equal(t, "sleeve", c.Description)
	assert.Equal(t, []string{events.ConsultationRequested}, f.bus.subjects())
}

func TestConsultationRequest_Rejects(t *testing.T) {
	f := newConsultationFixture()
	ctx := context.Background()

	_, err := f.svc.Request(ctx, principal(f.client), &domain.ConsultationRequest{
		ArtistID: f.artist.ID, Type: domain.ConsultationVirtual, Date: "2026-02-01", Time: "10:00", Description: "x",
	})
	assert.True(t, domain.IsValidation(err))

	_, err = f.svc.Request(ctx, principal(f.client), &domain.ConsultationRequest{
		ArtistID: 999, Type: domain.ConsultationVirtual, Date: "2026-03-05", Time: "10:00", Description: "x",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Request(ctx, principal(f.owner), &domain.ConsultationRequest{
		ArtistID: f.artist.ID, Type: domain.ConsultationVirtual, Date: "2026-03-05", Time: "10:00", Description: "x",
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestConsultationRespond(t *testing.T) {
	f := newConsultationFixture()
	c := f.request(t)
	ctx := context.Background()

	_, err := f.svc.Respond(ctx, principal(f.client), c.ID, true)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	other := f.store.addUser("other@example.com", domain.RoleArtist)
	f.store.addArtist(other, 0)
	_, err = f.svc.Respond(ctx, principal(other), c.ID, true)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := f.svc.Respond(ctx, principal(f.owner), c.ID, true)
	require.NoError(t, err)
	assert.Equal(t, domain.ConsultationAccepted, got.Status)
	assert.Contains(t, f.bus.subjects(), events.ConsultationResponded)

	_, err = f.svc.Respond(ctx, principal(f.owner), c.ID, false)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestConsultationCancel(t *testing.T) {
	f := newConsultationFixture()
	c := f.request(t)
	ctx := context.Background()

	_, err := f.svc.Cancel(ctx, principal(f.owner), c.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := f.svc.Cancel(ctx, principal(f.client), c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ConsultationCanceled, got.Status)

	_, err = f.svc.Cancel(ctx, principal(f.client), c.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestConsultationList_ByRole(t *testing.T) {
	f := newConsultationFixture()
	f.request(t)

	mine, err := f.svc.List(context.Background(), principal(f.client))
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	theirs, err := f.svc.List(context.Background(), principal(f.owner))
	require.NoError(t, err)
	assert.Len(t, theirs, 1)
}
