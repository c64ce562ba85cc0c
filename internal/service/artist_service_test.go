package service

import (
	"context"
	"testing"

	"github.com/diagnosis/inkbook/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtistList_CachesAndInvalidates(t *testing.T) {
	s := newStore()
	c := newFakeCache()
	svc := NewArtistService(fakeArtists{s}, c, testConfig())
	owner := s.addUser("ink@example.com", domain.RoleArtist)
	s.addArtist(owner, 0)
	ctx := context.Background()

	list, err := svc.List(ctx, domain.ArtistFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, c.data, 1)

	// a second artist is invisible until the cache is invalidated
	s.addArtist(s.addUser("two@example.com", domain.RoleArtist), 0)
	list, err = svc.List(ctx, domain.ArtistFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.UpdateAvailability(ctx, principal(owner), false)
	require.NoError(t, err)
	assert.Equal(t, 1, c.invalidated)

	list, err = svc.List(ctx, domain.ArtistFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestArtistList_Near(t *testing.T) {
	s := newStore()
	svc := NewArtistService(fakeArtists{s}, newFakeCache(), testConfig())
	place := func(email, lat, lng string) {
		a := s.addArtist(s.addUser(email, domain.RoleArtist), 0)
		a.Latitude, a.Longitude = lat, lng
	}
	place("far@example.com", "34.0522", "-118.2437")   // Los Angeles
	place("near@example.com", "40.7306", "-73.9866")   // East Village
	place("nearer@example.com", "40.7128", "-74.0060") // Lower Manhattan
	place("nowhere@example.com", "", "")

	list, err := svc.List(context.Background(), domain.ArtistFilter{Near: &domain.GeoPoint{Lat: 40.7128, Lng: -74.0060}})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "nearer", list[0].Name)
	assert.Equal(t, "near", list[1].Name)
}

func TestArtistUpdates_RequireArtistRole(t *testing.T) {
	s := newStore()
	svc := NewArtistService(fakeArtists{s}, newFakeCache(), testConfig())
	client := s.addUser("c@example.com", domain.RoleClient)

	_, err := svc.UpdateAvailability(context.Background(), principal(client), true)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.UpdateAvailability(context.Background(), domain.Principal{}, true)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestArtistUpdateProfile_Validates(t *testing.T) {
	s := newStore()
	svc := NewArtistService(fakeArtists{s}, newFakeCache(), testConfig())
	owner := s.addUser("ink@example.com", domain.RoleArtist)
	s.addArtist(owner, 0)
	lat := "91"

	_, err := svc.UpdateProfile(context.Background(), principal(owner), &domain.ArtistProfilePatch{Latitude: &lat})
	assert.True(t, domain.IsValidation(err))

	a, err := svc.UpdateProfile(context.Background(), principal(owner), &domain.ArtistProfilePatch{
		Specialty: []string{" Blackwork", "blackwork", "Fine Line"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Blackwork", "Fine Line"}, a.Specialty)
}

func TestVerificationWorkflow(t *testing.T) {
	s := newStore()
	svc := NewArtistService(fakeArtists{s}, newFakeCache(), testConfig())
	owner := s.addUser("ink@example.com", domain.RoleArtist)
	a := s.addArtist(owner, 0)
	admin := s.addUser("admin@example.com", domain.RoleAdmin)
	ctx := context.Background()

	got, err := svc.RequestVerification(ctx, principal(owner))
	require.NoError(t, err)
	assert.Equal(t, domain.VerificationPending, got.VerificationStatus)

	_, err = svc.RequestVerification(ctx, principal(owner))
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = svc.SetVerificationStatus(ctx, principal(owner), a.ID, "verified")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.SetVerificationStatus(ctx, principal(admin), a.ID, "gold")
	assert.True(t, domain.IsValidation(err))

	got, err = svc.SetVerificationStatus(ctx, principal(admin), a.ID, "verified")
	require.NoError(t, err)
	assert.Equal(t, domain.VerificationVerified, got.VerificationStatus)
}
