package service

import (
	"context"
	"testing"

	"github.com/diagnosis/inkbook/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaiverLifecycle(t *testing.T) {
	s := newStore()
	svc := NewWaiverService(fakeWaivers{s}, fakeArtists{s})
	owner := s.addUser("ink@example.com", domain.RoleArtist)
	a := s.addArtist(owner, 0)
	client := s.addUser("c@example.com", domain.RoleClient)
	ctx := context.Background()

	w, err := svc.Create(ctx, principal(owner), &domain.WaiverRequest{Title: "Release", Content: "I accept the risks."})
	require.NoError(t, err)
	assert.True(t, w.Required)

	optional := false
	w, err = svc.Update(ctx, principal(owner), w.ID, &domain.WaiverRequest{Title: "Release v2", Content: "Updated.", Required: &optional})
	require.NoError(t, err)
	assert.False(t, w.Required)

	list, err := svc.ForArtist(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.Sign(ctx, principal(client), w.ID, &domain.SignWaiverRequest{Signature: "C", HasRead: false})
	assert.True(t, domain.IsValidation(err))

	first, err := svc.Sign(ctx, principal(client), w.ID, &domain.SignWaiverRequest{Signature: " C. Lient ", HasRead: true})
	require.NoError(t, err)
	assert.Equal(t, "C. Lient", first.Signature)
	again, err := svc.Sign(ctx, principal(client), w.ID, &domain.SignWaiverRequest{Signature: "Other", HasRead: true})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	sigs, err := svc.Signatures(ctx, principal(owner))
	require.NoError(t, err)
	require.Len(t, sigs, 1)
	assert.Equal(t, "Release v2", sigs[0].WaiverTitle)

	require.NoError(t, svc.Delete(ctx, principal(owner), w.ID))
	assert.ErrorIs(t, svc.Delete(ctx, principal(owner), w.ID), domain.ErrNotFound)
}

func TestWaiver_OtherArtistCannotEdit(t *testing.T) {
	s := newStore()
	svc := NewWaiverService(fakeWaivers{s}, fakeArtists{s})
	owner := s.addUser("ink@example.com", domain.RoleArtist)
	s.addArtist(owner, 0)
	rival := s.addUser("rival@example.com", domain.RoleArtist)
	s.addArtist(rival, 0)

	w, err := svc.Create(context.Background(), principal(owner), &domain.WaiverRequest{Title: "T", Content: "C"})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), principal(rival), w.ID, &domain.WaiverRequest{Title: "Mine", Content: "C"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(context.Background(), principal(rival), w.ID), domain.ErrNotFound)
}
