package graph

import (
	"context"
	"strconv"

	"github.com/diagnosis/inkbook/internal/domain"
	"github.com/diagnosis/inkbook/internal/service"
	"github.com/graph-gophers/graphql-go"
)

func toID(id int64) graphql.ID {
	return graphql.ID(strconv.FormatInt(id, 10))
}

type userResolver struct{ u *domain.User }

func (r *userResolver) ID() graphql.ID        { return toID(r.u.ID) }
func (r *userResolver) Email() string         { return r.u.Email }
func (r *userResolver) Name() string          { return r.u.Name }
func (r *userResolver) Role() string          { return r.u.Role }
func (r *userResolver) ProfileImage() *string { return r.u.ProfileImage }

type authPayloadResolver struct{ p *domain.AuthPayload }

func (r *authPayloadResolver) Token() string { return r.p.Token }
func (r *authPayloadResolver) User() *userResolver {
	return &userResolver{u: r.p.User}
}

type artistResolver struct{ a *domain.Artist }

func (r *artistResolver) ID() graphql.ID    { return toID(r.a.ID) }
func (r *artistResolver) Name() string      { return r.a.Name }
func (r *artistResolver) Location() string  { return r.a.Location }
func (r *artistResolver) Rating() float64   { return r.a.Rating }
func (r *artistResolver) ImageURL() string  { return r.a.ImageURL }
func (r *artistResolver) Bio() string       { return r.a.Bio }
func (r *artistResolver) Available() bool   { return r.a.Available }
func (r *artistResolver) Latitude() string  { return r.a.Latitude }
func (r *artistResolver) Longitude() string { return r.a.Longitude }
func (r *artistResolver) Specialty() []string {
	if r.a.Specialty == nil {
		return []string{}
	}
	return r.a.Specialty
}
func (r *artistResolver) VerificationStatus() string {
	if r.a.VerificationStatus == "" {
		return string(domain.VerificationUnverified)
	}
	return string(r.a.VerificationStatus)
}

type designResolver struct {
	d       *domain.Design
	artists service.ArtistService
}

func (r *designResolver) ID() graphql.ID   { return toID(r.d.ID) }
func (r *designResolver) Title() string    { return r.d.Title }
func (r *designResolver) ImageURL() string { return r.d.ImageURL }
func (r *designResolver) Price() float64   { return r.d.Price }
func (r *designResolver) Style() string    { return r.d.Style }
func (r *designResolver) Likes() int32     { return int32(r.d.Likes) }

func (r *designResolver) Artist(ctx context.Context) (*artistResolver, error) {
	a, err := r.artists.Get(ctx, r.d.ArtistID)
	if err != nil {
		return nil, publicError(ctx, err)
	}
	return &artistResolver{a: a}, nil
}

type slotResolver struct{ s *domain.TimeSlot }

func (r *slotResolver) ID() graphql.ID       { return toID(r.s.ID) }
func (r *slotResolver) ArtistID() graphql.ID { return toID(r.s.ArtistID) }
func (r *slotResolver) Date() string         { return r.s.Date }
func (r *slotResolver) Time() string         { return r.s.Time }
func (r *slotResolver) Available() bool      { return r.s.Available }
