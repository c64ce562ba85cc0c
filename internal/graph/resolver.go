package graph

import (
	"context"
	"errors"
	"strconv"

	"github.com/diagnosis/inkbook/internal/domain"
	mw "github.com/diagnosis/inkbook/internal/http/middleware"
	"github.com/diagnosis/inkbook/internal/service"
	"github.com/diagnosis/inkbook/pkg/logger"
	"github.com/graph-gophers/graphql-go"
)

// Resolver is the root for both Query and Mutation.
type Resolver struct {
	accounts service.AccountService
	artists  service.ArtistService
	designs  service.DesignService
	bookings service.BookingService
}

func NewResolver(accounts service.AccountService, artists service.ArtistService, designs service.DesignService, bookings service.BookingService) *Resolver {
	return &Resolver{accounts: accounts, artists: artists, designs: designs, bookings: bookings}
}

// ---------- Query ----------

func (r *Resolver) Artists(ctx context.Context) ([]*artistResolver, error) {
	list, err := r.artists.List(ctx, domain.ArtistFilter{})
	if err != nil {
		return nil, publicError(ctx, err)
	}
	out := make([]*artistResolver, len(list))
	for i := range list {
		out[i] = &artistResolver{a: &list[i]}
	}
	return out, nil
}

func (r *Resolver) Artist(ctx context.Context, args struct{ ID graphql.ID }) (*artistResolver, error) {
	id, err := parseID(args.ID)
	if err != nil {
		return nil, nil
	}
	a, err := r.artists.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, publicError(ctx, err)
	}
	return &artistResolver{a: a}, nil
}

func (r *Resolver) Designs(ctx context.Context) ([]*designResolver, error) {
	list, err := r.designs.List(ctx, domain.DesignFilter{})
	if err != nil {
		return nil, publicError(ctx, err)
	}
	out := make([]*designResolver, len(list))
	for i := range list {
		out[i] = &designResolver{d: &list[i], artists: r.artists}
	}
	return out, nil
}

func (r *Resolver) Design(ctx context.Context, args struct{ ID graphql.ID }) (*designResolver, error) {
	id, err := parseID(args.ID)
	if err != nil {
		return nil, nil
	}
	d, err := r.designs.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, publicError(ctx, err)
	}
	return &designResolver{d: d, artists: r.artists}, nil
}

func (r *Resolver) AvailableSlots(ctx context.Context, args struct{ ArtistID graphql.ID }) ([]*slotResolver, error) {
	id, err := parseID(args.ArtistID)
	if err != nil {
		return nil, domain.Invalid("artistId", "must be a numeric id")
	}
	slots, err := r.bookings.AvailableSlots(ctx, id)
	if err != nil {
		return nil, publicError(ctx, err)
	}
	out := make([]*slotResolver, len(slots))
	for i := range slots {
		out[i] = &slotResolver{s: &slots[i]}
	}
	return out, nil
}

func (r *Resolver) Me(ctx context.Context) (*userResolver, error) {
	u, err := r.accounts.Me(ctx, mw.FromContext(ctx))
	if err != nil {
		return nil, publicError(ctx, err)
	}
	if u == nil {
		return nil, nil
	}
	return &userResolver{u: u}, nil
}

// ---------- Mutation ----------

type signupArgs struct {
	Email    string
	Password string
	Name     string
	Role     string
}

func (r *Resolver) Signup(ctx context.Context, args signupArgs) (*authPayloadResolver, error) {
	out, err := r.accounts.Signup(ctx, &domain.SignupRequest{
		Email:    args.Email,
		Password: args.Password,
		Name:     args.Name,
		Role:     args.Role,
	})
	if err != nil {
		return nil, publicError(ctx, err)
	}
	return &authPayloadResolver{p: out}, nil
}

type loginArgs struct {
	Email    string
	Password string
}

func (r *Resolver) Login(ctx context.Context, args loginArgs) (*authPayloadResolver, error) {
	out, err := r.accounts.Login(ctx, &domain.LoginRequest{Email: args.Email, Password: args.Password})
	if err != nil {
		return nil, publicError(ctx, err)
	}
	return &authPayloadResolver{p: out}, nil
}

type createDesignArgs struct {
	Title    string
	ImageURL string
	Price    float64
	Style    string
}

func (r *Resolver) CreateDesign(ctx context.Context, args createDesignArgs) (*designResolver, error) {
	d, err := r.designs.Create(ctx, mw.FromContext(ctx), &domain.CreateDesignRequest{
		Title:    args.Title,
		ImageURL: args.ImageURL,
		Price:    args.Price,
		Style:    args.Style,
	})
	if err != nil {
		return nil, publicError(ctx, err)
	}
	return &designResolver{d: d, artists: r.artists}, nil
}

// BookSlot returns the booked slot. A replayed Idempotency-Key returns the slot of the original booking.
func (r *Resolver) BookSlot(ctx context.Context, args struct{ SlotID graphql.ID }) (*slotResolver, error) {
	id, err := parseID(args.SlotID)
	if err != nil {
		return nil, domain.ErrSlotUnavailable
	}
	res, err := r.bookings.BookSlot(ctx, mw.FromContext(ctx), id, IdempotencyKey(ctx))
	if err != nil {
		return nil, publicError(ctx, err)
	}
	return &slotResolver{s: res.Slot}, nil
}

func (r *Resolver) UpdateArtistAvailability(ctx context.Context, args struct{ Available bool }) (*artistResolver, error) {
	a, err := r.artists.UpdateAvailability(ctx, mw.FromContext(ctx), args.Available)
	if err != nil {
		return nil, publicError(ctx, err)
	}
	return &artistResolver{a: a}, nil
}

func parseID(id graphql.ID) (int64, error) {
	return strconv.ParseInt(string(id), 10, 64)
}

var publicErrors = []error{
	domain.ErrUnauthenticated,
	domain.ErrForbidden,
	domain.ErrInvalidCredentials,
	domain.ErrUserExists,
	domain.ErrNotFound,
	domain.ErrSlotUnavailable,
	domain.ErrAgeVerification,
	domain.ErrUnderage,
	domain.ErrWaiverRequired,
}

// publicError strips wrapping so clients see the same messages as the REST API.
func publicError(ctx context.Context, err error) error {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	for _, e := range publicErrors {
		if errors.Is(err, e) {
			return e
		}
	}
	logger.ErrorContext(ctx, "GraphQL resolver failed", "error", err)
	return errors.New("internal server error")
}
