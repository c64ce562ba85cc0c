package handlers

import (
	"net/http"
	"strconv"
	"time"

	mw "github.com/diagnosis/inkbook/internal/http/middleware"
	"github.com/diagnosis/inkbook/pkg/cache"
	pkgmw "github.com/diagnosis/inkbook/pkg/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

type RouterConfig struct {
	JWTSecret      string
	AllowedOrigins []string
	// AuthLimiter guards /v1/auth. Nil disables rate limiting.
	AuthLimiter *cache.RateLimiter
	// Idempotency caches message and consultation responses. Nil disables it.
	Idempotency    pkgmw.IdempotencyStore
	IdempotencyTTL time.Duration
	GraphQL        http.Handler
	WS             http.Handler
	HealthChecks   map[string]pkgmw.HealthCheck
}

func NewRouter(h *Handlers, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(pkgmw.RequestID)
	r.Use(pkgmw.ServiceName("api"))
	r.Use(pkgmw.Logging)
	r.Use(pkgmw.Recover)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Idempotent-Replayed"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(pkgmw.Health(cfg.HealthChecks))

	// the websocket authenticates from its query string
	if cfg.WS != nil {
		r.Handle("/v1/ws", cfg.WS)
	}
	// signatures are checked by the handler, not by bearer tokens
	r.Post("/v1/webhooks/stripe", h.StripeWebhook)

	// resolvers decide what needs a user, so a bad token only drops to anonymous
	if cfg.GraphQL != nil {
		r.With(mw.AuthenticateLenient(cfg.JWTSecret)).Handle("/graphql", cfg.GraphQL)
	}

	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		r.Route("/v1", func(r chi.Router) {
			r.Route("/auth", func(r chi.Router) {
				if cfg.AuthLimiter != nil {
					r.Use(mw.RateLimit(cfg.AuthLimiter))
				}
				r.Post("/signup", h.Signup)
				r.Post("/login", h.Login)
				r.Post("/refresh", h.Refresh)
			})

			// public reads
			r.Get("/artists", h.ListArtists)
			r.Get("/artists/{id}", h.GetArtist)
			r.Get("/artists/{id}/slots", h.AvailableSlots)
			r.Get("/artists/{id}/waivers", h.ArtistWaivers)
			r.Get("/artists/{id}/reviews", h.ArtistReviews)
			r.Get("/designs", h.ListDesigns)
			r.Get("/designs/{id}", h.GetDesign)

			r.Group(func(r chi.Router) {
				r.Use(mw.RequireAuth)
				idem := idempotent(cfg)

				r.Get("/me", h.Me)
				r.Patch("/me", h.UpdateMe)
				r.Get("/me/verification", h.AgeVerificationStatus)
				r.Post("/me/verification", h.SubmitAgeVerification)
				r.Get("/me/waivers", h.MyWaivers)

				r.Post("/artists/{id}/reviews", h.CreateReview)
				r.Put("/artists/{id}/verification", h.SetVerificationStatus)

				r.Route("/artist", func(r chi.Router) {
					r.Get("/profile", h.MyArtistProfile)
					r.Patch("/profile", h.UpdateArtistProfile)
					r.Put("/availability", h.UpdateAvailability)
					r.Post("/verification-request", h.RequestVerification)
					r.Get("/slots", h.MySlots)
					r.Post("/slots", h.CreateSlot)
					r.Delete("/slots/{id}", h.DeleteSlot)
					r.Post("/waivers", h.CreateWaiver)
					r.Put("/waivers/{id}", h.UpdateWaiver)
					r.Delete("/waivers/{id}", h.DeleteWaiver)
					r.Get("/waivers/signatures", h.WaiverSignatures)
				})

				r.Post("/designs", h.CreateDesign)
				r.Post("/designs/images", h.UploadDesignImage)
				r.Post("/designs/{id}/like", h.LikeDesign)

				r.Post("/slots/{id}/book", h.BookSlot)
				r.Get("/bookings", h.ListBookings)
				r.Post("/bookings/{id}/cancel", h.CancelBooking)
				r.Post("/bookings/{id}/pay", h.PayDeposit)

				r.With(idem).Post("/messages", h.SendMessage)
				r.Get("/conversations", h.ListConversations)
				r.Get("/conversations/{id}/messages", h.ListMessages)
				r.Post("/conversations/{id}/read", h.MarkRead)

				r.Get("/consultations", h.ListConsultations)
				r.With(idem).Post("/consultations", h.RequestConsultation)
				r.Post("/consultations/{id}/respond", h.RespondConsultation)
				r.Post("/consultations/{id}/cancel", h.CancelConsultation)

				r.Post("/waivers/{id}/sign", h.SignWaiver)
			})
		})
	})

	return r
}

// idempotent scopes cached responses to the calling user.
func idempotent(cfg RouterConfig) func(http.Handler) http.Handler {
	if cfg.Idempotency == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return pkgmw.IdempotencyMiddleware(cfg.Idempotency, cfg.IdempotencyTTL, func(r *http.Request) string {
		return "user:" + strconv.FormatInt(mw.Principal(r).UserID, 10)
	})
}
