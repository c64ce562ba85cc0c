package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/diagnosis/inkbook/internal/domain"
	mw "github.com/diagnosis/inkbook/internal/http/middleware"
	"github.com/diagnosis/inkbook/internal/http/response"
	"github.com/diagnosis/inkbook/internal/service"
	"github.com/go-chi/chi/v5"
)

const maxJSONBody = 1 << 20

type Services struct {
	Accounts      service.AccountService
	Artists       service.ArtistService
	Designs       service.DesignService
	Bookings      service.BookingService
	Messaging     service.MessagingService
	Consultations service.ConsultationService
	Waivers       service.WaiverService
	Verification  service.VerificationService
	Reviews       service.ReviewService
}

type Handlers struct {
	accounts      service.AccountService
	artists       service.ArtistService
	designs       service.DesignService
	bookings      service.BookingService
	messaging     service.MessagingService
	consultations service.ConsultationService
	waivers       service.WaiverService
	verification  service.VerificationService
	reviews       service.ReviewService
	maxUpload     int64
}

func New(s Services, maxUpload int64) *Handlers {
	if maxUpload <= 0 {
		maxUpload = 5 << 20
	}
	return &Handlers{
		accounts:      s.Accounts,
		artists:       s.Artists,
		designs:       s.Designs,
		bookings:      s.Bookings,
		messaging:     s.Messaging,
		consultations: s.Consultations,
		waivers:       s.Waivers,
		verification:  s.Verification,
		reviews:       s.Reviews,
		maxUpload:     maxUpload,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	response.JSON(w, status, v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	response.FromError(w, r, err)
}

// decode reads a JSON body into v and writes a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			response.WriteError(w, http.StatusRequestEntityTooLarge, "request body too large", response.CodeInvalidInput)
		case errors.Is(err, io.EOF):
			response.BadRequest(w, "request body is required")
		default:
			response.BadRequest(w, "Invalid JSON format")
		}
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "invalid "+name)
		return 0, false
	}
	return id, true
}

func principal(r *http.Request) domain.Principal {
	return mw.Principal(r)
}
