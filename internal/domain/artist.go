package domain

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/diagnosis/inkbook/internal/utils"
)

type VerificationStatus string

const (
	VerificationVerified   VerificationStatus = "verified"
	VerificationPending    VerificationStatus = "pending"
	VerificationUnverified VerificationStatus = "unverified"
)

func ParseVerificationStatus(s string) (VerificationStatus, bool) {
	switch VerificationStatus(s) {
	case VerificationVerified, VerificationPending, VerificationUnverified:
		return VerificationStatus(s), true
	default:
		return "", false
	}
}

type Artist struct {
	ID                 int64              `json:"id"`
	UserID             int64              `json:"user_id"`
	Name               string             `json:"name"`
	Specialty          []string           `json:"specialty"`
	Location           string             `json:"location"`
	Rating             float64            `json:"rating"`
	ImageURL           string             `json:"image_url"`
	Bio                string             `json:"bio"`
	Available          bool               `json:"available"`
	Latitude           string             `json:"latitude"`
	Longitude          string             `json:"longitude"`
	VerificationStatus VerificationStatus `json:"verification_status"`
	DepositCents       int64              `json:"deposit_cents"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

type ArtistFilter struct {
	Specialty string
	Location  string
	Available *bool
	// Near filters by great-circle distance when set.
	Near *GeoPoint
	// RadiusKm defaults to DefaultRadiusKm when Near is set.
	RadiusKm float64
}

type GeoPoint struct {
	Lat float64
	Lng float64
}

const DefaultRadiusKm = 25.0

type ArtistProfilePatch struct {
	Bio          *string  `json:"bio,omitempty"`
	Location     *string  `json:"location,omitempty"`
	Specialty    []string `json:"specialty,omitempty"`
	ImageURL     *string  `json:"image_url,omitempty"`
	Latitude     *string  `json:"latitude,omitempty"`
	Longitude    *string  `json:"longitude,omitempty"`
	DepositCents *int64   `json:"deposit_cents,omitempty"`
}

func (p *ArtistProfilePatch) Normalize() {
	if p.Specialty != nil {
		out := make([]string, 0, len(p.Specialty))
		seen := map[string]bool{}
		for _, s := range p.Specialty {
			s = utils.NormalizeString(s)
			key := strings.ToLower(s)
			if s == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, s)
		}
		p.Specialty = out
	}
}

// ParseCoordinate parses a latitude (limit 90) or longitude (limit 180).
// NaN, infinities and values outside [-limit, limit] are rejected.
func ParseCoordinate(s string, limit float64) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < -limit || v > limit {
		return 0, false
	}
	return v, true
}

func (p *ArtistProfilePatch) Validate() error {
	if p.Latitude != nil && *p.Latitude != "" {
		if _, ok := ParseCoordinate(*p.Latitude, 90); !ok {
			return Invalid("latitude", "must be between -90 and 90")
		}
	}
	if p.Longitude != nil && *p.Longitude != "" {
		if _, ok := ParseCoordinate(*p.Longitude, 180); !ok {
			return Invalid("longitude", "must be between -180 and 180")
		}
	}
	if p.DepositCents != nil && *p.DepositCents < 0 {
		return Invalid("deposit_cents", "cannot be negative")
	}
	return nil
}

// Coordinates returns the artist's parsed position, or false when either coordinate is missing or malformed.
func (a *Artist) Coordinates() (GeoPoint, bool) {
	lat, ok := ParseCoordinate(a.Latitude, 90)
	if !ok {
		return GeoPoint{}, false
	}
	lng, ok := ParseCoordinate(a.Longitude, 180)
	if !ok {
		return GeoPoint{}, false
	}
	return GeoPoint{Lat: lat, Lng: lng}, true
}

const earthRadiusKm = 6371.0

// DistanceKm is the haversine distance between two points.
func DistanceKm(a, b GeoPoint) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}
