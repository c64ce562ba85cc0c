package domain

import (
	"strings"
	"time"

	"github.com/diagnosis/inkbook/internal/utils"
)

const (
	IDDriversLicense = "drivers_license"
	IDPassport       = "passport"
	IDStateID        = "state_id"
)

type AgeVerification struct {
	UserID       int64     `json:"user_id"`
	IDType       string    `json:"id_type"`
	IDNumberHash string    `json:"-"`
	IDLast4      string    `json:"id_last4"`
	DateOfBirth  time.Time `json:"date_of_birth"`
	VerifiedAt   time.Time `json:"verified_at"`
}

type AgeVerificationRequest struct {
	IDType      string `json:"id_type"`
	IDNumber    string `json:"id_number"`
	DateOfBirth string `json:"date_of_birth"`
}

type AgeVerificationStatus struct {
	Verified   bool       `json:"verified"`
	MinimumAge int        `json:"minimum_age"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
}

func (r *AgeVerificationRequest) Normalize() {
	r.IDType = strings.ToLower(utils.NormalizeString(r.IDType))
	r.IDNumber = strings.ToUpper(strings.ReplaceAll(utils.NormalizeString(r.IDNumber), " ", ""))
}

// Validate checks the request and returns the parsed date of birth.
func (r *AgeVerificationRequest) Validate() (time.Time, error) {
	switch r.IDType {
	case IDDriversLicense, IDPassport, IDStateID:
	default:
		return time.Time{}, Invalid("id_type", "must be drivers_license, passport or state_id")
	}
	if len(r.IDNumber) < 4 {
		return time.Time{}, Invalid("id_number", "is too short")
	}
	dob, err := time.Parse(DateLayout, utils.NormalizeString(r.DateOfBirth))
	if err != nil {
		return time.Time{}, Invalid("date_of_birth", "must be YYYY-MM-DD")
	}
	return dob, nil
}

// AgeOn returns the age in whole years of someone born on dob, as of now.
func AgeOn(dob, now time.Time) int {
	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	return years
}
