package domain

import (
	"strings"
	"time"

	"github.com/diagnosis/inkbook/internal/utils"
)

const (
	RoleClient = "client"
	RoleArtist = "artist"
	RoleAdmin  = "admin"
)

const MinPasswordLength = 8

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	ProfileImage *string   `json:"profile_image,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type UpdateProfileRequest struct {
	Name         *string `json:"name,omitempty"`
	ProfileImage *string `json:"profile_image,omitempty"`
}

// AuthPayload is what signup and login hand back to the client.
type AuthPayload struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in"`
	User         *User  `json:"user"`
}

func (r *SignupRequest) Normalize() {
	r.Email = utils.NormalizeEmail(r.Email)
	r.Name = utils.NormalizeString(r.Name)
	r.Role = strings.ToLower(utils.NormalizeString(r.Role))
	if r.Role == "" {
		r.Role = RoleClient
	}
}

func (r *SignupRequest) Validate() error {
	if r.Email == "" {
		return Invalid("email", "is required")
	}
	if !utils.IsValidEmail(r.Email) {
		return Invalid("email", "invalid format")
	}
	if len(r.Password) < MinPasswordLength {
		return Invalid("password", "must be at least 8 characters")
	}
	if r.Name == "" {
		return Invalid("name", "is required")
	}
	// admin accounts are provisioned out of band
	if r.Role != RoleClient && r.Role != RoleArtist {
		return Invalid("role", "must be client or artist")
	}
	return nil
}

func (r *LoginRequest) Normalize() {
	r.Email = utils.NormalizeEmail(r.Email)
}

func (r *LoginRequest) Validate() error {
	if r.Email == "" || r.Password == "" {
		return Invalid("", "email and password are required")
	}
	return nil
}

func (r *UpdateProfileRequest) Validate() error {
	if r.Name != nil && utils.NormalizeString(*r.Name) == "" {
		return Invalid("name", "cannot be blank")
	}
	return nil
}

func (u *User) IsArtist() bool { return u.Role == RoleArtist }
func (u *User) IsAdmin() bool  { return u.Role == RoleAdmin }

// Principal is the authenticated caller as read from the access token. The zero value is anonymous.
type Principal struct {
	UserID int64
	Email  string
	Role   string
}

func (p Principal) Authenticated() bool { return p.UserID > 0 }
func (p Principal) IsArtist() bool      { return p.Role == RoleArtist }
func (p Principal) IsAdmin() bool       { return p.Role == RoleAdmin }
