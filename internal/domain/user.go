package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role classifies what a user is allowed to do. Authorization decisions
// are made by the policy package, not by methods on User.
type Role string

// Possible user roles.
const (
	RoleAdmin    Role = "admin"
	RoleTeamLead Role = "team_lead"
	RoleMember   Role = "member"
	RoleMentor   Role = "mentor"
	RoleGuest    Role = "guest"
)

// PointsPerLevel is the number of points needed to advance one level.
const PointsPerLevel = 1000

// Common validation errors for User.
var (
	ErrEmptyUserID         = errors.New("user ID cannot be empty")
	ErrEmptyEmail          = errors.New("email cannot be empty")
	ErrInvalidEmail        = errors.New("invalid email format")
	ErrEmptyPassword       = errors.New("password cannot be empty")
	ErrPasswordTooShort    = errors.New("password must be at least 12 characters long")
	ErrPasswordTooLong     = errors.New("password must be at most 72 characters long")
	ErrEmptyHashedPassword = errors.New("hashed password cannot be empty")
	ErrInvalidRole         = errors.New("invalid user role")
)

// User represents a registered team member.
type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	DisplayName    string    `json:"display_name"`
	Password       string    `json:"-"` // Plaintext, held only until hashed.
	HashedPassword string    `json:"-"` // Never exposed in JSON.
	Role           Role      `json:"role"`
	IsActive       bool      `json:"is_active"`
	TotalPoints    int       `json:"total_points"`
	Level          int       `json:"level"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewUser creates a new active member-role User with the given email,
// display name and plaintext password. The caller is responsible for hashing
// the password before the user is stored.
// Returns an error if validation fails.
func NewUser(email, displayName, password string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:          uuid.New(),
		Email:       strings.ToLower(strings.TrimSpace(email)),
		DisplayName: strings.TrimSpace(displayName),
		Password:    password,
		Role:        RoleMember,
		IsActive:    true,
		TotalPoints: 0,
		Level:       1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
// Returns an error if any field fails validation.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}

	if u.Email == "" {
		return ErrEmptyEmail
	}
	if !validEmailFormat(u.Email) {
		return ErrInvalidEmail
	}

	if !validRole(u.Role) {
		return ErrInvalidRole
	}

	if u.Password != "" {
		if len(u.Password) < 12 {
			return ErrPasswordTooShort
		}
		// bcrypt's practical input limit.
		if len(u.Password) > 72 {
			return ErrPasswordTooLong
		}
	} else if u.HashedPassword == "" {
		return ErrEmptyPassword
	}

	return nil
}

// AddPoints credits the user with points and recalculates their level.
// Levels advance every PointsPerLevel points, starting at level 1.
func (u *User) AddPoints(points int) {
	if points <= 0 {
		return
	}
	u.TotalPoints += points
	u.Level = u.TotalPoints/PointsPerLevel + 1
	u.UpdatedAt = time.Now().UTC()
}

func validRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleTeamLead, RoleMember, RoleMentor, RoleGuest:
		return true
	}
	return false
}

// validEmailFormat performs basic structural validation of an email address:
// a non-empty local part, an @, and a domain containing an interior dot.
func validEmailFormat(email string) bool {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}

	domain := email[at+1:]
	dot := strings.IndexByte(domain, '.')
	return dot > 0 && dot < len(domain)-1
}
