package entity

import (
	"time"
)

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

// Valid reports whether g is one of the accepted values. The zero value means unset.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// Account is the aggregate root for credentials and profile data.
// PasswordHash and ResetCodeHash are bcrypt hashes; plaintext never reaches storage.
type Account struct {
	ID               string
	Email            string
	PasswordHash     string
	Nickname         string
	Gender           Gender
	IsAdultConfirmed bool
	Role             Role
	IsLoggedIn       bool

	// At most one reset code is live; issuing a new one overwrites both fields.
	ResetCodeHash      string
	ResetCodeExpiresAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasLiveResetCode reports whether a reset code exists and has not expired at now.
func (a *Account) HasLiveResetCode(now time.Time) bool {
	return a.ResetCodeHash != "" && a.ResetCodeExpiresAt != nil && !now.After(*a.ResetCodeExpiresAt)
}

// ClearResetCode drops the outstanding reset code.
func (a *Account) ClearResetCode() {
	a.ResetCodeHash = ""
	a.ResetCodeExpiresAt = nil
}

// AccountSummary is the public projection returned to clients.
type AccountSummary struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	Nickname         string `json:"nickname,omitempty"`
	Gender           Gender `json:"gender,omitempty"`
	IsAdultConfirmed bool   `json:"isAdultConfirmed"`
	Role             Role   `json:"role"`
}

func (a *Account) Summary() AccountSummary {
	return AccountSummary{
		ID:               a.ID,
		Email:            a.Email,
		Nickname:         a.Nickname,
		Gender:           a.Gender,
		IsAdultConfirmed: a.IsAdultConfirmed,
		Role:             a.Role,
	}
}
