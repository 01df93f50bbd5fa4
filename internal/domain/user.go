package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is a storefront customer account
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FullName     FullName  `json:"fullName"`
	PhoneNumber  string    `json:"phoneNumber" db:"phone_number"`
	Address      string    `json:"address" db:"address"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

type FullName struct {
	LastName  string `json:"lastName" db:"last_name" validate:"required"`
	FirstName string `json:"firstName" db:"first_name" validate:"required"`
}

// ProfileUpdate carries the fields of a partial profile update. Nil fields
// keep their stored value.
type ProfileUpdate struct {
	FullName    *FullName
	PhoneNumber *string
	Address     *string
}

// Apply copies the present fields onto the user
func (p ProfileUpdate) Apply(u *User) {
	if p.FullName != nil {
		u.FullName = *p.FullName
	}
	if p.PhoneNumber != nil {
		u.PhoneNumber = *p.PhoneNumber
	}
	if p.Address != nil {
		u.Address = *p.Address
	}
}

// RevokedToken marks an access token id as no longer usable before its expiry
type RevokedToken struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	RevokedAt time.Time `json:"revoked_at" db:"revoked_at"`
}
