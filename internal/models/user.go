// Package models contains data structures for the application's domain models.
package models

import "time"

// Roles a user can hold.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an account created on first OAuth sign-in. ID is the provider's open id.
type User struct {
	ID           string    `gorm:"primaryKey;size:64" json:"id"`
	Name         string    `gorm:"type:text" json:"name"`
	Email        string    `gorm:"size:320;index" json:"email"`
	LoginMethod  string    `gorm:"size:64" json:"loginMethod"`
	Role         string    `gorm:"size:16;not null;default:user" json:"role"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	LastSignedIn time.Time `json:"lastSignedIn"`
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
