package models

import (
	"time"

	"gorm.io/gorm"
)

// Roles assignable to a user. The system must always retain at least one
// active admin; that rule is enforced by the user endpoints, not here.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// ValidRole reports whether role is one of the assignable roles.
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// User represents an account on the admin backend. Passwords are stored as
// bcrypt hashes only. Deletes are hard deletes: the unique email index must
// free the address for reuse.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Name         string     `gorm:"size:100;not null" json:"name"`
	Email        string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"size:255" json:"-"`
	Role         string     `gorm:"size:16;default:'user';index" json:"role"`
	IsActive     bool       `gorm:"default:true" json:"isActive"`
	Avatar       string     `gorm:"size:512" json:"avatar"`
	LastLogin    *time.Time `json:"lastLogin"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsStaff reports whether the user can manage content (admin or moderator).
func (u *User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleModerator
}
