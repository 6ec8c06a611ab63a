package models

import "time"

// RoleID identifies one of the fixed roles. The roles table is seeded once
// at startup; privilege checks compare RoleID values, not table rows.
type RoleID uint

const (
	RoleUser RoleID = iota + 1
	RoleModerator
	RoleAdmin
)

func (r RoleID) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleModerator:
		return "moderator"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

func (r RoleID) Valid() bool { return r >= RoleUser && r <= RoleAdmin }

// IsStaff reports whether the role is moderator or above.
func (r RoleID) IsStaff() bool { return r >= RoleModerator }

type Role struct {
	ID    RoleID `gorm:"primaryKey" json:"-"`
	Name  string `gorm:"size:45;not null" json:"name"`
	Title string `gorm:"size:45;not null" json:"title"`
}

// DefaultRoles are the seed rows for the roles table.
var DefaultRoles = []Role{
	{ID: RoleUser, Name: "user", Title: "User"},
	{ID: RoleModerator, Name: "moderator", Title: "Moderator"},
	{ID: RoleAdmin, Name: "admin", Title: "Administrator"},
}

type User struct {
	ID           uint   `gorm:"primaryKey"`
	Email        string `gorm:"size:255;uniqueIndex;not null"`
	Username     string `gorm:"size:255;uniqueIndex;not null"`
	Password     string `gorm:"size:255;not null"`
	CreatedAt    time.Time
	BlockedUntil *time.Time
	RoleID       RoleID `gorm:"not null;default:1;index"`
	Role         Role   `gorm:"constraint:OnDelete:RESTRICT"`
}

// Blocked reports whether the account is blocked at the given instant.
func (u *User) Blocked(at time.Time) bool {
	return u.BlockedUntil != nil && u.BlockedUntil.After(at)
}
