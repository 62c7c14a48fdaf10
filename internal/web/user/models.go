// Package user manages accounts, roles and login.
package user

import (
	"time"

	"github.com/Laisky/laisky-newsroom/internal/library/models"
)

// User newsroom account
type User struct {
	ID           int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string      `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string      `gorm:"size:255;not null" json:"-"`
	Name         string      `gorm:"size:255;not null" json:"name"`
	LastName     string      `gorm:"size:255" json:"last_name,omitempty"`
	Role         models.Role `gorm:"size:32;not null;default:'reader';index" json:"role"`
	Active       bool        `gorm:"not null;default:true" json:"active"`
	// FailedLogins counts wrong passwords since the last successful login
	FailedLogins int        `gorm:"not null;default:0" json:"-"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName returns the table name
func (User) TableName() string {
	return "users"
}

// Actor identity of the user in requests
func (u *User) Actor() models.Actor {
	return models.Actor{ID: u.ID, Role: models.ParseRole(string(u.Role))}
}

// RegisterInput payload of a new account
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	LastName string `json:"last_name"`
}

// Session returned by register and login
type Session struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}
