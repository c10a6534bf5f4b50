// Package models contains data structures for the storefront domain.
package models

import (
	"strings"
	"time"
)

// User is a site account. Staff users may manage catalog media and vacancies.
type User struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Username    string     `gorm:"size:255;uniqueIndex;not null" json:"username"`
	Email       string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PhoneNumber string     `gorm:"size:32;uniqueIndex;not null" json:"phone_number"`
	FirstName   string     `gorm:"size:150;not null" json:"first_name"`
	LastName    string     `gorm:"size:150;not null" json:"last_name"`
	MiddleName  string     `gorm:"size:150" json:"middle_name,omitempty"`
	Password    string     `gorm:"not null" json:"-"`
	IsStaff     bool       `gorm:"not null;default:false" json:"is_staff"`
	IsSuperuser bool       `gorm:"not null;default:false" json:"is_superuser"`
	IsActive    bool       `gorm:"not null" json:"is_active"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
	DateJoined  time.Time  `gorm:"autoCreateTime" json:"date_joined"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// FullName joins the name parts the way they are printed on documents:
// last, first, middle.
func (u *User) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{u.LastName, u.FirstName, u.MiddleName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}
