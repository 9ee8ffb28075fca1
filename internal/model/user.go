package model

import "time"

// User is a portal account created on first SSO login.
type User struct {
	UserID       string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Username     string     `gorm:"type:varchar(64);not null;uniqueIndex"          json:"username"`
	FirstName    string     `gorm:"type:varchar(128);not null"                     json:"first_name"`
	LastName     string     `gorm:"type:varchar(128);not null"                     json:"last_name"`
	PersonNumber string     `gorm:"type:varchar(32);not null"                      json:"-"`
	Email        string     `gorm:"type:varchar(255);not null"                     json:"email"`
	IsAdmin      bool       `gorm:"not null;default:false"                         json:"is_admin"`
	LoginCount   int        `gorm:"not null;default:0"                             json:"login_count"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	Timestamps
}

// TableName users
func (User) TableName() string { return "users" }

// FullName joins first and last name.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
