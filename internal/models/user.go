package models

import "time"

// User is an account that can log in.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// UserSummary is returned by register and login.
type UserSummary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// UserProfile is returned by the profile lookup. It never carries the password hash.
type UserProfile struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// ToSummary converts User to UserSummary.
func (u *User) ToSummary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username}
}

// ToProfile converts User to UserProfile.
func (u *User) ToProfile() UserProfile {
	return UserProfile{ID: u.ID, Username: u.Username, Email: u.Email}
}
