package domain

import "time"

type UserId = int64
type Email = string

type User struct {
	Id        UserId
	Email     Email
	PassHash  string
	Admin     bool
	CreatedAt time.Time
}

type Credentials struct {
	Email    Email
	Password string
}

// SessionUser is the snapshot of a user written into the session at login.
type SessionUser struct {
	Id    UserId `json:"id"`
	Email Email  `json:"email"`
	Admin bool   `json:"is_admin"`
}

func (u User) SessionUser() SessionUser {
	return SessionUser{Id: u.Id, Email: u.Email, Admin: u.Admin}
}

// AuthContext is the per-request authorization result of the access guard.
// Admin comes from the live user record, never from the session snapshot.
type AuthContext struct {
	IsAuth  bool
	IsAdmin bool
	User    *SessionUser
}
