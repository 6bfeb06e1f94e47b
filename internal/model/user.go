package model

import "time"

// Role enumerates the backend's user roles.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleAssistant Role = "asisten"
	RoleStudent   Role = "mahasiswa"
)

// Administrative reports whether the role may open the admin views.
func (r Role) Administrative() bool {
	return r == RoleAdmin || r == RoleAssistant
}

// User is the authenticated caller as reported by GET /user.
type User struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Role         Role       `json:"role"`
	PenaltyUntil *time.Time `json:"penalty_until,omitempty"`
}

// UnderPenalty reports whether the user is currently blocked from submitting
// new loan requests.
func (u User) UnderPenalty(now time.Time) bool {
	return u.PenaltyUntil != nil && now.Before(*u.PenaltyUntil)
}
