package models

import "time"

// Role identifies what a user account is allowed to do
type Role string

const (
	RoleStudent Role = "student"
	RoleParent  Role = "parent"
	RoleAdmin   Role = "admin"
)

// Valid reports whether the role is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleParent, RoleAdmin:
		return true
	}
	return false
}

// HoursWindow is the daily time window a student is allowed to use the platform
type HoursWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Preferences holds the parental controls attached to an account
type Preferences struct {
	ParentalPin     string      `json:"parentalPin"`
	MaxDailyMinutes int         `json:"maxDailyMinutes"`
	MaxDifficulty   Difficulty  `json:"maxDifficulty"`
	AllowedHours    HoursWindow `json:"allowedHours"`
}

// DefaultPreferences returns the parental controls applied to new accounts
func DefaultPreferences() Preferences {
	return Preferences{
		ParentalPin:     "0000",
		MaxDailyMinutes: 60,
		MaxDifficulty:   DifficultyMedium,
		AllowedHours:    HoursWindow{Start: "08:00", End: "20:00"},
	}
}

// Subscription carries billing state. Unused by core logic.
type Subscription struct {
	Status string `json:"status"`
	PlanID string `json:"planId,omitempty"`
}

// User represents an account in the system: a student, a parent or an admin
type User struct {
	ID             string       `json:"id"`
	Username       string       `json:"username"`
	Email          string       `json:"email"`
	PasswordHash   string       `json:"-"`
	Role           Role         `json:"role"`
	Age            *int         `json:"age,omitempty"`
	ParentID       string       `json:"parentId,omitempty"`
	ProfilePicture string       `json:"profilePicture,omitempty"`
	Preferences    Preferences  `json:"preferences"`
	Badges         []string     `json:"badges"`
	Subscription   Subscription `json:"subscription"`
	IsActive       bool         `json:"isActive"`
	LastLogin      *time.Time   `json:"lastLogin,omitempty"`

	ResetTokenHash    string     `json:"-"`
	ResetTokenExpires *time.Time `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AgeGroupFor maps a student's age to the catalog age-group buckets.
// Returns "" for accounts without an age.
func (u *User) AgeGroupFor() AgeGroup {
	if u.Age == nil {
		return ""
	}
	switch age := *u.Age; {
	case age <= 7:
		return AgeGroup5to7
	case age <= 10:
		return AgeGroup8to10
	default:
		return AgeGroup11to12
	}
}
