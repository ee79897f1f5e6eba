package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type for user roles.
type Role string

const (
	RoleCoach   Role = "coach"
	RoleAthlete Role = "athlete"
)

// User represents a coach or an athlete. For athletes, CalendarAccountID is
// their identifier within the third-party calendar service; an empty value
// means the athlete never connected a calendar, which is a normal state.
type User struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email             string             `bson:"email" json:"email"`
	PasswordHash      string             `bson:"passwordHash" json:"-"` // Never serialized to JSON
	Name              string             `bson:"name" json:"name"`
	Role              Role               `bson:"role" json:"role"`
	CalendarAccountID string             `bson:"calendarAccountId,omitempty" json:"calendarAccountId,omitempty"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsCoach checks if the user has the coach role.
func (u *User) IsCoach() bool {
	return u.Role == RoleCoach
}

// IsAthlete checks if the user has the athlete role.
func (u *User) IsAthlete() bool {
	return u.Role == RoleAthlete
}

// HasCalendarAccount reports whether the athlete connected an external
// calendar account.
func (u *User) HasCalendarAccount() bool {
	return u.CalendarAccountID != ""
}
