// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the local mirror of an identity owned by the external auth
// provider. Permission flags live only here; the provider knows nothing
// about them.
type User struct {
	ID         uuid.UUID `json:"id"`
	AuthID     string    `json:"authId"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Bio        *string   `json:"bio"`
	Avatar     *string   `json:"avatar"`
	CanPublish bool      `json:"canPublish"`
	IsAdmin    bool      `json:"isAdmin"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// MayPublish returns true if the user may create and edit posts.
// Admins can always publish.
func (u *User) MayPublish() bool {
	return u.CanPublish || u.IsAdmin
}

// UserSummary is a User row as listed in the admin back office, with
// counts of the content it owns.
type UserSummary struct {
	User
	PostCount  int `json:"postCount"`
	ComicCount int `json:"comicCount"`
}

// UserFlags is a partial update of a user's permission flags. Nil fields
// are left untouched.
type UserFlags struct {
	CanPublish *bool
	IsAdmin    *bool
}

// ProfilePatch is a partial update of a user's own profile. Nil fields are
// left untouched.
type ProfilePatch struct {
	Name   *string
	Bio    *string
	Avatar *string
}
