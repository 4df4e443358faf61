// Package model defines the data structures used throughout the application.
package model

import "time"

// MaxUsernameLength caps usernames at registration.
const MaxUsernameLength = 30

// User represents a registered account.
//
// PasswordHash is tagged `json:"-"` so it can never leak into a response
// body, no matter which handler serializes the struct. The bcrypt hash is
// computed once at registration; the plaintext and its confirmation are
// never stored anywhere.
type User struct {
	ID           string    `json:"id"        bson:"_id"`
	Username     string    `json:"username"  bson:"username"`
	Email        string    `json:"email"     bson:"email"`
	PasswordHash string    `json:"-"         bson:"password"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Profile is a user record together with the media they relate to.
//
// OwnedMedia and Reviewed are not stored on the user document; they are
// back-reference queries against the media collection (owner == user,
// reviews.owner == user) resolved at read time.
type Profile struct {
	User       *User       `json:"user"`
	OwnedMedia []MediaItem `json:"ownedMedia"`
	Reviewed   []MediaItem `json:"reviews"`
}
