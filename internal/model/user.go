// Package model defines the data structures shared by the server, the
// repositories, and the API client.
package model

import "time"

// User represents a registered account.
//
// Email is the login credential and is unique across all users; Username is
// the display name shown next to snippets. PasswordHash holds the bcrypt
// hash of the password and is excluded from JSON so it can never leak
// through an API response.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
