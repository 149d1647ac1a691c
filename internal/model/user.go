package model

import "time"

// User is a registered account. Accounts are created either with an email
// and password or through GitHub OAuth; in the latter case PasswordHash is
// empty and GitHubID is non-zero.
//
// PasswordHash is never serialized; the `json:"-"` tag keeps it out of every
// API response.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	AvatarURL    string    `json:"avatar,omitempty"`
	PasswordHash string    `json:"-"`
	GitHubID     int64     `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// DisplayName returns the name to show in the UI, falling back to the email
// address when the user never set a name.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
