package domain

import (
	"time" // Timestamps

	"github.com/google/uuid" // ID generation
	"gorm.io/gorm"           // GORM ORM library
)

// User Model
type User struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`                       // Primary key (UUID)
	Username      string    `gorm:"uniqueIndex;size:30;not null" json:"username"`       // Unique username
	Email         string    `gorm:"uniqueIndex;size:255;not null" json:"email"`         // Unique, lower-cased email
	Password      string    `gorm:"not null" json:"-"`                                  // Hashed password
	WalletAddress *string   `gorm:"uniqueIndex;size:42" json:"walletAddress,omitempty"` // Unique when present
	Avatar        string    `gorm:"size:512" json:"avatar,omitempty"`                   // Avatar URL
	Bio           string    `gorm:"size:500" json:"bio,omitempty"`                      // Short biography
	CreatedAt     time.Time `json:"createdAt"`                                          // Creation timestamp
	UpdatedAt     time.Time `json:"updatedAt"`                                          // Last update timestamp
}

// BeforeCreate assigns a UUID when the caller did not set one
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// PublicUser is the part of a user that other users may see
type PublicUser struct {
	ID       string `json:"id"`            // User ID
	Username string `json:"username"`      // Username
	Avatar   string `json:"avatar"`        // Avatar URL
	Bio      string `json:"bio,omitempty"` // Only filled on detail views
}

// AccountView is what a user sees about themselves after login or profile edit
type AccountView struct {
	ID            string  `json:"id"`
	Username      string  `json:"username"`
	Email         string  `json:"email"`
	WalletAddress *string `json:"walletAddress,omitempty"`
	Avatar        string  `json:"avatar,omitempty"`
	Bio           string  `json:"bio,omitempty"`
}

// Public returns the public subset; withBio controls whether bio is included
func (u *User) Public(withBio bool) *PublicUser {
	if u == nil {
		return nil
	}
	p := &PublicUser{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
	if withBio {
		p.Bio = u.Bio
	}
	return p
}

// Account returns the self-view of the user
func (u *User) Account() AccountView {
	return AccountView{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		WalletAddress: u.WalletAddress,
		Avatar:        u.Avatar,
		Bio:           u.Bio,
	}
}

// ProfileView is the public profile page of a user
type ProfileView struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	WalletAddress *string   `json:"walletAddress,omitempty"`
	Avatar        string    `json:"avatar"`
	Bio           string    `json:"bio"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Profile returns the public profile of the user
func (u *User) Profile() ProfileView {
	return ProfileView{
		ID:            u.ID,
		Username:      u.Username,
		WalletAddress: u.WalletAddress,
		Avatar:        u.Avatar,
		Bio:           u.Bio,
		CreatedAt:     u.CreatedAt,
	}
}
