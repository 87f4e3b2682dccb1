package domain

import (
	"strings" // Tag index joining
	"time"    // Timestamps

	"github.com/google/uuid" // ID generation
	"gorm.io/gorm"           // GORM ORM library
)

const (
	MaxNameLength        = 100  // Maximum NFT name length in characters
	MaxDescriptionLength = 1000 // Maximum NFT description length in characters
)

// NFT Model
type NFT struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`                                   // Primary key (UUID)
	Name        string     `gorm:"size:100;not null" json:"name"`                                  // Display name
	Description string     `gorm:"size:1000;not null" json:"description"`                          // Free-text description
	Image       string     `gorm:"size:512;not null" json:"image"`                                 // Image reference
	Price       float64    `gorm:"not null;index" json:"price"`                                    // Asking price
	Currency    Currency   `gorm:"size:8;not null" json:"currency"`                                // Price currency
	CreatorID   string     `gorm:"size:36;not null;index:idx_nfts_creator_owner" json:"creatorId"` // Immutable creator
	Creator     *User      `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`                  // Creator relation
	OwnerID     string     `gorm:"size:36;not null;index:idx_nfts_creator_owner" json:"ownerId"`   // Current owner
	Owner       *User      `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`                      // Owner relation
	Category    Category   `gorm:"size:32;not null;index" json:"category"`                         // Catalog category
	Tags        StringList `gorm:"type:text" json:"tags"`                                          // Ordered tags
	TagIndex    string     `gorm:"type:text" json:"-"`                                             // Comma-delimited tags for search
	Properties  Properties `gorm:"type:text" json:"properties"`                                    // Open attributes
	IsListed    bool       `gorm:"not null;index" json:"isListed"`                                 // For sale flag
	CreatedAt   time.Time  `gorm:"index" json:"createdAt"`                                         // Creation timestamp
	UpdatedAt   time.Time  `json:"updatedAt"`                                                      // Last update timestamp
}

// BeforeCreate assigns a UUID when the caller did not set one
func (n *NFT) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.TagIndex = TagIndex(n.Tags) // Keep the search column in step with Tags
	return nil
}

// TagIndex renders tags as ",a,b," so a comma-free term can only match inside one tag
func TagIndex(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return "," + strings.Join(tags, ",") + ","
}

// NFTView is the response shape of an NFT with its users expanded
type NFTView struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Image       string      `json:"image"`
	Price       float64     `json:"price"`
	Currency    Currency    `json:"currency"`
	Creator     *PublicUser `json:"creator"`
	Owner       *PublicUser `json:"owner"`
	Category    Category    `json:"category"`
	Tags        []string    `json:"tags"`
	Properties  Properties  `json:"properties"`
	IsListed    bool        `json:"isListed"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// View expands the NFT; detail views also carry creator/owner bios
func (n *NFT) View(detail bool) NFTView {
	v := NFTView{
		ID:          n.ID,
		Name:        n.Name,
		Description: n.Description,
		Image:       n.Image,
		Price:       n.Price,
		Currency:    n.Currency,
		Creator:     n.Creator.Public(detail),
		Owner:       n.Owner.Public(detail),
		Category:    n.Category,
		Tags:        n.Tags,
		Properties:  n.Properties,
		IsListed:    n.IsListed,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
	// Users that no longer resolve still render their ids
	if v.Creator == nil {
		v.Creator = &PublicUser{ID: n.CreatorID}
	}
	if v.Owner == nil {
		v.Owner = &PublicUser{ID: n.OwnerID}
	}
	if v.Tags == nil {
		v.Tags = []string{}
	}
	if v.Properties == nil {
		v.Properties = Properties{}
	}
	return v
}

// Views maps a slice of NFTs to list views
func Views(nfts []NFT) []NFTView {
	out := make([]NFTView, len(nfts))
	for i := range nfts {
		out[i] = nfts[i].View(false)
	}
	return out
}
