package repository

import (
	"strings" // Term trimming and escaping

	"nft_marketplace/internal/domain" // Catalog enums

	"gorm.io/gorm" // Query scopes
)

// likeEscaper quotes LIKE metacharacters with the '!' escape character
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// SortField selects the primary ordering of a catalog query
type SortField string

const (
	SortCreatedAt SortField = "createdAt" // Default, newest first unless ascending
	SortPrice     SortField = "price"     // Asking price
	SortName      SortField = "name"      // Display name
)

var sortColumns = map[SortField]string{
	SortCreatedAt: "created_at",
	SortPrice:     "price",
	SortName:      "name",
}

// ParseSortField maps a client value to a SortField, defaulting to createdAt
func ParseSortField(s string) SortField {
	if _, ok := sortColumns[SortField(s)]; ok {
		return SortField(s)
	}
	return SortCreatedAt
}

// NFTFilter describes a catalog query. Each optional dimension contributes one predicate.
type NFTFilter struct {
	Search     string           // Free text over name, description and tags
	Category   *domain.Category // Exact category match
	MinPrice   *float64         // Inclusive lower bound
	MaxPrice   *float64         // Inclusive upper bound
	ListedOnly bool             // Restrict to isListed = true
	CreatorID  string           // Exact creator match
	OwnerID    string           // Exact owner match
	Sort       SortField        // Primary ordering
	Ascending  bool             // Sort direction
	Offset     int              // Rows to skip
	Limit      int              // Page size, 0 for all
}

// Where returns the predicate scopes of the filter
func (f NFTFilter) Where() []func(*gorm.DB) *gorm.DB {
	var scopes []func(*gorm.DB) *gorm.DB
	if f.ListedOnly {
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where("is_listed = ?", true) })
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + likeEscaper.Replace(term) + "%" // Wildcards in the term match literally
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			if strings.Contains(term, ",") { // Tags never hold a comma, so only text fields can match
				return db.Where("(name LIKE ? ESCAPE '!' OR description LIKE ? ESCAPE '!')", like, like)
			}
			return db.Where("(name LIKE ? ESCAPE '!' OR description LIKE ? ESCAPE '!' OR tag_index LIKE ? ESCAPE '!')", like, like, like)
		})
	}
	if f.Category != nil {
		category := *f.Category
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where("category = ?", category) })
	}
	if f.MinPrice != nil {
		min := *f.MinPrice
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where("price >= ?", min) })
	}
	if f.MaxPrice != nil {
		max := *f.MaxPrice
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where("price <= ?", max) })
	}
	if f.CreatorID != "" {
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where("creator_id = ?", f.CreatorID) })
	}
	if f.OwnerID != "" {
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where("owner_id = ?", f.OwnerID) })
	}
	return scopes
}

// Order returns the ORDER BY clause; id breaks ties so pages stay stable
func (f NFTFilter) Order() string {
	column, ok := sortColumns[f.Sort]
	if !ok {
		column = sortColumns[SortCreatedAt]
	}
	dir := "DESC" // Newest or highest first by default
	if f.Ascending {
		dir = "ASC"
	}
	return column + " " + dir + ", id ASC"
}
