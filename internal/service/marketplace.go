package service

import (
	"context"       // Request scoped cancellation
	"encoding/json" // Properties decoding
	"math"          // Unbounded max price
	"strconv"       // Price parsing
	"strings"       // Input trimming
	"time"          // Cache TTL
	"unicode/utf8"  // Length limits in characters

	"nft_marketplace/internal/apperr"     // Client-facing errors
	"nft_marketplace/internal/cache"      // NFT detail cache
	"nft_marketplace/internal/domain"     // Models
	"nft_marketplace/internal/repository" // Persistence

	"github.com/sirupsen/logrus"     // Structured logging
	"golang.org/x/sync/singleflight" // Collapse concurrent cache misses
)

const (
	defaultCatalogLimit = 12               // Catalog page size when none is given
	detailCacheTTL      = 60 * time.Second // Lifetime of a cached NFT detail
)

// Marketplace runs catalog queries and the listing, editing and purchase lifecycle
type Marketplace struct {
	store *repository.Store  // Persistence
	cache *cache.Cache       // nil disables detail caching
	group singleflight.Group // Detail loads in flight, by cache key
}

// NewMarketplace creates the service; c may be nil
func NewMarketplace(store *repository.Store, c *cache.Cache) *Marketplace {
	return &Marketplace{store: store, cache: c}
}

// ListQuery is a catalog request as the client sent it
type ListQuery struct {
	Search    string   // Free text
	Category  string   // Exact category, empty for all
	MinPrice  *float64 // Defaults to 0
	MaxPrice  *float64 // Defaults to unbounded
	SortBy    string   // createdAt, price or name
	SortOrder string   // asc or desc
	Page      int      // 1-based
	Limit     int      // Page size
}

// NFTPage is one page of catalog results
type NFTPage struct {
	NFTs       []domain.NFT // Listed NFTs with owners
	Pagination Pagination   // Page position
}

// List returns listed NFTs matching q
func (m *Marketplace) List(ctx context.Context, q ListQuery) (*NFTPage, error) {
	page, limit := normalizePage(q.Page, q.Limit, defaultCatalogLimit)
	minPrice := 0.0
	if q.MinPrice != nil {
		minPrice = *q.MinPrice
	}
	maxPrice := math.MaxFloat64
	if q.MaxPrice != nil {
		maxPrice = *q.MaxPrice
	}
	filter := repository.NFTFilter{
		Search:     q.Search,
		MinPrice:   &minPrice,
		MaxPrice:   &maxPrice,
		ListedOnly: true,
		Sort:       repository.ParseSortField(q.SortBy),
		Ascending:  q.SortOrder == "asc",
		Offset:     (page - 1) * limit,
		Limit:      limit,
	}
	if q.Category != "" {
		category := domain.Category(q.Category)
		filter.Category = &category
	}

	nfts, total, err := m.store.NFTs.List(ctx, filter)
	if err != nil {
		return nil, storageError(err, "")
	}
	return &NFTPage{NFTs: nfts, Pagination: newPagination(page, limit, total)}, nil
}

// Get returns one NFT with creator and owner profiles, served from cache when possible
func (m *Marketplace) Get(ctx context.Context, id string) (*domain.NFT, error) {
	key := cache.NFTKey(id)
	if m.cache != nil {
		var cached domain.NFT
		found, err := m.cache.GetJSON(ctx, key, &cached)
		if err == nil && found {
			return &cached, nil
		}
		if err != nil {
			logrus.WithFields(logrus.Fields{"nft_id": id, "error": err.Error()}).Warn("NFT cache read failed")
		}
	}

	v, err, _ := m.group.Do(key, func() (any, error) {
		ctx := context.WithoutCancel(ctx) // The load is shared by every waiter on key
		nft, err := m.store.NFTs.FindExpanded(ctx, id, true)
		if err != nil {
			return nil, storageError(err, "NFT not found")
		}
		if m.cache != nil {
			if err := m.cache.SetJSON(ctx, key, nft, detailCacheTTL); err != nil {
				logrus.WithFields(logrus.Fields{"nft_id": id, "error": err.Error()}).Warn("NFT cache write failed")
			}
		}
		return nft, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.NFT), nil
}

// ListByUser returns NFTs a user created, or owns when kind is "owned", newest first
func (m *Marketplace) ListByUser(ctx context.Context, userID, kind string) ([]domain.NFT, error) {
	filter := repository.NFTFilter{Sort: repository.SortCreatedAt}
	if kind == "owned" {
		filter.OwnerID = userID
	} else {
		filter.CreatorID = userID
	}
	nfts, _, err := m.store.NFTs.List(ctx, filter)
	if err != nil {
		return nil, storageError(err, "")
	}
	return nfts, nil
}

// CreateInput carries the form fields of a new listing
type CreateInput struct {
	Name        string
	Description string
	Image       string // Stored image reference
	Price       string
	Currency    string
	Category    string
	Tags        string // Comma separated
	Properties  string // JSON object
}

// Create lists a new NFT owned by its creator
func (m *Marketplace) Create(ctx context.Context, creatorID string, in CreateInput) (*domain.NFT, error) {
	if in.Image == "" {
		return nil, apperr.Validation("Image is required")
	}
	name, err := validName(in.Name)
	if err != nil {
		return nil, err
	}
	if err := validDescription(in.Description); err != nil {
		return nil, err
	}
	price, err := parsePrice(in.Price)
	if err != nil {
		return nil, err
	}
	currency := domain.CurrencyETH
	if in.Currency != "" {
		if currency, err = validCurrency(in.Currency); err != nil {
			return nil, err
		}
	}
	category, err := validCategory(in.Category)
	if err != nil {
		return nil, err
	}
	props, err := parseProperties([]byte(in.Properties))
	if err != nil {
		return nil, err
	}

	nft := &domain.NFT{
		Name:        name,
		Description: in.Description,
		Image:       in.Image,
		Price:       price,
		Currency:    currency,
		CreatorID:   creatorID,
		OwnerID:     creatorID,
		Category:    category,
		Tags:        parseTags(in.Tags),
		Properties:  props,
		IsListed:    true,
	}
	if err := m.store.NFTs.Create(ctx, nft); err != nil {
		logrus.WithFields(logrus.Fields{"creator_id": creatorID, "error": err.Error()}).Error("Create NFT failed")
		return nil, storageError(err, "")
	}
	logrus.WithFields(logrus.Fields{"nft_id": nft.ID, "creator_id": creatorID, "price": price, "currency": currency}).Info("NFT created")

	created, err := m.store.NFTs.FindExpanded(ctx, nft.ID, false)
	if err != nil {
		return nil, storageError(err, "NFT not found")
	}
	return created, nil
}

// UpdateInput carries the fields of a partial update; nil fields are left untouched
type UpdateInput struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	Price       *float64        `json:"price"`
	Currency    *string         `json:"currency"`
	Category    *string         `json:"category"`
	Tags        *string         `json:"tags"`       // Comma separated
	Properties  json.RawMessage `json:"properties"` // JSON object, or a string holding one
	IsListed    *bool           `json:"isListed"`
}

func (in UpdateInput) fields() (map[string]any, error) {
	fields := map[string]any{}
	if in.Name != nil {
		name, err := validName(*in.Name)
		if err != nil {
			return nil, err
		}
		fields["name"] = name
	}
	if in.Description != nil {
		if err := validDescription(*in.Description); err != nil {
			return nil, err
		}
		fields["description"] = *in.Description
	}
	if in.Price != nil {
		if err := validPrice(*in.Price); err != nil {
			return nil, err
		}
		fields["price"] = *in.Price
	}
	if in.Currency != nil {
		currency, err := validCurrency(*in.Currency)
		if err != nil {
			return nil, err
		}
		fields["currency"] = currency
	}
	if in.Category != nil {
		category, err := validCategory(*in.Category)
		if err != nil {
			return nil, err
		}
		fields["category"] = category
	}
	if in.Tags != nil && strings.TrimSpace(*in.Tags) != "" { // Blank tags leave the list as it is
		fields["tags"] = domain.StringList(parseTags(*in.Tags))
	}
	if raw := in.Properties; len(raw) > 0 && string(raw) != "null" && string(raw) != `""` {
		props, err := parseProperties(raw)
		if err != nil {
			return nil, err
		}
		fields["properties"] = props
	}
	if in.IsListed != nil {
		fields["is_listed"] = *in.IsListed
	}
	return fields, nil
}

// Update edits an NFT. Only its creator may do so, even after selling it.
// Creator and owner are never changed here.
func (m *Marketplace) Update(ctx context.Context, callerID, id string, in UpdateInput) (*domain.NFT, error) {
	err := m.store.InTx(ctx, func(tx *repository.Store) error {
		nft, err := tx.NFTs.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if nft.CreatorID != callerID {
			return apperr.Forbidden("Not authorized to update this NFT")
		}
		fields, err := in.fields()
		if err != nil {
			return err
		}
		if len(fields) == 0 {
			return nil
		}
		return tx.NFTs.Updates(ctx, id, fields)
	})
	if err != nil {
		return nil, storageError(err, "NFT not found")
	}
	m.invalidate(ctx, id)
	logrus.WithFields(logrus.Fields{"nft_id": id, "creator_id": callerID}).Info("NFT updated")

	updated, err := m.store.NFTs.FindExpanded(ctx, id, false)
	if err != nil {
		return nil, storageError(err, "NFT not found")
	}
	return updated, nil
}

// Delete removes an NFT; only its creator may do so. Ledger entries are kept.
func (m *Marketplace) Delete(ctx context.Context, callerID, id string) error {
	err := m.store.InTx(ctx, func(tx *repository.Store) error {
		nft, err := tx.NFTs.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if nft.CreatorID != callerID {
			return apperr.Forbidden("Not authorized to delete this NFT")
		}
		return tx.NFTs.Delete(ctx, id)
	})
	if err != nil {
		return storageError(err, "NFT not found")
	}
	m.invalidate(ctx, id)
	logrus.WithFields(logrus.Fields{"nft_id": id, "creator_id": callerID}).Info("NFT deleted")
	return nil
}

// Buy transfers a listed NFT to the caller and records the sale.
// The ownership flip and the ledger insert commit together or not at all, and the
// flip is conditional on the row still being listed, so concurrent buyers of one NFT
// see exactly one success; the rest get a not-listed conflict.
func (m *Marketplace) Buy(ctx context.Context, buyerID, id string) (*domain.NFT, *domain.Transaction, error) {
	var record *domain.Transaction
	err := m.store.InTx(ctx, func(tx *repository.Store) error {
		nft, err := tx.NFTs.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := checkBuyable(nft, buyerID); err != nil {
			return err
		}
		sellerID := nft.OwnerID

		won, err := tx.NFTs.TransferIfListed(ctx, id, sellerID, buyerID)
		if err != nil {
			return err
		}
		if !won {
			return apperr.Conflict(apperr.CodeNFTNotListed, "NFT is not for sale")
		}
		// Re-read under the row lock taken by the update so price and currency are the sold values
		sold, err := tx.NFTs.FindByID(ctx, id)
		if err != nil {
			return err
		}

		record = &domain.Transaction{
			NFTID:    id,
			BuyerID:  buyerID,
			SellerID: sellerID,
			Price:    sold.Price,
			Currency: sold.Currency,
			Status:   domain.StatusCompleted,
		}
		return tx.Transactions.Create(ctx, record)
	})
	if err != nil {
		fields := logrus.Fields{"nft_id": id, "buyer_id": buyerID, "error": err.Error()}
		if k := apperr.KindOf(storageError(err, "")); k == apperr.KindTransient || k == apperr.KindInternal {
			logrus.WithFields(fields).Error("Purchase failed")
		} else {
			logrus.WithFields(fields).Info("Purchase rejected")
		}
		return nil, nil, storageError(err, "NFT not found")
	}
	m.invalidate(ctx, id)
	logrus.WithFields(logrus.Fields{
		"nft_id":    id,
		"buyer_id":  buyerID,
		"seller_id": record.SellerID,
		"price":     record.Price,
		"currency":  record.Currency,
		"tx_id":     record.ID,
	}).Info("Purchase completed")

	nft, err := m.store.NFTs.FindExpanded(ctx, id, false)
	if err != nil {
		return nil, nil, storageError(err, "NFT not found")
	}
	expanded, err := m.store.Transactions.FindExpanded(ctx, record.ID)
	if err != nil {
		return nil, nil, storageError(err, "Transaction not found")
	}
	return nft, expanded, nil
}

func checkBuyable(nft *domain.NFT, buyerID string) error {
	if !nft.IsListed {
		return apperr.Conflict(apperr.CodeNFTNotListed, "NFT is not for sale")
	}
	if nft.OwnerID == buyerID {
		return apperr.Conflict(apperr.CodeNFTAlreadyOwned, "You already own this NFT")
	}
	return nil
}

func (m *Marketplace) invalidate(ctx context.Context, id string) {
	if m.cache == nil {
		return
	}
	if err := m.cache.Delete(ctx, cache.NFTKey(id)); err != nil {
		logrus.WithFields(logrus.Fields{"nft_id": id, "error": err.Error()}).Warn("NFT cache invalidation failed")
	}
}

func validName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.Validation("Name is required")
	}
	if utf8.RuneCountInString(name) > domain.MaxNameLength {
		return "", apperr.Validation("Name must be at most 100 characters")
	}
	return name, nil
}

func validDescription(desc string) error {
	if strings.TrimSpace(desc) == "" {
		return apperr.Validation("Description is required")
	}
	if utf8.RuneCountInString(desc) > domain.MaxDescriptionLength {
		return apperr.Validation("Description must be at most 1000 characters")
	}
	return nil
}

func parsePrice(s string) (float64, error) {
	price, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, apperr.Validation("Price must be a number")
	}
	return price, validPrice(price)
}

func validPrice(price float64) error {
	if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return apperr.Validation("Price must be a non-negative number")
	}
	return nil
}

func validCurrency(s string) (domain.Currency, error) {
	c := domain.Currency(s)
	if !c.Valid() {
		return "", apperr.Validation("Currency must be one of ETH, BTC, USDT, USDC")
	}
	return c, nil
}

func validCategory(s string) (domain.Category, error) {
	c := domain.Category(s)
	if !c.Valid() {
		return "", apperr.Validation("Unknown category")
	}
	return c, nil
}

func parseTags(s string) []string {
	tags := []string{}
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// parseProperties accepts a JSON object, or a JSON string that itself holds one
func parseProperties(raw []byte) (domain.Properties, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return domain.Properties{}, nil
	}
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		return parseProperties([]byte(encoded))
	}
	var props domain.Properties
	if err := json.Unmarshal(raw, &props); err != nil {
		return nil, apperr.Validation("Properties must be a JSON object")
	}
	if props == nil {
		props = domain.Properties{}
	}
	return props, nil
}
