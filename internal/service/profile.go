package service

import (
	"context"      // Request scoped cancellation
	"errors"       // Error inspection
	"strings"      // Input trimming
	"unicode/utf8" // Bio length in characters

	"nft_marketplace/internal/apperr"     // Client-facing errors
	"nft_marketplace/internal/domain"     // Models
	"nft_marketplace/internal/repository" // Persistence

	"github.com/sirupsen/logrus" // Structured logging
	"golang.org/x/sync/errgroup" // Concurrent stat counts
)

const (
	defaultTransactionLimit = 10  // History page size when none is given
	maxBioLength            = 500 // Bio limit in characters
)

// Profiles serves user profile pages, profile edits and purchase history
type Profiles struct {
	store *repository.Store // Persistence
}

// NewProfiles creates the service
func NewProfiles(store *repository.Store) *Profiles {
	return &Profiles{store: store}
}

// ProfileStats are live counts, computed on every read
type ProfileStats struct {
	CreatedNFTs  int64 `json:"createdNFTs"`  // NFTs the user created
	OwnedNFTs    int64 `json:"ownedNFTs"`    // NFTs the user owns now
	Transactions int64 `json:"transactions"` // Purchases and sales
}

// Profile is a user together with their stats
type Profile struct {
	User  *domain.User // Profile owner
	Stats ProfileStats // Live counts
}

// Get returns a user's public profile and stats
func (p *Profiles) Get(ctx context.Context, userID string) (*Profile, error) {
	user, err := p.store.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, storageError(err, "User not found")
	}

	var stats ProfileStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.CreatedNFTs, err = p.store.NFTs.CountByCreator(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		stats.OwnedNFTs, err = p.store.NFTs.CountByOwner(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		stats.Transactions, err = p.store.Transactions.CountByParty(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, storageError(err, "")
	}
	return &Profile{User: user, Stats: stats}, nil
}

// ProfileUpdate carries the editable profile fields; empty values are ignored
type ProfileUpdate struct {
	Username string
	Bio      string
	Avatar   string
}

// Update edits the caller's own profile
func (p *Profiles) Update(ctx context.Context, userID string, in ProfileUpdate) (*domain.User, error) {
	fields := map[string]any{}
	if name := strings.TrimSpace(in.Username); name != "" {
		if err := validUsername(name); err != nil {
			return nil, err
		}
		fields["username"] = name
	}
	if in.Bio != "" {
		if utf8.RuneCountInString(in.Bio) > maxBioLength {
			return nil, apperr.Validation("Bio must be at most 500 characters")
		}
		fields["bio"] = in.Bio
	}
	if in.Avatar != "" {
		fields["avatar"] = in.Avatar
	}

	if len(fields) > 0 {
		err := p.store.Users.Updates(ctx, userID, fields)
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.New(apperr.KindValidation, apperr.CodeUserExists, "Username is already taken", nil)
		}
		if err != nil {
			return nil, storageError(err, "User not found")
		}
		logrus.WithFields(logrus.Fields{"user_id": userID}).Info("Profile updated")
	}

	user, err := p.store.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, storageError(err, "User not found")
	}
	return user, nil
}

// TransactionPage is one page of a user's purchase history
type TransactionPage struct {
	Transactions []domain.Transaction
	Pagination   Pagination
}

// Transactions lists purchases where the user was buyer or seller, newest first
func (p *Profiles) Transactions(ctx context.Context, userID string, page, limit int) (*TransactionPage, error) {
	page, limit = normalizePage(page, limit, defaultTransactionLimit)
	txs, total, err := p.store.Transactions.ListByParty(ctx, userID, (page-1)*limit, limit)
	if err != nil {
		return nil, storageError(err, "")
	}
	return &TransactionPage{Transactions: txs, Pagination: newPagination(page, limit, total)}, nil
}
