package repository

import (
	"context" // Request scoped cancellation

	"nft_marketplace/internal/domain" // Models

	"gorm.io/gorm" // GORM ORM library
)

// NFTRepository persists the catalog
type NFTRepository struct {
	db *gorm.DB // Connection or open transaction
}

func withUsers(bio bool) func(*gorm.DB) *gorm.DB {
	cols := []string{"id", "username", "avatar"}
	if bio {
		cols = append(cols, "bio")
	}
	return func(db *gorm.DB) *gorm.DB {
		return db.
			Preload("Creator", func(db *gorm.DB) *gorm.DB { return db.Select(cols) }).
			Preload("Owner", func(db *gorm.DB) *gorm.DB { return db.Select(cols) })
	}
}

// Create inserts an NFT
func (r *NFTRepository) Create(ctx context.Context, nft *domain.NFT) error {
	return translate(r.db.WithContext(ctx).Create(nft).Error)
}

// FindByID loads one NFT without its users
func (r *NFTRepository) FindByID(ctx context.Context, id string) (*domain.NFT, error) {
	var nft domain.NFT
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&nft).Error; err != nil {
		return nil, translate(err)
	}
	return &nft, nil
}

// FindExpanded loads one NFT with creator and owner; detail adds their bios
func (r *NFTRepository) FindExpanded(ctx context.Context, id string, detail bool) (*domain.NFT, error) {
	var nft domain.NFT
	if err := r.db.WithContext(ctx).Scopes(withUsers(detail)).Where("id = ?", id).First(&nft).Error; err != nil {
		return nil, translate(err)
	}
	return &nft, nil
}

// List returns one page matching f and the total count of matches
func (r *NFTRepository) List(ctx context.Context, f NFTFilter) ([]domain.NFT, int64, error) {
	base := r.db.WithContext(ctx).Model(&domain.NFT{}).Scopes(f.Where()...)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := base.Session(&gorm.Session{}).Scopes(withUsers(false)).Order(f.Order())
	if f.Limit > 0 {
		query = query.Offset(f.Offset).Limit(f.Limit)
	}
	var nfts []domain.NFT
	if err := query.Find(&nfts).Error; err != nil {
		return nil, 0, err
	}
	return nfts, total, nil
}

// Updates applies a partial update to an NFT
func (r *NFTRepository) Updates(ctx context.Context, id string, fields map[string]any) error {
	if tags, ok := fields["tags"].(domain.StringList); ok {
		fields["tag_index"] = domain.TagIndex(tags) // Map updates skip model hooks
	}
	res := r.db.WithContext(ctx).Model(&domain.NFT{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an NFT; transactions that reference it are left in place
func (r *NFTRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.NFT{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// TransferIfListed moves a listed NFT from seller to buyer and delists it.
// It reports false when the row was no longer listed or no longer owned by seller,
// so at most one concurrent caller can win.
func (r *NFTRepository) TransferIfListed(ctx context.Context, id, sellerID, buyerID string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.NFT{}).
		Where("id = ? AND is_listed = ? AND owner_id = ?", id, true, sellerID).
		Updates(map[string]any{
			"owner_id":  buyerID,
			"is_listed": false,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CountByCreator counts NFTs created by a user
func (r *NFTRepository) CountByCreator(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.NFT{}).Where("creator_id = ?", userID).Count(&count).Error
	return count, err
}

// CountByOwner counts NFTs owned by a user
func (r *NFTRepository) CountByOwner(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.NFT{}).Where("owner_id = ?", userID).Count(&count).Error
	return count, err
}
