package repository

import (
	"context"

	"nft_marketplace/internal/domain"

	"gorm.io/gorm"
)

// TransactionRepository persists the purchase ledger. Rows are insert-only.
type TransactionRepository struct {
	db *gorm.DB
}

func withParties(db *gorm.DB) *gorm.DB {
	userCols := func(db *gorm.DB) *gorm.DB { return db.Select("id", "username", "avatar") }
	return db.
		Preload("NFT", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name", "image") }).
		Preload("Buyer", userCols).
		Preload("Seller", userCols)
}

// Create appends a transaction
func (r *TransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	return translate(r.db.WithContext(ctx).Create(tx).Error)
}

// FindExpanded loads one transaction with nft, buyer and seller
func (r *TransactionRepository) FindExpanded(ctx context.Context, id string) (*domain.Transaction, error) {
	var tx domain.Transaction
	if err := r.db.WithContext(ctx).Scopes(withParties).Where("id = ?", id).First(&tx).Error; err != nil {
		return nil, translate(err)
	}
	return &tx, nil
}

// ListByParty returns a page of transactions where the user bought or sold, newest first
func (r *TransactionRepository) ListByParty(ctx context.Context, userID string, offset, limit int) ([]domain.Transaction, int64, error) {
	base := r.db.WithContext(ctx).Model(&domain.Transaction{}).Where("buyer_id = ? OR seller_id = ?", userID, userID)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var txs []domain.Transaction
	err := base.Session(&gorm.Session{}).Scopes(withParties).
		Order("created_at DESC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&txs).Error
	if err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

// CountByParty counts transactions where the user bought or sold
func (r *TransactionRepository) CountByParty(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Transaction{}).
		Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Count(&count).Error
	return count, err
}

// CountByNFT counts ledger entries for one NFT
func (r *TransactionRepository) CountByNFT(ctx context.Context, nftID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Transaction{}).Where("nft_id = ?", nftID).Count(&count).Error
	return count, err
}
