package repository

import (
	"context"

	"nft_marketplace/internal/domain"

	"gorm.io/gorm"
)

// UserRepository persists users
type UserRepository struct {
	db *gorm.DB
}

// Create inserts a user; duplicate username, email or wallet yields ErrDuplicate
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

// FindByID loads a user by id
func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// FindByEmail loads a user by lower-cased email
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// FindByWallet loads a user by checksummed wallet address
func (r *UserRepository) FindByWallet(ctx context.Context, address string) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).Where("wallet_address = ?", address).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// ExistsByEmailOrUsername reports whether either key is already taken
func (r *UserRepository) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("email = ? OR username = ?", email, username).
		Count(&count).Error
	return count > 0, err
}

// Updates applies a partial update to a user
func (r *UserRepository) Updates(ctx context.Context, id string, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
