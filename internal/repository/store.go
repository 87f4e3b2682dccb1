// Package repository persists users, NFTs and transactions with GORM.
package repository

import (
	"context" // Request scoped cancellation
	"errors"  // Sentinel errors

	"gorm.io/gorm" // GORM ORM library
)

// ErrNotFound is returned when a lookup by id or key resolves nothing
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a unique column already holds the value
var ErrDuplicate = errors.New("duplicate key")

// Store groups the repositories that share one connection or transaction
type Store struct {
	db           *gorm.DB               // Connection or open transaction
	Users        *UserRepository        // Accounts
	NFTs         *NFTRepository         // Catalog
	Transactions *TransactionRepository // Purchase ledger
}

// New creates a Store over db
func New(db *gorm.DB) *Store {
	return &Store{
		db:           db,
		Users:        &UserRepository{db: db},
		NFTs:         &NFTRepository{db: db},
		Transactions: &TransactionRepository{db: db},
	}
}

// InTx runs fn against a Store bound to a single database transaction.
// Returning an error from fn rolls every write back.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}

// Ping checks that the database answers
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}
