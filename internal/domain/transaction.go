package domain

import (
	"time" // Timestamps

	"github.com/google/uuid" // ID generation
	"gorm.io/gorm"           // GORM ORM library
)

// Transaction Model, written once per purchase and never modified
type Transaction struct {
	ID              string            `gorm:"primaryKey;size:36" json:"id"`                               // Primary key (UUID)
	NFTID           string            `gorm:"size:36;not null;index" json:"nftId"`                        // NFT at time of sale, may dangle
	NFT             *NFT              `gorm:"foreignKey:NFTID" json:"-"`                                  // NFT relation
	BuyerID         string            `gorm:"size:36;not null;index:idx_tx_buyer_seller" json:"buyerId"`  // Buyer
	Buyer           *User             `gorm:"foreignKey:BuyerID" json:"-"`                                // Buyer relation
	SellerID        string            `gorm:"size:36;not null;index:idx_tx_buyer_seller" json:"sellerId"` // Seller
	Seller          *User             `gorm:"foreignKey:SellerID" json:"-"`                               // Seller relation
	Price           float64           `gorm:"not null" json:"price"`                                      // Copied from the NFT at sale time
	Currency        Currency          `gorm:"size:8;not null" json:"currency"`                            // Copied from the NFT at sale time
	TransactionHash *string           `gorm:"uniqueIndex;size:80" json:"transactionHash,omitempty"`       // Optional on-chain hash
	Status          TransactionStatus `gorm:"size:16;not null;index" json:"status"`                       // pending, completed, failed
	CreatedAt       time.Time         `gorm:"index" json:"createdAt"`                                     // Creation timestamp
}

// BeforeCreate assigns a UUID when the caller did not set one
func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// NFTSummary is the slice of an NFT shown next to a transaction
type NFTSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// TransactionView is the response shape of a transaction with references expanded
type TransactionView struct {
	ID              string            `json:"id"`
	NFTID           string            `json:"nftId"`
	NFT             *NFTSummary       `json:"nft"`
	Buyer           *PublicUser       `json:"buyer"`
	Seller          *PublicUser       `json:"seller"`
	Price           float64           `json:"price"`
	Currency        Currency          `json:"currency"`
	TransactionHash *string           `json:"transactionHash,omitempty"`
	Status          TransactionStatus `json:"status"`
	CreatedAt       time.Time         `json:"createdAt"`
}

// View expands the transaction; a deleted NFT renders as a null nft
func (t *Transaction) View() TransactionView {
	v := TransactionView{
		ID:              t.ID,
		NFTID:           t.NFTID,
		Buyer:           t.Buyer.Public(false),
		Seller:          t.Seller.Public(false),
		Price:           t.Price,
		Currency:        t.Currency,
		TransactionHash: t.TransactionHash,
		Status:          t.Status,
		CreatedAt:       t.CreatedAt,
	}
	if t.NFT != nil {
		v.NFT = &NFTSummary{ID: t.NFT.ID, Name: t.NFT.Name, Image: t.NFT.Image}
	}
	if v.Buyer == nil {
		v.Buyer = &PublicUser{ID: t.BuyerID}
	}
	if v.Seller == nil {
		v.Seller = &PublicUser{ID: t.SellerID}
	}
	return v
}
