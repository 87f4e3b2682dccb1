package domain

// Currency is the unit an NFT is priced in
type Currency string

const (
	CurrencyETH  Currency = "ETH"
	CurrencyBTC  Currency = "BTC"
	CurrencyUSDT Currency = "USDT"
	CurrencyUSDC Currency = "USDC"
)

// Valid reports whether c is one of the accepted currencies
func (c Currency) Valid() bool {
	switch c {
	case CurrencyETH, CurrencyBTC, CurrencyUSDT, CurrencyUSDC:
		return true
	}
	return false
}

// Category is the fixed catalog taxonomy
type Category string

const (
	CategoryArt          Category = "Art"
	CategoryMusic        Category = "Music"
	CategoryPhotography  Category = "Photography"
	CategorySports       Category = "Sports"
	CategoryTradingCards Category = "Trading Cards"
	CategoryCollectibles Category = "Collectibles"
	CategoryUtility      Category = "Utility"
	CategoryGaming       Category = "Gaming"
	CategoryOther        Category = "Other"
)

// Categories lists every category in display order
var Categories = []Category{
	CategoryArt, CategoryMusic, CategoryPhotography, CategorySports, CategoryTradingCards,
	CategoryCollectibles, CategoryUtility, CategoryGaming, CategoryOther,
}

// Valid reports whether c is part of the taxonomy
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// TransactionStatus tracks a purchase record
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
)
