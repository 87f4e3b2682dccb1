package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"nft_marketplace/internal/domain"
	"nft_marketplace/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, s *Store, name string) *domain.User {
	t.Helper()
	u := &domain.User{Username: name, Email: name + "@example.com", Password: "x"}
	require.NoError(t, s.Users.Create(context.Background(), u))
	return u
}

func seedNFT(t *testing.T, s *Store, owner *domain.User, mutate func(*domain.NFT)) *domain.NFT {
	t.Helper()
	n := &domain.NFT{
		Name:        "Piece",
		Description: "desc",
		Image:       "/uploads/a.png",
		Price:       1,
		Currency:    domain.CurrencyETH,
		CreatorID:   owner.ID,
		OwnerID:     owner.ID,
		Category:    domain.CategoryArt,
		Tags:        domain.StringList{"blue"},
		Properties:  domain.Properties{"rarity": "rare"},
		IsListed:    true,
	}
	if mutate != nil {
		mutate(n)
	}
	require.NoError(t, s.NFTs.Create(context.Background(), n))
	return n
}

func TestUserUniqueness(t *testing.T) {
	s := New(testutil.NewDB(t))
	ctx := context.Background()
	seedUser(t, s, "alice")

	err := s.Users.Create(ctx, &domain.User{Username: "alice", Email: "other@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrDuplicate)

	exists, err := s.Users.ExistsByEmailOrUsername(ctx, "alice@example.com", "nobody")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = s.Users.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNullWalletAddressesDoNotCollide(t *testing.T) {
	s := New(testutil.NewDB(t))
	seedUser(t, s, "alice")
	seedUser(t, s, "bob")

	addr := "0x00000000000000000000000000000000000000aa"
	u := &domain.User{Username: "carol", Email: "carol@example.com", Password: "x", WalletAddress: &addr}
	require.NoError(t, s.Users.Create(context.Background(), u))

	got, err := s.Users.FindByWallet(context.Background(), addr)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestNFTJSONColumnsRoundTrip(t *testing.T) {
	s := New(testutil.NewDB(t))
	alice := seedUser(t, s, "alice")
	n := seedNFT(t, s, alice, func(n *domain.NFT) {
		n.Tags = domain.StringList{"a", "b"}
		n.Properties = domain.Properties{"level": float64(3), "traits": []any{"x"}}
	})

	got, err := s.NFTs.FindExpanded(context.Background(), n.ID, true)
	require.NoError(t, err)
	assert.Equal(t, domain.StringList{"a", "b"}, got.Tags)
	assert.Equal(t, float64(3), got.Properties["level"])
	require.NotNil(t, got.Creator)
	assert.Equal(t, "alice", got.Creator.Username)
	assert.Empty(t, got.Creator.Email, "only public columns are preloaded")
}

func TestListFilters(t *testing.T) {
	s := New(testutil.NewDB(t))
	alice := seedUser(t, s, "alice")
	ctx := context.Background()

	art := seedNFT(t, s, alice, func(n *domain.NFT) { n.Name = "Sunset"; n.Price = 1.5 })
	seedNFT(t, s, alice, func(n *domain.NFT) { n.Name = "Beat"; n.Category = domain.CategoryMusic; n.Price = 1.5 })
	seedNFT(t, s, alice, func(n *domain.NFT) { n.Name = "Hidden"; n.IsListed = false })
	seedNFT(t, s, alice, func(n *domain.NFT) { n.Name = "Pricey"; n.Price = 50 })
	tagged := seedNFT(t, s, alice, func(n *domain.NFT) { n.Name = "Plain"; n.Price = 5; n.Tags = domain.StringList{"sunset-vibes"} })

	category := domain.CategoryArt
	minPrice, maxPrice := 1.0, 2.0
	nfts, total, err := s.NFTs.List(ctx, NFTFilter{ListedOnly: true, Category: &category, MinPrice: &minPrice, MaxPrice: &maxPrice})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, nfts, 1)
	assert.Equal(t, art.ID, nfts[0].ID)
	require.NotNil(t, nfts[0].Owner)

	nfts, total, err = s.NFTs.List(ctx, NFTFilter{ListedOnly: true, Search: "sunset", Sort: SortName, Ascending: true})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, nfts, 2)
	assert.Equal(t, tagged.ID, nfts[0].ID)
	assert.Equal(t, art.ID, nfts[1].ID)

	_, total, err = s.NFTs.List(ctx, NFTFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
}

func TestSearchMatchesLiterally(t *testing.T) {
	s := New(testutil.NewDB(t))
	alice := seedUser(t, s, "alice")
	ctx := context.Background()

	soul := seedNFT(t, s, alice, func(n *domain.NFT) { n.Tags = domain.StringList{"R&B", "soul"} })
	seedNFT(t, s, alice, func(n *domain.NFT) { n.Tags = domain.StringList{"x"} })

	search := func(term string) []domain.NFT {
		nfts, total, err := s.NFTs.List(ctx, NFTFilter{Search: term})
		require.NoError(t, err)
		assert.EqualValues(t, len(nfts), total)
		return nfts
	}

	found := search("r&b")
	require.Len(t, found, 1)
	assert.Equal(t, soul.ID, found[0].ID)
	assert.Equal(t, domain.StringList{"R&B", "soul"}, found[0].Tags)

	for _, term := range []string{"%", "_", `"`, "!", ",", "b,s", "[", `"x"`} {
		assert.Empty(t, search(term), "term %q", term)
	}

	require.NoError(t, s.NFTs.Updates(ctx, soul.ID, map[string]any{"tags": domain.StringList{"lofi"}}))
	assert.Len(t, search("lofi"), 1)
	assert.Empty(t, search("R&B"))
}

func TestListPaginationIsStableOnTies(t *testing.T) {
	s := New(testutil.NewDB(t))
	alice := seedUser(t, s, "alice")
	ctx := context.Background()
	created := time.Now()
	for i := 0; i < 25; i++ {
		seedNFT(t, s, alice, func(n *domain.NFT) {
			n.Name = fmt.Sprintf("n%02d", i)
			n.CreatedAt = created
		})
	}

	seen := map[string]bool{}
	for page := 0; page < 3; page++ {
		nfts, total, err := s.NFTs.List(ctx, NFTFilter{ListedOnly: true, Offset: page * 10, Limit: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 25, total)
		for _, n := range nfts {
			assert.False(t, seen[n.ID], "duplicate across pages")
			seen[n.ID] = true
		}
	}
	assert.Len(t, seen, 25)
}

func TestTransferIfListedWinsOnce(t *testing.T) {
	s := New(testutil.NewDB(t))
	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")
	carol := seedUser(t, s, "carol")
	n := seedNFT(t, s, alice, nil)
	ctx := context.Background()

	ok, err := s.NFTs.TransferIfListed(ctx, n.ID, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.NFTs.TransferIfListed(ctx, n.ID, alice.ID, carol.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := s.NFTs.FindByID(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, got.OwnerID)
	assert.False(t, got.IsListed)
	assert.Equal(t, alice.ID, got.CreatorID)
}

func TestInTxRollsBack(t *testing.T) {
	s := New(testutil.NewDB(t))
	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")
	n := seedNFT(t, s, alice, nil)
	ctx := context.Background()

	boom := errors.New("ledger down")
	err := s.InTx(ctx, func(tx *Store) error {
		ok, err := tx.NFTs.TransferIfListed(ctx, n.ID, alice.ID, bob.ID)
		require.NoError(t, err)
		require.True(t, ok)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.NFTs.FindByID(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.OwnerID)
	assert.True(t, got.IsListed)
}

func TestDeletedNFTLeavesTransactionReadable(t *testing.T) {
	s := New(testutil.NewDB(t))
	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")
	n := seedNFT(t, s, alice, nil)
	ctx := context.Background()

	tx := &domain.Transaction{NFTID: n.ID, BuyerID: bob.ID, SellerID: alice.ID, Price: 1, Currency: domain.CurrencyETH, Status: domain.StatusCompleted}
	require.NoError(t, s.Transactions.Create(ctx, tx))
	require.NoError(t, s.NFTs.Delete(ctx, n.ID))
	assert.ErrorIs(t, s.NFTs.Delete(ctx, n.ID), ErrNotFound)

	txs, total, err := s.Transactions.ListByParty(ctx, bob.ID, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, txs, 1)
	assert.Nil(t, txs[0].NFT)
	require.NotNil(t, txs[0].Seller)
	assert.Equal(t, "alice", txs[0].Seller.Username)

	count, err := s.Transactions.CountByParty(ctx, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestTransactionHashUniqueWhenPresent(t *testing.T) {
	s := New(testutil.NewDB(t))
	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")
	ctx := context.Background()
	hash := "0xdeadbeef"

	mk := func(h *string) *domain.Transaction {
		return &domain.Transaction{NFTID: "n", BuyerID: bob.ID, SellerID: alice.ID, Currency: domain.CurrencyETH, Status: domain.StatusCompleted, TransactionHash: h}
	}
	require.NoError(t, s.Transactions.Create(ctx, mk(nil)))
	require.NoError(t, s.Transactions.Create(ctx, mk(nil)))
	require.NoError(t, s.Transactions.Create(ctx, mk(&hash)))
	assert.ErrorIs(t, s.Transactions.Create(ctx, mk(&hash)), ErrDuplicate)
}
