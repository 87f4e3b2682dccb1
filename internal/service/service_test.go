package service

import (
	"context"
	"testing"

	"nft_marketplace/internal/cache"
	"nft_marketplace/internal/domain"
	"nft_marketplace/internal/repository"
	"nft_marketplace/internal/testutil"
	"nft_marketplace/internal/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    *repository.Store
	redis    *miniredis.Miniredis
	market   *Marketplace
	profiles *Profiles
	auth     *Auth
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.New(testutil.NewDB(t))
	rdb, srv := testutil.NewRedis(t)
	c := cache.New(rdb)
	return &fixture{
		store:    store,
		redis:    srv,
		market:   NewMarketplace(store, c),
		profiles: NewProfiles(store),
		auth:     NewAuth(store, utils.NewTokenIssuer("test-secret", 0), c),
	}
}

func (f *fixture) user(t *testing.T, name string) *domain.User {
	t.Helper()
	u := &domain.User{Username: name, Email: name + "@example.com", Password: "x"}
	require.NoError(t, f.store.Users.Create(context.Background(), u))
	return u
}

func (f *fixture) listing(t *testing.T, creator *domain.User, mutate func(*CreateInput)) *domain.NFT {
	t.Helper()
	in := CreateInput{
		Name:        "Piece",
		Description: "A piece",
		Image:       "/uploads/piece.png",
		Price:       "1.5",
		Category:    string(domain.CategoryArt),
	}
	if mutate != nil {
		mutate(&in)
	}
	nft, err := f.market.Create(context.Background(), creator.ID, in)
	require.NoError(t, err)
	return nft
}
