// Package testutil builds throwaway databases and Redis servers for tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"nft_marketplace/internal/db"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a fresh migrated in-memory SQLite database
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())

	cfg := db.GormConfig()
	cfg.Logger = logger.Discard
	gdb, err := gorm.Open(sqlite.Open(dsn), cfg)
	require.NoError(t, err, "open sqlite")

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	// One connection serializes writers and keeps the memory database alive
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	return gdb
}

// NewRedis starts an in-process Redis and returns a client for it
func NewRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, srv
}
