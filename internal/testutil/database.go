// Package testutil provides database setup shared by package tests.
package testutil

import (
	"regexp"
	"testing"

	"github.com/axellelanca/linkforge/internal/config"
	"github.com/axellelanca/linkforge/internal/database"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
)

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9_]+`)

// NewDB returns a migrated in-memory SQLite database private to t.
// A single connection serialises writers, which SQLite requires anyway.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := unsafeName.ReplaceAllString(t.Name(), "_")
	db, err := database.Open(config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          "file:" + name + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
	}, zap.NewNop(), zapcore.ErrorLevel)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() { _ = database.Close(db) })
	return db
}
