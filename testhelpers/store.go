// Package testhelpers builds isolated stores and codecs for package tests.
package testhelpers

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"minihospital/database"
	"minihospital/privacy"
)

// TestKey is a base64 32-byte field encryption key for tests only.
const TestKey = "dGVzdC1rZXktZm9yLXVuaXQtdGVzdHMtMzItYnl0ZXM="

// NewTestDB opens a migrated SQLite database in a per-test temp dir and
// closes it when the test ends.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"), "silent")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close(db) })

	if err := database.RunMigrations(db, zap.NewNop()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// NewTestCodec returns a codec keyed with TestKey.
func NewTestCodec(t *testing.T) *privacy.Codec {
	t.Helper()

	codec, err := privacy.NewCodec(TestKey)
	if err != nil {
		t.Fatalf("failed to create test codec: %v", err)
	}
	return codec
}

// NewTestStore returns a store over a fresh database, sealing fields with
// codec.
func NewTestStore(t *testing.T, codec *privacy.Codec) *database.Store {
	t.Helper()
	return database.NewStore(NewTestDB(t), codec)
}
