// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/stocki/internal/database"
	"github.com/example/stocki/internal/models"
)

// NewDB returns a migrated in-memory SQLite database. The pool is pinned to a
// single connection so every goroutine sees the same in-memory schema.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	return open(t, ":memory:", 1)
}

// NewConcurrentDB returns a migrated file-backed SQLite database in WAL mode
// with several pooled connections, so transactions from different goroutines
// run on different connections and contend for the write lock.
func NewConcurrentDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "ledger.db") +
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)"
	return open(t, dsn, 8)
}

func open(t testing.TB, dsn string, conns int) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(conns)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// SeedKey creates a produit, magasin and categorie owned by userID and
// returns the stock key that points at them.
func SeedKey(t testing.TB, db *gorm.DB, userID uuid.UUID) models.StockKey {
	t.Helper()

	magasin := models.Magasin{UserID: userID, Nom: "Magasin Principal", Code: "MAG01"}
	categorie := models.Categorie{UserID: userID, Name: "Électronique", Code: "ELEC"}
	produit := models.Produit{UserID: userID, Nom: "Smartphone", Code: "P001"}
	for _, row := range []interface{}{&magasin, &categorie, &produit} {
		if err := db.Create(row).Error; err != nil {
			t.Fatalf("seed catalog: %v", err)
		}
	}

	return models.StockKey{
		UserID:      userID,
		ProduitID:   produit.ID,
		MagasinID:   magasin.ID,
		CategorieID: categorie.ID,
	}
}
