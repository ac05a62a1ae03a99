package repositories

import (
	"fmt"
	"testing"

	"github.com/bondwatch/bondwatch/internal/db"
	"github.com/bondwatch/bondwatch/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a per-test in-memory sqlite database with the full
// schema migrated.
func newTestDB(t *testing.T) *db.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	err = gdb.AutoMigrate(
		&models.Bond{},
		&models.Trade{},
		&models.Coupon{},
		&models.Price{},
		&models.FXRate{},
		&models.EventLog{},
		&models.PortfolioSummary{},
	)
	if err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return &db.DB{DB: gdb}
}
