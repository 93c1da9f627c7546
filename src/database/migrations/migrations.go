package migrations

import (
	"fmt"

	"gorm.io/gorm"

	"tradefixture/src/model"
)

// EnsureTradesTable creates the tr schema and the trades table before
// AutoMigrate runs, so the primary key carries the pk_trades constraint name
// and commission_amount gets its declared default. AutoMigrate alone would
// pick its own constraint names.
func EnsureTradesTable(db *gorm.DB) error {
	if err := db.Exec(`CREATE SCHEMA IF NOT EXISTS tr`).Error; err != nil {
		return fmt.Errorf("create schema tr: %w", err)
	}

	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS tr.trades (
			id bigserial,
			quantity numeric(33,10) NOT NULL,
			price numeric(33,10) NOT NULL,
			commission_amount numeric(33,10) NOT NULL DEFAULT 0,
			commission_currency text NOT NULL,
			CONSTRAINT pk_trades PRIMARY KEY (id)
		)`).Error; err != nil {
		return fmt.Errorf("create table tr.trades: %w", err)
	}

	// Keep columns aligned with the model for schemas created by older
	// versions of this fixture.
	if err := db.AutoMigrate(&model.Trade{}); err != nil {
		return fmt.Errorf("auto-migrate tr.trades: %w", err)
	}

	return nil
}

// Reset drops the trades table so a fixture run starts from a clean slate.
func Reset(db *gorm.DB) error {
	if err := db.Migrator().DropTable(&model.Trade{}); err != nil {
		return fmt.Errorf("drop table tr.trades: %w", err)
	}
	return nil
}
