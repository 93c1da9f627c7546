package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tradefixture/src/model"
)

// TradeRepository handles read/write operations for trades and their
// embedded commission values.
type TradeRepository struct {
	db *gorm.DB
}

// NewTradeRepository creates a repository bound to the given DB handle.
func NewTradeRepository(db *gorm.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// Create inserts a new trade. The given trade is updated with the
// generated ID.
func (r *TradeRepository) Create(ctx context.Context, trade *model.Trade) error {
	logger.WithFields(map[string]interface{}{
		"repo":     "TradeRepository",
		"op":       "Create",
		"quantity": trade.Quantity,
		"price":    trade.Price,
	}).Debug("Creating new trade")

	if err := r.db.WithContext(ctx).Create(trade).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "TradeRepository",
			"op":   "Create",
		}).WithError(err).Error("Failed to create trade")

		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":     "TradeRepository",
		"op":       "Create",
		"trade_id": trade.ID,
	}).Info("Trade created successfully")

	return nil
}

// FindByID fetches a single trade into a fresh instance.
// Returns (nil, nil) if the trade is not found.
func (r *TradeRepository) FindByID(ctx context.Context, id uint) (*model.Trade, error) {
	var trade model.Trade
	err := r.db.WithContext(ctx).First(&trade, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "TradeRepository",
			"op":       "FindByID",
			"trade_id": id,
		}).WithError(err).Error("Failed to fetch trade")

		return nil, err
	}
	return &trade, nil
}

// Save writes every mapped column of the trade back to its row, whatever the
// field values are. This is the commit used after mutating a fetched
// instance in place.
func (r *TradeRepository) Save(ctx context.Context, trade *model.Trade) error {
	logger.WithFields(map[string]interface{}{
		"repo":     "TradeRepository",
		"op":       "Save",
		"trade_id": trade.ID,
	}).Debug("Saving trade with full column list")

	if err := r.db.WithContext(ctx).Save(trade).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "TradeRepository",
			"op":       "Save",
			"trade_id": trade.ID,
		}).WithError(err).Error("Failed to save trade")

		return err
	}
	return nil
}

// UpdateChanged commits only the fields the mapping layer considers changed:
// gorm builds the SET list from the struct's non-zero fields, with the
// primary key kept out of it and used as the row condition. A commission
// assigned wholesale is diffed against absence rather than against the
// previously stored value, so a replaced field equal to its column default
// (amount 0) drops out of the statement even when the stored row holds a
// different value. Save does not have this hazard.
func (r *TradeRepository) UpdateChanged(ctx context.Context, trade *model.Trade) error {
	logger.WithFields(map[string]interface{}{
		"repo":     "TradeRepository",
		"op":       "UpdateChanged",
		"trade_id": trade.ID,
	}).Debug("Updating trade with changed columns only")

	if err := r.db.WithContext(ctx).Model(trade).Omit("id").Updates(*trade).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "TradeRepository",
			"op":       "UpdateChanged",
			"trade_id": trade.ID,
		}).WithError(err).Error("Failed to update trade")

		return err
	}
	return nil
}
