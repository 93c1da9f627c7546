package model

import (
	"github.com/shopspring/decimal"
)

// Commission is the fee attached to a trade. It has no identity of its own:
// it is persisted inline as the commission_* columns of its owning trade's
// row and only ever changes as part of that trade.
type Commission struct {
	Amount   decimal.Decimal `json:"amount"   gorm:"type:numeric(33,10);not null;default:0"`
	Currency string          `json:"currency" gorm:"type:text;not null"`
}

// Trade is the parent row in tr.trades. The commission value object is
// flattened into the same row via the commission_ column prefix.
type Trade struct {
	ID         uint            `json:"id"         gorm:"primaryKey"`
	Quantity   decimal.Decimal `json:"quantity"   gorm:"type:numeric(33,10);not null"`
	Price      decimal.Decimal `json:"price"      gorm:"type:numeric(33,10);not null"`
	Commission Commission      `json:"commission" gorm:"embedded;embeddedPrefix:commission_"`
}

// TableName keeps trades under the tr schema.
func (Trade) TableName() string {
	return "tr.trades"
}
