package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a sellable catalog item. Stock is mutated by product edits and
// by the purchase engine under row locks; it must never go negative.
type Product struct {
	ID          int64           `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string          `gorm:"column:name;not null"`
	Description *string         `gorm:"column:description"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	Stock       int             `gorm:"column:stock;not null;default:0"`
	Image       *string         `gorm:"column:image"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// TableName implements the gorm naming override.
func (Product) TableName() string { return "products" }
