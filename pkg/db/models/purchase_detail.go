package models

import "github.com/shopspring/decimal"

// PurchaseDetail is one line item of a purchase. Price is the unit price
// snapshotted when the purchase was written, not a live product lookup.
// Details are replaced wholesale on purchase update, never patched.
type PurchaseDetail struct {
	ID         int64           `gorm:"column:id;primaryKey;autoIncrement"`
	PurchaseID int64           `gorm:"column:purchase_id;not null;index"`
	ProductID  int64           `gorm:"column:product_id;not null"`
	Quantity   int             `gorm:"column:quantity;not null"`
	Price      decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	Subtotal   decimal.Decimal `gorm:"column:subtotal;type:numeric(10,2);not null"`
}

// TableName implements the gorm naming override.
func (PurchaseDetail) TableName() string { return "purchase_details" }
