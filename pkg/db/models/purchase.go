package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/osoriodev/tienda-backend/pkg/enums"
)

// Purchase is the order header. Total is always derived from the detail
// subtotals at write time, never taken from the client.
type Purchase struct {
	ID           int64                `gorm:"column:id;primaryKey;autoIncrement"`
	UserID       int64                `gorm:"column:user_id;not null"`
	Total        decimal.Decimal      `gorm:"column:total;type:numeric(10,2);not null"`
	Status       enums.PurchaseStatus `gorm:"column:status;type:text;not null"`
	PurchaseDate time.Time            `gorm:"column:purchase_date;not null"`
	Details      []PurchaseDetail     `gorm:"foreignKey:PurchaseID;constraint:OnDelete:CASCADE"`
}

// TableName implements the gorm naming override.
func (Purchase) TableName() string { return "purchases" }
