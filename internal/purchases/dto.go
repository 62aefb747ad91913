package purchase

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/osoriodev/tienda-backend/pkg/enums"
)

// DetailInput is one requested line item. Price is the unit price the client
// is buying at; it gets snapshotted into the detail row, not re-read from the
// product at display time.
type DetailInput struct {
	ProductID int64
	Quantity  int
	Price     decimal.Decimal
}

// CreateInput holds the validated payload to create a purchase. Total is
// never part of the input; it is derived inside the transaction.
type CreateInput struct {
	UserID  int64
	Status  enums.PurchaseStatus
	Details []DetailInput
}

// UpdateInput holds optional mutation values for a purchase. Nil pointers
// mean the field was omitted and keeps its prior value. A non-nil Details
// replaces the line items wholesale.
type UpdateInput struct {
	UserID  *int64
	Status  *enums.PurchaseStatus
	Details *[]DetailInput
}

// UserSummary is the buyer data embedded in purchase reads.
type UserSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// DetailDTO is one line item in a purchase read.
type DetailDTO struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"product_id"`
	ProductName *string         `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// PurchaseDTO is the JSON shape returned by the purchase read endpoints.
type PurchaseDTO struct {
	ID           int64           `json:"id"`
	User         UserSummary     `json:"user"`
	Total        decimal.Decimal `json:"total"`
	Status       string          `json:"status"`
	PurchaseDate time.Time       `json:"purchase_date"`
	Details      []DetailDTO     `json:"details"`
}
