package product

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/osoriodev/tienda-backend/pkg/db/models"
)

// ProductDTO is the JSON shape returned by the product endpoints.
type ProductDTO struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Image       *string         `json:"image"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CreateInput holds the validated payload to create a product.
type CreateInput struct {
	Name        string
	Description *string
	Price       decimal.Decimal
	Stock       int
	Image       *string
}

// UpdateInput holds optional mutation values for a product. Nil means the
// field was omitted and keeps its prior value.
type UpdateInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
	Image       *string
}

func toDTO(product *models.Product) *ProductDTO {
	return &ProductDTO{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		Stock:       product.Stock,
		Image:       product.Image,
		CreatedAt:   product.CreatedAt,
	}
}

func toDTOs(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toDTO(&rows[i]))
	}
	return out
}
