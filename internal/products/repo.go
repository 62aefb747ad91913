package product

import (
	"context"

	"gorm.io/gorm"

	"github.com/osoriodev/tienda-backend/pkg/db"
	"github.com/osoriodev/tienda-backend/pkg/db/models"
)

// Repository defines persistence for catalog products, including the locked
// reads used by the purchase engine.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts a new product row.
func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// FindByID loads the product row.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns all products ordered by id.
func (r *Repository) List(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Order("id ASC").
		Find(&rows).
		Error
	return rows, err
}

// UpdateFields applies a partial update and reports whether the row existed.
func (r *Repository) UpdateFields(ctx context.Context, id int64, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a product by id.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Product{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// LockForUpdate loads the product row under an exclusive row lock. Must be
// called inside a transaction; the lock is held until commit or rollback.
func (r *Repository) LockForUpdate(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := db.ForUpdate(r.db.WithContext(ctx)).
		First(&product, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// SetStock overwrites the stock value of a product.
func (r *Repository) SetStock(ctx context.Context, id int64, stock int) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Update("stock", stock).
		Error
}

// AddStock increments the stock of a product by delta (negative to decrement).
func (r *Repository) AddStock(ctx context.Context, id int64, delta int) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Update("stock", gorm.Expr("stock + ?", delta)).
		Error
}
