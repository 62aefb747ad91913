package purchase

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/osoriodev/tienda-backend/pkg/db"
	"github.com/osoriodev/tienda-backend/pkg/db/models"
	"github.com/osoriodev/tienda-backend/pkg/enums"
)

// Repository defines persistence for purchase headers and their detail rows.
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

// LockByID loads the purchase header under an exclusive row lock. Must be
// called inside a transaction.
func (r *Repository) LockByID(ctx context.Context, id int64) (*models.Purchase, error) {
	var purchase models.Purchase
	err := db.ForUpdate(r.db.WithContext(ctx)).
		First(&purchase, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

// Create inserts the purchase header and fills in the generated id.
func (r *Repository) Create(ctx context.Context, purchase *models.Purchase) error {
	return r.db.WithContext(ctx).
		Omit("Details").
		Create(purchase).
		Error
}

// UpdateHeader writes the header columns for the purchase.
func (r *Repository) UpdateHeader(ctx context.Context, id int64, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Where("id = ?", id).
		Updates(updates).
		Error
}

// Delete removes the purchase header row.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Purchase{}).
		Error
}

// ListDetails returns the detail rows of a purchase ordered by id.
func (r *Repository) ListDetails(ctx context.Context, purchaseID int64) ([]models.PurchaseDetail, error) {
	var rows []models.PurchaseDetail
	err := r.db.WithContext(ctx).
		Where("purchase_id = ?", purchaseID).
		Order("id ASC").
		Find(&rows).
		Error
	return rows, err
}

// CreateDetails inserts the detail rows in input order.
func (r *Repository) CreateDetails(ctx context.Context, details []models.PurchaseDetail) error {
	if len(details) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&details).Error
}

// DeleteDetails removes every detail row of a purchase.
func (r *Repository) DeleteDetails(ctx context.Context, purchaseID int64) error {
	return r.db.WithContext(ctx).
		Where("purchase_id = ?", purchaseID).
		Delete(&models.PurchaseDetail{}).
		Error
}

const joinedQuery = `
SELECT p.id AS purchase_id,
       p.total,
       p.status,
       p.purchase_date,
       u.id AS user_id,
       u.name AS user_name,
       u.email AS user_email,
       pd.id AS detail_id,
       pd.product_id,
       pr.name AS product_name,
       pd.quantity,
       pd.price AS detail_price,
       pd.subtotal
FROM purchases p
JOIN users u ON u.id = p.user_id
LEFT JOIN purchase_details pd ON pd.purchase_id = p.id
LEFT JOIN products pr ON pr.id = pd.product_id
`

const joinedOrder = ` ORDER BY p.id ASC, pd.id ASC`

type joinedRow struct {
	PurchaseID   int64
	Total        decimal.Decimal
	Status       enums.PurchaseStatus
	PurchaseDate time.Time
	UserID       int64
	UserName     string
	UserEmail    string
	DetailID     sql.NullInt64
	ProductID    sql.NullInt64
	ProductName  sql.NullString
	Quantity     sql.NullInt64
	DetailPrice  decimal.NullDecimal
	Subtotal     decimal.NullDecimal
}

// ListJoined returns every purchase with its user and ordered details,
// grouped from the flat join rows.
func (r *Repository) ListJoined(ctx context.Context) ([]PurchaseDTO, error) {
	var rows []joinedRow
	if err := r.db.WithContext(ctx).Raw(joinedQuery + joinedOrder).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return groupRows(rows), nil
}

// GetJoined returns a single purchase with its user and ordered details, or
// gorm.ErrRecordNotFound when the purchase does not exist.
func (r *Repository) GetJoined(ctx context.Context, id int64) (*PurchaseDTO, error) {
	var rows []joinedRow
	err := r.db.WithContext(ctx).
		Raw(joinedQuery+` WHERE p.id = ?`+joinedOrder, id).
		Scan(&rows).
		Error
	if err != nil {
		return nil, err
	}
	grouped := groupRows(rows)
	if len(grouped) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &grouped[0], nil
}

// groupRows folds the flat join rows into one DTO per purchase, preserving
// first-seen purchase order and appending details as encountered.
func groupRows(rows []joinedRow) []PurchaseDTO {
	purchases := make([]PurchaseDTO, 0)
	index := make(map[int64]int)

	for _, row := range rows {
		pos, seen := index[row.PurchaseID]
		if !seen {
			purchases = append(purchases, PurchaseDTO{
				ID: row.PurchaseID,
				User: UserSummary{
					ID:    row.UserID,
					Name:  row.UserName,
					Email: row.UserEmail,
				},
				Total:        row.Total,
				Status:       row.Status.String(),
				PurchaseDate: row.PurchaseDate,
				Details:      []DetailDTO{},
			})
			pos = len(purchases) - 1
			index[row.PurchaseID] = pos
		}

		if !row.DetailID.Valid {
			continue
		}

		detail := DetailDTO{
			ID:        row.DetailID.Int64,
			ProductID: row.ProductID.Int64,
			Quantity:  int(row.Quantity.Int64),
			Price:     row.DetailPrice.Decimal,
			Subtotal:  row.Subtotal.Decimal,
		}
		if row.ProductName.Valid {
			name := row.ProductName.String
			detail.ProductName = &name
		}
		purchases[pos].Details = append(purchases[pos].Details, detail)
	}

	return purchases
}
