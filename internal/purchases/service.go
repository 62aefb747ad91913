package purchase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	product "github.com/osoriodev/tienda-backend/internal/products"
	user "github.com/osoriodev/tienda-backend/internal/users"
	"github.com/osoriodev/tienda-backend/pkg/db"
	"github.com/osoriodev/tienda-backend/pkg/db/models"
	pkgerrors "github.com/osoriodev/tienda-backend/pkg/errors"
	"github.com/osoriodev/tienda-backend/pkg/logger"
)

const maxDetailsPerPurchase = 5

// maxPurchaseTotal is a fixed business ceiling on the order total.
var maxPurchaseTotal = decimal.NewFromInt(3500)

// Service exposes the purchase transaction engine and its read paths.
type Service interface {
	Create(ctx context.Context, input CreateInput) (int64, error)
	Update(ctx context.Context, id int64, input UpdateInput) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*PurchaseDTO, error)
	List(ctx context.Context) ([]PurchaseDTO, error)
}

type service struct {
	dbClient *db.Client
	repo     *Repository
	products *product.Repository
	users    *user.Repository
	cache    *product.Cache
	logg     *logger.Logger
}

// NewService constructs a purchase service instance. cache may be nil when
// product caching is disabled.
func NewService(dbClient *db.Client, repo *Repository, products *product.Repository, users *user.Repository, cache *product.Cache, logg *logger.Logger) (Service, error) {
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if repo == nil {
		return nil, fmt.Errorf("purchase repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		dbClient: dbClient,
		repo:     repo,
		products: products,
		users:    users,
		cache:    cache,
		logg:     logg,
	}, nil
}

// stockDecrement records the post-decrement stock computed during the
// reservation pass. Decrements are applied only after every item passes, so
// a late failure never leaves a partially decremented catalog.
type stockDecrement struct {
	productID int64
	newStock  int
}

// Create runs the full purchase flow in one transaction: per-item locked
// stock checks, total ceiling check, header insert, detail inserts, stock
// decrements. Any failure rolls the whole thing back.
func (s *service) Create(ctx context.Context, input CreateInput) (int64, error) {
	if err := validateCreateInput(input); err != nil {
		return 0, err
	}

	var purchaseID int64
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txPurchases := s.repo.WithTx(tx)
		txProducts := s.products.WithTx(tx)
		txUsers := s.users.WithTx(tx)

		exists, err := txUsers.Exists(ctx, input.UserID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking user")
		}
		if !exists {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "user %d not found", input.UserID)
		}

		total, decrements, err := reserveStock(ctx, txProducts, input.Details)
		if err != nil {
			return err
		}
		if total.GreaterThan(maxPurchaseTotal) {
			return pkgerrors.Newf(pkgerrors.CodeValidation,
				"purchase total %s exceeds the %s limit", total.String(), maxPurchaseTotal.String())
		}

		header := &models.Purchase{
			UserID:       input.UserID,
			Total:        total,
			Status:       input.Status,
			PurchaseDate: time.Now().UTC(),
		}
		if err := txPurchases.Create(ctx, header); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "inserting purchase")
		}

		if err := txPurchases.CreateDetails(ctx, buildDetailRows(header.ID, input.Details)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "inserting purchase details")
		}

		if err := applyDecrements(ctx, txProducts, decrements); err != nil {
			return err
		}

		purchaseID = header.ID
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.invalidateProducts(ctx, detailProductIDs(input.Details))

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"purchase_id": purchaseID,
		"user_id":     input.UserID,
		"items":       len(input.Details),
	}), "purchase created")
	return purchaseID, nil
}

// Update mutates a purchase header and optionally replaces its line items.
// When details are supplied, the old details' stock effect is reversed before
// the new reservation pass so re-requesting the same product sees accurate
// availability. When details are omitted, the total keeps its prior value.
func (s *service) Update(ctx context.Context, id int64, input UpdateInput) error {
	if err := validateUpdateInput(input); err != nil {
		return err
	}

	var touched []int64
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txPurchases := s.repo.WithTx(tx)
		txProducts := s.products.WithTx(tx)
		txUsers := s.users.WithTx(tx)

		header, err := txPurchases.LockByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Newf(pkgerrors.CodeNotFound, "purchase %d not found", id)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "locking purchase")
		}
		if header.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "completed purchases cannot be modified")
		}

		total := header.Total
		if input.Details != nil {
			existing, err := txPurchases.ListDetails(ctx, id)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading existing details")
			}
			for _, old := range existing {
				if err := txProducts.AddStock(ctx, old.ProductID, old.Quantity); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "restoring stock")
				}
				touched = append(touched, old.ProductID)
			}
			if err := txPurchases.DeleteDetails(ctx, id); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting old details")
			}

			newTotal, decrements, err := reserveStock(ctx, txProducts, *input.Details)
			if err != nil {
				return err
			}
			if newTotal.GreaterThan(maxPurchaseTotal) {
				return pkgerrors.Newf(pkgerrors.CodeValidation,
					"purchase total %s exceeds the %s limit", newTotal.String(), maxPurchaseTotal.String())
			}

			if err := txPurchases.CreateDetails(ctx, buildDetailRows(id, *input.Details)); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "inserting new details")
			}
			if err := applyDecrements(ctx, txProducts, decrements); err != nil {
				return err
			}
			touched = append(touched, detailProductIDs(*input.Details)...)
			total = newTotal
		}

		userID := header.UserID
		if input.UserID != nil {
			exists, err := txUsers.Exists(ctx, *input.UserID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking user")
			}
			if !exists {
				return pkgerrors.Newf(pkgerrors.CodeValidation, "user %d not found", *input.UserID)
			}
			userID = *input.UserID
		}

		status := header.Status
		if input.Status != nil {
			status = *input.Status
		}

		updates := map[string]any{
			"user_id": userID,
			"status":  status,
			"total":   total,
		}
		if err := txPurchases.UpdateHeader(ctx, id, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating purchase header")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidateProducts(ctx, touched)

	s.logg.Info(s.logg.WithField(ctx, "purchase_id", id), "purchase updated")
	return nil
}

// Delete removes a purchase and its detail rows atomically. Stock is
// intentionally not restored on delete; callers who want the stock back must
// update the purchase to an empty detail set first.
func (s *service) Delete(ctx context.Context, id int64) error {
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txPurchases := s.repo.WithTx(tx)

		header, err := txPurchases.LockByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Newf(pkgerrors.CodeNotFound, "purchase %d not found", id)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "locking purchase")
		}
		if header.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "completed purchases cannot be deleted")
		}

		if err := txPurchases.DeleteDetails(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting purchase details")
		}
		if err := txPurchases.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting purchase")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logg.Info(s.logg.WithField(ctx, "purchase_id", id), "purchase deleted")
	return nil
}

// Get returns one purchase with its user and ordered details.
func (s *service) Get(ctx context.Context, id int64) (*PurchaseDTO, error) {
	dto, err := s.repo.GetJoined(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "purchase %d not found", id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading purchase")
	}
	return dto, nil
}

// List returns every purchase ordered by id.
func (s *service) List(ctx context.Context) ([]PurchaseDTO, error) {
	rows, err := s.repo.ListJoined(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing purchases")
	}
	return rows, nil
}

// reserveStock is the per-item lock-check-accumulate loop shared by create
// and update. Locks are taken in input order; products are not sorted first,
// so two callers presenting overlapping products in different orders can
// deadlock and one of them will be rolled back by the database.
func reserveStock(ctx context.Context, products *product.Repository, details []DetailInput) (decimal.Decimal, []stockDecrement, error) {
	total := decimal.Zero
	decrements := make([]stockDecrement, 0, len(details))

	for _, item := range details {
		row, err := products.LockForUpdate(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return decimal.Zero, nil, pkgerrors.Newf(pkgerrors.CodeValidation,
					"product %d not found", item.ProductID)
			}
			return decimal.Zero, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "locking product")
		}
		if row.Stock < item.Quantity {
			return decimal.Zero, nil, pkgerrors.Newf(pkgerrors.CodeValidation,
				"insufficient stock for product %d: have %d, requested %d",
				item.ProductID, row.Stock, item.Quantity)
		}

		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		decrements = append(decrements, stockDecrement{
			productID: item.ProductID,
			newStock:  row.Stock - item.Quantity,
		})
	}

	return total, decrements, nil
}

func applyDecrements(ctx context.Context, products *product.Repository, decrements []stockDecrement) error {
	for _, dec := range decrements {
		if err := products.SetStock(ctx, dec.productID, dec.newStock); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "applying stock decrement")
		}
	}
	return nil
}

// invalidateProducts drops cached entries for products whose stock changed in
// a committed transaction. Best effort: a failed invalidation is logged and
// the entry expires at its TTL.
func (s *service) invalidateProducts(ctx context.Context, ids []int64) {
	if s.cache == nil || len(ids) == 0 {
		return
	}
	seen := make(map[int64]struct{}, len(ids))
	unique := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if err := s.cache.Invalidate(ctx, unique...); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "products", len(unique)), "product cache invalidation failed")
	}
}

func detailProductIDs(details []DetailInput) []int64 {
	ids := make([]int64, 0, len(details))
	for _, item := range details {
		ids = append(ids, item.ProductID)
	}
	return ids
}

func buildDetailRows(purchaseID int64, details []DetailInput) []models.PurchaseDetail {
	rows := make([]models.PurchaseDetail, 0, len(details))
	for _, item := range details {
		rows = append(rows, models.PurchaseDetail{
			PurchaseID: purchaseID,
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			Price:      item.Price,
			Subtotal:   item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))),
		})
	}
	return rows
}

func validateCreateInput(input CreateInput) error {
	if input.UserID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "user_id is required")
	}
	if !input.Status.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid status %q", string(input.Status))
	}
	return validateDetails(input.Details)
}

func validateUpdateInput(input UpdateInput) error {
	if input.UserID != nil && *input.UserID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "user_id must be positive")
	}
	if input.Status != nil && !input.Status.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid status %q", string(*input.Status))
	}
	if input.Details != nil {
		// Checked before the transaction opens. An explicitly provided empty
		// array is rejected; an omitted field leaves details untouched.
		return validateDetails(*input.Details)
	}
	return nil
}

func validateDetails(details []DetailInput) error {
	if len(details) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "details cannot be empty")
	}
	if len(details) > maxDetailsPerPurchase {
		return pkgerrors.Newf(pkgerrors.CodeValidation,
			"a purchase cannot have more than %d items", maxDetailsPerPurchase)
	}
	for i, item := range details {
		if item.ProductID <= 0 {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "details[%d]: product_id is required", i)
		}
		if item.Quantity <= 0 {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "details[%d]: quantity must be positive", i)
		}
		if !item.Price.IsPositive() {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "details[%d]: price must be positive", i)
		}
	}
	return nil
}
