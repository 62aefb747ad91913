package purchase

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	product "github.com/osoriodev/tienda-backend/internal/products"
	user "github.com/osoriodev/tienda-backend/internal/users"
	"github.com/osoriodev/tienda-backend/pkg/db"
	"github.com/osoriodev/tienda-backend/pkg/db/models"
	"github.com/osoriodev/tienda-backend/pkg/enums"
	"github.com/osoriodev/tienda-backend/pkg/logger"
	pkgredis "github.com/osoriodev/tienda-backend/pkg/redis"
)

type memStore struct {
	data map[string]string
	dels int
}

func newMemStore() *memStore {
	return &memStore{data: map[string]string{}}
}

func (m *memStore) Get(_ context.Context, key string) (string, error) {
	value, ok := m.data[key]
	if !ok {
		return "", pkgredis.Nil
	}
	return value, nil
}

func (m *memStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.data[key] = value.(string)
	return nil
}

func (m *memStore) Del(_ context.Context, keys ...string) error {
	m.dels++
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

// cachedEnv wires the purchase service and the product service to the same
// cache, the way cmd/api does.
type cachedEnv struct {
	db       *gorm.DB
	store    *memStore
	svc      Service
	products product.Service
}

func newCachedEnv(t *testing.T) *cachedEnv {
	t.Helper()
	dsn := "file:purchase_cache_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Purchase{},
		&models.PurchaseDetail{},
	))

	logg := logger.New(logger.Options{ServiceName: "purchase-test", Output: io.Discard})
	store := newMemStore()
	cache := product.NewCache(store, time.Minute)
	productRepo := product.NewRepository(conn)

	productSvc, err := product.NewService(productRepo, cache, logg)
	require.NoError(t, err)

	svc, err := NewService(
		db.NewWithConn(conn),
		NewRepository(conn),
		productRepo,
		user.NewRepository(conn),
		cache,
		logg,
	)
	require.NoError(t, err)
	return &cachedEnv{db: conn, store: store, svc: svc, products: productSvc}
}

func (e *cachedEnv) mustCreateUser(t *testing.T) *models.User {
	t.Helper()
	row := &models.User{Name: "Buyer", Email: "buyer_" + uuid.NewString()[:8] + "@example.com"}
	require.NoError(t, e.db.Create(row).Error)
	return row
}

func (e *cachedEnv) mustCreateProduct(t *testing.T, stock int, price float64) *models.Product {
	t.Helper()
	row := &models.Product{
		Name:  "Item " + uuid.NewString()[:8],
		Price: decimal.NewFromFloat(price),
		Stock: stock,
	}
	require.NoError(t, e.db.Create(row).Error)
	return row
}

func TestCreatePurchaseInvalidatesProductCache(t *testing.T) {
	t.Parallel()
	env := newCachedEnv(t)
	ctx := context.Background()
	buyer := env.mustCreateUser(t)
	prod := env.mustCreateProduct(t, 5, 10)

	warmed, err := env.products.Get(ctx, prod.ID)
	require.NoError(t, err)
	require.Equal(t, 5, warmed.Stock)

	_, err = env.svc.Create(ctx, CreateInput{
		UserID: buyer.ID,
		Status: enums.PurchaseStatusPending,
		Details: []DetailInput{
			{ProductID: prod.ID, Quantity: 2, Price: decimal.NewFromInt(10)},
		},
	})
	require.NoError(t, err)

	refreshed, err := env.products.Get(ctx, prod.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, refreshed.Stock, "cached product read must reflect post-purchase stock")
	assert.GreaterOrEqual(t, env.store.dels, 1, "purchase must drop the cached entry")
}

func TestUpdatePurchaseInvalidatesOldAndNewProducts(t *testing.T) {
	t.Parallel()
	env := newCachedEnv(t)
	ctx := context.Background()
	buyer := env.mustCreateUser(t)
	prodA := env.mustCreateProduct(t, 10, 5)
	prodB := env.mustCreateProduct(t, 10, 5)

	id, err := env.svc.Create(ctx, CreateInput{
		UserID: buyer.ID,
		Status: enums.PurchaseStatusPending,
		Details: []DetailInput{
			{ProductID: prodA.ID, Quantity: 3, Price: decimal.NewFromInt(5)},
		},
	})
	require.NoError(t, err)

	// Cache both products at their post-create stock levels.
	warmedA, err := env.products.Get(ctx, prodA.ID)
	require.NoError(t, err)
	require.Equal(t, 7, warmedA.Stock)
	warmedB, err := env.products.Get(ctx, prodB.ID)
	require.NoError(t, err)
	require.Equal(t, 10, warmedB.Stock)

	details := []DetailInput{
		{ProductID: prodB.ID, Quantity: 4, Price: decimal.NewFromInt(5)},
	}
	require.NoError(t, env.svc.Update(ctx, id, UpdateInput{Details: &details}))

	// A got its stock back, B was decremented; both reads must be fresh.
	refreshedA, err := env.products.Get(ctx, prodA.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, refreshedA.Stock)
	refreshedB, err := env.products.Get(ctx, prodB.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, refreshedB.Stock)
}
