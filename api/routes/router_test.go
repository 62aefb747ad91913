package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	product "github.com/osoriodev/tienda-backend/internal/products"
	purchase "github.com/osoriodev/tienda-backend/internal/purchases"
	"github.com/osoriodev/tienda-backend/pkg/config"
	"github.com/osoriodev/tienda-backend/pkg/logger"
	"github.com/osoriodev/tienda-backend/pkg/metrics"
)

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

type noopProductService struct{}

func (noopProductService) Create(context.Context, product.CreateInput) (*product.ProductDTO, error) {
	return &product.ProductDTO{}, nil
}

func (noopProductService) Update(context.Context, int64, product.UpdateInput) (*product.ProductDTO, error) {
	return &product.ProductDTO{}, nil
}

func (noopProductService) Delete(context.Context, int64) error { return nil }

func (noopProductService) Get(context.Context, int64) (*product.ProductDTO, error) {
	return &product.ProductDTO{}, nil
}

func (noopProductService) List(context.Context) ([]product.ProductDTO, error) { return nil, nil }

type noopPurchaseService struct{}

func (noopPurchaseService) Create(context.Context, purchase.CreateInput) (int64, error) {
	return 1, nil
}

func (noopPurchaseService) Update(context.Context, int64, purchase.UpdateInput) error { return nil }

func (noopPurchaseService) Delete(context.Context, int64) error { return nil }

func (noopPurchaseService) Get(context.Context, int64) (*purchase.PurchaseDTO, error) {
	return &purchase.PurchaseDTO{}, nil
}

func (noopPurchaseService) List(context.Context) ([]purchase.PurchaseDTO, error) { return nil, nil }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{}
	cfg.App.Env = "dev"
	logg := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})
	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)

	return NewRouter(cfg, logg, okPinger{}, nil, registry, httpMetrics, noopProductService{}, noopPurchaseService{})
}

func TestRouterWiresCoreEndpoints(t *testing.T) {
	router := newTestRouter(t)

	cases := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health/live", http.StatusOK},
		{http.MethodGet, "/health/ready", http.StatusOK},
		{http.MethodGet, "/api/ping", http.StatusOK},
		{http.MethodGet, "/api/products", http.StatusOK},
		{http.MethodGet, "/api/purchases", http.StatusOK},
		{http.MethodGet, "/nope", http.StatusNotFound},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, tc.want, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestRouterExposesMetricsAfterTraffic(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}
