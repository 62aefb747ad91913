package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	purchasesvc "github.com/osoriodev/tienda-backend/internal/purchases"
	pkgerrors "github.com/osoriodev/tienda-backend/pkg/errors"
)

type fakePurchaseService struct {
	createInput *purchasesvc.CreateInput
	createID    int64
	createErr   error

	updateID    int64
	updateInput *purchasesvc.UpdateInput
	updateErr   error

	deleteErr error

	getDTO *purchasesvc.PurchaseDTO
	getErr error

	listRows []purchasesvc.PurchaseDTO
	listErr  error
}

func (f *fakePurchaseService) Create(_ context.Context, input purchasesvc.CreateInput) (int64, error) {
	f.createInput = &input
	return f.createID, f.createErr
}

func (f *fakePurchaseService) Update(_ context.Context, id int64, input purchasesvc.UpdateInput) error {
	f.updateID = id
	f.updateInput = &input
	return f.updateErr
}

func (f *fakePurchaseService) Delete(context.Context, int64) error { return f.deleteErr }

func (f *fakePurchaseService) Get(context.Context, int64) (*purchasesvc.PurchaseDTO, error) {
	return f.getDTO, f.getErr
}

func (f *fakePurchaseService) List(context.Context) ([]purchasesvc.PurchaseDTO, error) {
	return f.listRows, f.listErr
}

func purchaseTestRouter(svc purchasesvc.Service) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/purchases", CreatePurchase(svc, nil))
	r.Get("/api/purchases", ListPurchases(svc, nil))
	r.Get("/api/purchases/{id}", GetPurchase(svc, nil))
	r.Put("/api/purchases/{id}", UpdatePurchase(svc, nil))
	r.Delete("/api/purchases/{id}", DeletePurchase(svc, nil))
	return r
}

func TestCreatePurchaseReturns201WithID(t *testing.T) {
	svc := &fakePurchaseService{createID: 7}
	router := purchaseTestRouter(svc)

	body := `{"user_id":1,"status":"PENDING","details":[{"product_id":1,"quantity":2,"price":10}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/purchases", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Message    string `json:"message"`
		PurchaseID int64  `json:"purchase_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(7), resp.PurchaseID)
	assert.NotEmpty(t, resp.Message)

	require.NotNil(t, svc.createInput)
	assert.Equal(t, int64(1), svc.createInput.UserID)
	require.Len(t, svc.createInput.Details, 1)
	assert.True(t, svc.createInput.Details[0].Price.Equal(decimal.NewFromInt(10)))
}

func TestCreatePurchaseRejectsMalformedBody(t *testing.T) {
	svc := &fakePurchaseService{}
	router := purchaseTestRouter(svc)

	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `{"user_id":`},
		{"unknown field", `{"user_id":1,"status":"PENDING","details":[],"total":99}`},
		{"missing status", `{"user_id":1,"details":[{"product_id":1,"quantity":1,"price":1}]}`},
		{"unknown status", `{"user_id":1,"status":"SHIPPED","details":[{"product_id":1,"quantity":1,"price":1}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/purchases", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Nil(t, svc.createInput, "service must not be called")
		})
	}
}

func TestCreatePurchaseMapsEngineErrors(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"insufficient stock", pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock for product 1: have 1, requested 3"), http.StatusBadRequest},
		{"infra fault", pkgerrors.New(pkgerrors.CodeInternal, "inserting purchase"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakePurchaseService{createErr: tc.err}
			router := purchaseTestRouter(svc)

			body := `{"user_id":1,"status":"PENDING","details":[{"product_id":1,"quantity":3,"price":10}]}`
			req := httptest.NewRequest(http.MethodPost, "/api/purchases", strings.NewReader(body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}

func TestUpdatePurchasePreservesOmittedFields(t *testing.T) {
	svc := &fakePurchaseService{}
	router := purchaseTestRouter(svc)

	req := httptest.NewRequest(http.MethodPut, "/api/purchases/3", strings.NewReader(`{"status":"CANCELED"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, svc.updateInput)
	assert.Equal(t, int64(3), svc.updateID)
	assert.Nil(t, svc.updateInput.UserID, "omitted user_id stays nil")
	assert.Nil(t, svc.updateInput.Details, "omitted details stays nil")
	require.NotNil(t, svc.updateInput.Status)
	assert.Equal(t, "CANCELED", string(*svc.updateInput.Status))
}

func TestUpdatePurchasePassesExplicitEmptyDetails(t *testing.T) {
	svc := &fakePurchaseService{}
	router := purchaseTestRouter(svc)

	req := httptest.NewRequest(http.MethodPut, "/api/purchases/3", strings.NewReader(`{"details":[]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.updateInput)
	require.NotNil(t, svc.updateInput.Details, "explicit empty array must reach the service as present")
	assert.Empty(t, *svc.updateInput.Details)
}

func TestUpdatePurchaseCompletedConflict(t *testing.T) {
	svc := &fakePurchaseService{updateErr: pkgerrors.New(pkgerrors.CodeStateConflict, "completed purchases cannot be modified")}
	router := purchaseTestRouter(svc)

	req := httptest.NewRequest(http.MethodPut, "/api/purchases/3", strings.NewReader(`{"status":"PENDING"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGetPurchaseInvalidID(t *testing.T) {
	svc := &fakePurchaseService{}
	router := purchaseTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/purchases/abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPurchaseNotFound(t *testing.T) {
	svc := &fakePurchaseService{getErr: pkgerrors.New(pkgerrors.CodeNotFound, "purchase 12 not found")}
	router := purchaseTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/purchases/12", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListPurchasesReturnsArray(t *testing.T) {
	svc := &fakePurchaseService{listRows: []purchasesvc.PurchaseDTO{{ID: 1}, {ID: 2}}}
	router := purchaseTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/purchases", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var rows []purchasesvc.PurchaseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	assert.Len(t, rows, 2)
}

func TestDeletePurchase(t *testing.T) {
	svc := &fakePurchaseService{}
	router := purchaseTestRouter(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/purchases/4", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Message)
}
