package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/osoriodev/tienda-backend/api/responses"
	"github.com/osoriodev/tienda-backend/api/validators"
	purchasesvc "github.com/osoriodev/tienda-backend/internal/purchases"
	"github.com/osoriodev/tienda-backend/pkg/enums"
	pkgerrors "github.com/osoriodev/tienda-backend/pkg/errors"
	"github.com/osoriodev/tienda-backend/pkg/logger"
	"github.com/osoriodev/tienda-backend/pkg/types"
)

type purchaseDetailRequest struct {
	ProductID int64           `json:"product_id" validate:"required"`
	Quantity  int             `json:"quantity" validate:"required"`
	Price     decimal.Decimal `json:"price" validate:"required"`
}

type createPurchaseRequest struct {
	UserID  int64                   `json:"user_id" validate:"required"`
	Status  string                  `json:"status" validate:"required"`
	Details []purchaseDetailRequest `json:"details" validate:"required"`
}

// updatePurchaseRequest keeps omitted and present fields distinct: a nil
// pointer falls back to the stored value, a present details list replaces
// the line items wholesale.
type updatePurchaseRequest struct {
	UserID  *int64                   `json:"user_id,omitempty"`
	Status  *string                  `json:"status,omitempty"`
	Details *[]purchaseDetailRequest `json:"details,omitempty"`
}

func toDetailInputs(items []purchaseDetailRequest) []purchasesvc.DetailInput {
	details := make([]purchasesvc.DetailInput, 0, len(items))
	for _, item := range items {
		details = append(details, purchasesvc.DetailInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return details
}

// ListPurchases returns every purchase with its user and details.
func ListPurchases(svc purchasesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// GetPurchase returns one purchase by id.
func GetPurchase(svc purchasesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// CreatePurchase runs the transactional purchase flow.
func CreatePurchase(svc purchasesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createPurchaseRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParsePurchaseStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		id, err := svc.Create(r.Context(), purchasesvc.CreateInput{
			UserID:  payload.UserID,
			Status:  status,
			Details: toDetailInputs(payload.Details),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, types.PurchaseAck{
			Message:    "purchase created",
			PurchaseID: id,
		})
	}
}

// UpdatePurchase mutates header fields and optionally replaces line items.
func UpdatePurchase(svc purchasesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updatePurchaseRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := purchasesvc.UpdateInput{UserID: payload.UserID}
		if payload.Status != nil {
			status, err := enums.ParsePurchaseStatus(*payload.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			input.Status = &status
		}
		if payload.Details != nil {
			details := toDetailInputs(*payload.Details)
			input.Details = &details
		}

		if err := svc.Update(r.Context(), id, input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, types.PurchaseAck{
			Message:    "purchase updated",
			PurchaseID: id,
		})
	}
}

// DeletePurchase removes a purchase and its details.
func DeletePurchase(svc purchasesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, types.MessageResponse{Message: "purchase deleted"})
	}
}
