package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/digishelf/digishelf-backend/api/middleware"
	"github.com/digishelf/digishelf-backend/api/responses"
	"github.com/digishelf/digishelf-backend/api/validators"
	checkoutsvc "github.com/digishelf/digishelf-backend/internal/checkout"
	ordersvc "github.com/digishelf/digishelf-backend/internal/orders"
	"github.com/digishelf/digishelf-backend/pkg/enums"
	pkgerrors "github.com/digishelf/digishelf-backend/pkg/errors"
	"github.com/digishelf/digishelf-backend/pkg/logger"
)

type checkoutRequest struct {
	ProductIDs    []uuid.UUID `json:"product_ids" validate:"required,min=1,dive,required"`
	PaymentMethod string      `json:"payment_method" validate:"required"`
	Currency      string      `json:"currency" validate:"omitempty"`
}

// Checkout creates a pending order from the selected catalog products.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		customerID, err := actorUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		input := checkoutsvc.CreateOrderInput{
			CustomerID:    customerID,
			ProductIDs:    payload.ProductIDs,
			PaymentMethod: method,
		}
		if payload.Currency != "" {
			currency, err := enums.ParseCurrency(payload.Currency)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency"))
				return
			}
			input.Currency = currency
		}

		order, err := svc.CreateOrder(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, ordersvc.NewOrderView(*order))
	}
}

func actorUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}

func actorVendorID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.VendorIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "invalid vendor id")
	}
	return id, nil
}
