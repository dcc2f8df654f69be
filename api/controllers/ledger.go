package controllers

import (
	"net/http"

	"github.com/digishelf/digishelf-backend/api/responses"
	"github.com/digishelf/digishelf-backend/internal/ledger"
	pkgerrors "github.com/digishelf/digishelf-backend/pkg/errors"
	"github.com/digishelf/digishelf-backend/pkg/logger"
)

// VendorLedger returns the vendor's settled sale transactions, newest first.
func VendorLedger(repo ledger.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger repository unavailable"))
			return
		}

		vendorID, err := actorVendorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, next, err := repo.ListVendorTransactions(r.Context(), vendorID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"transactions": rows,
			"next_cursor":  next,
		})
	}
}

// PlatformRevenue exposes the platform revenue aggregate for back office use.
func PlatformRevenue(repo ledger.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger repository unavailable"))
			return
		}

		revenue, err := repo.GetPlatformRevenue(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, revenue)
	}
}
