package vendors

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/digishelf/digishelf-backend/pkg/db/models"
	pkgerrors "github.com/digishelf/digishelf-backend/pkg/errors"
)

// Repository defines vendor directory reads and the balance credit applied at
// settlement time.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
	// FindByIDForUpdate locks the vendor row for the rest of the enclosing
	// transaction. Callers computing available balance must use this.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
	// CreditSale increments total_sales and total_earnings_cents in place.
	CreditSale(ctx context.Context, vendorID uuid.UUID, netCents int64) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a vendor repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	return r.findByID(ctx, id, false)
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	return r.findByID(ctx, id, true)
}

func (r *repository) findByID(ctx context.Context, id uuid.UUID, forUpdate bool) (*models.Vendor, error) {
	query := r.db.WithContext(ctx)
	if forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var vendor models.Vendor
	err := query.Where("id = ?", id).First(&vendor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, err
	}
	return &vendor, nil
}

func (r *repository) CreditSale(ctx context.Context, vendorID uuid.UUID, netCents int64) error {
	result := r.db.WithContext(ctx).
		Model(&models.Vendor{}).
		Where("id = ?", vendorID).
		Updates(map[string]any{
			"total_sales":          gorm.Expr("total_sales + 1"),
			"total_earnings_cents": gorm.Expr("total_earnings_cents + ?", netCents),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
	}
	return nil
}
