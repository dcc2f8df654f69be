package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/digishelf/digishelf-backend/pkg/db/models"
	pkgerrors "github.com/digishelf/digishelf-backend/pkg/errors"
	"github.com/digishelf/digishelf-backend/pkg/pagination"
)

// Repository owns the append-only transaction ledger and the platform
// revenue aggregate. Transactions are immutable once created.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateTransaction(ctx context.Context, txn *models.Transaction) (*models.Transaction, error)
	// ApplyPlatformRevenue accumulates one settled line item into the
	// singleton aggregate row.
	ApplyPlatformRevenue(ctx context.Context, grossCents, commissionCents int64) error
	GetPlatformRevenue(ctx context.Context) (*models.PlatformRevenue, error)
	ListVendorTransactions(ctx context.Context, vendorID uuid.UUID, params pagination.Params) ([]models.Transaction, string, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a ledger repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.Transaction) (*models.Transaction, error) {
	if err := r.db.WithContext(ctx).Create(txn).Error; err != nil {
		return nil, err
	}
	return txn, nil
}

func (r *repository) ApplyPlatformRevenue(ctx context.Context, grossCents, commissionCents int64) error {
	result := r.db.WithContext(ctx).
		Model(&models.PlatformRevenue{}).
		Where("id = ?", models.PlatformRevenueRowID).
		Updates(map[string]any{
			"total_earnings_cents":   gorm.Expr("total_earnings_cents + ?", grossCents),
			"total_commission_cents": gorm.Expr("total_commission_cents + ?", commissionCents),
			"total_sales":            gorm.Expr("total_sales + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeInternal, "platform revenue row missing")
	}
	return nil
}

func (r *repository) GetPlatformRevenue(ctx context.Context) (*models.PlatformRevenue, error) {
	var revenue models.PlatformRevenue
	err := r.db.WithContext(ctx).
		Where("id = ?", models.PlatformRevenueRowID).
		First(&revenue).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "platform revenue row missing")
		}
		return nil, err
	}
	return &revenue, nil
}

func (r *repository) ListVendorTransactions(ctx context.Context, vendorID uuid.UUID, params pagination.Params) ([]models.Transaction, string, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("vendor_id = ?", vendorID)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var rows []models.Transaction
	err = query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, "", err
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}
