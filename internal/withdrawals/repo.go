package withdrawals

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/digishelf/digishelf-backend/pkg/db/models"
	"github.com/digishelf/digishelf-backend/pkg/enums"
	pkgerrors "github.com/digishelf/digishelf-backend/pkg/errors"
	"github.com/digishelf/digishelf-backend/pkg/pagination"
)

// Repository defines withdrawal persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, withdrawal *models.Withdrawal) (*models.Withdrawal, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error)
	// SumReserved totals the pending and approved withdrawal amounts for a
	// vendor. Callers must hold the vendor row lock when using the result
	// to authorize a new request.
	SumReserved(ctx context.Context, vendorID uuid.UUID) (int64, error)
	// Decide flips a pending withdrawal to its terminal status in one
	// conditional update and reports whether this caller won.
	Decide(ctx context.Context, id uuid.UUID, status enums.WithdrawalStatus, reviewerID uuid.UUID, notes *string, at time.Time) (bool, error)
	ListVendorWithdrawals(ctx context.Context, vendorID uuid.UUID, params pagination.Params) ([]models.Withdrawal, string, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a withdrawals repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, withdrawal *models.Withdrawal) (*models.Withdrawal, error) {
	if err := r.db.WithContext(ctx).Create(withdrawal).Error; err != nil {
		return nil, err
	}
	return withdrawal, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	var withdrawal models.Withdrawal
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&withdrawal).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "withdrawal not found")
		}
		return nil, err
	}
	return &withdrawal, nil
}

func (r *repository) SumReserved(ctx context.Context, vendorID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Withdrawal{}).
		Select("COALESCE(SUM(amount_cents), 0)").
		Where("vendor_id = ? AND status IN ?", vendorID, enums.WithdrawalReservingStatuses()).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *repository) Decide(ctx context.Context, id uuid.UUID, status enums.WithdrawalStatus, reviewerID uuid.UUID, notes *string, at time.Time) (bool, error) {
	updates := map[string]any{
		"status":       status,
		"reviewer_id":  reviewerID,
		"processed_at": at,
		"updated_at":   at,
	}
	if notes != nil {
		updates["notes"] = *notes
	}
	result := r.db.WithContext(ctx).
		Model(&models.Withdrawal{}).
		Where("id = ? AND status = ?", id, enums.WithdrawalStatusPending).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) ListVendorWithdrawals(ctx context.Context, vendorID uuid.UUID, params pagination.Params) ([]models.Withdrawal, string, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Withdrawal{}).
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
	var rows []models.Withdrawal
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
