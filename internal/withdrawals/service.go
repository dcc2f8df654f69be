package withdrawals

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/digishelf/digishelf-backend/internal/vendors"
	"github.com/digishelf/digishelf-backend/pkg/db/models"
	"github.com/digishelf/digishelf-backend/pkg/enums"
	pkgerrors "github.com/digishelf/digishelf-backend/pkg/errors"
	"github.com/digishelf/digishelf-backend/pkg/logger"
	"github.com/digishelf/digishelf-backend/pkg/outbox"
	"github.com/digishelf/digishelf-backend/pkg/outbox/payloads"
	"github.com/digishelf/digishelf-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Notifier delivers fire-and-forget user-facing messages.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, ntype enums.NotificationType, title, message string, link *string)
}

// RequestInput carries a vendor payout request.
type RequestInput struct {
	VendorID      uuid.UUID
	AmountCents   int64
	PayoutDetails string
	ActorUserID   uuid.UUID
}

// Outcome is the reviewer's decision on a pending withdrawal.
type Outcome string

const (
	OutcomeApprove Outcome = "approve"
	OutcomeReject  Outcome = "reject"
)

// DecideInput carries a reviewer decision.
type DecideInput struct {
	WithdrawalID uuid.UUID
	Outcome      Outcome
	ReviewerID   uuid.UUID
	Notes        *string
}

// Service authorizes vendor payout requests against the ledger-derived
// available balance and applies reviewer decisions exactly once.
type Service interface {
	Request(ctx context.Context, input RequestInput) (*models.Withdrawal, error)
	Decide(ctx context.Context, input DecideInput) (*models.Withdrawal, error)
	AvailableBalance(ctx context.Context, vendorID uuid.UUID) (int64, error)
	ListVendorWithdrawals(ctx context.Context, vendorID uuid.UUID, limit int, cursor string) ([]models.Withdrawal, string, error)
}

type service struct {
	repo     Repository
	vendors  vendors.Repository
	tx       txRunner
	outbox   outboxEmitter
	notifier Notifier
	logg     *logger.Logger
}

// NewService wires the withdrawal authorizer.
func NewService(repo Repository, vendorRepo vendors.Repository, tx txRunner, ob outboxEmitter, notifier Notifier, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("withdrawals repository required")
	}
	if vendorRepo == nil {
		return nil, fmt.Errorf("vendors repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		vendors:  vendorRepo,
		tx:       tx,
		outbox:   ob,
		notifier: notifier,
		logg:     logg,
	}, nil
}

// Request creates a pending withdrawal when the amount fits inside the
// vendor's available balance. The vendor row lock and the reserved sum are
// taken in the same transaction, so a racing settlement or a second request
// cannot let the reservation exceed total earnings.
func (s *service) Request(ctx context.Context, input RequestInput) (*models.Withdrawal, error) {
	if input.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "withdrawal amount must be positive")
	}
	if strings.TrimSpace(input.PayoutDetails) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout details required")
	}

	var withdrawal *models.Withdrawal
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		vendorsRepo := s.vendors.WithTx(tx)
		repo := s.repo.WithTx(tx)

		vendor, err := vendorsRepo.FindByIDForUpdate(ctx, input.VendorID)
		if err != nil {
			return err
		}
		reserved, err := repo.SumReserved(ctx, vendor.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum reserved withdrawals")
		}
		available := vendor.TotalEarningsCents - reserved
		if input.AmountCents > available {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("insufficient balance: requested %d, available %d", input.AmountCents, available))
		}

		now := time.Now().UTC()
		withdrawal, err = repo.Create(ctx, &models.Withdrawal{
			VendorID:      vendor.ID,
			AmountCents:   input.AmountCents,
			Status:        enums.WithdrawalStatusPending,
			PayoutDetails: input.PayoutDetails,
			RequestedAt:   now,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create withdrawal")
		}

		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventWithdrawalRequested,
			AggregateType: enums.AggregateWithdrawal,
			AggregateID:   withdrawal.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, VendorID: &vendor.ID},
			Data: payloads.WithdrawalRequestedEvent{
				WithdrawalID: withdrawal.ID,
				VendorID:     vendor.ID,
				AmountCents:  withdrawal.AmountCents,
				RequestedAt:  withdrawal.RequestedAt,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithVendorID(ctx, input.VendorID.String()), "withdrawal requested")
	return withdrawal, nil
}

// Decide applies a reviewer outcome to a pending withdrawal exactly once.
// Approval needs no balance debit: pending and approved rows already reserve
// the amount in the availableBalance formula. Rejection frees the amount by
// dropping the row out of that formula.
func (s *service) Decide(ctx context.Context, input DecideInput) (*models.Withdrawal, error) {
	if input.WithdrawalID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "withdrawal id required")
	}
	if input.ReviewerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "reviewer identity missing")
	}
	status, err := mapOutcome(input.Outcome)
	if err != nil {
		return nil, err
	}

	var withdrawal *models.Withdrawal
	var vendorUserID uuid.UUID
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		vendorsRepo := s.vendors.WithTx(tx)

		current, err := repo.FindByID(ctx, input.WithdrawalID)
		if err != nil {
			return err
		}
		if current.Status != enums.WithdrawalStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "withdrawal already processed")
		}

		now := time.Now().UTC()
		won, err := repo.Decide(ctx, current.ID, status, input.ReviewerID, input.Notes, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update withdrawal")
		}
		if !won {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "withdrawal already processed")
		}

		vendor, err := vendorsRepo.FindByID(ctx, current.VendorID)
		if err != nil {
			return err
		}
		vendorUserID = vendor.UserID

		current.Status = status
		current.ReviewerID = &input.ReviewerID
		current.ProcessedAt = &now
		current.Notes = input.Notes
		withdrawal = current

		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventWithdrawalDecided,
			AggregateType: enums.AggregateWithdrawal,
			AggregateID:   current.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ReviewerID},
			Data: payloads.WithdrawalDecidedEvent{
				WithdrawalID: current.ID,
				VendorID:     current.VendorID,
				AmountCents:  current.AmountCents,
				Status:       string(status),
				ReviewerID:   input.ReviewerID,
				DecidedAt:    now,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifyOutcome(ctx, vendorUserID, withdrawal)
	return withdrawal, nil
}

func (s *service) AvailableBalance(ctx context.Context, vendorID uuid.UUID) (int64, error) {
	if vendorID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	vendor, err := s.vendors.FindByID(ctx, vendorID)
	if err != nil {
		return 0, err
	}
	reserved, err := s.repo.SumReserved(ctx, vendorID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum reserved withdrawals")
	}
	return vendor.TotalEarningsCents - reserved, nil
}

func (s *service) ListVendorWithdrawals(ctx context.Context, vendorID uuid.UUID, limit int, cursor string) ([]models.Withdrawal, string, error) {
	if vendorID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	return s.repo.ListVendorWithdrawals(ctx, vendorID, pagination.Params{Limit: limit, Cursor: cursor})
}

func (s *service) notifyOutcome(ctx context.Context, vendorUserID uuid.UUID, withdrawal *models.Withdrawal) {
	if withdrawal == nil {
		return
	}
	title := "Withdrawal approved"
	message := fmt.Sprintf("Your withdrawal of %d cents was approved and is on its way.", withdrawal.AmountCents)
	if withdrawal.Status == enums.WithdrawalStatusRejected {
		title = "Withdrawal rejected"
		message = fmt.Sprintf("Your withdrawal of %d cents was rejected. The amount is available again.", withdrawal.AmountCents)
	}
	s.notifier.Notify(ctx, vendorUserID, enums.NotificationTypeWithdrawalOutcome, title, message, nil)
}

func mapOutcome(outcome Outcome) (enums.WithdrawalStatus, error) {
	switch outcome {
	case OutcomeApprove:
		return enums.WithdrawalStatusApproved, nil
	case OutcomeReject:
		return enums.WithdrawalStatusRejected, nil
	default:
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid outcome %q", outcome))
	}
}
