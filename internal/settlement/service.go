package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/digishelf/digishelf-backend/internal/ledger"
	"github.com/digishelf/digishelf-backend/internal/licensing"
	"github.com/digishelf/digishelf-backend/internal/orders"
	"github.com/digishelf/digishelf-backend/internal/vendors"
	"github.com/digishelf/digishelf-backend/pkg/db/models"
	"github.com/digishelf/digishelf-backend/pkg/enums"
	pkgerrors "github.com/digishelf/digishelf-backend/pkg/errors"
	"github.com/digishelf/digishelf-backend/pkg/logger"
	"github.com/digishelf/digishelf-backend/pkg/metrics"
	"github.com/digishelf/digishelf-backend/pkg/outbox"
	"github.com/digishelf/digishelf-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Notifier delivers fire-and-forget user-facing messages; it must never
// return an error to the settlement path.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, ntype enums.NotificationType, title, message string, link *string)
}

// CaptureEvent is the verified payment capture handed in by the event
// gateway. Transport authenticity has already been checked upstream.
type CaptureEvent struct {
	OrderID       uuid.UUID
	CustomerID    uuid.UUID
	ExternalTxRef string
}

// Result summarizes what a settlement call did.
type Result struct {
	OrderID              uuid.UUID
	AlreadySettled       bool
	SettledItems         int
	TotalCommissionCents int64
	TotalNetCents        int64
}

// Service settles captured payments into ledger and license state.
type Service interface {
	Settle(ctx context.Context, event CaptureEvent) (*Result, error)
}

// ServiceParams collects the settlement service dependencies.
type ServiceParams struct {
	Orders                   orders.Repository
	Vendors                  vendors.Repository
	Ledger                   ledger.Repository
	Issuer                   *licensing.Issuer
	Tx                       txRunner
	Outbox                   outboxEmitter
	Notifier                 Notifier
	Metrics                  *metrics.SettlementMetrics
	Logger                   *logger.Logger
	DefaultCommissionPercent int
}

type service struct {
	orders      orders.Repository
	vendors     vendors.Repository
	ledger      ledger.Repository
	issuer      *licensing.Issuer
	tx          txRunner
	outbox      outboxEmitter
	notifier    Notifier
	metrics     *metrics.SettlementMetrics
	logg        *logger.Logger
	defaultRate int
}

// NewService wires the settlement processor.
func NewService(params ServiceParams) (Service, error) {
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Vendors == nil {
		return nil, fmt.Errorf("vendors repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if params.Issuer == nil {
		return nil, fmt.Errorf("license issuer required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	rate := params.DefaultCommissionPercent
	if rate <= 0 {
		rate = DefaultCommissionPercent
	}
	return &service{
		orders:      params.Orders,
		vendors:     params.Vendors,
		ledger:      params.Ledger,
		issuer:      params.Issuer,
		tx:          params.Tx,
		outbox:      params.Outbox,
		notifier:    params.Notifier,
		metrics:     params.Metrics,
		logg:        params.Logger,
		defaultRate: rate,
	}, nil
}

// Settle applies one capture event exactly once. The whole order settles as
// one transaction: if any line item cannot be settled, nothing is committed
// and the order stays pending for a later redelivery.
func (s *service) Settle(ctx context.Context, event CaptureEvent) (*Result, error) {
	started := time.Now()
	result, err := s.settle(ctx, event)
	switch {
	case err != nil:
		s.metrics.ObserveDuration("error", time.Since(started))
		s.metrics.IncFailure(failureReason(err))
	case result.AlreadySettled:
		s.metrics.ObserveDuration("duplicate", time.Since(started))
		s.metrics.IncDuplicate()
	default:
		s.metrics.ObserveDuration("settled", time.Since(started))
		s.metrics.IncSettled()
	}
	return result, err
}

func (s *service) settle(ctx context.Context, event CaptureEvent) (*Result, error) {
	if event.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	ctx = s.logg.WithOrderID(ctx, event.OrderID.String())

	order, err := s.orders.FindByID(ctx, event.OrderID)
	if err != nil {
		return nil, err
	}

	// Idempotency gate, first pass. The conditional update inside the
	// transaction below closes the race this read cannot.
	if order.PaymentStatus == enums.PaymentStatusCompleted {
		s.logg.Info(ctx, "capture event redelivered for settled order, ignoring")
		return &Result{OrderID: order.ID, AlreadySettled: true}, nil
	}
	if order.PaymentStatus.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order is %s and cannot settle", order.PaymentStatus))
	}
	if len(order.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order has no line items")
	}
	var itemTotal int64
	for _, item := range order.Items {
		itemTotal += item.UnitPriceCents
	}
	if itemTotal != order.TotalCents {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order total %d does not match line items %d", order.TotalCents, itemTotal))
	}

	result := &Result{OrderID: order.ID}
	settled := make([]payloads.SettledLineItem, 0, len(order.Items))
	vendorUsers := map[uuid.UUID]uuid.UUID{}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.orders.WithTx(tx)
		vendorsRepo := s.vendors.WithTx(tx)
		ledgerRepo := s.ledger.WithTx(tx)

		// Atomic transition; the loser of a concurrent redelivery race sees
		// zero rows updated and backs out with the whole transaction.
		won, err := ordersRepo.MarkCompleted(ctx, order.ID, event.ExternalTxRef)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order completed")
		}
		if !won {
			result.AlreadySettled = true
			return nil
		}

		for _, item := range order.Items {
			settledItem, vendorUserID, err := s.settleLineItem(ctx, ordersRepo, vendorsRepo, ledgerRepo, order, item)
			if err != nil {
				itemCtx := s.logg.WithFields(ctx, map[string]any{
					"line_item_id": item.ID.String(),
					"vendor_id":    item.VendorID.String(),
				})
				s.logg.Error(itemCtx, "line item settlement failed, rolling back order", err)
				return err
			}
			settled = append(settled, *settledItem)
			result.TotalCommissionCents += settledItem.CommissionCents
			result.TotalNetCents += settledItem.NetCents
			vendorUsers[item.VendorID] = vendorUserID
		}
		result.SettledItems = len(settled)

		// One settled event per order, ever.
		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderSettled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: payloads.OrderSettledEvent{
				OrderID:         order.ID,
				OrderNumber:     order.OrderNumber,
				CustomerID:      order.CustomerID,
				TotalCents:      order.TotalCents,
				CommissionCents: result.TotalCommissionCents,
				NetCents:        result.TotalNetCents,
				Items:           settled,
				SettledAt:       time.Now().UTC(),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	if result.AlreadySettled {
		s.logg.Info(ctx, "lost settlement race, treating as duplicate")
		return result, nil
	}

	s.notifyParticipants(ctx, order, vendorUsers)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"settled_items":    result.SettledItems,
		"commission_cents": result.TotalCommissionCents,
		"net_cents":        result.TotalNetCents,
	}), "order settled")

	return result, nil
}

func (s *service) settleLineItem(
	ctx context.Context,
	ordersRepo orders.Repository,
	vendorsRepo vendors.Repository,
	ledgerRepo ledger.Repository,
	order *models.Order,
	item models.OrderLineItem,
) (*payloads.SettledLineItem, uuid.UUID, error) {
	if item.LicenseKey != "" {
		return nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeStateConflict, "line item already carries a license")
	}
	if item.UnitPriceCents <= 0 {
		return nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeStateConflict, "line item has a non-positive price")
	}

	vendor, err := vendorsRepo.FindByID(ctx, item.VendorID)
	if err != nil {
		return nil, uuid.Nil, err
	}

	rate, err := ResolveRate(vendor.CommissionPercent, s.defaultRate)
	if err != nil {
		return nil, uuid.Nil, err
	}
	split, err := SplitCommission(item.UnitPriceCents, rate)
	if err != nil {
		return nil, uuid.Nil, err
	}

	token, err := s.issuer.Issue(item.ProductID, order.ID, func(candidate string) (bool, error) {
		return ordersRepo.LicenseKeyExists(ctx, candidate)
	})
	if err != nil {
		return nil, uuid.Nil, err
	}
	if err := ordersRepo.SetLineItemLicense(ctx, item.ID, token); err != nil {
		return nil, uuid.Nil, err
	}

	if _, err := ledgerRepo.CreateTransaction(ctx, &models.Transaction{
		VendorID:        vendor.ID,
		OrderID:         order.ID,
		LineItemID:      item.ID,
		GrossCents:      split.GrossCents,
		CommissionCents: split.CommissionCents,
		NetCents:        split.NetCents,
		Type:            enums.TransactionTypeSale,
		Status:          enums.TransactionStatusCompleted,
		PaymentMethod:   order.PaymentMethod,
	}); err != nil {
		return nil, uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record ledger transaction")
	}

	if err := vendorsRepo.CreditSale(ctx, vendor.ID, split.NetCents); err != nil {
		return nil, uuid.Nil, err
	}
	if err := ledgerRepo.ApplyPlatformRevenue(ctx, split.GrossCents, split.CommissionCents); err != nil {
		return nil, uuid.Nil, err
	}

	return &payloads.SettledLineItem{
		LineItemID:      item.ID,
		ProductID:       item.ProductID,
		VendorID:        vendor.ID,
		GrossCents:      split.GrossCents,
		CommissionCents: split.CommissionCents,
		NetCents:        split.NetCents,
		LicenseKey:      token,
	}, vendor.UserID, nil
}

func (s *service) notifyParticipants(ctx context.Context, order *models.Order, vendorUsers map[uuid.UUID]uuid.UUID) {
	link := fmt.Sprintf("/orders/%d", order.OrderNumber)
	s.notifier.Notify(ctx, order.CustomerID, enums.NotificationTypePurchaseReceipt,
		"Your downloads are ready",
		fmt.Sprintf("Order #%d is complete. Your licenses and downloads are available.", order.OrderNumber),
		&link)

	for _, userID := range vendorUsers {
		s.notifier.Notify(ctx, userID, enums.NotificationTypeSaleAlert,
			"You made a sale",
			fmt.Sprintf("Items from order #%d sold and your balance was credited.", order.OrderNumber),
			nil)
	}
}

func failureReason(err error) string {
	if coded := pkgerrors.As(err); coded != nil {
		return string(coded.Code())
	}
	return "unknown"
}
