package paymentwebhook

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/digishelf/digishelf-backend/internal/settlement"
	pkgerrors "github.com/digishelf/digishelf-backend/pkg/errors"
	"github.com/digishelf/digishelf-backend/pkg/logger"
)

type settlementService interface {
	Settle(ctx context.Context, event settlement.CaptureEvent) (*settlement.Result, error)
}

type orderFailer interface {
	MarkFailed(ctx context.Context, id uuid.UUID) (bool, error)
}

type ServiceParams struct {
	Settlement settlementService
	Orders     orderFailer
	Logger     *logger.Logger
}

type Service struct {
	settlement settlementService
	orders     orderFailer
	logg       *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Settlement == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "settlement service required")
	}
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repo required")
	}
	return &Service{
		settlement: params.Settlement,
		orders:     params.Orders,
		logg:       params.Logger,
	}, nil
}

// PaymentWebhookEvent is the provider-agnostic capture notification shape.
type PaymentWebhookEvent struct {
	EventID string             `json:"event_id"`
	Type    string             `json:"type"`
	Data    PaymentWebhookData `json:"data"`
}

type PaymentWebhookData struct {
	OrderID       uuid.UUID `json:"order_id"`
	CustomerID    uuid.UUID `json:"customer_id"`
	ExternalTxRef string    `json:"external_tx_ref"`
}

// HandleEvent routes payment lifecycle events into the settlement pipeline.
// Unrecognized event types are acknowledged without action so the provider
// stops redelivering them.
func (s *Service) HandleEvent(ctx context.Context, event *PaymentWebhookEvent) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment event required")
	}

	switch strings.ToLower(event.Type) {
	case "payment.captured":
		if event.Data.OrderID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "order id missing")
		}
		result, err := s.settlement.Settle(ctx, settlement.CaptureEvent{
			OrderID:       event.Data.OrderID,
			CustomerID:    event.Data.CustomerID,
			ExternalTxRef: event.Data.ExternalTxRef,
		})
		if err != nil {
			// An unknown order is not actionable. Acknowledge so the
			// provider stops redelivering instead of retry-looping.
			if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
				if s.logg != nil {
					s.logg.Warn(s.logg.WithOrderID(ctx, event.Data.OrderID.String()), "settlement.order_not_found")
				}
				return nil
			}
			return err
		}
		if s.logg != nil && result.AlreadySettled {
			s.logg.Info(s.logg.WithOrderID(ctx, event.Data.OrderID.String()), "settlement.duplicate_delivery")
		}
		return nil
	case "payment.failed":
		if event.Data.OrderID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "order id missing")
		}
		won, err := s.orders.MarkFailed(ctx, event.Data.OrderID)
		if err != nil {
			return err
		}
		if s.logg != nil && !won {
			s.logg.Info(s.logg.WithOrderID(ctx, event.Data.OrderID.String()), "payment.failed.duplicate_delivery")
		}
		return nil
	default:
		return nil
	}
}
