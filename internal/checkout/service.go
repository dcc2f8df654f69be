package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/digishelf/digishelf-backend/internal/catalog"
	"github.com/digishelf/digishelf-backend/internal/orders"
	"github.com/digishelf/digishelf-backend/pkg/db/models"
	"github.com/digishelf/digishelf-backend/pkg/enums"
	pkgerrors "github.com/digishelf/digishelf-backend/pkg/errors"
	"github.com/digishelf/digishelf-backend/pkg/logger"
	"github.com/digishelf/digishelf-backend/pkg/outbox"
	"github.com/digishelf/digishelf-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// CreateOrderInput carries a direct purchase of one or more products.
type CreateOrderInput struct {
	CustomerID    uuid.UUID
	ProductIDs    []uuid.UUID
	PaymentMethod enums.PaymentMethod
	Currency      enums.Currency
}

// Service creates pending orders with price snapshots. Settlement later reads
// prices from the order, never from the live catalog.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error)
}

type service struct {
	catalog catalog.Repository
	orders  orders.Repository
	tx      txRunner
	outbox  outboxEmitter
	logg    *logger.Logger
}

// NewService wires the checkout dependencies.
func NewService(catalogRepo catalog.Repository, ordersRepo orders.Repository, tx txRunner, ob outboxEmitter, logg *logger.Logger) (Service, error) {
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		catalog: catalogRepo,
		orders:  ordersRepo,
		tx:      tx,
		outbox:  ob,
		logg:    logg,
	}, nil
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if len(input.ProductIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one product required")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	currency := input.Currency
	if currency == "" {
		currency = enums.CurrencyUSD
	}
	if !currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid currency")
	}
	seen := map[uuid.UUID]bool{}
	for _, id := range input.ProductIDs {
		if seen[id] {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate product in order")
		}
		seen[id] = true
	}

	products, err := s.catalog.FindActiveByIDs(ctx, input.ProductIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	byID := map[uuid.UUID]models.Product{}
	for _, product := range products {
		byID[product.ID] = product
	}
	for _, id := range input.ProductIDs {
		if _, ok := byID[id]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound,
				fmt.Sprintf("product %s not found or inactive", id))
		}
	}

	now := time.Now().UTC()
	order := &models.Order{
		CustomerID:    input.CustomerID,
		Currency:      currency,
		PaymentStatus: enums.PaymentStatusPending,
		PaymentMethod: input.PaymentMethod,
		OrderedAt:     now,
	}
	for _, id := range input.ProductIDs {
		product := byID[id]
		order.Items = append(order.Items, models.OrderLineItem{
			ProductID:      product.ID,
			VendorID:       product.VendorID,
			Title:          product.Title,
			UnitPriceCents: product.PriceCents,
		})
		order.TotalCents += product.PriceCents
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		if _, err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.CustomerID},
			Data: payloads.OrderCreatedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				CustomerID:  order.CustomerID,
				TotalCents:  order.TotalCents,
				Currency:    string(order.Currency),
				ItemCount:   len(order.Items),
				CreatedAt:   now,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithOrderID(s.logg.WithUserID(ctx, input.CustomerID.String()), order.ID.String())
	s.logg.Info(logCtx, "order created")
	return order, nil
}
