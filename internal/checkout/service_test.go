package checkout

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/digishelf/digishelf-backend/internal/catalog"
	"github.com/digishelf/digishelf-backend/internal/orders"
	"github.com/digishelf/digishelf-backend/pkg/db/models"
	"github.com/digishelf/digishelf-backend/pkg/enums"
	pkgerrors "github.com/digishelf/digishelf-backend/pkg/errors"
	"github.com/digishelf/digishelf-backend/pkg/logger"
	"github.com/digishelf/digishelf-backend/pkg/outbox"
	"github.com/digishelf/digishelf-backend/pkg/pagination"
)

type fakeCatalog struct {
	products map[uuid.UUID]models.Product
}

func (f *fakeCatalog) WithTx(tx *gorm.DB) catalog.Repository { return f }

func (f *fakeCatalog) FindActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var out []models.Product
	for _, id := range ids {
		if product, ok := f.products[id]; ok && product.Active {
			out = append(out, product)
		}
	}
	return out, nil
}

type fakeOrders struct {
	created *models.Order
}

func (f *fakeOrders) WithTx(tx *gorm.DB) orders.Repository { return f }

func (f *fakeOrders) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	order.OrderNumber = 42
	f.created = order
	return order, nil
}

func (f *fakeOrders) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	panic("not implemented")
}

func (f *fakeOrders) MarkCompleted(ctx context.Context, id uuid.UUID, ref string) (bool, error) {
	panic("not implemented")
}

func (f *fakeOrders) MarkFailed(ctx context.Context, id uuid.UUID) (bool, error) {
	panic("not implemented")
}

func (f *fakeOrders) SetLineItemLicense(ctx context.Context, lineItemID uuid.UUID, licenseKey string) error {
	panic("not implemented")
}

func (f *fakeOrders) LicenseKeyExists(ctx context.Context, licenseKey string) (bool, error) {
	panic("not implemented")
}

func (f *fakeOrders) ListCustomerOrders(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	panic("not implemented")
}

type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeOutbox struct {
	events []outbox.DomainEvent
}

func (f *fakeOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

func seedProduct(cat *fakeCatalog, priceCents int64, active bool) models.Product {
	product := models.Product{
		ID:         uuid.New(),
		VendorID:   uuid.New(),
		Title:      "digital item",
		PriceCents: priceCents,
		Active:     active,
	}
	cat.products[product.ID] = product
	return product
}

func newTestCheckout(t *testing.T) (Service, *fakeCatalog, *fakeOrders, *fakeOutbox) {
	t.Helper()
	cat := &fakeCatalog{products: map[uuid.UUID]models.Product{}}
	ordersRepo := &fakeOrders{}
	ob := &fakeOutbox{}
	svc, err := NewService(cat, ordersRepo, fakeTx{}, ob, logger.New(logger.Options{ServiceName: "checkout-test"}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, cat, ordersRepo, ob
}

func TestCreateOrderSnapshotsPricesAndTotals(t *testing.T) {
	svc, cat, ordersRepo, ob := newTestCheckout(t)
	first := seedProduct(cat, 2500, true)
	second := seedProduct(cat, 999, true)

	order, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID:    uuid.New(),
		ProductIDs:    []uuid.UUID{first.ID, second.ID},
		PaymentMethod: enums.PaymentMethodCard,
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if order.PaymentStatus != enums.PaymentStatusPending {
		t.Errorf("status = %s, want pending", order.PaymentStatus)
	}
	if order.TotalCents != 3499 {
		t.Errorf("total = %d, want 3499", order.TotalCents)
	}
	var itemTotal int64
	for _, item := range order.Items {
		itemTotal += item.UnitPriceCents
		if item.LicenseKey != "" {
			t.Error("license issued at checkout")
		}
	}
	if itemTotal != order.TotalCents {
		t.Errorf("total %d does not equal item sum %d", order.TotalCents, itemTotal)
	}
	if ordersRepo.created == nil {
		t.Fatal("order not persisted")
	}
	if len(ob.events) != 1 || ob.events[0].EventType != enums.EventOrderCreated {
		t.Fatalf("expected order_created event, got %v", ob.events)
	}

	// A later price change must not affect the stored snapshot.
	changed := cat.products[first.ID]
	changed.PriceCents = 9999
	cat.products[first.ID] = changed
	if ordersRepo.created.Items[0].UnitPriceCents == 9999 {
		t.Error("order snapshot follows live catalog price")
	}
}

func TestCreateOrderRejectsUnknownOrInactiveProducts(t *testing.T) {
	svc, cat, _, _ := newTestCheckout(t)
	inactive := seedProduct(cat, 1000, false)

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID:    uuid.New(),
		ProductIDs:    []uuid.UUID{inactive.ID},
		PaymentMethod: enums.PaymentMethodCard,
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for inactive product, got %v", err)
	}

	_, err = svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID:    uuid.New(),
		ProductIDs:    []uuid.UUID{uuid.New()},
		PaymentMethod: enums.PaymentMethodCard,
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for unknown product, got %v", err)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	svc, cat, _, _ := newTestCheckout(t)
	product := seedProduct(cat, 1000, true)

	cases := []CreateOrderInput{
		{CustomerID: uuid.Nil, ProductIDs: []uuid.UUID{product.ID}, PaymentMethod: enums.PaymentMethodCard},
		{CustomerID: uuid.New(), ProductIDs: nil, PaymentMethod: enums.PaymentMethodCard},
		{CustomerID: uuid.New(), ProductIDs: []uuid.UUID{product.ID}, PaymentMethod: "cash"},
		{CustomerID: uuid.New(), ProductIDs: []uuid.UUID{product.ID, product.ID}, PaymentMethod: enums.PaymentMethodCard},
	}
	for i, input := range cases {
		if _, err := svc.CreateOrder(context.Background(), input); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
			t.Errorf("case %d: expected validation error, got %v", i, err)
		}
	}
}
