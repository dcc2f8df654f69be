package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/digishelf/digishelf-backend/pkg/db/models"
	"github.com/digishelf/digishelf-backend/pkg/enums"
	pkgerrors "github.com/digishelf/digishelf-backend/pkg/errors"
	"github.com/digishelf/digishelf-backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number INTEGER NOT NULL DEFAULT 0,
  customer_id TEXT NOT NULL,
  total_cents INTEGER NOT NULL,
  currency TEXT NOT NULL DEFAULT 'USD',
  payment_status TEXT NOT NULL DEFAULT 'pending',
  payment_method TEXT NOT NULL DEFAULT 'card',
  external_tx_ref TEXT,
  downloads_available INTEGER NOT NULL DEFAULT 0,
  ordered_at DATETIME NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	orderLineItems := `
CREATE TABLE IF NOT EXISTS order_line_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  vendor_id TEXT NOT NULL,
  title TEXT NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  license_key TEXT NOT NULL DEFAULT '',
  created_at DATETIME,
  updated_at DATETIME
);`

	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(orderLineItems).Error)
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, customerID uuid.UUID, orderNumber int64, orderedAt time.Time) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:            uuid.New(),
		OrderNumber:   orderNumber,
		CustomerID:    customerID,
		TotalCents:    4998,
		Currency:      enums.CurrencyUSD,
		PaymentStatus: enums.PaymentStatusPending,
		PaymentMethod: enums.PaymentMethodCard,
		Items: []models.OrderLineItem{
			{
				ID:             uuid.New(),
				ProductID:      uuid.New(),
				VendorID:       uuid.New(),
				Title:          "Synth Preset Pack",
				UnitPriceCents: 2499,
			},
			{
				ID:             uuid.New(),
				ProductID:      uuid.New(),
				VendorID:       uuid.New(),
				Title:          "Drum Sample Kit",
				UnitPriceCents: 2499,
			},
		},
		OrderedAt: orderedAt,
		CreatedAt: orderedAt,
		UpdatedAt: orderedAt,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestRepositoryFindByIDPreloadsItems(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	customerID := uuid.New()
	seeded := seedOrder(t, db, customerID, 1001, time.Now().UTC())

	found, err := repo.FindByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, found.ID)
	assert.Equal(t, customerID, found.CustomerID)
	require.Len(t, found.Items, 2)
	assert.Equal(t, int64(4998), found.TotalCents)

	_, err = repo.FindByID(context.Background(), uuid.New())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestRepositoryMarkCompletedWinsExactlyOnce(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	seeded := seedOrder(t, db, uuid.New(), 1002, time.Now().UTC())

	won, err := repo.MarkCompleted(context.Background(), seeded.ID, "ch_777")
	require.NoError(t, err)
	assert.True(t, won)

	// The conditional update ensures a redelivered capture cannot win twice.
	won, err = repo.MarkCompleted(context.Background(), seeded.ID, "ch_777")
	require.NoError(t, err)
	assert.False(t, won)

	found, err := repo.FindByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusCompleted, found.PaymentStatus)
	require.NotNil(t, found.ExternalTxRef)
	assert.Equal(t, "ch_777", *found.ExternalTxRef)
	assert.True(t, found.DownloadsAvailable)
}

func TestRepositoryMarkFailedOnlyFromPending(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	seeded := seedOrder(t, db, uuid.New(), 1003, time.Now().UTC())

	won, err := repo.MarkCompleted(context.Background(), seeded.ID, "ch_1")
	require.NoError(t, err)
	require.True(t, won)

	won, err = repo.MarkFailed(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.False(t, won, "completed order must not transition to failed")
}

func TestRepositorySetLineItemLicenseIsWriteOnce(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	seeded := seedOrder(t, db, uuid.New(), 1004, time.Now().UTC())
	lineItemID := seeded.Items[0].ID

	require.NoError(t, repo.SetLineItemLicense(context.Background(), lineItemID, "AB12-CD34-EF56-GH78"))

	err := repo.SetLineItemLicense(context.Background(), lineItemID, "ZZ99-ZZ99-ZZ99-ZZ99")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))

	exists, err := repo.LicenseKeyExists(context.Background(), "AB12-CD34-EF56-GH78")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.LicenseKeyExists(context.Background(), "ZZ99-ZZ99-ZZ99-ZZ99")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRepositoryListCustomerOrdersPaginates(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	customerID := uuid.New()

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		seedOrder(t, db, customerID, int64(2000+i), base.Add(time.Duration(i)*time.Minute))
	}
	seedOrder(t, db, uuid.New(), 3000, base)

	page, next, err := repo.ListCustomerOrders(context.Background(), customerID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.NotEmpty(t, next)
	assert.Equal(t, int64(2002), page[0].OrderNumber, "newest order first")

	rest, next, err := repo.ListCustomerOrders(context.Background(), customerID, pagination.Params{Limit: 2, Cursor: next})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Empty(t, next)
	assert.Equal(t, int64(2000), rest[0].OrderNumber)

	for _, order := range append(page, rest...) {
		assert.Equal(t, customerID, order.CustomerID)
	}
}
