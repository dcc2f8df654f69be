package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/digishelf/digishelf-backend/pkg/db/models"
	"github.com/digishelf/digishelf-backend/pkg/enums"
)

// LineItemView exposes a purchased item, including its license key once the
// order has settled.
type LineItemView struct {
	ID             uuid.UUID `json:"id"`
	ProductID      uuid.UUID `json:"product_id"`
	Title          string    `json:"title"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	LicenseKey     string    `json:"license_key,omitempty"`
}

// OrderView is the customer-facing order read model.
type OrderView struct {
	ID                 uuid.UUID           `json:"id"`
	OrderNumber        int64               `json:"order_number"`
	TotalCents         int64               `json:"total_cents"`
	Currency           enums.Currency      `json:"currency"`
	PaymentStatus      enums.PaymentStatus `json:"payment_status"`
	PaymentMethod      enums.PaymentMethod `json:"payment_method"`
	DownloadsAvailable bool                `json:"downloads_available"`
	Items              []LineItemView      `json:"items"`
	OrderedAt          time.Time           `json:"ordered_at"`
}

// OrderList wraps the paginated orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderView `json:"orders"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

// NewOrderView maps the persistence model to the read model.
func NewOrderView(order models.Order) OrderView {
	items := make([]LineItemView, 0, len(order.Items))
	for _, item := range order.Items {
		view := LineItemView{
			ID:             item.ID,
			ProductID:      item.ProductID,
			Title:          item.Title,
			UnitPriceCents: item.UnitPriceCents,
		}
		// License keys are withheld until the order settles.
		if order.PaymentStatus == enums.PaymentStatusCompleted {
			view.LicenseKey = item.LicenseKey
		}
		items = append(items, view)
	}
	return OrderView{
		ID:                 order.ID,
		OrderNumber:        order.OrderNumber,
		TotalCents:         order.TotalCents,
		Currency:           order.Currency,
		PaymentStatus:      order.PaymentStatus,
		PaymentMethod:      order.PaymentMethod,
		DownloadsAvailable: order.DownloadsAvailable,
		Items:              items,
		OrderedAt:          order.OrderedAt,
	}
}
