package paymentwebhook

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/digishelf/digishelf-backend/internal/settlement"
	pkgerrors "github.com/digishelf/digishelf-backend/pkg/errors"
)

type fakeSettlement struct {
	calls  []settlement.CaptureEvent
	result *settlement.Result
	err    error
}

func (f *fakeSettlement) Settle(_ context.Context, event settlement.CaptureEvent) (*settlement.Result, error) {
	f.calls = append(f.calls, event)
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &settlement.Result{OrderID: event.OrderID}, nil
}

type fakeOrderFailer struct {
	failed []uuid.UUID
	won    bool
	err    error
}

func (f *fakeOrderFailer) MarkFailed(_ context.Context, id uuid.UUID) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.failed = append(f.failed, id)
	return f.won, nil
}

func newTestService(t *testing.T, settle *fakeSettlement, orders *fakeOrderFailer) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Settlement: settle, Orders: orders})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestHandleEventCapturedRoutesToSettlement(t *testing.T) {
	settle := &fakeSettlement{}
	svc := newTestService(t, settle, &fakeOrderFailer{won: true})

	orderID := uuid.New()
	customerID := uuid.New()
	err := svc.HandleEvent(context.Background(), &PaymentWebhookEvent{
		EventID: "evt_1",
		Type:    "payment.captured",
		Data: PaymentWebhookData{
			OrderID:       orderID,
			CustomerID:    customerID,
			ExternalTxRef: "ch_abc123",
		},
	})
	if err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(settle.calls) != 1 {
		t.Fatalf("expected one settlement call, got %d", len(settle.calls))
	}
	got := settle.calls[0]
	if got.OrderID != orderID || got.CustomerID != customerID || got.ExternalTxRef != "ch_abc123" {
		t.Fatalf("capture event not forwarded intact: %+v", got)
	}
}

func TestHandleEventCapturedPropagatesSettlementError(t *testing.T) {
	settle := &fakeSettlement{err: pkgerrors.New(pkgerrors.CodeStateConflict, "order in terminal state")}
	svc := newTestService(t, settle, &fakeOrderFailer{})

	err := svc.HandleEvent(context.Background(), &PaymentWebhookEvent{
		Type: "payment.captured",
		Data: PaymentWebhookData{OrderID: uuid.New()},
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestHandleEventCapturedAcknowledgesUnknownOrder(t *testing.T) {
	settle := &fakeSettlement{err: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}
	svc := newTestService(t, settle, &fakeOrderFailer{})

	err := svc.HandleEvent(context.Background(), &PaymentWebhookEvent{
		Type: "payment.captured",
		Data: PaymentWebhookData{OrderID: uuid.New()},
	})
	if err != nil {
		t.Fatalf("unknown order should be acknowledged, got %v", err)
	}
}

func TestHandleEventFailedMarksOrder(t *testing.T) {
	orders := &fakeOrderFailer{won: true}
	svc := newTestService(t, &fakeSettlement{}, orders)

	orderID := uuid.New()
	err := svc.HandleEvent(context.Background(), &PaymentWebhookEvent{
		Type: "payment.failed",
		Data: PaymentWebhookData{OrderID: orderID},
	})
	if err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(orders.failed) != 1 || orders.failed[0] != orderID {
		t.Fatalf("expected MarkFailed for %s, got %v", orderID, orders.failed)
	}
}

func TestHandleEventRejectsMissingOrderID(t *testing.T) {
	svc := newTestService(t, &fakeSettlement{}, &fakeOrderFailer{})

	for _, eventType := range []string{"payment.captured", "payment.failed"} {
		err := svc.HandleEvent(context.Background(), &PaymentWebhookEvent{Type: eventType})
		if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("%s: expected validation error, got %v", eventType, err)
		}
	}
}

func TestHandleEventIgnoresUnknownTypes(t *testing.T) {
	settle := &fakeSettlement{}
	orders := &fakeOrderFailer{}
	svc := newTestService(t, settle, orders)

	err := svc.HandleEvent(context.Background(), &PaymentWebhookEvent{
		Type: "payment.refund.created",
		Data: PaymentWebhookData{OrderID: uuid.New()},
	})
	if err != nil {
		t.Fatalf("unknown type should be acknowledged: %v", err)
	}
	if len(settle.calls) != 0 || len(orders.failed) != 0 {
		t.Fatal("unknown type must not trigger side effects")
	}
}

func TestHandleEventNilEventRejected(t *testing.T) {
	svc := newTestService(t, &fakeSettlement{}, &fakeOrderFailer{})
	if err := svc.HandleEvent(context.Background(), nil); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
