package withdrawals

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/digishelf/digishelf-backend/internal/vendors"
	"github.com/digishelf/digishelf-backend/pkg/db/models"
	"github.com/digishelf/digishelf-backend/pkg/enums"
	pkgerrors "github.com/digishelf/digishelf-backend/pkg/errors"
	"github.com/digishelf/digishelf-backend/pkg/logger"
	"github.com/digishelf/digishelf-backend/pkg/outbox"
	"github.com/digishelf/digishelf-backend/pkg/pagination"
)

type fakeStore struct {
	vendors     map[uuid.UUID]*models.Vendor
	withdrawals map[uuid.UUID]*models.Withdrawal
	events      []outbox.DomainEvent
	notes       []uuid.UUID
	decideWins  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		vendors:     map[uuid.UUID]*models.Vendor{},
		withdrawals: map[uuid.UUID]*models.Withdrawal{},
		decideWins:  true,
	}
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func (f *fakeStore) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	for _, existing := range f.events {
		if existing.EventType == event.EventType && existing.AggregateID == event.AggregateID {
			return nil
		}
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeStore) Notify(ctx context.Context, userID uuid.UUID, ntype enums.NotificationType, title, message string, link *string) {
	f.notes = append(f.notes, userID)
}

type fakeWithdrawalsRepo struct{ store *fakeStore }

func (r *fakeWithdrawalsRepo) WithTx(tx *gorm.DB) Repository { return r }

func (r *fakeWithdrawalsRepo) Create(ctx context.Context, withdrawal *models.Withdrawal) (*models.Withdrawal, error) {
	if withdrawal.ID == uuid.Nil {
		withdrawal.ID = uuid.New()
	}
	copied := *withdrawal
	r.store.withdrawals[withdrawal.ID] = &copied
	return withdrawal, nil
}

func (r *fakeWithdrawalsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	withdrawal, ok := r.store.withdrawals[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "withdrawal not found")
	}
	copied := *withdrawal
	return &copied, nil
}

func (r *fakeWithdrawalsRepo) SumReserved(ctx context.Context, vendorID uuid.UUID) (int64, error) {
	var total int64
	for _, w := range r.store.withdrawals {
		if w.VendorID == vendorID && w.Status.Reserves() {
			total += w.AmountCents
		}
	}
	return total, nil
}

func (r *fakeWithdrawalsRepo) Decide(ctx context.Context, id uuid.UUID, status enums.WithdrawalStatus, reviewerID uuid.UUID, notes *string, at time.Time) (bool, error) {
	withdrawal, ok := r.store.withdrawals[id]
	if !ok || !r.store.decideWins || withdrawal.Status != enums.WithdrawalStatusPending {
		return false, nil
	}
	withdrawal.Status = status
	withdrawal.ReviewerID = &reviewerID
	withdrawal.ProcessedAt = &at
	withdrawal.Notes = notes
	return true, nil
}

func (r *fakeWithdrawalsRepo) ListVendorWithdrawals(ctx context.Context, vendorID uuid.UUID, params pagination.Params) ([]models.Withdrawal, string, error) {
	var rows []models.Withdrawal
	for _, w := range r.store.withdrawals {
		if w.VendorID == vendorID {
			rows = append(rows, *w)
		}
	}
	return rows, "", nil
}

type fakeVendorsRepo struct{ store *fakeStore }

func (r *fakeVendorsRepo) WithTx(tx *gorm.DB) vendors.Repository { return r }

func (r *fakeVendorsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	vendor, ok := r.store.vendors[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
	}
	copied := *vendor
	return &copied, nil
}

func (r *fakeVendorsRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeVendorsRepo) CreditSale(ctx context.Context, vendorID uuid.UUID, netCents int64) error {
	panic("not implemented")
}

func newTestService(t *testing.T, store *fakeStore) Service {
	t.Helper()
	svc, err := NewService(
		&fakeWithdrawalsRepo{store: store},
		&fakeVendorsRepo{store: store},
		store,
		store,
		store,
		logger.New(logger.Options{ServiceName: "withdrawals-test"}),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedVendor(store *fakeStore, earningsCents int64) *models.Vendor {
	vendor := &models.Vendor{
		ID:                 uuid.New(),
		UserID:             uuid.New(),
		Name:               "vendor",
		TotalEarningsCents: earningsCents,
	}
	store.vendors[vendor.ID] = vendor
	return vendor
}

func seedWithdrawal(store *fakeStore, vendorID uuid.UUID, amountCents int64, status enums.WithdrawalStatus) *models.Withdrawal {
	withdrawal := &models.Withdrawal{
		ID:            uuid.New(),
		VendorID:      vendorID,
		AmountCents:   amountCents,
		Status:        status,
		PayoutDetails: "bank ****1234",
		RequestedAt:   time.Now().UTC(),
	}
	store.withdrawals[withdrawal.ID] = withdrawal
	return withdrawal
}

func TestRequestWithinAvailableBalance(t *testing.T) {
	store := newFakeStore()
	vendor := seedVendor(store, 50000) // $500 earned
	seedWithdrawal(store, vendor.ID, 20000, enums.WithdrawalStatusPending)
	svc := newTestService(t, store)

	// $500 - $200 pending = $300 available; $300 must succeed.
	withdrawal, err := svc.Request(context.Background(), RequestInput{
		VendorID:      vendor.ID,
		AmountCents:   30000,
		PayoutDetails: "bank ****1234",
		ActorUserID:   vendor.UserID,
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if withdrawal.Status != enums.WithdrawalStatusPending {
		t.Errorf("status = %s, want pending", withdrawal.Status)
	}
	if len(store.events) != 1 || store.events[0].EventType != enums.EventWithdrawalRequested {
		t.Fatalf("expected one withdrawal_requested event, got %v", store.events)
	}
}

func TestRequestExceedingAvailableBalance(t *testing.T) {
	store := newFakeStore()
	vendor := seedVendor(store, 50000)
	seedWithdrawal(store, vendor.ID, 20000, enums.WithdrawalStatusPending)
	svc := newTestService(t, store)

	// $500 - $200 pending = $300 available; $350 must be rejected.
	_, err := svc.Request(context.Background(), RequestInput{
		VendorID:      vendor.ID,
		AmountCents:   35000,
		PayoutDetails: "bank ****1234",
		ActorUserID:   vendor.UserID,
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected insufficient balance validation error, got %v", err)
	}
	if len(store.withdrawals) != 1 {
		t.Error("rejected request still created a withdrawal")
	}
}

func TestRequestCountsApprovedAsReserved(t *testing.T) {
	store := newFakeStore()
	vendor := seedVendor(store, 50000)
	seedWithdrawal(store, vendor.ID, 20000, enums.WithdrawalStatusApproved)
	seedWithdrawal(store, vendor.ID, 10000, enums.WithdrawalStatusRejected)
	svc := newTestService(t, store)

	// Approved reserves, rejected does not: $500 - $200 = $300 available.
	if _, err := svc.Request(context.Background(), RequestInput{
		VendorID:      vendor.ID,
		AmountCents:   30001,
		PayoutDetails: "bank ****1234",
	}); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error above available, got %v", err)
	}
	if _, err := svc.Request(context.Background(), RequestInput{
		VendorID:      vendor.ID,
		AmountCents:   30000,
		PayoutDetails: "bank ****1234",
	}); err != nil {
		t.Fatalf("request at exact available balance: %v", err)
	}
}

func TestRequestValidation(t *testing.T) {
	store := newFakeStore()
	vendor := seedVendor(store, 10000)
	svc := newTestService(t, store)

	cases := []RequestInput{
		{VendorID: uuid.Nil, AmountCents: 100, PayoutDetails: "x"},
		{VendorID: vendor.ID, AmountCents: 0, PayoutDetails: "x"},
		{VendorID: vendor.ID, AmountCents: -5, PayoutDetails: "x"},
		{VendorID: vendor.ID, AmountCents: 100, PayoutDetails: "  "},
	}
	for i, input := range cases {
		if _, err := svc.Request(context.Background(), input); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
			t.Errorf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestDecideApprove(t *testing.T) {
	store := newFakeStore()
	vendor := seedVendor(store, 50000)
	withdrawal := seedWithdrawal(store, vendor.ID, 20000, enums.WithdrawalStatusPending)
	svc := newTestService(t, store)

	reviewer := uuid.New()
	decided, err := svc.Decide(context.Background(), DecideInput{
		WithdrawalID: withdrawal.ID,
		Outcome:      OutcomeApprove,
		ReviewerID:   reviewer,
	})
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if decided.Status != enums.WithdrawalStatusApproved {
		t.Errorf("status = %s, want approved", decided.Status)
	}
	if decided.ProcessedAt == nil {
		t.Error("processed date not stamped")
	}
	if decided.ReviewerID == nil || *decided.ReviewerID != reviewer {
		t.Error("reviewer not recorded")
	}
	if len(store.events) != 1 || store.events[0].EventType != enums.EventWithdrawalDecided {
		t.Fatalf("expected withdrawal_decided event, got %v", store.events)
	}
	if len(store.notes) != 1 || store.notes[0] != vendor.UserID {
		t.Error("vendor was not notified of outcome")
	}

	// Decided rows must stay terminal.
	if _, err := svc.Decide(context.Background(), DecideInput{
		WithdrawalID: withdrawal.ID,
		Outcome:      OutcomeReject,
		ReviewerID:   reviewer,
	}); !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected already-processed conflict, got %v", err)
	}
}

func TestDecideRejectFreesBalance(t *testing.T) {
	store := newFakeStore()
	vendor := seedVendor(store, 50000)
	withdrawal := seedWithdrawal(store, vendor.ID, 20000, enums.WithdrawalStatusPending)
	svc := newTestService(t, store)

	if _, err := svc.Decide(context.Background(), DecideInput{
		WithdrawalID: withdrawal.ID,
		Outcome:      OutcomeReject,
		ReviewerID:   uuid.New(),
	}); err != nil {
		t.Fatalf("decide: %v", err)
	}

	available, err := svc.AvailableBalance(context.Background(), vendor.ID)
	if err != nil {
		t.Fatalf("available balance: %v", err)
	}
	if available != 50000 {
		t.Errorf("available = %d after rejection, want 50000", available)
	}
}

func TestDecideLoserOfConcurrentRace(t *testing.T) {
	store := newFakeStore()
	vendor := seedVendor(store, 50000)
	withdrawal := seedWithdrawal(store, vendor.ID, 20000, enums.WithdrawalStatusPending)
	store.decideWins = false
	svc := newTestService(t, store)

	_, err := svc.Decide(context.Background(), DecideInput{
		WithdrawalID: withdrawal.ID,
		Outcome:      OutcomeApprove,
		ReviewerID:   uuid.New(),
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected conflict for race loser, got %v", err)
	}
	if len(store.events) != 0 {
		t.Error("race loser emitted an event")
	}
}

func TestReservationNeverExceedsEarnings(t *testing.T) {
	store := newFakeStore()
	vendor := seedVendor(store, 100000)
	svc := newTestService(t, store)

	amounts := []int64{40000, 30000, 20000, 10000, 5000}
	for _, amount := range amounts {
		_, _ = svc.Request(context.Background(), RequestInput{
			VendorID:      vendor.ID,
			AmountCents:   amount,
			PayoutDetails: "bank ****1234",
		})
	}

	var reserved int64
	for _, w := range store.withdrawals {
		if w.Status.Reserves() {
			reserved += w.AmountCents
		}
	}
	if reserved > vendor.TotalEarningsCents {
		t.Fatalf("reserved %d exceeds earnings %d", reserved, vendor.TotalEarningsCents)
	}
}
