package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shipflow-next/internal/constants"
	"github.com/shipflow-next/internal/courier"
	"github.com/shipflow-next/internal/models"
)

type bookingFixture struct {
	env      *testEnv
	client   *models.Client
	partner  *models.CourierPartner
	contract *models.ClientContract
	order    *models.Order
}

func newBookingFixture(t *testing.T, name string) *bookingFixture {
	t.Helper()
	env := newTestEnv(t, name)
	client := createTestClient(t, env, constants.SelectionPolicyCheapest)
	partner := createTestPartner(t, env, "fastship")
	contract := createTestContract(t, env, client.ID, partner.ID, 40, 20)
	createTestCredential(t, env, client.ID, partner.ID)
	order := createNewOrder(t, env, client.ID, "ORD-BOOK-1", constants.PaymentModeCOD, 1000, 0.6)
	return &bookingFixture{env: env, client: client, partner: partner, contract: contract, order: order}
}

func TestBookSuccess(t *testing.T) {
	f := newBookingFixture(t, "book_success")
	fundWallet(t, f.env, f.client.ID, 100)

	result, err := f.env.bookingSvc.Book(context.Background(), f.client, f.order.ID, f.contract.ID)
	if err != nil {
		t.Fatalf("book failed: %v", err)
	}
	if !result.Booked || result.AWBNumber != "AWB-ORD-BOOK-1" {
		t.Fatalf("result = %+v, want booked with AWB-ORD-BOOK-1", result)
	}
	if result.Partner != "fastship" {
		t.Fatalf("partner = %s, want fastship", result.Partner)
	}

	booked, err := f.env.orderSvc.Get(f.client.ID, f.order.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if booked.Status != constants.OrderStatusBooked {
		t.Fatalf("status = %s, want booked", booked.Status)
	}
	if booked.AWBNumber != "AWB-ORD-BOOK-1" || booked.ContractID == nil || *booked.ContractID != f.contract.ID {
		t.Fatalf("assignment not persisted: %+v", booked)
	}
	if got := booked.ForwardFreight.String(); got != "60.00" {
		t.Fatalf("forward freight = %s, want 60.00", got)
	}
	if got := booked.ForwardCODCharge.String(); got != "30.00" {
		t.Fatalf("forward cod charge = %s, want 30.00", got)
	}
	if got := booked.ForwardTax.String(); got != "16.20" {
		t.Fatalf("forward tax = %s, want 16.20", got)
	}
	if booked.BookingDate == nil {
		t.Fatal("booking date not set")
	}

	// Fixed per-order charge debited once, order value held provisionally.
	wallet, err := f.env.walletSvc.GetOrCreate(f.client.ID)
	if err != nil {
		t.Fatalf("get wallet failed: %v", err)
	}
	if got := wallet.Amount.String(); got != "98.00" {
		t.Fatalf("balance = %s, want 98.00", got)
	}
	if got := wallet.ProvisionalCODAmount.String(); got != "1000.00" {
		t.Fatalf("provisional = %s, want 1000.00", got)
	}
}

func TestBookAlreadyBookedIsBenign(t *testing.T) {
	f := newBookingFixture(t, "book_idempotent")
	fundWallet(t, f.env, f.client.ID, 100)

	if _, err := f.env.bookingSvc.Book(context.Background(), f.client, f.order.ID, f.contract.ID); err != nil {
		t.Fatalf("first book failed: %v", err)
	}
	logsBefore := countWalletLogs(t, f.env, f.client.ID)

	result, err := f.env.bookingSvc.Book(context.Background(), f.client, f.order.ID, f.contract.ID)
	if err != nil {
		t.Fatalf("second book failed: %v", err)
	}
	if !result.Booked || result.AWBNumber != "AWB-ORD-BOOK-1" || result.Message != "already assigned" {
		t.Fatalf("result = %+v, want existing assignment back", result)
	}
	if f.env.fake.createCalls != 1 {
		t.Fatalf("adapter calls = %d, want 1", f.env.fake.createCalls)
	}
	if after := countWalletLogs(t, f.env, f.client.ID); after != logsBefore {
		t.Fatalf("wallet logs grew from %d to %d on re-book", logsBefore, after)
	}
}

func TestBookInsufficientBalanceSkipsAdapter(t *testing.T) {
	f := newBookingFixture(t, "book_insufficient")
	// Wallet never funded; balance is zero.

	_, err := f.env.bookingSvc.Book(context.Background(), f.client, f.order.ID, f.contract.ID)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("got %v, want ErrInsufficientBalance", err)
	}
	if f.env.fake.createCalls != 0 {
		t.Fatalf("adapter called %d times despite empty wallet", f.env.fake.createCalls)
	}

	order, err := f.env.orderSvc.Get(f.client.ID, f.order.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if order.Status != constants.OrderStatusNew || order.AWBNumber != "" {
		t.Fatalf("order mutated: status=%s awb=%s", order.Status, order.AWBNumber)
	}
}

func TestBookAdapterFailureLeavesOrderClean(t *testing.T) {
	f := newBookingFixture(t, "book_adapter_failure")
	fundWallet(t, f.env, f.client.ID, 100)
	f.env.fake.createFn = func(*models.Order) (*courier.CreateOrderResult, error) {
		return nil, errors.New("pincode not serviceable")
	}

	if _, err := f.env.bookingSvc.Book(context.Background(), f.client, f.order.ID, f.contract.ID); err == nil {
		t.Fatal("expected booking error")
	}

	order, err := f.env.orderSvc.Get(f.client.ID, f.order.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if order.Status != constants.OrderStatusNew || order.AWBNumber != "" {
		t.Fatalf("order mutated: status=%s awb=%s", order.Status, order.AWBNumber)
	}
	if order.ShipmentBookingError != "pincode not serviceable" {
		t.Fatalf("booking error = %q, want courier message", order.ShipmentBookingError)
	}

	// No debit for a failed booking: only the recharge row exists.
	if n := countWalletLogs(t, f.env, f.client.ID); n != 1 {
		t.Fatalf("wallet log count = %d, want 1", n)
	}
}

func TestBookProcessingLeavesOrderUnbooked(t *testing.T) {
	f := newBookingFixture(t, "book_processing")
	fundWallet(t, f.env, f.client.ID, 100)
	f.env.fake.createFn = func(*models.Order) (*courier.CreateOrderResult, error) {
		return &courier.CreateOrderResult{Processing: true, Message: "awaiting manifest"}, nil
	}

	result, err := f.env.bookingSvc.Book(context.Background(), f.client, f.order.ID, f.contract.ID)
	if err != nil {
		t.Fatalf("book failed: %v", err)
	}
	if !result.Processing || result.Booked {
		t.Fatalf("result = %+v, want processing", result)
	}

	order, err := f.env.orderSvc.Get(f.client.ID, f.order.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if order.Status != constants.OrderStatusNew || order.AWBNumber != "" {
		t.Fatalf("order mutated: status=%s awb=%s", order.Status, order.AWBNumber)
	}
	if order.SubStatus != "booking_processing" {
		t.Fatalf("sub status = %q, want booking_processing", order.SubStatus)
	}
	if n := countWalletLogs(t, f.env, f.client.ID); n != 1 {
		t.Fatalf("wallet log count = %d, want 1", n)
	}
}

func TestCancelReversesBookingCharge(t *testing.T) {
	f := newBookingFixture(t, "book_cancel")
	fundWallet(t, f.env, f.client.ID, 100)

	if _, err := f.env.bookingSvc.Book(context.Background(), f.client, f.order.ID, f.contract.ID); err != nil {
		t.Fatalf("book failed: %v", err)
	}

	cancelled, err := f.env.bookingSvc.Cancel(context.Background(), f.client, f.order.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != constants.OrderStatusCancelled {
		t.Fatalf("status = %s, want cancelled", cancelled.Status)
	}
	if cancelled.AWBNumber != "" || cancelled.PartnerID != nil || cancelled.ContractID != nil {
		t.Fatalf("assignment not cleared: %+v", cancelled)
	}
	if cancelled.CancelCount != 1 {
		t.Fatalf("cancel count = %d, want 1", cancelled.CancelCount)
	}

	wallet, err := f.env.walletSvc.GetOrCreate(f.client.ID)
	if err != nil {
		t.Fatalf("get wallet failed: %v", err)
	}
	if got := wallet.Amount.String(); got != "100.00" {
		t.Fatalf("balance = %s, want restored 100.00", got)
	}
	if got := wallet.ProvisionalCODAmount.String(); got != "0.00" {
		t.Fatalf("provisional = %s, want 0.00", got)
	}

	// Cancelling again is a no-op.
	logsBefore := countWalletLogs(t, f.env, f.client.ID)
	again, err := f.env.bookingSvc.Cancel(context.Background(), f.client, f.order.ID)
	if err != nil {
		t.Fatalf("second cancel failed: %v", err)
	}
	if again.Status != constants.OrderStatusCancelled {
		t.Fatalf("status = %s, want cancelled", again.Status)
	}
	if after := countWalletLogs(t, f.env, f.client.ID); after != logsBefore {
		t.Fatalf("wallet logs grew from %d to %d on repeat cancel", logsBefore, after)
	}
}

func TestCancelUnbookedOrder(t *testing.T) {
	f := newBookingFixture(t, "book_cancel_unbooked")

	cancelled, err := f.env.bookingSvc.Cancel(context.Background(), f.client, f.order.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != constants.OrderStatusCancelled {
		t.Fatalf("status = %s, want cancelled", cancelled.Status)
	}
	// Nothing was booked, nothing to refund.
	if n := countWalletLogs(t, f.env, f.client.ID); n != 0 {
		t.Fatalf("wallet log count = %d, want 0", n)
	}
}

func TestCancelRejectedInTransit(t *testing.T) {
	f := newBookingFixture(t, "book_cancel_transit")
	f.order.Status = constants.OrderStatusInTransit
	f.order.AWBNumber = "AWB-TRANSIT"
	if err := f.env.db.Save(f.order).Error; err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if _, err := f.env.bookingSvc.Cancel(context.Background(), f.client, f.order.ID); !errors.Is(err, ErrCancelNotAllowed) {
		t.Fatalf("got %v, want ErrCancelNotAllowed", err)
	}
}

func TestBookForeignOrderNotFound(t *testing.T) {
	f := newBookingFixture(t, "book_foreign")
	stranger := createTestClient(t, f.env, constants.SelectionPolicyCheapest)
	fundWallet(t, f.env, stranger.ID, 100)

	if _, err := f.env.bookingSvc.Book(context.Background(), stranger, f.order.ID, f.contract.ID); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("got %v, want ErrOrderNotFound", err)
	}
}
