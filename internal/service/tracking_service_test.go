package service

import (
	"errors"
	"testing"

	"github.com/shipflow-next/internal/constants"
	"github.com/shipflow-next/internal/courier"
	"github.com/shipflow-next/internal/models"
)

type trackingFixture struct {
	env      *testEnv
	client   *models.Client
	contract *models.ClientContract
	order    *models.Order
}

func newTrackingFixture(t *testing.T, name string) *trackingFixture {
	t.Helper()
	env := newTestEnv(t, name)
	client := createTestClient(t, env, constants.SelectionPolicyCheapest)
	partner := createTestPartner(t, env, "fastship")
	contract := createTestContract(t, env, client.ID, partner.ID, 40, 20)
	order := bookedCODOrder(t, env, client.ID, contract, "ORD-TRK-1", "AWB-TRK-1", 1200)
	return &trackingFixture{env: env, client: client, contract: contract, order: order}
}

func deliveredFeed() []courier.TrackingEvent {
	return []courier.TrackingEvent{
		{Status: "Out For Pickup", Datetime: "2026-08-20 09:00:00"},
		{Status: "Picked Up", Datetime: "2026-08-20 13:00:00"},
		{Status: "In Transit", Datetime: "2026-08-21 08:00:00", Location: "BOM Hub"},
		{Status: "Out For Delivery", Datetime: "2026-08-22 09:30:00"},
		{Status: "Delivered", Datetime: "2026-08-22 15:45:00", Description: "signed by consignee"},
	}
}

func TestApplyEventsDeliveredFlow(t *testing.T) {
	f := newTrackingFixture(t, "trk_delivered")

	if err := f.env.trackingSvc.ApplyRawEvents(f.order.ID, deliveredFeed()); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	order, err := f.env.orderSvc.Get(f.client.ID, f.order.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if order.Status != constants.OrderStatusDelivered {
		t.Fatalf("status = %s, want delivered", order.Status)
	}
	if order.FirstOFPDate == nil || order.PickupCompletionDate == nil ||
		order.FirstOFDDate == nil || order.DeliveredDate == nil {
		t.Fatalf("milestones missing: %+v", order)
	}
	if got := order.DeliveredDate.Format("2006-01-02 15:04:05"); got != "2026-08-22 15:45:00" {
		t.Fatalf("delivered date = %s, want 2026-08-22 15:45:00", got)
	}
	if len(order.TrackingInfo) != 5 {
		t.Fatalf("feed length = %d, want 5", len(order.TrackingInfo))
	}

	// Delivery assigns the remittance cycle and realizes the COD.
	if order.CODRemittanceCycleID == nil {
		t.Fatal("remittance cycle not assigned")
	}
	cycle, err := f.env.remittanceSvc.Get(f.client.ID, *order.CODRemittanceCycleID)
	if err != nil {
		t.Fatalf("get cycle failed: %v", err)
	}
	if got := cycle.GeneratedCOD.String(); got != "1200.00" {
		t.Fatalf("generated cod = %s, want 1200.00", got)
	}
	if cycle.OrderCount != 1 {
		t.Fatalf("order count = %d, want 1", cycle.OrderCount)
	}

	wallet, err := f.env.walletSvc.GetOrCreate(f.client.ID)
	if err != nil {
		t.Fatalf("get wallet failed: %v", err)
	}
	if got := wallet.CODAmount.String(); got != "1200.00" {
		t.Fatalf("cod amount = %s, want 1200.00", got)
	}
}

func TestApplyEventsReplayIsIdempotent(t *testing.T) {
	f := newTrackingFixture(t, "trk_replay")

	if err := f.env.trackingSvc.ApplyRawEvents(f.order.ID, deliveredFeed()); err != nil {
		t.Fatalf("first apply failed: %v", err)
	}
	logsBefore := countWalletLogs(t, f.env, f.client.ID)

	// Reprocessing the identical feed changes nothing.
	for i := 0; i < 2; i++ {
		if err := f.env.trackingSvc.ApplyRawEvents(f.order.ID, deliveredFeed()); err != nil {
			t.Fatalf("replay %d failed: %v", i, err)
		}
	}

	order, err := f.env.orderSvc.Get(f.client.ID, f.order.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(order.TrackingInfo) != 5 {
		t.Fatalf("feed length = %d after replay, want 5", len(order.TrackingInfo))
	}
	if after := countWalletLogs(t, f.env, f.client.ID); after != logsBefore {
		t.Fatalf("wallet logs grew from %d to %d on replay", logsBefore, after)
	}
	cycle, err := f.env.remittanceSvc.Get(f.client.ID, *order.CODRemittanceCycleID)
	if err != nil {
		t.Fatalf("get cycle failed: %v", err)
	}
	if cycle.OrderCount != 1 || cycle.GeneratedCOD.String() != "1200.00" {
		t.Fatalf("cycle double counted: count=%d cod=%s", cycle.OrderCount, cycle.GeneratedCOD)
	}
}

func TestApplyEventsRTOFlow(t *testing.T) {
	f := newTrackingFixture(t, "trk_rto")

	events := []courier.TrackingEvent{
		{Status: "In Transit", Datetime: "2026-08-21 08:00:00"},
		{Status: "Undelivered", Datetime: "2026-08-22 14:00:00", Description: "consignee unavailable"},
		{Status: "RTO Initiated", Datetime: "2026-08-23 10:00:00"},
	}
	if err := f.env.trackingSvc.ApplyRawEvents(f.order.ID, events); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	order, err := f.env.orderSvc.Get(f.client.ID, f.order.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if order.Status != constants.OrderStatusRTO {
		t.Fatalf("status = %s, want rto", order.Status)
	}
	if order.RTOInitiatedDate == nil {
		t.Fatal("rto initiated date not set")
	}
	// Reverse leg priced off the booking contract: 0.5kg, zone B.
	if order.RTOFreight == nil || order.RTOFreight.String() != "40.00" {
		t.Fatalf("rto freight = %v, want 40.00", order.RTOFreight)
	}
	if order.RTOTax == nil || order.RTOTax.String() != "7.20" {
		t.Fatalf("rto tax = %v, want 7.20", order.RTOTax)
	}
	// Forward COD charge refunded and zeroed, tax recomputed on freight only.
	if got := order.ForwardCODCharge.String(); got != "0.00" {
		t.Fatalf("forward cod charge = %s, want 0.00", got)
	}
	if got := order.ForwardTax.String(); got != "7.20" {
		t.Fatalf("forward tax = %s, want 7.20", got)
	}

	// Wallet: credit 30*1.18 = 35.40, debit 40+7.20 = 47.20, net -11.80.
	wallet, err := f.env.walletSvc.GetOrCreate(f.client.ID)
	if err != nil {
		t.Fatalf("get wallet failed: %v", err)
	}
	if got := wallet.Amount.String(); got != "-11.80" {
		t.Fatalf("balance = %s, want -11.80", got)
	}

	// Replaying the feed never charges the return leg twice.
	logsBefore := countWalletLogs(t, f.env, f.client.ID)
	if err := f.env.trackingSvc.ApplyRawEvents(f.order.ID, events); err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if after := countWalletLogs(t, f.env, f.client.ID); after != logsBefore {
		t.Fatalf("wallet logs grew from %d to %d on replay", logsBefore, after)
	}
}

func TestApplyEventsDeliveredIsTerminal(t *testing.T) {
	f := newTrackingFixture(t, "trk_terminal")

	if err := f.env.trackingSvc.ApplyRawEvents(f.order.ID, deliveredFeed()); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	late := []courier.TrackingEvent{
		{Status: "RTO Initiated", Datetime: "2026-08-25 10:00:00"},
	}
	if err := f.env.trackingSvc.ApplyRawEvents(f.order.ID, late); err != nil {
		t.Fatalf("late apply failed: %v", err)
	}

	order, err := f.env.orderSvc.Get(f.client.ID, f.order.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if order.Status != constants.OrderStatusDelivered {
		t.Fatalf("status = %s, want delivered to stay terminal", order.Status)
	}
}

func TestApplyEventsMilestoneFirstOccurrenceWins(t *testing.T) {
	f := newTrackingFixture(t, "trk_first_ofd")

	events := []courier.TrackingEvent{
		{Status: "Out For Delivery", Datetime: "2026-08-22 09:30:00"},
		{Status: "Undelivered", Datetime: "2026-08-22 14:00:00"},
		{Status: "Out For Delivery", Datetime: "2026-08-23 09:30:00"},
	}
	if err := f.env.trackingSvc.ApplyRawEvents(f.order.ID, events); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	order, err := f.env.orderSvc.Get(f.client.ID, f.order.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if order.FirstOFDDate == nil {
		t.Fatal("first ofd date not set")
	}
	if got := order.FirstOFDDate.Format("2006-01-02 15:04:05"); got != "2026-08-22 09:30:00" {
		t.Fatalf("first ofd date = %s, want the earlier attempt", got)
	}
	if order.LastUpdateDate == nil || order.LastUpdateDate.Format("2006-01-02") != "2026-08-23" {
		t.Fatalf("last update date = %v, want latest event day", order.LastUpdateDate)
	}
}

func TestApplyEventsNdrVocabularyCreatesRecord(t *testing.T) {
	f := newTrackingFixture(t, "trk_ndr_vocab")

	events := []courier.TrackingEvent{
		{Status: "Non Delivery Report", Datetime: "2026-08-22 14:00:00"},
		{Status: "Customer Not Available", Datetime: "2026-08-23 10:00:00"},
		{Status: "Refused By Customer", Datetime: "2026-08-24 09:00:00"},
	}
	if err := f.env.trackingSvc.ApplyRawEvents(f.order.ID, events); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	order, err := f.env.orderSvc.Get(f.client.ID, f.order.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if order.Status != constants.OrderStatusNDR {
		t.Fatalf("status = %s, want ndr", order.Status)
	}
	if len(order.TrackingInfo) != 3 {
		t.Fatalf("feed length = %d, want all vocabulary spellings kept", len(order.TrackingInfo))
	}

	ndr := loadNdr(t, f.env, f.order.ID)
	if ndr.Status != constants.NdrStatusTakeAction || ndr.Attempt != 1 {
		t.Fatalf("ndr = %s/%d, want take_action/1", ndr.Status, ndr.Attempt)
	}
	history, err := f.env.ndrRepo.ListHistory(f.order.ID, ndr.ID)
	if err != nil {
		t.Fatalf("list history failed: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("history rows = %d, want 3", len(history))
	}
}

func TestNormalizeEventsOrdersUndatedLast(t *testing.T) {
	events := normalizeEvents([]courier.TrackingEvent{
		{Status: "Delivered", Datetime: "no clue when"},
		{Status: "In Transit", Datetime: "2026-08-21 08:00:00"},
		{Status: "Out For Pickup", Datetime: "2026-08-20 09:00:00"},
	})
	if len(events) != 3 {
		t.Fatalf("events = %d, want 3", len(events))
	}
	if events[0].Status != constants.TrackingStatusOutForPickup ||
		events[1].Status != constants.TrackingStatusInTransit {
		t.Fatalf("dated events out of order: %s, %s", events[0].Status, events[1].Status)
	}
	if events[2].Status != constants.TrackingStatusDelivered || events[2].HasDatetime {
		t.Fatalf("undated event not last: %+v", events[2])
	}
}

func TestApplyEventsUnknownStatusesDropped(t *testing.T) {
	f := newTrackingFixture(t, "trk_unknown")

	events := []courier.TrackingEvent{
		{Status: "quantum flux detected", Datetime: "2026-08-21 08:00:00"},
		{Status: "In Transit", Datetime: "2026-08-21 09:00:00"},
	}
	if err := f.env.trackingSvc.ApplyRawEvents(f.order.ID, events); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	order, err := f.env.orderSvc.Get(f.client.ID, f.order.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(order.TrackingInfo) != 1 || order.TrackingInfo[0].Status != constants.TrackingStatusInTransit {
		t.Fatalf("feed = %+v, want only the in_transit event", order.TrackingInfo)
	}
}

func TestApplyEventsSkipsCancelledOrder(t *testing.T) {
	f := newTrackingFixture(t, "trk_cancelled")
	f.order.Status = constants.OrderStatusCancelled
	if err := f.env.db.Save(f.order).Error; err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if err := f.env.trackingSvc.ApplyRawEvents(f.order.ID, deliveredFeed()); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	order, err := f.env.orderSvc.Get(f.client.ID, f.order.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(order.TrackingInfo) != 0 || order.Status != constants.OrderStatusCancelled {
		t.Fatalf("cancelled order mutated: %+v", order)
	}
}

func TestApplyForAWB(t *testing.T) {
	f := newTrackingFixture(t, "trk_awb")

	if err := f.env.trackingSvc.ApplyForAWB("AWB-TRK-1", []courier.TrackingEvent{
		{Status: "In Transit", Datetime: "2026-08-21 08:00:00"},
	}); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	order, err := f.env.orderSvc.Get(f.client.ID, f.order.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if order.Status != constants.OrderStatusInTransit {
		t.Fatalf("status = %s, want in_transit", order.Status)
	}

	err = f.env.trackingSvc.ApplyForAWB("AWB-NOPE", []courier.TrackingEvent{
		{Status: "In Transit", Datetime: "2026-08-21 08:00:00"},
	})
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("unknown awb: got %v, want ErrOrderNotFound", err)
	}
}
