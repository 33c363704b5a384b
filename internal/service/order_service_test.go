package service

import (
	"errors"
	"testing"

	"github.com/shipflow-next/internal/constants"
	"github.com/shipflow-next/internal/repository"
)

func TestCreateOrder(t *testing.T) {
	env := newTestEnv(t, "order_create")
	seedPincodes(t, env)
	client := createTestClient(t, env, constants.SelectionPolicyCheapest)

	order, err := env.orderSvc.Create(client, CreateOrderInput{
		OrderID:          "ORD-1001",
		ConsigneeName:    "Asha Verma",
		ConsigneeAddress: "12 MG Road",
		ConsigneeCity:    "Pune",
		ConsigneeState:   "Maharashtra",
		ConsigneePincode: "411001",
		PickupPincode:    "400001",
		PaymentMode:      "cash on delivery",
		TotalAmount:      "1499.00",
		Weight:           "0.400",
		LengthCM:         20,
		BreadthCM:        15,
		HeightCM:         10,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if order.PaymentMode != constants.PaymentModeCOD {
		t.Fatalf("payment mode = %s, want COD", order.PaymentMode)
	}
	if order.Zone != constants.ZoneB {
		t.Fatalf("zone = %s, want B", order.Zone)
	}
	if order.Status != constants.OrderStatusNew {
		t.Fatalf("status = %s, want new", order.Status)
	}
	// Volumetric 20*15*10/5000 = 0.6kg beats the 0.4kg dead weight.
	if got := order.VolumetricWeight.String(); got != "0.600" {
		t.Fatalf("volumetric weight = %s, want 0.600", got)
	}
	if got := order.ApplicableWeight.String(); got != "0.600" {
		t.Fatalf("applicable weight = %s, want 0.600", got)
	}
	if len(order.ActionHistory) != 1 || order.ActionHistory[0].Action != "order_created" {
		t.Fatalf("action history = %+v, want single order_created entry", order.ActionHistory)
	}
}

func TestCreateOrderDeadWeightWins(t *testing.T) {
	env := newTestEnv(t, "order_dead_weight")
	seedPincodes(t, env)
	client := createTestClient(t, env, constants.SelectionPolicyCheapest)

	order, err := env.orderSvc.Create(client, CreateOrderInput{
		OrderID:          "ORD-1002",
		ConsigneeName:    "Asha Verma",
		ConsigneeAddress: "12 MG Road",
		ConsigneePincode: "411001",
		PickupPincode:    "400001",
		PaymentMode:      "prepaid",
		TotalAmount:      "500.00",
		Weight:           "2.000",
		LengthCM:         10,
		BreadthCM:        10,
		HeightCM:         10,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if got := order.ApplicableWeight.String(); got != "2.000" {
		t.Fatalf("applicable weight = %s, want 2.000", got)
	}
}

func TestCreateOrderDuplicateNumber(t *testing.T) {
	env := newTestEnv(t, "order_duplicate")
	seedPincodes(t, env)
	client := createTestClient(t, env, constants.SelectionPolicyCheapest)
	other := createTestClient(t, env, constants.SelectionPolicyCheapest)

	input := CreateOrderInput{
		OrderID:          "ORD-DUP",
		ConsigneeName:    "Asha Verma",
		ConsigneeAddress: "12 MG Road",
		ConsigneePincode: "411001",
		PickupPincode:    "400001",
		PaymentMode:      "prepaid",
		TotalAmount:      "500.00",
		Weight:           "1.000",
	}
	if _, err := env.orderSvc.Create(client, input); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if _, err := env.orderSvc.Create(client, input); !errors.Is(err, ErrOrderExists) {
		t.Fatalf("duplicate: got %v, want ErrOrderExists", err)
	}
	// Same order number under a different client is fine.
	if _, err := env.orderSvc.Create(other, input); err != nil {
		t.Fatalf("create for other client failed: %v", err)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	env := newTestEnv(t, "order_validation")
	seedPincodes(t, env)
	client := createTestClient(t, env, constants.SelectionPolicyCheapest)

	base := CreateOrderInput{
		OrderID:          "ORD-VAL",
		ConsigneeName:    "Asha Verma",
		ConsigneeAddress: "12 MG Road",
		ConsigneePincode: "411001",
		PickupPincode:    "400001",
		PaymentMode:      "prepaid",
		TotalAmount:      "500.00",
		Weight:           "1.000",
	}

	cases := []struct {
		name   string
		mutate func(*CreateOrderInput)
	}{
		{"blank order id", func(in *CreateOrderInput) { in.OrderID = "  " }},
		{"unknown payment mode", func(in *CreateOrderInput) { in.PaymentMode = "barter" }},
		{"negative amount", func(in *CreateOrderInput) { in.TotalAmount = "-5" }},
		{"zero weight", func(in *CreateOrderInput) { in.Weight = "0" }},
		{"unparsable weight", func(in *CreateOrderInput) { in.Weight = "heavy" }},
	}
	for _, tc := range cases {
		input := base
		tc.mutate(&input)
		if _, err := env.orderSvc.Create(client, input); !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: got %v, want ErrValidation", tc.name, err)
		}
	}
}

func TestGetOrderScopedToOwner(t *testing.T) {
	env := newTestEnv(t, "order_get_scope")
	client := createTestClient(t, env, constants.SelectionPolicyCheapest)
	other := createTestClient(t, env, constants.SelectionPolicyCheapest)
	order := createNewOrder(t, env, client.ID, "ORD-SCOPE", constants.PaymentModePrepaid, 500, 1)

	got, err := env.orderSvc.Get(client.ID, order.ID)
	if err != nil {
		t.Fatalf("owner get failed: %v", err)
	}
	if got.OrderID != "ORD-SCOPE" {
		t.Fatalf("order id = %s, want ORD-SCOPE", got.OrderID)
	}
	if _, err := env.orderSvc.Get(other.ID, order.ID); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("cross-client get: got %v, want ErrOrderNotFound", err)
	}
}

func TestListOrdersFilters(t *testing.T) {
	env := newTestEnv(t, "order_list")
	client := createTestClient(t, env, constants.SelectionPolicyCheapest)
	createNewOrder(t, env, client.ID, "ORD-L1", constants.PaymentModePrepaid, 500, 1)
	codOrder := createNewOrder(t, env, client.ID, "ORD-L2", constants.PaymentModeCOD, 900, 1)
	codOrder.Status = constants.OrderStatusBooked
	if err := env.db.Save(codOrder).Error; err != nil {
		t.Fatalf("save failed: %v", err)
	}

	orders, total, err := env.orderSvc.List(repository.OrderListFilter{
		ClientID: client.ID,
		Status:   constants.OrderStatusBooked,
	})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(orders) != 1 || orders[0].OrderID != "ORD-L2" {
		t.Fatalf("filtered list = %d rows (total %d), want single ORD-L2", len(orders), total)
	}
}
