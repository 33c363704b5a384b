package service

import (
	"testing"
	"time"

	"github.com/shipflow-next/internal/constants"
	"github.com/shipflow-next/internal/models"
)

func setClientConfig(t *testing.T, env *testEnv, clientID uint, key, value string, version int) {
	t.Helper()
	row := models.ClientConfig{ClientID: clientID, Key: key, Value: value, Version: version}
	if err := env.db.Create(&row).Error; err != nil {
		t.Fatalf("create config failed: %v", err)
	}
}

func TestOrderChargeOverride(t *testing.T) {
	env := newTestEnv(t, "policy_order_charge")
	client := createTestClient(t, env, constants.SelectionPolicyCheapest)

	if got := env.policySvc.OrderCharge(client.ID).String(); got != "2.00" {
		t.Fatalf("default order charge = %s, want 2.00", got)
	}

	setClientConfig(t, env, client.ID, constants.ClientConfigKeyOrderCharge, "3.50", 1)
	if got := env.policySvc.OrderCharge(client.ID).String(); got != "3.50" {
		t.Fatalf("overridden order charge = %s, want 3.50", got)
	}
}

func TestOrderChargeHighestVersionWins(t *testing.T) {
	env := newTestEnv(t, "policy_versioned")
	client := createTestClient(t, env, constants.SelectionPolicyCheapest)

	setClientConfig(t, env, client.ID, constants.ClientConfigKeyOrderCharge, "3.00", 1)
	setClientConfig(t, env, client.ID, constants.ClientConfigKeyOrderCharge, "4.00", 2)

	if got := env.policySvc.OrderCharge(client.ID).String(); got != "4.00" {
		t.Fatalf("order charge = %s, want latest version 4.00", got)
	}
}

func TestOrderChargeMalformedOverrideIgnored(t *testing.T) {
	env := newTestEnv(t, "policy_malformed")
	client := createTestClient(t, env, constants.SelectionPolicyCheapest)

	setClientConfig(t, env, client.ID, constants.ClientConfigKeyOrderCharge, "not-a-number", 1)
	if got := env.policySvc.OrderCharge(client.ID).String(); got != "2.00" {
		t.Fatalf("order charge = %s, want fallback 2.00", got)
	}

	setClientConfig(t, env, client.ID, constants.ClientConfigKeyOrderCharge, "-5", 2)
	if got := env.policySvc.OrderCharge(client.ID).String(); got != "2.00" {
		t.Fatalf("negative override: order charge = %s, want fallback 2.00", got)
	}
}

func TestNdrStaleAfterOverride(t *testing.T) {
	env := newTestEnv(t, "policy_ndr_stale")
	client := createTestClient(t, env, constants.SelectionPolicyCheapest)

	if got := env.policySvc.NdrStaleAfter(client.ID); got != 48*time.Hour {
		t.Fatalf("default stale-after = %v, want 48h", got)
	}

	setClientConfig(t, env, client.ID, constants.ClientConfigKeyNdrStaleHours, "24", 1)
	if got := env.policySvc.NdrStaleAfter(client.ID); got != 24*time.Hour {
		t.Fatalf("overridden stale-after = %v, want 24h", got)
	}
}

func TestRemittanceCadenceOverride(t *testing.T) {
	env := newTestEnv(t, "policy_cadence")
	client := createTestClient(t, env, constants.SelectionPolicyCheapest)

	days, weekdays := env.policySvc.RemittanceCadence(client.ID)
	if days != 7 {
		t.Fatalf("default cadence = %d, want 7", days)
	}
	if !weekdays[time.Monday] || !weekdays[time.Wednesday] || !weekdays[time.Friday] || weekdays[time.Sunday] {
		t.Fatalf("default weekdays = %v, want Mon/Wed/Fri", weekdays)
	}

	setClientConfig(t, env, client.ID, constants.ClientConfigKeyCadenceDays, "3", 1)
	setClientConfig(t, env, client.ID, constants.ClientConfigKeyRemittanceWeekdays, "2,4", 1)
	days, weekdays = env.policySvc.RemittanceCadence(client.ID)
	if days != 3 {
		t.Fatalf("overridden cadence = %d, want 3", days)
	}
	if !weekdays[time.Tuesday] || !weekdays[time.Thursday] || weekdays[time.Monday] {
		t.Fatalf("overridden weekdays = %v, want Tue/Thu", weekdays)
	}
}
