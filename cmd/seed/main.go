// Command seed loads reference data and a demo tenant for local
// development: pincode mappings, courier partners, a client with wallet
// balance, contracts and one assignment rule.
package main

import (
	"fmt"
	"os"

	"github.com/shipflow-next/internal/config"
	"github.com/shipflow-next/internal/constants"
	"github.com/shipflow-next/internal/logger"
	"github.com/shipflow-next/internal/models"
	"github.com/shipflow-next/internal/repository"
	"github.com/shipflow-next/internal/service"
)

func main() {
	cfg := config.Load()
	log := logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	defer func() { _ = log.Sync() }()

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns: cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns: cfg.Database.Pool.MaxIdleConns,
	}); err != nil {
		logger.Errorw("database_init_failed", "error", err)
		os.Exit(1)
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Errorw("database_migrate_failed", "error", err)
		os.Exit(1)
	}
	if err := run(); err != nil {
		logger.Errorw("seed_failed", "error", err)
		os.Exit(1)
	}
	logger.Infow("seed_complete")
}

func run() error {
	db := models.DB

	pincodeRepo := repository.NewPincodeRepository(db)
	if err := pincodeRepo.BulkUpsert([]models.PincodeZone{
		{Pincode: "110001", City: "New Delhi", State: "Delhi"},
		{Pincode: "110092", City: "Delhi", State: "Delhi"},
		{Pincode: "400001", City: "Mumbai", State: "Maharashtra"},
		{Pincode: "411001", City: "Pune", State: "Maharashtra"},
		{Pincode: "560001", City: "Bengaluru", State: "Karnataka"},
		{Pincode: "600001", City: "Chennai", State: "Tamil Nadu"},
		{Pincode: "700001", City: "Kolkata", State: "West Bengal"},
		{Pincode: "781001", City: "Guwahati", State: "Assam"},
		{Pincode: "190001", City: "Srinagar", State: "Jammu and Kashmir"},
		{Pincode: "302001", City: "Jaipur", State: "Rajasthan"},
	}); err != nil {
		return err
	}

	partners := []models.CourierPartner{
		{Name: "Delhivery", Slug: "delhivery", AdapterSlug: "delhivery"},
		{Name: "Xpressbees", Slug: "xpressbees", AdapterSlug: "xpressbees"},
	}
	for i := range partners {
		if err := db.Where("slug = ?", partners[i].Slug).
			FirstOrCreate(&partners[i]).Error; err != nil {
			return err
		}
	}

	tokenHash, err := service.HashAPIToken("demo-api-token")
	if err != nil {
		return err
	}
	client := models.Client{
		Name:            "Demo Traders",
		Email:           "demo@example.com",
		APITokenHash:    tokenHash,
		SelectionPolicy: constants.SelectionPolicyCheapest,
	}
	if err := db.Where("email = ?", client.Email).FirstOrCreate(&client).Error; err != nil {
		return err
	}

	wallet := models.Wallet{ClientID: client.ID, Amount: models.NewMoneyFromFloat(1000)}
	if err := db.Where("client_id = ?", client.ID).FirstOrCreate(&wallet).Error; err != nil {
		return err
	}

	forwardRates := func(base float64) models.ZoneRates {
		return models.ZoneRates{
			constants.ZoneA: models.NewMoneyFromFloat(base),
			constants.ZoneB: models.NewMoneyFromFloat(base + 10),
			constants.ZoneC: models.NewMoneyFromFloat(base + 18),
			constants.ZoneD: models.NewMoneyFromFloat(base + 25),
			constants.ZoneE: models.NewMoneyFromFloat(base + 40),
		}
	}
	additionalRates := func(base float64) models.ZoneRates {
		return models.ZoneRates{
			constants.ZoneA: models.NewMoneyFromFloat(base),
			constants.ZoneB: models.NewMoneyFromFloat(base + 5),
			constants.ZoneC: models.NewMoneyFromFloat(base + 8),
			constants.ZoneD: models.NewMoneyFromFloat(base + 12),
			constants.ZoneE: models.NewMoneyFromFloat(base + 20),
		}
	}

	for i, partner := range partners {
		contract := models.ClientContract{
			ClientID:                client.ID,
			PartnerID:               partner.ID,
			BaseRates:               forwardRates(float64(30 + i*5)),
			AdditionalRates:         additionalRates(float64(15 + i*3)),
			CODPercent:              models.NewMoneyFromFloat(1.5),
			CODAbsolute:             models.NewMoneyFromFloat(30),
			MinChargeableWeight:     models.NewWeightFromFloat(0.5),
			AdditionalWeightBracket: models.NewWeightFromFloat(0.5),
		}
		if err := db.Where("client_id = ? AND partner_id = ?", client.ID, partner.ID).
			FirstOrCreate(&contract).Error; err != nil {
			return err
		}

		credential := models.CredentialRecord{
			ClientID:  client.ID,
			PartnerID: partner.ID,
			APIKey:    fmt.Sprintf("demo-%s-key", partner.Slug),
			APISecret: fmt.Sprintf("demo-%s-secret", partner.Slug),
			Meta:      models.JSON{"pickup_location": "DEMO-WH-1"},
		}
		if err := db.Where("client_id = ? AND store_id = '' AND partner_id = ?", client.ID, partner.ID).
			FirstOrCreate(&credential).Error; err != nil {
			return err
		}
	}

	rule := models.CourierRule{
		ClientID:        client.ID,
		Position:        1,
		Field:           constants.RuleFieldZone,
		Operator:        constants.RuleOperatorIn,
		Operands:        models.StringArray{constants.ZoneA, constants.ZoneB},
		CourierPriority: models.StringArray{"delhivery", "xpressbees"},
		Active:          true,
	}
	if err := db.Where("client_id = ? AND position = ?", client.ID, rule.Position).
		FirstOrCreate(&rule).Error; err != nil {
		return err
	}
	return nil
}
