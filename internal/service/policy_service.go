package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/shipflow-next/internal/config"
	"github.com/shipflow-next/internal/constants"
	"github.com/shipflow-next/internal/logger"
	"github.com/shipflow-next/internal/models"
	"github.com/shipflow-next/internal/repository"

	"github.com/shopspring/decimal"
)

// PolicyService resolves per-client policy knobs: platform defaults from
// configuration, overridable per client through versioned client_configs
// rows. A malformed override is logged and ignored.
type PolicyService struct {
	clientRepo repository.ClientRepository
	cfg        *config.Config
}

// NewPolicyService creates a policy service.
func NewPolicyService(clientRepo repository.ClientRepository, cfg *config.Config) *PolicyService {
	return &PolicyService{clientRepo: clientRepo, cfg: cfg}
}

// OrderCharge is the fixed amount debited from the wallet per booking.
func (s *PolicyService) OrderCharge(clientID uint) models.Money {
	fallback, err := decimal.NewFromString(s.cfg.Booking.OrderCharge)
	if err != nil {
		fallback = decimal.NewFromInt(2)
	}
	raw, err := s.clientRepo.GetConfigValue(clientID, constants.ClientConfigKeyOrderCharge)
	if err != nil || raw == "" {
		return models.NewMoneyFromDecimal(fallback)
	}
	override, err := decimal.NewFromString(raw)
	if err != nil || override.IsNegative() {
		logger.Warnw("client_config_invalid", "client_id", clientID,
			"key", constants.ClientConfigKeyOrderCharge, "value", raw)
		return models.NewMoneyFromDecimal(fallback)
	}
	return models.NewMoneyFromDecimal(override)
}

// NdrStaleAfter is how long an NDR may sit without a newer event before a
// fresh failure event rolls the shipment to RTO.
func (s *PolicyService) NdrStaleAfter(clientID uint) time.Duration {
	hours := s.cfg.NDR.StaleAfterHours
	raw, err := s.clientRepo.GetConfigValue(clientID, constants.ClientConfigKeyNdrStaleHours)
	if err == nil && raw != "" {
		if override, convErr := strconv.Atoi(raw); convErr == nil && override > 0 {
			hours = override
		} else {
			logger.Warnw("client_config_invalid", "client_id", clientID,
				"key", constants.ClientConfigKeyNdrStaleHours, "value", raw)
		}
	}
	if hours <= 0 {
		hours = 48
	}
	return time.Duration(hours) * time.Hour
}

// RemittanceCadence returns the payout cadence in days and the set of
// weekdays payouts may land on.
func (s *PolicyService) RemittanceCadence(clientID uint) (int, map[time.Weekday]bool) {
	days := s.cfg.Remittance.CadenceDays
	raw, err := s.clientRepo.GetConfigValue(clientID, constants.ClientConfigKeyCadenceDays)
	if err == nil && raw != "" {
		if override, convErr := strconv.Atoi(raw); convErr == nil && override > 0 {
			days = override
		} else {
			logger.Warnw("client_config_invalid", "client_id", clientID,
				"key", constants.ClientConfigKeyCadenceDays, "value", raw)
		}
	}
	if days <= 0 {
		days = 7
	}

	weekdayInts := s.cfg.Remittance.Weekdays
	rawDays, err := s.clientRepo.GetConfigValue(clientID, constants.ClientConfigKeyRemittanceWeekdays)
	if err == nil && rawDays != "" {
		if override, ok := parseWeekdayList(rawDays); ok {
			weekdayInts = override
		} else {
			logger.Warnw("client_config_invalid", "client_id", clientID,
				"key", constants.ClientConfigKeyRemittanceWeekdays, "value", rawDays)
		}
	}

	weekdays := make(map[time.Weekday]bool, len(weekdayInts))
	for _, d := range weekdayInts {
		if d >= 0 && d <= 6 {
			weekdays[time.Weekday(d)] = true
		}
	}
	if len(weekdays) == 0 {
		weekdays[time.Monday] = true
		weekdays[time.Wednesday] = true
		weekdays[time.Friday] = true
	}
	return days, weekdays
}

// PickupLocationCode is the partner-side pickup code for a client, if set.
func (s *PolicyService) PickupLocationCode(clientID uint) string {
	raw, err := s.clientRepo.GetConfigValue(clientID, constants.ClientConfigKeyPickupCode)
	if err != nil {
		return ""
	}
	return raw
}

// DefaultDimensions returns the client's default parcel dimensions in cm,
// used for volumetric weight when an order omits its own.
func (s *PolicyService) DefaultDimensions(clientID uint) (length, breadth, height decimal.Decimal) {
	read := func(key string) decimal.Decimal {
		raw, err := s.clientRepo.GetConfigValue(clientID, key)
		if err != nil || raw == "" {
			return decimal.Zero
		}
		v, err := decimal.NewFromString(raw)
		if err != nil || v.IsNegative() {
			return decimal.Zero
		}
		return v
	}
	return read(constants.ClientConfigKeyDefaultLength),
		read(constants.ClientConfigKeyDefaultBreadth),
		read(constants.ClientConfigKeyDefaultHeight)
}

// parseWeekdayList parses "1,3,5" into weekday ints (0=Sunday).
func parseWeekdayList(raw string) ([]int, bool) {
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 || v > 6 {
			return nil, false
		}
		out = append(out, v)
	}
	return out, len(out) > 0
}
