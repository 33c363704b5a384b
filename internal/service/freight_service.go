package service

import (
	"fmt"

	"github.com/shipflow-next/internal/constants"
	"github.com/shipflow-next/internal/models"

	"github.com/shopspring/decimal"
)

// taxRate is the GST applied on freight and COD charges.
var taxRate = decimal.NewFromFloat(0.18)

// FreightQuote is one priced booking attempt. All amounts are 2-decimal.
type FreightQuote struct {
	Freight   models.Money `json:"freight"`
	CODCharge models.Money `json:"cod_charge"`
	Tax       models.Money `json:"tax"`
	Total     models.Money `json:"total"`
}

// FreightService prices shipments against a contract rate card. Stateless;
// the same inputs always produce the same quote.
type FreightService struct{}

// NewFreightService creates a freight service.
func NewFreightService() *FreightService {
	return &FreightService{}
}

// QuoteForward prices the forward leg of an order.
func (s *FreightService) QuoteForward(order *models.Order, contract *models.ClientContract) (*FreightQuote, error) {
	return s.quote(order, contract, false)
}

// QuoteRTO prices the return leg of an order. RTO rates fall back to the
// forward rates when the contract carries none; no COD charge applies.
func (s *FreightService) QuoteRTO(order *models.Order, contract *models.ClientContract) (*FreightQuote, error) {
	return s.quote(order, contract, true)
}

func (s *FreightService) quote(order *models.Order, contract *models.ClientContract, reverse bool) (*FreightQuote, error) {
	if order == nil || contract == nil {
		return nil, ErrValidation
	}
	zone := order.Zone
	if zone == "" {
		zone = constants.ZoneD
	}

	baseRates := contract.BaseRates
	addRates := contract.AdditionalRates
	if reverse {
		if len(contract.RTOBaseRates) > 0 {
			baseRates = contract.RTOBaseRates
		}
		if len(contract.RTOAdditionalRates) > 0 {
			addRates = contract.RTOAdditionalRates
		}
	}

	base, ok := baseRates[zone]
	if !ok {
		return nil, fmt.Errorf("contract %d has no base rate for zone %s", contract.ID, zone)
	}
	add, ok := addRates[zone]
	if !ok {
		return nil, fmt.Errorf("contract %d has no additional rate for zone %s", contract.ID, zone)
	}

	brackets := additionalBrackets(order.ApplicableWeight, contract.MinChargeableWeight, contract.AdditionalWeightBracket)
	freight := base.Decimal.Add(add.Decimal.Mul(decimal.NewFromInt(brackets)))

	codCharge := decimal.Zero
	if !reverse && order.PaymentMode == constants.PaymentModeCOD {
		percent := order.TotalAmount.Decimal.Mul(contract.CODPercent.Decimal).Div(decimal.NewFromInt(100))
		codCharge = decimal.Max(contract.CODAbsolute.Decimal, percent)
	}

	tax := freight.Add(codCharge).Mul(taxRate)
	quote := &FreightQuote{
		Freight:   models.NewMoneyFromDecimal(freight),
		CODCharge: models.NewMoneyFromDecimal(codCharge),
		Tax:       models.NewMoneyFromDecimal(tax),
	}
	quote.Total = models.NewMoneyFromDecimal(
		quote.Freight.Decimal.Add(quote.CODCharge.Decimal).Add(quote.Tax.Decimal))
	return quote, nil
}

// additionalBrackets is the ceiling count of extra weight slabs above the
// minimum chargeable weight.
func additionalBrackets(applicable, minWeight, bracket models.Weight) int64 {
	if bracket.Decimal.IsZero() || bracket.Decimal.IsNegative() {
		return 0
	}
	excess := applicable.Decimal.Sub(minWeight.Decimal)
	if excess.LessThanOrEqual(decimal.Zero) {
		return 0
	}
	return excess.Div(bracket.Decimal).Ceil().IntPart()
}

// ForwardTax recomputes the tax on freight alone, used when a forward COD
// charge is voided by an RTO.
func (s *FreightService) ForwardTax(freight models.Money) models.Money {
	return models.NewMoneyFromDecimal(freight.Decimal.Mul(taxRate))
}
