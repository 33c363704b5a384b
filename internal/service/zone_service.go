package service

import (
	"strings"

	"github.com/shipflow-next/internal/constants"
	"github.com/shipflow-next/internal/repository"
)

// ZoneService resolves the shipping zone between a pickup and a destination
// pincode.
type ZoneService struct {
	pincodeRepo repository.PincodeRepository
}

// NewZoneService creates a zone service.
func NewZoneService(pincodeRepo repository.PincodeRepository) *ZoneService {
	return &ZoneService{pincodeRepo: pincodeRepo}
}

// CalculateZone resolves the zone for a lane. Precedence: A (same city),
// B (same state), E (either side in a special-handling state), C (both
// cities metro), D otherwise. A pincode missing from the reference table
// falls back to D rather than failing the order.
func (s *ZoneService) CalculateZone(pickupPincode, destPincode string) (string, error) {
	pickup, err := s.pincodeRepo.GetByPincode(pickupPincode)
	if err != nil {
		return "", err
	}
	dest, err := s.pincodeRepo.GetByPincode(destPincode)
	if err != nil {
		return "", err
	}
	if pickup == nil || dest == nil {
		return constants.ZoneD, nil
	}

	pickupCity := normalizePlace(pickup.City)
	destCity := normalizePlace(dest.City)
	pickupState := normalizePlace(pickup.State)
	destState := normalizePlace(dest.State)

	switch {
	case pickupCity != "" && pickupCity == destCity:
		return constants.ZoneA, nil
	case pickupState != "" && pickupState == destState:
		return constants.ZoneB, nil
	case constants.SpecialZoneStates[pickupState] || constants.SpecialZoneStates[destState]:
		return constants.ZoneE, nil
	case constants.MetroCities[pickupCity] && constants.MetroCities[destCity]:
		return constants.ZoneC, nil
	default:
		return constants.ZoneD, nil
	}
}

func normalizePlace(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
