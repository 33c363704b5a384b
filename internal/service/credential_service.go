package service

import (
	"github.com/shipflow-next/internal/courier"
	"github.com/shipflow-next/internal/models"
	"github.com/shipflow-next/internal/repository"
)

// CredentialService resolves courier API credentials per call. Records are
// scoped to (client, store, partner) with a client-wide fallback; nothing is
// cached in process memory.
type CredentialService struct {
	clientRepo repository.ClientRepository
}

// NewCredentialService creates a credential service.
func NewCredentialService(clientRepo repository.ClientRepository) *CredentialService {
	return &CredentialService{clientRepo: clientRepo}
}

// Resolve fetches the credentials for a client and partner, preferring a
// store-scoped record.
func (s *CredentialService) Resolve(clientID uint, storeID string, partner *models.CourierPartner) (courier.Credentials, error) {
	if partner == nil {
		return courier.Credentials{}, ErrCredentialMissing
	}
	record, err := s.clientRepo.GetCredential(clientID, storeID, partner.ID)
	if err != nil {
		return courier.Credentials{}, err
	}
	if record == nil {
		return courier.Credentials{}, ErrCredentialMissing
	}
	return courier.Credentials{
		APIKey:    record.APIKey,
		APISecret: record.APISecret,
		BaseURL:   partner.BaseURL,
		Meta:      record.Meta,
	}, nil
}
