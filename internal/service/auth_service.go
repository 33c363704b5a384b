package service

import (
	"errors"
	"time"

	"github.com/shipflow-next/internal/config"
	"github.com/shipflow-next/internal/models"
	"github.com/shipflow-next/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// clientClaims is the JWT payload for client API sessions.
type clientClaims struct {
	ClientID uint `json:"client_id"`
	jwt.RegisteredClaims
}

// AuthService exchanges client API tokens for short-lived JWTs and verifies
// them on every request.
type AuthService struct {
	clientRepo repository.ClientRepository
	cfg        config.JWTConfig
}

// NewAuthService creates an auth service.
func NewAuthService(clientRepo repository.ClientRepository, cfg config.JWTConfig) *AuthService {
	return &AuthService{clientRepo: clientRepo, cfg: cfg}
}

// IssueToken verifies the API token against the stored hash and returns a
// signed JWT.
func (s *AuthService) IssueToken(email, apiToken string) (string, *models.Client, error) {
	client, err := s.clientRepo.GetByEmail(email)
	if err != nil {
		return "", nil, err
	}
	if client == nil {
		return "", nil, ErrInvalidCredentials
	}
	if !client.Active {
		return "", nil, ErrClientDisabled
	}
	if bcrypt.CompareHashAndPassword([]byte(client.APITokenHash), []byte(apiToken)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	expireHours := s.cfg.ExpireHours
	if expireHours <= 0 {
		expireHours = 24
	}
	now := time.Now()
	claims := clientClaims{
		ClientID: client.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expireHours) * time.Hour)),
			Subject:   client.Email,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.SecretKey))
	if err != nil {
		return "", nil, err
	}
	return signed, client, nil
}

// VerifyToken parses a JWT and loads the active client it belongs to.
func (s *AuthService) VerifyToken(tokenString string) (*models.Client, error) {
	claims := &clientClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.cfg.SecretKey), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredentials
	}

	client, err := s.clientRepo.GetByID(claims.ClientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, ErrClientNotFound
	}
	if !client.Active {
		return nil, ErrClientDisabled
	}
	return client, nil
}

// HashAPIToken bcrypt-hashes a raw API token for storage.
func HashAPIToken(raw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
