package courier

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/shipflow-next/internal/models"
)

// Credentials are the per-(client, store, partner) API credentials resolved
// for a single call. Never cached in process memory.
type Credentials struct {
	APIKey    string
	APISecret string
	BaseURL   string
	Meta      map[string]interface{} // partner extras: pickup codes, facility ids
}

// MetaString reads a string value from the credential meta blob.
func (c Credentials) MetaString(key string) string {
	if c.Meta == nil {
		return ""
	}
	if v, ok := c.Meta[key].(string); ok {
		return v
	}
	return ""
}

// CreateOrderResult is the outcome of a booking call. Processing means the
// partner accepted the request but has not resolved it yet; no AWB is
// assigned and the caller should poll.
type CreateOrderResult struct {
	AWBNumber  string
	Processing bool
	Message    string
}

// TrackingEvent is one vendor checkpoint, not yet normalized.
type TrackingEvent struct {
	Status      string `json:"status"`
	Datetime    string `json:"datetime"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

// TrackResult is the outcome of a tracking call.
type TrackResult struct {
	CurrentStatus string
	Events        []TrackingEvent
}

// Adapter is the integration surface for one shipping partner.
type Adapter interface {
	Slug() string
	CreateOrder(ctx context.Context, order *models.Order, creds Credentials) (*CreateOrderResult, error)
	TrackShipment(ctx context.Context, awb string, creds Credentials) (*TrackResult, error)
	CancelShipment(ctx context.Context, awb string, creds Credentials) error
}

// Registry maps adapter slugs to implementations.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter; a later registration for the same slug wins.
func (r *Registry) Register(adapter Adapter) {
	if adapter == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[strings.ToLower(adapter.Slug())] = adapter
}

// Get resolves an adapter by slug.
func (r *Registry) Get(slug string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.adapters[strings.ToLower(strings.TrimSpace(slug))]
	if !ok {
		return nil, fmt.Errorf("no courier adapter registered for slug %q", slug)
	}
	return adapter, nil
}
