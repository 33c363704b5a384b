package xpressbees

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shipflow-next/internal/courier"
	"github.com/shipflow-next/internal/models"
)

const defaultBaseURL = "https://shipment.xpressbees.com"

// Adapter talks to the Xpressbees shipment API. Calls authenticate with a
// short-lived bearer token exchanged from the stored credentials.
type Adapter struct {
	client *http.Client

	mu          sync.Mutex
	token       string
	tokenKey    string
	tokenExpiry time.Time
}

// New creates an Xpressbees adapter with the given call timeout.
func New(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Adapter{client: &http.Client{Timeout: timeout}}
}

// Slug implements courier.Adapter.
func (a *Adapter) Slug() string {
	return "xpressbees"
}

func (a *Adapter) baseURL(creds courier.Credentials) string {
	if creds.BaseURL != "" {
		return strings.TrimRight(creds.BaseURL, "/")
	}
	return defaultBaseURL
}

type loginResponse struct {
	Status bool   `json:"status"`
	Data   string `json:"data"` // bearer token
}

func (a *Adapter) bearerToken(ctx context.Context, creds courier.Credentials) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.token != "" && a.tokenKey == creds.APIKey && time.Now().Before(a.tokenExpiry) {
		return a.token, nil
	}

	payload := map[string]string{"email": creds.APIKey, "password": creds.APISecret}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL(creds)+"/api/users/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var resp loginResponse
	if err := a.do(req, &resp); err != nil {
		return "", err
	}
	if !resp.Status || resp.Data == "" {
		return "", fmt.Errorf("xpressbees login failed")
	}
	a.token = resp.Data
	a.tokenKey = creds.APIKey
	a.tokenExpiry = time.Now().Add(50 * time.Minute)
	return a.token, nil
}

type createShipmentPayload struct {
	OrderNumber   string `json:"order_number"`
	PaymentType   string `json:"payment_type"` // cod / prepaid
	OrderAmount   string `json:"order_amount"`
	Weight        string `json:"weight"`
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	City          string `json:"city"`
	State         string `json:"state"`
	Pincode       string `json:"pincode"`
	PickupPincode string `json:"pickup_pincode"`
	CODCharges    string `json:"cod_charges"`
}

type createShipmentResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AWBNumber string `json:"awb_number"`
		Status    string `json:"status"`
	} `json:"data"`
}

// CreateOrder books a shipment and returns the assigned AWB.
func (a *Adapter) CreateOrder(ctx context.Context, order *models.Order, creds courier.Credentials) (*courier.CreateOrderResult, error) {
	paymentType := "prepaid"
	codAmount := "0.00"
	if order.PaymentMode == "COD" {
		paymentType = "cod"
		codAmount = order.TotalAmount.String()
	}
	payload := createShipmentPayload{
		OrderNumber:   order.OrderID,
		PaymentType:   paymentType,
		OrderAmount:   order.TotalAmount.String(),
		Weight:        order.ApplicableWeight.String(),
		Name:          order.ConsigneeName,
		Phone:         order.ConsigneePhone,
		Address:       order.ConsigneeAddress,
		City:          order.ConsigneeCity,
		State:         order.ConsigneeState,
		Pincode:       order.ConsigneePincode,
		PickupPincode: order.PickupPincode,
		CODCharges:    codAmount,
	}

	var resp createShipmentResponse
	if err := a.post(ctx, creds, "/api/shipments2", payload, &resp); err != nil {
		return nil, err
	}
	switch {
	case resp.Status && resp.Data.AWBNumber != "":
		return &courier.CreateOrderResult{AWBNumber: resp.Data.AWBNumber, Message: resp.Message}, nil
	case resp.Status && strings.EqualFold(resp.Data.Status, "processing"):
		return &courier.CreateOrderResult{Processing: true, Message: resp.Message}, nil
	default:
		return nil, fmt.Errorf("xpressbees create: %s", firstNonEmpty(resp.Message, "booking rejected"))
	}
}

type trackResponse struct {
	Status bool `json:"status"`
	Data   struct {
		Status  string `json:"status"`
		History []struct {
			StatusCode string `json:"status_code"`
			EventTime  string `json:"event_time"`
			Message    string `json:"message"`
			Location   string `json:"location"`
		} `json:"history"`
	} `json:"data"`
}

// TrackShipment fetches the checkpoint history for an AWB.
func (a *Adapter) TrackShipment(ctx context.Context, awb string, creds courier.Credentials) (*courier.TrackResult, error) {
	token, err := a.bearerToken(ctx, creds)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL(creds)+"/api/shipments2/track/"+awb, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var resp trackResponse
	if err := a.do(req, &resp); err != nil {
		return nil, err
	}
	if !resp.Status {
		return nil, fmt.Errorf("xpressbees track: no data for %s", awb)
	}

	result := &courier.TrackResult{CurrentStatus: resp.Data.Status}
	for _, h := range resp.Data.History {
		result.Events = append(result.Events, courier.TrackingEvent{
			Status:      h.StatusCode,
			Datetime:    h.EventTime,
			Description: h.Message,
			Location:    h.Location,
		})
	}
	return result, nil
}

type cancelResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
}

// CancelShipment cancels a shipment before it enters transit.
func (a *Adapter) CancelShipment(ctx context.Context, awb string, creds courier.Credentials) error {
	var resp cancelResponse
	if err := a.post(ctx, creds, "/api/shipments2/cancel", map[string]string{"awb": awb}, &resp); err != nil {
		return err
	}
	if !resp.Status {
		return fmt.Errorf("xpressbees cancel: %s", firstNonEmpty(resp.Message, "cancellation rejected"))
	}
	return nil
}

func (a *Adapter) post(ctx context.Context, creds courier.Credentials, path string, payload interface{}, out interface{}) error {
	token, err := a.bearerToken(ctx, creds)
	if err != nil {
		return err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL(creds)+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return a.do(req, out)
}

func (a *Adapter) do(req *http.Request, out interface{}) error {
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("xpressbees: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
