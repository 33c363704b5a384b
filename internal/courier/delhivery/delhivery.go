package delhivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shipflow-next/internal/courier"
	"github.com/shipflow-next/internal/models"
)

const defaultBaseURL = "https://track.delhivery.com"

// Adapter talks to the Delhivery shipment API.
type Adapter struct {
	client *http.Client
}

// New creates a Delhivery adapter with the given call timeout.
func New(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Adapter{client: &http.Client{Timeout: timeout}}
}

// Slug implements courier.Adapter.
func (a *Adapter) Slug() string {
	return "delhivery"
}

func (a *Adapter) baseURL(creds courier.Credentials) string {
	if creds.BaseURL != "" {
		return strings.TrimRight(creds.BaseURL, "/")
	}
	return defaultBaseURL
}

type createShipmentPayload struct {
	Shipments     []shipmentPayload `json:"shipments"`
	PickupCode    string            `json:"pickup_location"`
	PaymentMode   string            `json:"payment_mode"`
	DeclaredValue string            `json:"declared_value"`
}

type shipmentPayload struct {
	OrderID     string `json:"order"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Address     string `json:"add"`
	City        string `json:"city"`
	State       string `json:"state"`
	Pincode     string `json:"pin"`
	Weight      string `json:"weight"`
	PaymentMode string `json:"payment_mode"`
	CODAmount   string `json:"cod_amount"`
}

type createShipmentResponse struct {
	Success  bool   `json:"success"`
	RMK      string `json:"rmk"`
	Packages []struct {
		Waybill string `json:"waybill"`
		Status  string `json:"status"`
		Remarks string `json:"remarks"`
	} `json:"packages"`
}

// CreateOrder books a shipment and returns the assigned waybill.
func (a *Adapter) CreateOrder(ctx context.Context, order *models.Order, creds courier.Credentials) (*courier.CreateOrderResult, error) {
	codAmount := "0.00"
	if order.PaymentMode == "COD" {
		codAmount = order.TotalAmount.String()
	}
	payload := createShipmentPayload{
		Shipments: []shipmentPayload{{
			OrderID:     order.OrderID,
			Name:        order.ConsigneeName,
			Phone:       order.ConsigneePhone,
			Address:     order.ConsigneeAddress,
			City:        order.ConsigneeCity,
			State:       order.ConsigneeState,
			Pincode:     order.ConsigneePincode,
			Weight:      order.ApplicableWeight.String(),
			PaymentMode: order.PaymentMode,
			CODAmount:   codAmount,
		}},
		PickupCode:    creds.MetaString("pickup_location"),
		PaymentMode:   order.PaymentMode,
		DeclaredValue: order.TotalAmount.String(),
	}

	var resp createShipmentResponse
	if err := a.post(ctx, creds, "/api/cmu/create.json", payload, &resp); err != nil {
		return nil, err
	}
	if len(resp.Packages) == 0 {
		if resp.RMK != "" {
			return nil, fmt.Errorf("delhivery create: %s", resp.RMK)
		}
		return nil, fmt.Errorf("delhivery create: empty package list")
	}

	pkg := resp.Packages[0]
	switch {
	case strings.EqualFold(pkg.Status, "Success") && pkg.Waybill != "":
		return &courier.CreateOrderResult{AWBNumber: pkg.Waybill, Message: pkg.Remarks}, nil
	case strings.EqualFold(pkg.Status, "Processing"):
		return &courier.CreateOrderResult{Processing: true, Message: pkg.Remarks}, nil
	default:
		return nil, fmt.Errorf("delhivery create: %s", firstNonEmpty(pkg.Remarks, resp.RMK, "booking rejected"))
	}
}

type trackResponse struct {
	ShipmentData []struct {
		Shipment struct {
			Status struct {
				Status string `json:"Status"`
			} `json:"Status"`
			Scans []struct {
				ScanDetail struct {
					Scan         string `json:"Scan"`
					ScanDateTime string `json:"ScanDateTime"`
					Instructions string `json:"Instructions"`
					ScannedLocation string `json:"ScannedLocation"`
				} `json:"ScanDetail"`
			} `json:"Scans"`
		} `json:"Shipment"`
	} `json:"ShipmentData"`
}

// TrackShipment fetches the scan history for a waybill.
func (a *Adapter) TrackShipment(ctx context.Context, awb string, creds courier.Credentials) (*courier.TrackResult, error) {
	endpoint := a.baseURL(creds) + "/api/v1/packages/json/?waybill=" + url.QueryEscape(awb)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+creds.APIKey)
	req.Header.Set("Accept", "application/json")

	var resp trackResponse
	if err := a.do(req, &resp); err != nil {
		return nil, err
	}
	if len(resp.ShipmentData) == 0 {
		return nil, fmt.Errorf("delhivery track: no shipment data for %s", awb)
	}

	shipment := resp.ShipmentData[0].Shipment
	result := &courier.TrackResult{CurrentStatus: shipment.Status.Status}
	for _, scan := range shipment.Scans {
		result.Events = append(result.Events, courier.TrackingEvent{
			Status:      scan.ScanDetail.Scan,
			Datetime:    scan.ScanDetail.ScanDateTime,
			Description: scan.ScanDetail.Instructions,
			Location:    scan.ScanDetail.ScannedLocation,
		})
	}
	return result, nil
}

type cancelResponse struct {
	Status bool   `json:"status"`
	Remark string `json:"remark"`
}

// CancelShipment cancels a waybill before pickup.
func (a *Adapter) CancelShipment(ctx context.Context, awb string, creds courier.Credentials) error {
	payload := map[string]interface{}{"waybill": awb, "cancellation": "true"}
	var resp cancelResponse
	if err := a.post(ctx, creds, "/api/p/edit", payload, &resp); err != nil {
		return err
	}
	if !resp.Status {
		return fmt.Errorf("delhivery cancel: %s", firstNonEmpty(resp.Remark, "cancellation rejected"))
	}
	return nil
}

func (a *Adapter) post(ctx context.Context, creds courier.Credentials, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL(creds)+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Token "+creds.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
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
		return fmt.Errorf("delhivery: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
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
