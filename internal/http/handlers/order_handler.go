package handlers

import (
	"github.com/shipflow-next/internal/courier"
	"github.com/shipflow-next/internal/http/response"
	"github.com/shipflow-next/internal/repository"
	"github.com/shipflow-next/internal/service"

	"github.com/gin-gonic/gin"
)

// OrderHandler exposes order ingestion, courier assignment, cancellation and
// the tracking webhook.
type OrderHandler struct {
	orderSvc     *service.OrderService
	selectionSvc *service.SelectionService
	bookingSvc   *service.BookingService
	trackingSvc  *service.TrackingService
}

// NewOrderHandler creates an order handler.
func NewOrderHandler(
	orderSvc *service.OrderService,
	selectionSvc *service.SelectionService,
	bookingSvc *service.BookingService,
	trackingSvc *service.TrackingService,
) *OrderHandler {
	return &OrderHandler{
		orderSvc:     orderSvc,
		selectionSvc: selectionSvc,
		bookingSvc:   bookingSvc,
		trackingSvc:  trackingSvc,
	}
}

// Create handles POST /orders.
func (h *OrderHandler) Create(c *gin.Context) {
	client := currentClient(c)
	var input service.CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, "invalid order payload: "+err.Error())
		return
	}
	order, err := h.orderSvc.Create(client, input)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// Get handles GET /orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	client := currentClient(c)
	order, err := h.orderSvc.Get(client.ID, uintParam(c, "id"))
	if err != nil {
		renderServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// List handles GET /orders.
func (h *OrderHandler) List(c *gin.Context) {
	client := currentClient(c)
	page, pageSize := paginationParams(c)
	orders, total, err := h.orderSvc.List(repository.OrderListFilter{
		Page:        page,
		PageSize:    pageSize,
		ClientID:    client.ID,
		Status:      c.Query("status"),
		OrderID:     c.Query("order_id"),
		AWBNumber:   c.Query("awb_number"),
		PaymentMode: c.Query("payment_mode"),
	})
	if err != nil {
		renderServiceError(c, err)
		return
	}
	response.Success(c, response.Page{Items: orders, Total: total, Page: page, PageSize: pageSize})
}

type assignRequest struct {
	ContractID uint `json:"contract_id"` // manual policy only
}

// Assign handles POST /orders/:id/assign: runs the selection engine and
// books the first successful candidate.
func (h *OrderHandler) Assign(c *gin.Context) {
	client := currentClient(c)
	order, err := h.orderSvc.Get(client.ID, uintParam(c, "id"))
	if err != nil {
		renderServiceError(c, err)
		return
	}

	var req assignRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid assign payload")
			return
		}
	}
	result, err := h.selectionSvc.Assign(c.Request.Context(), client, order, req.ContractID)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	if result.Processing {
		response.SuccessMessage(c, "booking processing, poll for resolution", result)
		return
	}
	response.Success(c, result)
}

// Cancel handles POST /orders/:id/cancel.
func (h *OrderHandler) Cancel(c *gin.Context) {
	client := currentClient(c)
	order, err := h.bookingSvc.Cancel(c.Request.Context(), client, uintParam(c, "id"))
	if err != nil {
		renderServiceError(c, err)
		return
	}
	response.Success(c, order)
}

type trackingWebhookRequest struct {
	AWBNumber string                  `json:"awb_number" binding:"required"`
	Events    []courier.TrackingEvent `json:"events" binding:"required"`
}

// TrackingWebhook handles POST /webhooks/tracking. At-least-once delivery
// is expected; replays are idempotent.
func (h *OrderHandler) TrackingWebhook(c *gin.Context) {
	var req trackingWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "awb_number and events are required")
		return
	}
	if err := h.trackingSvc.ApplyForAWB(req.AWBNumber, req.Events); err != nil {
		renderServiceError(c, err)
		return
	}
	response.Success(c, nil)
}
