package handlers

import (
	"github.com/shipflow-next/internal/http/response"
	"github.com/shipflow-next/internal/service"

	"github.com/gin-gonic/gin"
)

// NdrHandler exposes the NDR operations.
type NdrHandler struct {
	ndrSvc *service.NdrService
}

// NewNdrHandler creates an NDR handler.
func NewNdrHandler(ndrSvc *service.NdrService) *NdrHandler {
	return &NdrHandler{ndrSvc: ndrSvc}
}

// List handles GET /ndr. The status query accepts a canonical status or a
// group name (open, closed).
func (h *NdrHandler) List(c *gin.Context) {
	client := currentClient(c)
	page, pageSize := paginationParams(c)
	ndrs, total, err := h.ndrSvc.List(client.ID, c.Query("status"), page, pageSize)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	response.Success(c, response.Page{Items: ndrs, Total: total, Page: page, PageSize: pageSize})
}

// Reattempt handles POST /ndr/:id/reattempt with optional contact updates.
func (h *NdrHandler) Reattempt(c *gin.Context) {
	client := currentClient(c)
	var input service.ReattemptInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			response.BadRequest(c, "invalid reattempt payload")
			return
		}
	}
	ndr, err := h.ndrSvc.Reattempt(client.ID, uintParam(c, "id"), input)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	response.Success(c, ndr)
}

type bulkReattemptRequest struct {
	NdrIDs []uint `json:"ndr_ids" binding:"required"`
}

// BulkReattempt handles POST /ndr/reattempt.
func (h *NdrHandler) BulkReattempt(c *gin.Context) {
	client := currentClient(c)
	var req bulkReattemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "ndr_ids is required")
		return
	}
	result, err := h.ndrSvc.BulkReattempt(client.ID, req.NdrIDs)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	response.Success(c, result)
}

// Health handles GET /ndr/health.
func (h *NdrHandler) Health(c *gin.Context) {
	report, err := h.ndrSvc.HealthCheck()
	if err != nil {
		renderServiceError(c, err)
		return
	}
	response.Success(c, report)
}
