package handlers

import (
	"github.com/shipflow-next/internal/http/response"
	"github.com/shipflow-next/internal/repository"
	"github.com/shipflow-next/internal/service"

	"github.com/gin-gonic/gin"
)

// RemittanceHandler exposes COD payout cycle reads.
type RemittanceHandler struct {
	remittanceSvc *service.RemittanceService
}

// NewRemittanceHandler creates a remittance handler.
func NewRemittanceHandler(remittanceSvc *service.RemittanceService) *RemittanceHandler {
	return &RemittanceHandler{remittanceSvc: remittanceSvc}
}

// List handles GET /remittances.
func (h *RemittanceHandler) List(c *gin.Context) {
	client := currentClient(c)
	page, pageSize := paginationParams(c)
	cycles, total, err := h.remittanceSvc.List(repository.RemittanceListFilter{
		Page:     page,
		PageSize: pageSize,
		ClientID: client.ID,
		Status:   c.Query("status"),
	})
	if err != nil {
		renderServiceError(c, err)
		return
	}
	response.Success(c, response.Page{Items: cycles, Total: total, Page: page, PageSize: pageSize})
}

// Get handles GET /remittances/:id.
func (h *RemittanceHandler) Get(c *gin.Context) {
	client := currentClient(c)
	cycle, err := h.remittanceSvc.Get(client.ID, uintParam(c, "id"))
	if err != nil {
		renderServiceError(c, err)
		return
	}
	response.Success(c, cycle)
}
