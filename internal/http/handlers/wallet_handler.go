package handlers

import (
	"github.com/shipflow-next/internal/http/response"
	"github.com/shipflow-next/internal/models"
	"github.com/shipflow-next/internal/repository"
	"github.com/shipflow-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletHandler exposes wallet balance, recharge and the ledger.
type WalletHandler struct {
	walletSvc *service.WalletService
}

// NewWalletHandler creates a wallet handler.
func NewWalletHandler(walletSvc *service.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// Get handles GET /wallet.
func (h *WalletHandler) Get(c *gin.Context) {
	client := currentClient(c)
	wallet, err := h.walletSvc.GetOrCreate(client.ID)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	response.Success(c, wallet)
}

type rechargeRequest struct {
	Amount    string `json:"amount" binding:"required"`
	Reference string `json:"reference"` // caller idempotency key, optional
}

// Recharge handles POST /wallet/recharge.
func (h *WalletHandler) Recharge(c *gin.Context) {
	client := currentClient(c)
	var req rechargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "amount is required")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		response.BadRequest(c, "invalid amount")
		return
	}
	reference := req.Reference
	if reference == "" {
		reference = "recharge:" + uuid.NewString()
	}
	log, err := h.walletSvc.Recharge(client.ID, models.NewMoneyFromDecimal(amount), reference, "wallet recharge")
	if err != nil {
		renderServiceError(c, err)
		return
	}
	response.Success(c, log)
}

// Logs handles GET /wallet/logs.
func (h *WalletHandler) Logs(c *gin.Context) {
	client := currentClient(c)
	page, pageSize := paginationParams(c)
	logs, total, err := h.walletSvc.ListLogs(repository.WalletLogListFilter{
		Page:      page,
		PageSize:  pageSize,
		ClientID:  client.ID,
		Type:      c.Query("type"),
		Reference: c.Query("reference"),
	})
	if err != nil {
		renderServiceError(c, err)
		return
	}
	response.Success(c, response.Page{Items: logs, Total: total, Page: page, PageSize: pageSize})
}
