package handlers

import (
	"loyalty/internal/repositories/interfaces"
	"loyalty/internal/services"
	"loyalty/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AccountHandler struct {
	accountRepo interfaces.AccountRepository
	txnRepo     interfaces.TransactionRepository
	ledger      *services.LedgerService
}

func NewAccountHandler(accountRepo interfaces.AccountRepository, txnRepo interfaces.TransactionRepository, ledger *services.LedgerService) *AccountHandler {
	return &AccountHandler{
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		ledger:      ledger,
	}
}

// GetAccount retrieves a loyalty account snapshot
func (h *AccountHandler) GetAccount(c *gin.Context) {
	accountID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid account ID")
		return
	}

	tenantID, exists := c.Get("tenant_id")
	if !exists {
		utils.UnauthorizedResponse(c)
		return
	}

	account, err := h.accountRepo.GetByID(c.Request.Context(), tenantID.(primitive.ObjectID), accountID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, "Account retrieved successfully", account)
}

// ListTransactions retrieves an account's ledger history
func (h *AccountHandler) ListTransactions(c *gin.Context) {
	accountID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid account ID")
		return
	}

	tenantID, exists := c.Get("tenant_id")
	if !exists {
		utils.UnauthorizedResponse(c)
		return
	}

	params := utils.GetPaginationParams(c)
	transactions, total, err := h.txnRepo.ListByAccount(c.Request.Context(), tenantID.(primitive.ObjectID), accountID, params)
	if err != nil {
		respondError(c, err)
		return
	}

	meta := &utils.Meta{
		Pagination: utils.NewPaginationMeta(params, total),
		Count:      len(transactions),
	}
	utils.SuccessResponseWithMeta(c, "Transactions retrieved successfully", transactions, meta)
}

// RebuildAccount recomputes an account snapshot from its ledger
func (h *AccountHandler) RebuildAccount(c *gin.Context) {
	accountID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid account ID")
		return
	}

	tenantID, exists := c.Get("tenant_id")
	if !exists {
		utils.UnauthorizedResponse(c)
		return
	}

	account, drifted, err := h.ledger.Rebuild(c.Request.Context(), tenantID.(primitive.ObjectID), accountID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, "Account rebuilt successfully", gin.H{
		"account": account,
		"drifted": drifted,
	})
}
