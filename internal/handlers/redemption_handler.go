package handlers

import (
	"loyalty/internal/services"
	"loyalty/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RedemptionHandler struct {
	redemptionService *services.RedemptionService
}

func NewRedemptionHandler(redemptionService *services.RedemptionService) *RedemptionHandler {
	return &RedemptionHandler{
		redemptionService: redemptionService,
	}
}

type ReserveRequest struct {
	CustomerID primitive.ObjectID `json:"customer_id" binding:"required"`
	RewardID   primitive.ObjectID `json:"reward_id" binding:"required"`
}

// ReserveReward holds one unit of reward inventory for a customer
func (h *RedemptionHandler) ReserveReward(c *gin.Context) {
	var request ReserveRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	tenantID, exists := c.Get("tenant_id")
	if !exists {
		utils.UnauthorizedResponse(c)
		return
	}

	redemption, err := h.redemptionService.Reserve(c.Request.Context(), tenantID.(primitive.ObjectID), request.CustomerID, request.RewardID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, "Reward reserved successfully", redemption)
}

// CommitRedemption debits the reserved points and fulfills the redemption
func (h *RedemptionHandler) CommitRedemption(c *gin.Context) {
	reservationID := c.Param("id")
	if reservationID == "" {
		utils.BadRequestResponse(c, "Invalid reservation ID")
		return
	}

	tenantID, exists := c.Get("tenant_id")
	if !exists {
		utils.UnauthorizedResponse(c)
		return
	}

	txn, err := h.redemptionService.Commit(c.Request.Context(), tenantID.(primitive.ObjectID), reservationID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, "Redemption committed successfully", txn)
}

// ReleaseRedemption returns a reservation's inventory
func (h *RedemptionHandler) ReleaseRedemption(c *gin.Context) {
	reservationID := c.Param("id")
	if reservationID == "" {
		utils.BadRequestResponse(c, "Invalid reservation ID")
		return
	}

	tenantID, exists := c.Get("tenant_id")
	if !exists {
		utils.UnauthorizedResponse(c)
		return
	}

	if err := h.redemptionService.Release(c.Request.Context(), tenantID.(primitive.ObjectID), reservationID); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, "Reservation released successfully", nil)
}
