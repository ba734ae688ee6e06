package handlers

import (
	"loyalty/internal/models"
	"loyalty/internal/services"
	"loyalty/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EngineHandler struct {
	engineService *services.EngineService
}

func NewEngineHandler(engineService *services.EngineService) *EngineHandler {
	return &EngineHandler{
		engineService: engineService,
	}
}

// AdjustmentRequest is an operator-issued point correction. It bypasses rule
// matching but still flows through the ledger.
type AdjustmentRequest struct {
	CustomerID     primitive.ObjectID `json:"customer_id" binding:"required"`
	ProgramID      primitive.ObjectID `json:"program_id" binding:"required"`
	Points         int64              `json:"points" binding:"required"`
	Description    string             `json:"description"`
	IdempotencyKey string             `json:"idempotency_key" binding:"required"`
}

// ProcessEvent runs an inbound event through the engine
func (h *EngineHandler) ProcessEvent(c *gin.Context) {
	var event models.Event
	if err := c.ShouldBindJSON(&event); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	tenantID, exists := c.Get("tenant_id")
	if !exists {
		utils.UnauthorizedResponse(c)
		return
	}
	event.TenantID = tenantID.(primitive.ObjectID)

	// Manual adjustments go through the admin endpoint, not here.
	if event.Type == models.EventTypeManual {
		utils.BadRequestResponse(c, "Manual adjustments must use the adjustments endpoint")
		return
	}

	result, err := h.engineService.ProcessEvent(c.Request.Context(), &event)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, "Event processed successfully", result)
}

// CreateAdjustment applies an operator point correction
func (h *EngineHandler) CreateAdjustment(c *gin.Context) {
	var request AdjustmentRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	tenantID, exists := c.Get("tenant_id")
	if !exists {
		utils.UnauthorizedResponse(c)
		return
	}

	event := models.Event{
		TenantID:       tenantID.(primitive.ObjectID),
		CustomerID:     request.CustomerID,
		ProgramID:      request.ProgramID,
		Type:           models.EventTypeManual,
		Points:         request.Points,
		Description:    request.Description,
		IdempotencyKey: request.IdempotencyKey,
	}

	result, err := h.engineService.ProcessEvent(c.Request.Context(), &event)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, "Adjustment applied successfully", result)
}
