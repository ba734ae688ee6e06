package handlers

import (
	"loyalty/internal/models"
	"loyalty/internal/repositories/interfaces"
	"loyalty/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ConfigHandler carries the operator-facing program, rule, geofence, and
// reward configuration endpoints. All of them sit behind the admin role.
type ConfigHandler struct {
	programRepo  interfaces.ProgramRepository
	ruleRepo     interfaces.RuleRepository
	geofenceRepo interfaces.GeofenceRepository
	rewardRepo   interfaces.RewardRepository
}

func NewConfigHandler(
	programRepo interfaces.ProgramRepository,
	ruleRepo interfaces.RuleRepository,
	geofenceRepo interfaces.GeofenceRepository,
	rewardRepo interfaces.RewardRepository,
) *ConfigHandler {
	return &ConfigHandler{
		programRepo:  programRepo,
		ruleRepo:     ruleRepo,
		geofenceRepo: geofenceRepo,
		rewardRepo:   rewardRepo,
	}
}

func tenantFromContext(c *gin.Context) (primitive.ObjectID, bool) {
	tenantID, exists := c.Get("tenant_id")
	if !exists {
		utils.UnauthorizedResponse(c)
		return primitive.NilObjectID, false
	}
	return tenantID.(primitive.ObjectID), true
}

// CreateProgram creates a loyalty program with its tier ladder
func (h *ConfigHandler) CreateProgram(c *gin.Context) {
	var program models.LoyaltyProgram
	if err := c.ShouldBindJSON(&program); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	tenantID, ok := tenantFromContext(c)
	if !ok {
		return
	}
	program.TenantID = tenantID

	if err := h.programRepo.Create(c.Request.Context(), &program); err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, "Program created successfully", program)
}

// ListPrograms retrieves the tenant's programs
func (h *ConfigHandler) ListPrograms(c *gin.Context) {
	tenantID, ok := tenantFromContext(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	programs, total, err := h.programRepo.ListByTenant(c.Request.Context(), tenantID, params)
	if err != nil {
		respondError(c, err)
		return
	}

	meta := &utils.Meta{
		Pagination: utils.NewPaginationMeta(params, total),
		Count:      len(programs),
	}
	utils.SuccessResponseWithMeta(c, "Programs retrieved successfully", programs, meta)
}

// CreateRule creates an earning rule; the predicate and action configuration
// is validated before anything is stored
func (h *ConfigHandler) CreateRule(c *gin.Context) {
	var rule models.Rule
	if err := c.ShouldBindJSON(&rule); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	tenantID, ok := tenantFromContext(c)
	if !ok {
		return
	}
	rule.TenantID = tenantID

	if err := h.ruleRepo.Create(c.Request.Context(), &rule); err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, "Rule created successfully", rule)
}

// UpdateRule applies a partial update to a rule
func (h *ConfigHandler) UpdateRule(c *gin.Context) {
	ruleID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid rule ID")
		return
	}

	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	tenantID, ok := tenantFromContext(c)
	if !ok {
		return
	}

	if err := h.ruleRepo.Update(c.Request.Context(), tenantID, ruleID, updates); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, "Rule updated successfully", nil)
}

// DeleteRule removes a rule; future events stop matching it
func (h *ConfigHandler) DeleteRule(c *gin.Context) {
	ruleID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid rule ID")
		return
	}

	tenantID, ok := tenantFromContext(c)
	if !ok {
		return
	}

	if err := h.ruleRepo.Delete(c.Request.Context(), tenantID, ruleID); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, "Rule deleted successfully", nil)
}

// CreateGeofence registers geometry for location-based rules
func (h *ConfigHandler) CreateGeofence(c *gin.Context) {
	var geofence models.Geofence
	if err := c.ShouldBindJSON(&geofence); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	tenantID, ok := tenantFromContext(c)
	if !ok {
		return
	}
	geofence.TenantID = tenantID

	if err := h.geofenceRepo.Create(c.Request.Context(), &geofence); err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, "Geofence created successfully", geofence)
}

// CreateReward adds a redeemable reward to a program's catalog
func (h *ConfigHandler) CreateReward(c *gin.Context) {
	var reward models.Reward
	if err := c.ShouldBindJSON(&reward); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	tenantID, ok := tenantFromContext(c)
	if !ok {
		return
	}
	reward.TenantID = tenantID

	if err := h.rewardRepo.Create(c.Request.Context(), &reward); err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, "Reward created successfully", reward)
}

// ListRewards retrieves a program's reward catalog
func (h *ConfigHandler) ListRewards(c *gin.Context) {
	programID, err := primitive.ObjectIDFromHex(c.Query("program_id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid program ID")
		return
	}

	tenantID, ok := tenantFromContext(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	rewards, total, err := h.rewardRepo.ListByProgram(c.Request.Context(), tenantID, programID, params)
	if err != nil {
		respondError(c, err)
		return
	}

	meta := &utils.Meta{
		Pagination: utils.NewPaginationMeta(params, total),
		Count:      len(rewards),
	}
	utils.SuccessResponseWithMeta(c, "Rewards retrieved successfully", rewards, meta)
}
