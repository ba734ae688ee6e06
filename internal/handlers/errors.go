package handlers

import (
	"context"
	"errors"
	"net/http"

	"loyalty/internal/models"
	"loyalty/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// respondError maps the service error taxonomy onto HTTP responses. Tenant
// isolation violations surface as 500 so nothing about another tenant's data
// leaks to the caller.
func respondError(c *gin.Context, err error) {
	var ve *models.ValidationError
	switch {
	case errors.As(err, &ve):
		utils.ValidationErrorResponse(c, map[string]string{ve.Field: ve.Message})
	case errors.Is(err, models.ErrNotFound):
		utils.NotFoundResponse(c, "resource")
	case errors.Is(err, models.ErrInsufficientBalance):
		utils.ConflictResponse(c, "INSUFFICIENT_BALANCE", utils.ErrInsufficientBalance)
	case errors.Is(err, models.ErrIdempotencyConflict):
		utils.ConflictResponse(c, "IDEMPOTENCY_CONFLICT", "idempotency key reused with different payload")
	case errors.Is(err, models.ErrRewardUnavailable):
		utils.ConflictResponse(c, "REWARD_UNAVAILABLE", "reward is not available")
	case errors.Is(err, models.ErrReservationClosed):
		utils.ConflictResponse(c, "RESERVATION_CLOSED", "reservation already resolved")
	case errors.Is(err, context.DeadlineExceeded):
		utils.ErrorResponse(c, http.StatusGatewayTimeout, "TIMEOUT", "request timed out")
	case errors.Is(err, models.ErrTenantIsolation):
		logrus.WithError(err).WithField("path", c.FullPath()).Error("cross-tenant access rejected")
		utils.InternalServerErrorResponse(c)
	default:
		utils.InternalServerErrorResponse(c)
	}
}
