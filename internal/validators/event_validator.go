package validators

import (
	"loyalty/internal/models"
)

// ValidateEvent rejects a malformed inbound event before any state change.
func ValidateEvent(event *models.Event) error {
	if event == nil {
		return models.NewValidationError("", "event is required")
	}
	if event.TenantID.IsZero() {
		return models.NewValidationError("tenant_id", "tenant id is required")
	}
	if event.CustomerID.IsZero() {
		return models.NewValidationError("customer_id", "customer id is required")
	}
	if event.ProgramID.IsZero() {
		return models.NewValidationError("program_id", "program id is required")
	}
	if event.IdempotencyKey == "" {
		return models.NewValidationError("idempotency_key", "idempotency key is required")
	}

	switch event.Type {
	case models.EventTypePurchase:
		if event.Amount <= 0 {
			return models.NewValidationError("amount", "purchase events require a positive amount")
		}
	case models.EventTypeCheckin:
		if event.Location == nil {
			return models.NewValidationError("location", "checkin events require a location")
		}
	case models.EventTypeManual:
		if event.Points == 0 {
			return models.NewValidationError("points", "manual adjustments require a non-zero point delta")
		}
	case models.EventTypeReferral:
	default:
		return models.NewValidationError("type", "unknown event type")
	}

	if event.Location != nil {
		if event.Location.Lat < -90 || event.Location.Lat > 90 ||
			event.Location.Lng < -180 || event.Location.Lng > 180 {
			return models.NewValidationError("location", "coordinates out of range")
		}
	}

	return nil
}
