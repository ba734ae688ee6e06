package utils

import "time"

// Pagination
const (
	DefaultPageSize = 20
	MinPageSize     = 1
	MaxPageSize     = 100
)

// Geo
const (
	EarthRadiusKM = 6371.0
	EarthRadiusM  = 6371000.0
)

// Engine defaults
const (
	DefaultReservationTTL       = 15 * time.Minute
	DefaultFrequencyScanLimit   = 1000
	DefaultLowStockThreshold    = 5
	DefaultRecentTransactionCap = 10
)

// HTTP status messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error messages
const (
	ErrInvalidInput        = "invalid input"
	ErrInternalServer      = "internal server error"
	ErrUnauthorized        = "unauthorized"
	ErrForbidden           = "forbidden"
	ErrNotFound            = "not found"
	ErrConflict            = "conflict"
	ErrValidationFailed    = "validation failed"
	ErrAccountNotFound     = "loyalty account not found"
	ErrProgramNotFound     = "loyalty program not found"
	ErrRewardNotFound      = "reward not found"
	ErrRedemptionNotFound  = "redemption not found"
	ErrInsufficientBalance = "insufficient points balance"
)

// Cache keys
const (
	CacheKeyProgram     = "loyalty_program_%s"
	CacheKeyRules       = "loyalty_rules_%s"
	CacheKeyGeofence    = "loyalty_geofence_%s"
	CacheKeyReward      = "loyalty_reward_%s"
	CacheKeyReservation = "loyalty_reservation_%s"
	CacheTTLConfig      = 5 * time.Minute
)

// Outbound event channel, formatted with the tenant hex ID.
const EventChannelFormat = "loyalty:events:%s"
