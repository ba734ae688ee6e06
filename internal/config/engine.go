package config

import "time"

type EngineConfig struct {
	DefaultReservationTTL time.Duration `yaml:"default_reservation_ttl"`
	FrequencyScanLimit    int64         `yaml:"frequency_scan_limit"`
	LowStockThreshold     int64         `yaml:"low_stock_threshold"`
	ApplyTimeout          time.Duration `yaml:"apply_timeout"`
}

func loadEngineConfig() *EngineConfig {
	return &EngineConfig{
		DefaultReservationTTL: getEnvAsDuration("ENGINE_RESERVATION_TTL", 15*time.Minute),
		FrequencyScanLimit:    getEnvAsInt64("ENGINE_FREQUENCY_SCAN_LIMIT", 1000),
		LowStockThreshold:     getEnvAsInt64("ENGINE_LOW_STOCK_THRESHOLD", 5),
		ApplyTimeout:          getEnvAsDuration("ENGINE_APPLY_TIMEOUT", 10*time.Second),
	}
}
