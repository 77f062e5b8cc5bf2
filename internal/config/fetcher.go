package config

import "time"

// FetcherConfig holds settings for NIP-11 metadata fetches.
type FetcherConfig struct {
	Timeout       time.Duration `mapstructure:"TIMEOUT"         json:"timeout"         validate:"required,timeout_duration"`
	UserAgent     string        `mapstructure:"USER_AGENT"      json:"user_agent"      validate:"required,max=200"`
	RatePerSecond float64       `mapstructure:"RATE_PER_SECOND" json:"rate_per_second" validate:"min=0,max=10000"`
	Burst         int           `mapstructure:"BURST"           json:"burst"           validate:"min=1,max=10000"`
	MaxBodyBytes  int64         `mapstructure:"MAX_BODY_BYTES"  json:"max_body_bytes"  validate:"required,min=1024,max=16777216"`
}
