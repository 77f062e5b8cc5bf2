package config

import "time"

// DiscoveryConfig holds settings for the relay list subscription.
type DiscoveryConfig struct {
	Enabled          bool          `mapstructure:"ENABLED"           json:"enabled"`
	Seeds            []string      `mapstructure:"SEEDS"             json:"seeds"             validate:"required,min=1,dive,relay_url"`
	Lookback         time.Duration `mapstructure:"LOOKBACK"          json:"lookback"          validate:"required,min=1m"`
	MaxInFlight      int           `mapstructure:"MAX_IN_FLIGHT"     json:"max_in_flight"     validate:"required,min=1,max=1000"`
	VerifySignatures bool          `mapstructure:"VERIFY_SIGNATURES" json:"verify_signatures"`
	ResubscribeDelay time.Duration `mapstructure:"RESUBSCRIBE_DELAY" json:"resubscribe_delay" validate:"required,reasonable_duration"`
}
