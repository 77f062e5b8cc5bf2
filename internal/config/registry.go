package config

import "time"

// RegistryConfig holds the lookup registry tiers' settings.
type RegistryConfig struct {
	CacheCapacity   int           `mapstructure:"CACHE_CAPACITY"   json:"cache_capacity"   validate:"required,min=1,max=1000000"`
	CacheLifespan   time.Duration `mapstructure:"CACHE_LIFESPAN"   json:"cache_lifespan"   validate:"required,reasonable_duration"`
	StalenessWindow time.Duration `mapstructure:"STALENESS_WINDOW" json:"staleness_window" validate:"required,reasonable_duration"`
	LockStripes     int           `mapstructure:"LOCK_STRIPES"     json:"lock_stripes"     validate:"required,min=1,max=65536"`
}
