package config

// GeneralConfig holds process-wide settings.
type GeneralConfig struct {
	Name string `mapstructure:"NAME" json:"name" validate:"required,min=1,max=64"`
}
