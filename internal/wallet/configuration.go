package wallet

import "strings"

// DefaultKeySourceValue names the environment variable holding the signing key when nothing is configured.
const DefaultKeySourceValue = "env:SIGAUDIT_WALLET_KEY"

// Configuration describes where the signing key lives and whether interactions need approval.
type Configuration struct {
	KeySource string `mapstructure:"key_source"`
	Confirm   bool   `mapstructure:"confirm"`
}

// DefaultConfiguration supplies baseline wallet settings.
func DefaultConfiguration() Configuration {
	return Configuration{
		KeySource: DefaultKeySourceValue,
		Confirm:   true,
	}
}

// Sanitize trims the key source and restores the default when it is blank.
func (configuration Configuration) Sanitize() Configuration {
	sanitized := configuration
	sanitized.KeySource = strings.TrimSpace(configuration.KeySource)
	if len(sanitized.KeySource) == 0 {
		sanitized.KeySource = DefaultKeySourceValue
	}
	return sanitized
}
