package scan

import (
	"strings"
	"time"

	"github.com/temirov/sigaudit/internal/ui"
	pathutils "github.com/temirov/sigaudit/internal/utils/path"
	"github.com/temirov/sigaudit/internal/wallet"
)

const (
	// DefaultServiceURLConstant is the review service base URL used when none is configured.
	DefaultServiceURLConstant = "http://127.0.0.1:8000"
	// DefaultGatewayURLConstant is the artifact gateway base URL used when none is configured.
	DefaultGatewayURLConstant = "https://gateway.pinata.cloud/ipfs/"
)

// Configuration captures the scan tool settings.
type Configuration struct {
	ServiceURL string               `mapstructure:"service_url"`
	GatewayURL string               `mapstructure:"gateway_url"`
	Timeout    time.Duration        `mapstructure:"timeout"`
	View       string               `mapstructure:"view"`
	Format     string               `mapstructure:"format"`
	Output     string               `mapstructure:"output"`
	Wallet     wallet.Configuration `mapstructure:"wallet"`
}

// DefaultConfiguration supplies baseline scan settings.
func DefaultConfiguration() Configuration {
	return Configuration{
		ServiceURL: DefaultServiceURLConstant,
		GatewayURL: DefaultGatewayURLConstant,
		View:       string(ui.ViewModeStructured),
		Format:     string(ui.OutputFormatTable),
		Wallet:     wallet.DefaultConfiguration(),
	}
}

// Sanitize trims string settings, restores blank URLs and choices to their defaults, expands a leading ~ in the
// output directory, and clamps a negative timeout to zero.
func (configuration Configuration) Sanitize() Configuration {
	defaults := DefaultConfiguration()
	sanitized := Configuration{
		ServiceURL: valueOrDefault(configuration.ServiceURL, defaults.ServiceURL),
		GatewayURL: valueOrDefault(configuration.GatewayURL, defaults.GatewayURL),
		Timeout:    configuration.Timeout,
		View:       strings.ToLower(valueOrDefault(configuration.View, defaults.View)),
		Format:     strings.ToLower(valueOrDefault(configuration.Format, defaults.Format)),
		Output:     strings.TrimSpace(configuration.Output),
		Wallet:     configuration.Wallet.Sanitize(),
	}
	if sanitized.Timeout < 0 {
		sanitized.Timeout = 0
	}
	if len(sanitized.Output) > 0 {
		sanitized.Output = pathutils.NewHomeExpander().Expand(sanitized.Output)
	}
	return sanitized
}

func valueOrDefault(value string, defaultValue string) string {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return defaultValue
	}
	return trimmedValue
}
