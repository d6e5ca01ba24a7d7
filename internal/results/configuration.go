package results

import "strings"

// ShowConfiguration carries the rendering settings used by report show.
type ShowConfiguration struct {
	GatewayURL string
	View       string
	Format     string
}

// Sanitize trims every field.
func (configuration ShowConfiguration) Sanitize() ShowConfiguration {
	return ShowConfiguration{
		GatewayURL: strings.TrimSpace(configuration.GatewayURL),
		View:       strings.TrimSpace(configuration.View),
		Format:     strings.TrimSpace(configuration.Format),
	}
}
