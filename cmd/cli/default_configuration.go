package cli

import _ "embed"

//go:embed default_config.yaml
var embeddedDefaultConfiguration []byte

// EmbeddedDefaultConfiguration returns a copy of the built-in scan, wallet, and logging defaults with their format.
func EmbeddedDefaultConfiguration() ([]byte, string) {
	return append([]byte(nil), embeddedDefaultConfiguration...), configurationTypeConstant
}
