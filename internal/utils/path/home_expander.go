package pathutils

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	tildeSymbolConstant             = "~"
	tildeForwardSlashPrefixConstant = "~/"
)

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// HomeExpander converts user home shortcuts in output and key file paths to absolute paths.
type HomeExpander struct {
	homeDirectoryProvider HomeDirectoryProvider
}

// NewHomeExpander constructs a HomeExpander using the operating system lookup.
func NewHomeExpander() *HomeExpander {
	return NewHomeExpanderWithProvider(os.UserHomeDir)
}

// NewHomeExpanderWithProvider constructs a HomeExpander with a custom provider.
func NewHomeExpanderWithProvider(provider HomeDirectoryProvider) *HomeExpander {
	if provider == nil {
		provider = os.UserHomeDir
	}
	return &HomeExpander{homeDirectoryProvider: provider}
}

// Expand resolves a leading tilde to the home directory; other paths are returned unchanged.
func (expander *HomeExpander) Expand(candidatePath string) string {
	if expander == nil || !strings.HasPrefix(candidatePath, tildeSymbolConstant) {
		return candidatePath
	}

	homeDirectory, homeError := expander.homeDirectoryProvider()
	if homeError != nil || len(homeDirectory) == 0 {
		return candidatePath
	}

	if candidatePath == tildeSymbolConstant {
		return homeDirectory
	}
	if strings.HasPrefix(candidatePath, tildeForwardSlashPrefixConstant) {
		return filepath.Join(homeDirectory, strings.TrimPrefix(candidatePath, tildeForwardSlashPrefixConstant))
	}
	return candidatePath
}
