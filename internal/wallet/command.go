package wallet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	walletCommandUseConstant                = "wallet"
	walletCommandShortDescriptionConstant   = "Manage the signing wallet"
	walletCommandLongDescriptionConstant    = "wallet inspects the key used to attest review requests."
	connectCommandUseConstant               = "connect"
	connectCommandShortDescriptionConstant  = "Connect the wallet and print its address"
	connectCommandLongDescriptionConstant   = "connect loads the configured signing key, asks for approval, and prints the wallet address."
	unexpectedArgumentsErrorMessageConstant = "wallet connect does not accept positional arguments"
	keySourceFlagNameConstant               = "key-source"
	keySourceFlagDescriptionConstant        = "Signing key source (env:NAME or file:/path)"
	assumeYesFlagNameConstant               = "yes"
	assumeYesFlagShorthandConstant          = "y"
	assumeYesFlagDescriptionConstant        = "Approve wallet prompts automatically"
	keySourceParseErrorTemplateConstant     = "invalid key source: %w"
	connectErrorTemplateConstant            = "wallet connect failed: %w"
	connectedOutputTemplateConstant         = "Connected: %s (%s)\n"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current wallet configuration.
type ConfigurationProvider func() Configuration

// CommandBuilder assembles the wallet command hierarchy.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	KeyResolver           KeyResolver
	Prompter              ConfirmationPrompter
}

// Build constructs the wallet command with the connect subcommand.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	walletCommand := &cobra.Command{
		Use:   walletCommandUseConstant,
		Short: walletCommandShortDescriptionConstant,
		Long:  walletCommandLongDescriptionConstant,
	}

	connectCommand := &cobra.Command{
		Use:   connectCommandUseConstant,
		Short: connectCommandShortDescriptionConstant,
		Long:  connectCommandLongDescriptionConstant,
		RunE:  builder.runConnect,
	}
	connectCommand.Flags().String(keySourceFlagNameConstant, "", keySourceFlagDescriptionConstant)
	connectCommand.Flags().BoolP(assumeYesFlagNameConstant, assumeYesFlagShorthandConstant, false, assumeYesFlagDescriptionConstant)

	walletCommand.AddCommand(connectCommand)
	return walletCommand, nil
}

func (builder *CommandBuilder) runConnect(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(unexpectedArgumentsErrorMessageConstant)
	}

	configuration := builder.resolveConfiguration()
	keySourceFlagValue, keySourceFlagError := command.Flags().GetString(keySourceFlagNameConstant)
	if keySourceFlagError != nil {
		return keySourceFlagError
	}
	if trimmedFlagValue := strings.TrimSpace(keySourceFlagValue); len(trimmedFlagValue) > 0 {
		configuration.KeySource = trimmedFlagValue
	}
	assumeYes, assumeYesError := command.Flags().GetBool(assumeYesFlagNameConstant)
	if assumeYesError != nil {
		return assumeYesError
	}
	if assumeYes {
		configuration.Confirm = false
	}

	session, sessionError := NewSessionFromConfiguration(configuration, SessionDependencies{
		Logger:      builder.resolveLogger(),
		KeyResolver: builder.KeyResolver,
		Prompter:    ResolvePrompter(configuration.Confirm, builder.Prompter, command),
	})
	if sessionError != nil {
		return sessionError
	}
	defer session.Close()

	address, connectError := session.Connect(command.Context())
	if connectError != nil {
		return fmt.Errorf(connectErrorTemplateConstant, connectError)
	}

	_, writeError := fmt.Fprintf(command.OutOrStdout(), connectedOutputTemplateConstant, address, ShortAddress(address))
	return writeError
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveConfiguration() Configuration {
	configuration := DefaultConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}
	return configuration.Sanitize()
}

// SessionDependencies overrides collaborators used by NewSessionFromConfiguration.
type SessionDependencies struct {
	Logger      *zap.Logger
	KeyResolver KeyResolver
	Prompter    ConfirmationPrompter
}

// NewSessionFromConfiguration builds a Session backed by a KeyProvider for the configured key source.
func NewSessionFromConfiguration(configuration Configuration, dependencies SessionDependencies) (*Session, error) {
	keySource, keySourceError := ParseKeySource(configuration.Sanitize().KeySource)
	if keySourceError != nil {
		return nil, fmt.Errorf(keySourceParseErrorTemplateConstant, keySourceError)
	}
	provider := NewKeyProvider(keySource, dependencies.KeyResolver, dependencies.Prompter)
	return NewSession(provider, dependencies.Logger), nil
}

// ResolvePrompter selects the prompter for a command: an explicit override, auto approval when confirmation
// is disabled, or an interactive prompter over the command's input and error streams.
func ResolvePrompter(confirm bool, override ConfirmationPrompter, command *cobra.Command) ConfirmationPrompter {
	if override != nil {
		return override
	}
	if !confirm || command == nil {
		return AutoApprovePrompter{}
	}
	return NewIOConfirmationPrompter(command.InOrStdin(), command.ErrOrStderr())
}
