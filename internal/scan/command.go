package scan

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/sigaudit/internal/attestation"
	"github.com/temirov/sigaudit/internal/results"
	"github.com/temirov/sigaudit/internal/reviewservice"
	"github.com/temirov/sigaudit/internal/ui"
	"github.com/temirov/sigaudit/internal/utils/flags"
	"github.com/temirov/sigaudit/internal/wallet"
	"github.com/temirov/sigaudit/internal/workflow"
)

const (
	commandUseConstant                 = "scan [path]"
	commandShortDescriptionConstant    = "Submit contract source for a signed security review"
	commandLongDescriptionConstant     = "scan connects the configured wallet, signs an attestation message, submits the contract source to the review service, and renders the returned audit report."
	fileFlagNameConstant               = "file"
	fileFlagDescriptionConstant        = "Path to the contract source (- reads standard input)"
	viewFlagNameConstant               = "view"
	viewFlagDescriptionConstant        = "Report view"
	formatFlagNameConstant             = "format"
	formatFlagDescriptionConstant      = "Output format"
	outputFlagNameConstant             = "output"
	outputFlagDescriptionConstant      = "Directory that receives results.json for successful scans"
	keySourceFlagNameConstant          = "key-source"
	keySourceFlagDescriptionConstant   = "Signing key source (env:NAME or file:/path)"
	serviceURLFlagNameConstant         = "service-url"
	serviceURLFlagDescriptionConstant  = "Review service base URL"
	gatewayURLFlagNameConstant         = "gateway-url"
	gatewayURLFlagDescriptionConstant  = "Artifact gateway base URL"
	timeoutFlagNameConstant            = "timeout"
	timeoutFlagDescriptionConstant     = "Deadline for the whole scan (0 disables)"
	assumeYesFlagNameConstant          = "yes"
	assumeYesFlagShorthandConstant     = "y"
	assumeYesFlagDescriptionConstant   = "Approve wallet prompts automatically"
	scanFailedTemplateConstant         = "scan failed (%s): %w"
	saveResultsErrorTemplateConstant   = "scan succeeded but results were not saved: %w"
	savedResultsOutputTemplateConstant = "Saved results to %s\n"
	savedResultsLogMessageConstant     = "scan results saved"
	pathLogFieldConstant               = "path"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current scan configuration.
type ConfigurationProvider func() Configuration

// CommandBuilder assembles the scan command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConsoleLoggerProvider        LoggerProvider
	ConfigurationProvider        ConfigurationProvider
	HumanReadableLoggingProvider func() bool
	KeyResolver                  wallet.KeyResolver
	Prompter                     wallet.ConfirmationPrompter
	HTTPClient                   reviewservice.HTTPClient
	Clock                        attestation.Clock
	IdentifierGenerator          workflow.IdentifierGenerator
	FileReader                   FileReader
}

// Build constructs the cobra command for scan.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  cobra.MaximumNArgs(1),
		RunE:  builder.run,
	}

	command.Flags().String(fileFlagNameConstant, "", fileFlagDescriptionConstant)
	viewValue := flags.NewChoiceValue(string(ui.ViewModeStructured), ui.ViewModeChoices())
	command.Flags().Var(viewValue, viewFlagNameConstant, viewValue.Usage(viewFlagDescriptionConstant))
	formatValue := flags.NewChoiceValue(string(ui.OutputFormatTable), ui.OutputFormatChoices())
	command.Flags().Var(formatValue, formatFlagNameConstant, formatValue.Usage(formatFlagDescriptionConstant))
	command.Flags().String(outputFlagNameConstant, "", outputFlagDescriptionConstant)
	command.Flags().String(keySourceFlagNameConstant, "", keySourceFlagDescriptionConstant)
	command.Flags().String(serviceURLFlagNameConstant, "", serviceURLFlagDescriptionConstant)
	command.Flags().String(gatewayURLFlagNameConstant, "", gatewayURLFlagDescriptionConstant)
	command.Flags().Duration(timeoutFlagNameConstant, 0, timeoutFlagDescriptionConstant)
	command.Flags().BoolP(assumeYesFlagNameConstant, assumeYesFlagShorthandConstant, false, assumeYesFlagDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration, configurationError := builder.resolveConfiguration(command)
	if configurationError != nil {
		return configurationError
	}

	positionalPath := ""
	if len(arguments) > 0 {
		positionalPath = arguments[0]
	}
	filePath, filePathError := command.Flags().GetString(fileFlagNameConstant)
	if filePathError != nil {
		return filePathError
	}
	sourcePath, sourcePathError := ResolveSourcePath(positionalPath, filePath)
	if sourcePathError != nil {
		return sourcePathError
	}
	if IsStandardInput(sourcePath) && configuration.Wallet.Confirm && builder.Prompter == nil {
		return ErrStandardInputNeedsApproval
	}
	code, readError := NewSourceReader(builder.FileReader, command.InOrStdin()).Read(sourcePath)
	if readError != nil {
		return readError
	}

	viewMode, viewError := ui.ParseViewMode(configuration.View)
	if viewError != nil {
		return viewError
	}
	outputFormat, formatError := ui.ParseOutputFormat(configuration.Format)
	if formatError != nil {
		return formatError
	}

	logger := builder.resolveLogger()
	humanReadableLogging := false
	if builder.HumanReadableLoggingProvider != nil {
		humanReadableLogging = builder.HumanReadableLoggingProvider()
	}

	session, sessionError := wallet.NewSessionFromConfiguration(configuration.Wallet, wallet.SessionDependencies{
		Logger:      logger,
		KeyResolver: builder.KeyResolver,
		Prompter:    wallet.ResolvePrompter(configuration.Wallet.Confirm, builder.Prompter, command),
	})
	if sessionError != nil {
		return sessionError
	}
	defer session.Close()

	client, clientError := reviewservice.NewClient(configuration.ServiceURL, builder.HTTPClient, logger)
	if clientError != nil {
		return clientError
	}

	dependencies := workflow.Dependencies{
		Session:             session,
		Builder:             attestation.NewBuilder(builder.Clock),
		Submitter:           client,
		Logger:              logger,
		IdentifierGenerator: builder.IdentifierGenerator,
	}
	if humanReadableLogging {
		dependencies.Observer = ui.NewConsoleTransitionLogger(builder.resolveConsoleLogger(logger))
		dependencies.Logger = zap.NewNop()
	}

	scanWorkflow, workflowError := workflow.New(dependencies, workflow.Options{AutoConnect: true, Timeout: configuration.Timeout})
	if workflowError != nil {
		return workflowError
	}

	snapshot, runError := scanWorkflow.Run(command.Context(), code)
	if runError != nil {
		return runError
	}

	renderer := ui.NewRenderer(command.OutOrStdout(), outputFormat, viewMode, configuration.GatewayURL)
	if renderError := renderer.Render(snapshot); renderError != nil {
		return renderError
	}

	if snapshot.Failure != nil {
		return fmt.Errorf(scanFailedTemplateConstant, snapshot.Failure.Kind, *snapshot.Failure)
	}

	if len(configuration.Output) == 0 || snapshot.Response == nil {
		return nil
	}
	return builder.saveResults(command, logger, configuration.Output, snapshot)
}

func (builder *CommandBuilder) saveResults(command *cobra.Command, logger *zap.Logger, outputDirectory string, snapshot workflow.Snapshot) error {
	store, storeError := results.NewStore(outputDirectory, builder.Clock)
	if storeError != nil {
		return fmt.Errorf(saveResultsErrorTemplateConstant, storeError)
	}
	recordPath, saveError := store.Save(snapshot.Wallet, *snapshot.Response)
	if saveError != nil {
		return fmt.Errorf(saveResultsErrorTemplateConstant, saveError)
	}
	logger.Info(savedResultsLogMessageConstant, zap.String(pathLogFieldConstant, recordPath))
	_, writeError := fmt.Fprintf(command.ErrOrStderr(), savedResultsOutputTemplateConstant, recordPath)
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

func (builder *CommandBuilder) resolveConsoleLogger(fallback *zap.Logger) *zap.Logger {
	if builder.ConsoleLoggerProvider == nil {
		return fallback
	}
	if consoleLogger := builder.ConsoleLoggerProvider(); consoleLogger != nil {
		return consoleLogger
	}
	return fallback
}

func (builder *CommandBuilder) resolveConfiguration(command *cobra.Command) (Configuration, error) {
	configuration := DefaultConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}

	stringOverrides := []struct {
		flagName string
		target   *string
	}{
		{flagName: outputFlagNameConstant, target: &configuration.Output},
		{flagName: keySourceFlagNameConstant, target: &configuration.Wallet.KeySource},
		{flagName: serviceURLFlagNameConstant, target: &configuration.ServiceURL},
		{flagName: gatewayURLFlagNameConstant, target: &configuration.GatewayURL},
	}
	for _, override := range stringOverrides {
		flagValue, flagError := command.Flags().GetString(override.flagName)
		if flagError != nil {
			return Configuration{}, flagError
		}
		if trimmedValue := strings.TrimSpace(flagValue); len(trimmedValue) > 0 {
			*override.target = trimmedValue
		}
	}

	if command.Flags().Changed(timeoutFlagNameConstant) {
		timeoutValue, timeoutError := command.Flags().GetDuration(timeoutFlagNameConstant)
		if timeoutError != nil {
			return Configuration{}, timeoutError
		}
		configuration.Timeout = timeoutValue
	}

	assumeYes, assumeYesError := command.Flags().GetBool(assumeYesFlagNameConstant)
	if assumeYesError != nil {
		return Configuration{}, assumeYesError
	}
	if assumeYes {
		configuration.Wallet.Confirm = false
	}

	configuration.View = flags.ResolveChoice(command.Flags(), viewFlagNameConstant, configuration.View)
	configuration.Format = flags.ResolveChoice(command.Flags(), formatFlagNameConstant, configuration.Format)
	return configuration.Sanitize(), nil
}
