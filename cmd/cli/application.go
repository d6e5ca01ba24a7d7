package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/sigaudit/internal/results"
	"github.com/temirov/sigaudit/internal/scan"
	"github.com/temirov/sigaudit/internal/utils"
	"github.com/temirov/sigaudit/internal/wallet"
)

const (
	applicationNameConstant                 = "sigaudit"
	applicationShortDescriptionConstant     = "Wallet-attested smart contract security reviews"
	applicationLongDescriptionConstant      = "sigaudit signs review requests with an Ethereum wallet, submits contract source to a review service, and renders the audit report with its provenance."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format (structured or console)."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	environmentPrefixConstant               = "SIGAUDIT"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationSearchPathEnvironmentName  = "SIGAUDIT_CONFIG_SEARCH_PATH"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	environmentFilesFieldConstant           = "environment_files"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	rootCommandInfoMessageConstant          = "sigaudit CLI executed"
	rootCommandDebugMessageConstant         = "sigaudit CLI diagnostics"
	logFieldCommandNameConstant             = "command_name"
	logFieldArgumentCountConstant           = "argument_count"
	logFieldArgumentsConstant               = "arguments"
	loggerNotInitializedMessageConstant     = "logger not initialized"
	defaultConfigurationSearchPathConstant  = "."
	localEnvironmentFileConstant            = ".env.local"
	defaultEnvironmentFileConstant          = ".env"
	toolsConfigurationKeyConstant           = "tools"
	scanConfigurationKeyConstant            = toolsConfigurationKeyConstant + ".scan"
	scanServiceURLConfigKeyConstant         = scanConfigurationKeyConstant + ".service_url"
	scanGatewayURLConfigKeyConstant         = scanConfigurationKeyConstant + ".gateway_url"
	scanViewConfigKeyConstant               = scanConfigurationKeyConstant + ".view"
	scanFormatConfigKeyConstant             = scanConfigurationKeyConstant + ".format"
	scanWalletKeySourceConfigKeyConstant    = scanConfigurationKeyConstant + ".wallet.key_source"
	scanWalletConfirmConfigKeyConstant      = scanConfigurationKeyConstant + ".wallet.confirm"
)

// Version is the release identifier reported by --version. Release builds override it with -ldflags.
var Version = "dev"

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	Tools  ApplicationToolsConfiguration  `mapstructure:"tools"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// ApplicationToolsConfiguration holds configuration for CLI subcommands grouped by tool family.
type ApplicationToolsConfiguration struct {
	Scan scan.Configuration `mapstructure:"scan"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand           *cobra.Command
	configurationLoader   *utils.ConfigurationLoader
	loggerFactory         *utils.LoggerFactory
	logger                *zap.Logger
	consoleLogger         *zap.Logger
	configuration         ApplicationConfiguration
	configurationMetadata utils.LoadedConfiguration
	configurationFilePath string
	logLevelFlagValue     string
	logFormatFlagValue    string
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		configurationSearchPaths(),
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())
	configurationLoader.SetEnvironmentFiles([]string{localEnvironmentFileConstant, defaultEnvironmentFileConstant})

	application := &Application{
		configurationLoader: configurationLoader,
		loggerFactory:       utils.NewLoggerFactory(),
		logger:              zap.NewNop(),
		consoleLogger:       zap.NewNop(),
		configuration:       defaultApplicationConfiguration(),
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command, arguments)
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)

	scanBuilder := scan.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		ConsoleLoggerProvider: func() *zap.Logger {
			return application.consoleLogger
		},
		HumanReadableLoggingProvider: application.humanReadableLoggingEnabled,
		ConfigurationProvider: func() scan.Configuration {
			return application.configuration.Tools.Scan
		},
	}
	scanCommand, scanBuildError := scanBuilder.Build()
	if scanBuildError == nil {
		cobraCommand.AddCommand(scanCommand)
	}

	walletBuilder := wallet.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		ConfigurationProvider: func() wallet.Configuration {
			return application.configuration.Tools.Scan.Wallet
		},
	}
	walletCommand, walletBuildError := walletBuilder.Build()
	if walletBuildError == nil {
		cobraCommand.AddCommand(walletCommand)
	}

	reportBuilder := results.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		ConfigurationProvider: application.reportShowConfiguration,
	}
	reportCommand, reportBuildError := reportBuilder.Build()
	if reportBuildError == nil {
		cobraCommand.AddCommand(reportCommand)
	}

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

// RootCommand exposes the root command for embedding and tests.
func (application *Application) RootCommand() *cobra.Command {
	return application.rootCommand
}

// Configuration returns the loaded configuration.
func (application *Application) Configuration() ApplicationConfiguration {
	return application.configuration
}

// InitializeForCommand loads configuration and loggers as if the named subcommand were executing.
func (application *Application) InitializeForCommand(commandUse string) error {
	command, _, findError := application.rootCommand.Find([]string{commandUse})
	if findError != nil {
		return findError
	}
	return application.initializeConfiguration(command)
}

func defaultApplicationConfiguration() ApplicationConfiguration {
	return ApplicationConfiguration{
		Common: ApplicationCommonConfiguration{
			LogLevel:  string(utils.LogLevelInfo),
			LogFormat: string(utils.LogFormatStructured),
		},
		Tools: ApplicationToolsConfiguration{Scan: scan.DefaultConfiguration()},
	}
}

func configurationSearchPaths() []string {
	if overridePath := strings.TrimSpace(os.Getenv(configurationSearchPathEnvironmentName)); len(overridePath) > 0 {
		return []string{overridePath}
	}
	return []string{defaultConfigurationSearchPathConstant}
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	scanDefaults := scan.DefaultConfiguration()
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:      string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant:     string(utils.LogFormatStructured),
		scanServiceURLConfigKeyConstant:      scanDefaults.ServiceURL,
		scanGatewayURLConfigKeyConstant:      scanDefaults.GatewayURL,
		scanViewConfigKeyConstant:            scanDefaults.View,
		scanFormatConfigKeyConstant:          scanDefaults.Format,
		scanWalletKeySourceConfigKeyConstant: scanDefaults.Wallet.KeySource,
		scanWalletConfirmConfigKeyConstant:   scanDefaults.Wallet.Confirm,
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}

	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	loggerOutputs, loggerCreationError := application.loggerFactory.CreateLoggerOutputs(
		utils.LogLevel(strings.ToLower(strings.TrimSpace(application.configuration.Common.LogLevel))),
		utils.LogFormat(strings.ToLower(strings.TrimSpace(application.configuration.Common.LogFormat))),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = loggerOutputs.DiagnosticLogger
	application.consoleLogger = loggerOutputs.ConsoleLogger

	application.logger.Info(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
		zap.Strings(environmentFilesFieldConstant, application.configurationMetadata.EnvironmentFilesUsed),
	)

	return nil
}

func (application *Application) reportShowConfiguration() results.ShowConfiguration {
	scanConfiguration := application.configuration.Tools.Scan.Sanitize()
	return results.ShowConfiguration{
		GatewayURL: scanConfiguration.GatewayURL,
		View:       scanConfiguration.View,
		Format:     scanConfiguration.Format,
	}
}

func (application *Application) humanReadableLoggingEnabled() bool {
	logFormatValue := strings.TrimSpace(application.configuration.Common.LogFormat)
	return strings.EqualFold(logFormatValue, string(utils.LogFormatConsole))
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}

	application.logger.Info(
		rootCommandInfoMessageConstant,
		zap.String(logFieldCommandNameConstant, command.Name()),
		zap.Int(logFieldArgumentCountConstant, len(arguments)),
	)

	application.logger.Debug(
		rootCommandDebugMessageConstant,
		zap.Strings(logFieldArgumentsConstant, arguments),
	)

	return command.Help()
}

func (application *Application) flushLogger() error {
	for _, logger := range []*zap.Logger{application.logger, application.consoleLogger} {
		if syncError := application.syncLoggerInstance(logger); syncError != nil {
			return syncError
		}
	}
	return nil
}

func (application *Application) syncLoggerInstance(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}

	syncError := logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
