package results

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/sigaudit/internal/reviewservice"
	"github.com/temirov/sigaudit/internal/ui"
	"github.com/temirov/sigaudit/internal/utils/flags"
	pathutils "github.com/temirov/sigaudit/internal/utils/path"
)

const (
	reportCommandUseConstant              = "report"
	reportCommandShortDescriptionConstant = "Inspect audit reports"
	reportCommandLongDescriptionConstant  = "report renders audit reports saved by scan or pinned on the artifact gateway."
	showCommandUseConstant                = "show"
	showCommandShortDescriptionConstant   = "Render a stored or pinned audit report"
	showCommandLongDescriptionConstant    = "show renders a results.json written by scan --output, or downloads the report pinned under a CID."
	fromFlagNameConstant                  = "from"
	fromFlagDescriptionConstant           = "Results directory or results.json file to render"
	cidFlagNameConstant                   = "cid"
	cidFlagDescriptionConstant            = "Artifact CID of a pinned report to fetch from the gateway"
	gatewayURLFlagNameConstant            = "gateway-url"
	gatewayURLFlagDescriptionConstant     = "Artifact gateway base URL"
	viewFlagNameConstant                  = "view"
	viewFlagDescriptionConstant           = "Report view"
	formatFlagNameConstant                = "format"
	formatFlagDescriptionConstant         = "Output format"
	unexpectedArgumentsMessageConstant    = "report show does not accept positional arguments"
	sourceRequiredMessageConstant         = "exactly one of --from or --cid must be provided"
	loadFailedTemplateConstant            = "report show failed: %w"
	fetchFailedTemplateConstant           = "report fetch failed: %w"
	renderingStoredLogMessageConstant     = "rendering stored report"
	renderingPinnedLogMessageConstant     = "rendering pinned report"
	sourceLogFieldConstant                = "source"
	cidLogFieldConstant                   = "cid"
)

var errSourceRequired = errors.New(sourceRequiredMessageConstant)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the rendering configuration.
type ConfigurationProvider func() ShowConfiguration

// CommandBuilder assembles the report command hierarchy.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	HTTPClient            reviewservice.HTTPClient
}

// Build constructs the report command with the show subcommand.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	reportCommand := &cobra.Command{
		Use:   reportCommandUseConstant,
		Short: reportCommandShortDescriptionConstant,
		Long:  reportCommandLongDescriptionConstant,
	}

	showCommand := &cobra.Command{
		Use:   showCommandUseConstant,
		Short: showCommandShortDescriptionConstant,
		Long:  showCommandLongDescriptionConstant,
		RunE:  builder.runShow,
	}
	showCommand.Flags().String(fromFlagNameConstant, "", fromFlagDescriptionConstant)
	showCommand.Flags().String(cidFlagNameConstant, "", cidFlagDescriptionConstant)
	showCommand.Flags().String(gatewayURLFlagNameConstant, "", gatewayURLFlagDescriptionConstant)

	viewValue := flags.NewChoiceValue(string(ui.ViewModeStructured), ui.ViewModeChoices())
	showCommand.Flags().Var(viewValue, viewFlagNameConstant, viewValue.Usage(viewFlagDescriptionConstant))
	formatValue := flags.NewChoiceValue(string(ui.OutputFormatTable), ui.OutputFormatChoices())
	showCommand.Flags().Var(formatValue, formatFlagNameConstant, formatValue.Usage(formatFlagDescriptionConstant))

	reportCommand.AddCommand(showCommand)
	return reportCommand, nil
}

func (builder *CommandBuilder) runShow(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(unexpectedArgumentsMessageConstant)
	}

	configuration := builder.resolveConfiguration()
	fromValue, fromError := command.Flags().GetString(fromFlagNameConstant)
	if fromError != nil {
		return fromError
	}
	cidValue, cidError := command.Flags().GetString(cidFlagNameConstant)
	if cidError != nil {
		return cidError
	}
	gatewayURLValue, gatewayURLError := command.Flags().GetString(gatewayURLFlagNameConstant)
	if gatewayURLError != nil {
		return gatewayURLError
	}
	if trimmedGatewayURL := strings.TrimSpace(gatewayURLValue); len(trimmedGatewayURL) > 0 {
		configuration.GatewayURL = trimmedGatewayURL
	}

	fromValue = strings.TrimSpace(fromValue)
	cidValue = strings.TrimSpace(cidValue)
	if (len(fromValue) == 0) == (len(cidValue) == 0) {
		return errSourceRequired
	}

	renderer, rendererError := newRenderer(command, configuration)
	if rendererError != nil {
		return rendererError
	}

	logger := builder.resolveLogger()
	if len(fromValue) > 0 {
		sourcePath := pathutils.NewHomeExpander().Expand(fromValue)
		logger.Debug(renderingStoredLogMessageConstant, zap.String(sourceLogFieldConstant, sourcePath))
		record, loadError := Load(sourcePath)
		if loadError != nil {
			return fmt.Errorf(loadFailedTemplateConstant, loadError)
		}
		return renderer.RenderResponse(record.Response, record.Wallet)
	}

	gatewayClient, gatewayError := reviewservice.NewGatewayClient(configuration.GatewayURL, builder.HTTPClient, logger)
	if gatewayError != nil {
		return gatewayError
	}
	logger.Debug(renderingPinnedLogMessageConstant, zap.String(cidLogFieldConstant, cidValue))
	pinnedReport, reportDocument, fetchError := gatewayClient.FetchReport(command.Context(), cidValue)
	if fetchError != nil {
		return fmt.Errorf(fetchFailedTemplateConstant, fetchError)
	}
	return renderer.RenderResponse(reviewservice.ScanResponse{
		Report:         pinnedReport,
		ArtifactCID:    cidValue,
		ReportDocument: reportDocument,
	}, "")
}

func newRenderer(command *cobra.Command, configuration ShowConfiguration) (*ui.Renderer, error) {
	viewMode, viewError := ui.ParseViewMode(flags.ResolveChoice(command.Flags(), viewFlagNameConstant, configuration.View))
	if viewError != nil {
		return nil, viewError
	}
	outputFormat, formatError := ui.ParseOutputFormat(flags.ResolveChoice(command.Flags(), formatFlagNameConstant, configuration.Format))
	if formatError != nil {
		return nil, formatError
	}
	return ui.NewRenderer(command.OutOrStdout(), outputFormat, viewMode, configuration.GatewayURL), nil
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

func (builder *CommandBuilder) resolveConfiguration() ShowConfiguration {
	configuration := ShowConfiguration{}
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}
	return configuration.Sanitize()
}
