package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"
	"gopkg.in/yaml.v3"

	"github.com/temirov/sigaudit/internal/report"
	"github.com/temirov/sigaudit/internal/reviewservice"
	"github.com/temirov/sigaudit/internal/traceability"
	"github.com/temirov/sigaudit/internal/wallet"
	"github.com/temirov/sigaudit/internal/workflow"
)

const (
	outputFormatTableValueConstant      = "table"
	outputFormatJSONValueConstant       = "json"
	outputFormatYAMLValueConstant       = "yaml"
	unsupportedFormatTemplateConstant   = "unsupported format %q"
	waitingMessageConstant              = "Waiting for scan..."
	noFindingsMessageConstant           = "No vulnerabilities detected."
	pragmaLineTemplateConstant          = "Pragma: %s\n"
	walletLineTemplateConstant          = "Wallet: %s\n"
	findingsCountTemplateConstant       = "%d finding(s): %d high, %d medium, %d other\n"
	traceabilityTitleConstant           = "Traceability"
	artifactLineTemplateConstant        = "IPFS Report:   %s"
	artifactResolvedTemplateConstant    = "%s (%s)"
	transactionLineTemplateConstant     = "Blockchain Tx: %s"
	digestLineTemplateConstant          = "Report digest: %s"
	rawOutputTitleConstant              = "Raw Output"
	severityHeaderConstant              = "Severity"
	categoryHeaderConstant              = "Category"
	explanationHeaderConstant           = "Explanation"
	jsonIndentConstant                  = "  "
	lineBreakConstant                   = "\n"
	renderEncodingErrorTemplateConstant = "render %s failed: %w"
)

// OutputFormat selects the rendering encoding.
type OutputFormat string

// Output formats.
const (
	OutputFormatTable OutputFormat = OutputFormat(outputFormatTableValueConstant)
	OutputFormatJSON  OutputFormat = OutputFormat(outputFormatJSONValueConstant)
	OutputFormatYAML  OutputFormat = OutputFormat(outputFormatYAMLValueConstant)
)

// OutputFormatChoices lists accepted format names.
func OutputFormatChoices() []string {
	return []string{outputFormatTableValueConstant, outputFormatJSONValueConstant, outputFormatYAMLValueConstant}
}

// ParseOutputFormat normalizes a format name.
func ParseOutputFormat(value string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(value))) {
	case OutputFormatTable:
		return OutputFormatTable, nil
	case OutputFormatJSON:
		return OutputFormatJSON, nil
	case OutputFormatYAML:
		return OutputFormatYAML, nil
	default:
		return "", fmt.Errorf(unsupportedFormatTemplateConstant, value)
	}
}

// MachineDocument is the json and yaml rendering of a scan result.
type MachineDocument struct {
	ScanID          string              `json:"scan_id,omitempty" yaml:"scan_id,omitempty"`
	State           workflow.State      `json:"state" yaml:"state"`
	Status          string              `json:"status" yaml:"status"`
	Wallet          string              `json:"wallet,omitempty" yaml:"wallet,omitempty"`
	Report          *report.AuditReport `json:"report,omitempty" yaml:"report,omitempty"`
	RawOutput       string              `json:"raw_output,omitempty" yaml:"raw_output,omitempty"`
	ArtifactCID     string              `json:"ipfs_cid,omitempty" yaml:"ipfs_cid,omitempty"`
	TransactionHash string              `json:"tx_hash,omitempty" yaml:"tx_hash,omitempty"`
	Traceability    *traceability.Panel `json:"traceability,omitempty" yaml:"traceability,omitempty"`
	Failure         *workflow.Failure   `json:"failure,omitempty" yaml:"failure,omitempty"`
}

// Renderer writes scan results to a writer.
type Renderer struct {
	writer      io.Writer
	format      OutputFormat
	mode        ViewMode
	gatewayBase string
}

// NewRenderer constructs a Renderer. Empty format and mode default to table and structured.
func NewRenderer(writer io.Writer, format OutputFormat, mode ViewMode, gatewayBase string) *Renderer {
	if len(format) == 0 {
		format = OutputFormatTable
	}
	if len(mode) == 0 {
		mode = ViewModeStructured
	}
	return &Renderer{writer: writer, format: format, mode: mode, gatewayBase: gatewayBase}
}

// Render draws a workflow snapshot.
func (renderer *Renderer) Render(snapshot workflow.Snapshot) error {
	switch renderer.format {
	case OutputFormatJSON:
		return renderer.renderJSON(renderer.buildMachineDocument(snapshot))
	case OutputFormatYAML:
		return renderer.renderYAML(renderer.buildMachineDocument(snapshot))
	default:
		return renderer.renderTable(snapshot)
	}
}

// RenderResponse draws a stored or fetched response as a completed scan.
func (renderer *Renderer) RenderResponse(response reviewservice.ScanResponse, walletAddress string) error {
	return renderer.Render(workflow.Snapshot{
		State:    workflow.StateSucceeded,
		Status:   workflow.StateSucceeded.StatusText(),
		Wallet:   walletAddress,
		Response: &response,
	})
}

func (renderer *Renderer) buildMachineDocument(snapshot workflow.Snapshot) MachineDocument {
	document := MachineDocument{
		ScanID:  snapshot.ScanID,
		State:   snapshot.State,
		Status:  snapshot.Status,
		Wallet:  snapshot.Wallet,
		Failure: snapshot.Failure,
	}
	if snapshot.Response == nil {
		return document
	}

	response := snapshot.Response
	auditReport := response.Report
	if auditReport.Vulnerabilities == nil {
		auditReport.Vulnerabilities = []report.VulnerabilityFinding{}
	}
	panel := traceability.NewPanel(renderer.gatewayBase, response.ArtifactCID, response.TransactionHash, response.DigestDocument())

	document.Report = &auditReport
	document.RawOutput = response.RawOutput
	document.ArtifactCID = response.ArtifactCID
	document.TransactionHash = response.TransactionHash
	document.Traceability = &panel
	return document
}

func (renderer *Renderer) renderJSON(document MachineDocument) error {
	encoder := json.NewEncoder(renderer.writer)
	encoder.SetIndent("", jsonIndentConstant)
	encoder.SetEscapeHTML(false)
	if encodeError := encoder.Encode(document); encodeError != nil {
		return fmt.Errorf(renderEncodingErrorTemplateConstant, OutputFormatJSON, encodeError)
	}
	return nil
}

func (renderer *Renderer) renderYAML(document MachineDocument) error {
	encoder := yaml.NewEncoder(renderer.writer)
	encoder.SetIndent(2)
	if encodeError := encoder.Encode(document); encodeError != nil {
		return fmt.Errorf(renderEncodingErrorTemplateConstant, OutputFormatYAML, encodeError)
	}
	return encoder.Close()
}

func (renderer *Renderer) renderTable(snapshot workflow.Snapshot) error {
	var output strings.Builder

	if snapshot.Failure != nil {
		output.WriteString(pterm.Error.Sprintln(snapshot.Failure.Message))
		return renderer.write(output.String())
	}

	if len(snapshot.Wallet) > 0 {
		output.WriteString(fmt.Sprintf(walletLineTemplateConstant, wallet.ShortAddress(snapshot.Wallet)))
	}

	view := BuildReportView(snapshot.Response, renderer.mode, renderer.gatewayBase)
	switch view.Kind {
	case ViewKindWaiting:
		output.WriteString(pterm.Info.Sprintln(waitingMessageConstant))
	case ViewKindRaw:
		output.WriteString(renderTraceability(view.Traceability))
		output.WriteString(pterm.DefaultSection.Sprint(rawOutputTitleConstant))
		output.WriteString(view.RawOutput)
		if !strings.HasSuffix(view.RawOutput, lineBreakConstant) {
			output.WriteString(lineBreakConstant)
		}
	default:
		structuredOutput, structuredError := renderStructured(view)
		if structuredError != nil {
			return structuredError
		}
		output.WriteString(structuredOutput)
	}

	return renderer.write(output.String())
}

func (renderer *Renderer) write(text string) error {
	_, writeError := fmt.Fprint(renderer.writer, text)
	return writeError
}

func renderStructured(view ReportView) (string, error) {
	var output strings.Builder
	output.WriteString(pterm.DefaultSection.Sprint(view.ContractName))
	if len(view.Pragma) > 0 {
		output.WriteString(fmt.Sprintf(pragmaLineTemplateConstant, view.Pragma))
	}
	output.WriteString(renderTraceability(view.Traceability))

	if view.NoFindings {
		output.WriteString(pterm.Success.Sprintln(noFindingsMessageConstant))
		return output.String(), nil
	}

	tableData := pterm.TableData{{severityHeaderConstant, categoryHeaderConstant, explanationHeaderConstant}}
	for _, finding := range view.Findings {
		tableData = append(tableData, []string{tierColor(finding.Tier).Sprint(finding.Severity), finding.Category, finding.Explanation})
	}
	output.WriteString(fmt.Sprintf(findingsCountTemplateConstant, len(view.Findings), view.TierCounts[report.TierA], view.TierCounts[report.TierB], view.TierCounts[report.TierC]))

	table, tableError := pterm.DefaultTable.WithHasHeader().WithData(tableData).Srender()
	if tableError != nil {
		return "", tableError
	}
	output.WriteString(table)
	output.WriteString(lineBreakConstant)
	return output.String(), nil
}

func renderTraceability(panel traceability.Panel) string {
	artifactText := pterm.FgYellow.Sprint(panel.Artifact.Display)
	if !panel.Artifact.Pending() {
		artifactText = fmt.Sprintf(artifactResolvedTemplateConstant, panel.Artifact.Display, panel.Artifact.URL)
	}

	transactionText := pterm.FgGreen.Sprint(panel.Transaction.Display)
	if panel.Transaction.Pending() {
		transactionText = pterm.FgYellow.Sprint(panel.Transaction.Display)
	}

	lines := []string{
		fmt.Sprintf(artifactLineTemplateConstant, artifactText),
		fmt.Sprintf(transactionLineTemplateConstant, transactionText),
	}
	if len(panel.ReportDigest) > 0 {
		lines = append(lines, fmt.Sprintf(digestLineTemplateConstant, panel.ReportDigest))
	}

	return pterm.DefaultBox.WithTitle(traceabilityTitleConstant).Sprint(strings.Join(lines, lineBreakConstant)) + lineBreakConstant
}

func tierColor(tier report.Tier) pterm.Color {
	switch tier {
	case report.TierA:
		return pterm.FgRed
	case report.TierB:
		return pterm.FgYellow
	default:
		return pterm.FgBlue
	}
}
