package ui

import (
	"fmt"
	"strings"

	"github.com/temirov/sigaudit/internal/report"
	"github.com/temirov/sigaudit/internal/reviewservice"
	"github.com/temirov/sigaudit/internal/traceability"
)

const (
	viewModeStructuredValueConstant     = "structured"
	viewModeRawValueConstant            = "raw"
	unsupportedViewModeTemplateConstant = "unsupported view %q"
)

// ViewMode selects between the structured report and the unprocessed service output.
type ViewMode string

// View modes.
const (
	ViewModeStructured ViewMode = ViewMode(viewModeStructuredValueConstant)
	ViewModeRaw        ViewMode = ViewMode(viewModeRawValueConstant)
)

// ViewModeChoices lists accepted view names.
func ViewModeChoices() []string {
	return []string{viewModeStructuredValueConstant, viewModeRawValueConstant}
}

// ParseViewMode normalizes a view name.
func ParseViewMode(value string) (ViewMode, error) {
	switch ViewMode(strings.ToLower(strings.TrimSpace(value))) {
	case ViewModeStructured:
		return ViewModeStructured, nil
	case ViewModeRaw:
		return ViewModeRaw, nil
	default:
		return "", fmt.Errorf(unsupportedViewModeTemplateConstant, value)
	}
}

// ViewKind is what the renderer will draw.
type ViewKind string

// View kinds. Waiting means no response exists yet, which differs from a report with no findings.
const (
	ViewKindWaiting    ViewKind = ViewKind("waiting")
	ViewKindStructured ViewKind = ViewKind("structured")
	ViewKindRaw        ViewKind = ViewKind("raw")
)

// FindingView is one finding prepared for display.
type FindingView struct {
	Tier        report.Tier
	Severity    string
	Category    string
	Explanation string
}

// ReportView is the display model of a scan response.
type ReportView struct {
	Kind         ViewKind
	ContractName string
	Pragma       string
	Findings     []FindingView
	TierCounts   map[report.Tier]int
	NoFindings   bool
	RawOutput    string
	Traceability traceability.Panel
}

// BuildReportView derives the display model. A nil response yields the waiting view in either mode.
func BuildReportView(response *reviewservice.ScanResponse, mode ViewMode, gatewayBase string) ReportView {
	if response == nil {
		return ReportView{Kind: ViewKindWaiting}
	}

	panel := traceability.NewPanel(gatewayBase, response.ArtifactCID, response.TransactionHash, response.DigestDocument())
	if mode == ViewModeRaw {
		return ReportView{Kind: ViewKindRaw, RawOutput: response.RawOutput, Traceability: panel}
	}

	findings := make([]FindingView, 0, len(response.Report.Vulnerabilities))
	for _, finding := range response.Report.Vulnerabilities {
		findings = append(findings, FindingView{
			Tier:        finding.Tier(),
			Severity:    finding.Severity,
			Category:    finding.Category,
			Explanation: finding.Explanation,
		})
	}

	return ReportView{
		Kind:         ViewKindStructured,
		ContractName: response.Report.DisplayName(),
		Pragma:       response.Report.Pragma,
		Findings:     findings,
		TierCounts:   report.CountByTier(response.Report.Vulnerabilities),
		NoFindings:   response.Report.IsEmpty(),
		Traceability: panel,
	}
}
