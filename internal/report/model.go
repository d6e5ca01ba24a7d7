package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	vulnerabilitiesFieldNameConstant            = "vulnerabilities"
	missingFieldMessageTemplateConstant         = "%s field is required"
	notArrayFieldMessageTemplateConstant        = "%s field must be an array"
	reportDecodingErrorTemplateConstant         = "report decoding failed: %w"
	jsonArrayOpeningConstant                    = '['
	unknownContractNameConstant                 = "Unknown Contract"
	reportDocumentMissingErrorMessageConstant   = "report document is empty"
	reportDocumentEncodingErrorTemplateConstant = "report encoding failed: %w"
)

// VulnerabilityFinding is a single issue reported by the review service.
type VulnerabilityFinding struct {
	Severity    string `json:"severity" yaml:"severity"`
	Category    string `json:"category" yaml:"category"`
	Explanation string `json:"explanation" yaml:"explanation"`
}

// Tier returns the display tier of the finding's severity.
func (finding VulnerabilityFinding) Tier() Tier {
	return ClassifySeverity(finding.Severity)
}

// AuditReport is the structured review of a submitted contract.
// Name and Pragma are optional; Vulnerabilities must be present in the decoded document.
type AuditReport struct {
	Name            string                 `json:"name,omitempty" yaml:"name,omitempty"`
	Pragma          string                 `json:"pragma,omitempty" yaml:"pragma,omitempty"`
	Vulnerabilities []VulnerabilityFinding `json:"vulnerabilities" yaml:"vulnerabilities"`
}

// FieldError reports a report document that lacks a required field or carries it in the wrong shape.
type FieldError struct {
	FieldName string
	Message   string
}

// Error describes the field problem.
func (fieldError FieldError) Error() string {
	return fieldError.Message
}

type auditReportDocument struct {
	Name            string          `json:"name"`
	Pragma          string          `json:"pragma"`
	Vulnerabilities json.RawMessage `json:"vulnerabilities"`
}

// UnmarshalJSON decodes a report and rejects documents without a vulnerabilities array.
func (auditReport *AuditReport) UnmarshalJSON(data []byte) error {
	var document auditReportDocument
	if decodeError := json.Unmarshal(data, &document); decodeError != nil {
		return fmt.Errorf(reportDecodingErrorTemplateConstant, decodeError)
	}

	trimmedVulnerabilities := bytes.TrimSpace(document.Vulnerabilities)
	if len(trimmedVulnerabilities) == 0 {
		return FieldError{FieldName: vulnerabilitiesFieldNameConstant, Message: fmt.Sprintf(missingFieldMessageTemplateConstant, vulnerabilitiesFieldNameConstant)}
	}
	if trimmedVulnerabilities[0] != jsonArrayOpeningConstant {
		return FieldError{FieldName: vulnerabilitiesFieldNameConstant, Message: fmt.Sprintf(notArrayFieldMessageTemplateConstant, vulnerabilitiesFieldNameConstant)}
	}

	findings := make([]VulnerabilityFinding, 0)
	if decodeError := json.Unmarshal(trimmedVulnerabilities, &findings); decodeError != nil {
		return fmt.Errorf(reportDecodingErrorTemplateConstant, decodeError)
	}

	auditReport.Name = document.Name
	auditReport.Pragma = document.Pragma
	auditReport.Vulnerabilities = findings
	return nil
}

// DisplayName returns the contract name or a placeholder when the service did not provide one.
func (auditReport AuditReport) DisplayName() string {
	if len(auditReport.Name) == 0 {
		return unknownContractNameConstant
	}
	return auditReport.Name
}

// IsEmpty reports whether the report carries no findings.
// An empty report is an affirmative result and differs from having no report at all.
func (auditReport AuditReport) IsEmpty() bool {
	return len(auditReport.Vulnerabilities) == 0
}

// IsEmpty reports whether the report carries no findings.
func IsEmpty(auditReport AuditReport) bool {
	return auditReport.IsEmpty()
}

// Decode parses a standalone report document.
func Decode(document []byte) (AuditReport, error) {
	if len(bytes.TrimSpace(document)) == 0 {
		return AuditReport{}, errors.New(reportDocumentMissingErrorMessageConstant)
	}
	var auditReport AuditReport
	if decodeError := json.Unmarshal(document, &auditReport); decodeError != nil {
		return AuditReport{}, decodeError
	}
	return auditReport, nil
}

// Encode renders the report as JSON for digesting when no original document is available.
func Encode(auditReport AuditReport) ([]byte, error) {
	findings := auditReport.Vulnerabilities
	if findings == nil {
		findings = []VulnerabilityFinding{}
	}
	encodable := auditReport
	encodable.Vulnerabilities = findings
	encoded, encodeError := json.Marshal(encodable)
	if encodeError != nil {
		return nil, fmt.Errorf(reportDocumentEncodingErrorTemplateConstant, encodeError)
	}
	return encoded, nil
}
