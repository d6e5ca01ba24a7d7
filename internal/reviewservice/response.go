package reviewservice

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/temirov/sigaudit/internal/report"
)

const (
	reportMissingMessageConstant        = "report field is required"
	reportNotObjectMessageConstant      = "report field must be an object"
	responseDecodeErrorTemplateConstant = "response decoding failed: %w"
	jsonObjectOpeningConstant           = '{'
)

var (
	errReportMissing   = errors.New(reportMissingMessageConstant)
	errReportNotObject = errors.New(reportNotObjectMessageConstant)
)

// ScanResponse is the review service's answer to a scan request.
// ArtifactCID and TransactionHash may hold sentinel values ("N/A", empty, failure text) while unavailable.
type ScanResponse struct {
	Report          report.AuditReport `json:"report" yaml:"report"`
	RawOutput       string             `json:"raw_output" yaml:"raw_output"`
	ArtifactCID     string             `json:"ipfs_cid" yaml:"ipfs_cid"`
	TransactionHash string             `json:"tx_hash" yaml:"tx_hash"`
	ReportDocument  json.RawMessage    `json:"-" yaml:"-"`
}

type scanResponseDocument struct {
	Report          json.RawMessage `json:"report"`
	RawOutput       string          `json:"raw_output"`
	ArtifactCID     string          `json:"ipfs_cid"`
	TransactionHash string          `json:"tx_hash"`
}

// UnmarshalJSON decodes a response, requiring a report object and keeping its original bytes in ReportDocument.
func (response *ScanResponse) UnmarshalJSON(data []byte) error {
	var document scanResponseDocument
	if decodeError := json.Unmarshal(data, &document); decodeError != nil {
		return fmt.Errorf(responseDecodeErrorTemplateConstant, decodeError)
	}

	trimmedReport := bytes.TrimSpace(document.Report)
	if len(trimmedReport) == 0 {
		return errReportMissing
	}
	if trimmedReport[0] != jsonObjectOpeningConstant {
		return errReportNotObject
	}

	decodedReport, reportError := report.Decode(trimmedReport)
	if reportError != nil {
		return reportError
	}

	response.Report = decodedReport
	response.RawOutput = document.RawOutput
	response.ArtifactCID = document.ArtifactCID
	response.TransactionHash = document.TransactionHash
	response.ReportDocument = append(json.RawMessage{}, trimmedReport...)
	return nil
}

// MarshalJSON encodes the response, preferring the original report bytes so digests stay reproducible.
func (response ScanResponse) MarshalJSON() ([]byte, error) {
	reportDocument := response.ReportDocument
	if len(reportDocument) == 0 {
		encodedReport, encodeError := report.Encode(response.Report)
		if encodeError != nil {
			return nil, encodeError
		}
		reportDocument = encodedReport
	}

	return json.Marshal(scanResponseDocument{
		Report:          reportDocument,
		RawOutput:       response.RawOutput,
		ArtifactCID:     response.ArtifactCID,
		TransactionHash: response.TransactionHash,
	})
}

// DigestDocument returns the report bytes used for the canonical digest.
func (response ScanResponse) DigestDocument() []byte {
	if len(response.ReportDocument) > 0 {
		return response.ReportDocument
	}
	encodedReport, encodeError := report.Encode(response.Report)
	if encodeError != nil {
		return nil
	}
	return encodedReport
}

// DecodeScanResponse parses a successful response body, returning MalformedResponseError when the shape is wrong.
func DecodeScanResponse(body []byte) (ScanResponse, error) {
	var response ScanResponse
	if decodeError := json.Unmarshal(body, &response); decodeError != nil {
		return ScanResponse{}, MalformedResponseError{Operation: SubmitScanOperationName, Cause: decodeError}
	}
	return response, nil
}

type errorDocument struct {
	Detail json.RawMessage `json:"detail"`
}

// ExtractDetail returns the detail field of an error body. String details are returned verbatim,
// other JSON values as compact JSON text, and an absent or unreadable detail as an empty string.
func ExtractDetail(body []byte) string {
	var document errorDocument
	if decodeError := json.Unmarshal(body, &document); decodeError != nil {
		return ""
	}
	trimmedDetail := bytes.TrimSpace(document.Detail)
	if len(trimmedDetail) == 0 || bytes.Equal(trimmedDetail, []byte("null")) {
		return ""
	}

	var detailText string
	if json.Unmarshal(trimmedDetail, &detailText) == nil {
		return detailText
	}

	var compactDetail bytes.Buffer
	if compactError := json.Compact(&compactDetail, trimmedDetail); compactError != nil {
		return ""
	}
	return compactDetail.String()
}
