package reviewservice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/sigaudit/internal/report"
	"github.com/temirov/sigaudit/internal/traceability"
)

const (
	gatewayURLMissingMessageConstant    = "artifact gateway base URL must be provided"
	artifactPendingMessageConstant      = "artifact identifier is not available"
	gatewayRequestErrorTemplateConstant = "artifact request creation failed: %w"
	fetchingReportLogMessageConstant    = "fetching report from artifact gateway"
)

// ErrGatewayNotConfigured indicates a gateway client constructed without a base URL.
var ErrGatewayNotConfigured = errors.New(gatewayURLMissingMessageConstant)

// ErrArtifactPending indicates a fetch for an empty or sentinel CID.
var ErrArtifactPending = errors.New(artifactPendingMessageConstant)

// GatewayClient downloads pinned report documents from a content-addressed storage gateway.
type GatewayClient struct {
	baseURL    string
	httpClient HTTPClient
	logger     *zap.Logger
}

// NewGatewayClient constructs a GatewayClient. A nil httpClient uses http.DefaultClient.
func NewGatewayClient(baseURL string, httpClient HTTPClient, logger *zap.Logger) (*GatewayClient, error) {
	trimmedBaseURL := strings.TrimSpace(baseURL)
	if len(trimmedBaseURL) == 0 {
		return nil, ErrGatewayNotConfigured
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GatewayClient{baseURL: trimmedBaseURL, httpClient: httpClient, logger: logger}, nil
}

// FetchReport downloads the report pinned under cid and returns it with its original bytes.
func (client *GatewayClient) FetchReport(fetchContext context.Context, cid string) (report.AuditReport, []byte, error) {
	link := traceability.ResolveArtifactLink(client.baseURL, cid)
	if link.Pending() {
		return report.AuditReport{}, nil, ErrArtifactPending
	}

	httpRequest, requestError := http.NewRequestWithContext(fetchContext, http.MethodGet, link.URL, nil)
	if requestError != nil {
		return report.AuditReport{}, nil, fmt.Errorf(gatewayRequestErrorTemplateConstant, requestError)
	}
	httpRequest.Header.Set(acceptHeaderConstant, jsonContentTypeConstant)

	client.logger.Debug(fetchingReportLogMessageConstant, zap.String(urlLogFieldConstant, link.URL))

	statusCode, body, transportError := execute(client.httpClient, httpRequest, FetchReportOperationName)
	if transportError != nil {
		return report.AuditReport{}, nil, transportError
	}
	if !isSuccessStatus(statusCode) {
		return report.AuditReport{}, nil, GatewayStatusError{StatusCode: statusCode, URL: link.URL}
	}

	decodedReport, decodeError := report.Decode(body)
	if decodeError != nil {
		return report.AuditReport{}, nil, MalformedResponseError{Operation: FetchReportOperationName, Cause: decodeError}
	}
	return decodedReport, body, nil
}
