package reviewservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/sigaudit/internal/attestation"
	"github.com/temirov/sigaudit/internal/traceability"
)

const (
	scanPathConstant                     = "scan"
	contentTypeHeaderConstant            = "Content-Type"
	acceptHeaderConstant                 = "Accept"
	jsonContentTypeConstant              = "application/json"
	maximumResponseBytesConstant         = 16 << 20
	baseURLMissingMessageConstant        = "review service base URL must be provided"
	requestEncodingErrorTemplateConstant = "scan request encoding failed: %w"
	requestCreationErrorTemplateConstant = "scan request creation failed: %w"
	submittingLogMessageConstant         = "submitting scan request"
	rejectedLogMessageConstant           = "review service rejected scan request"
	acceptedLogMessageConstant           = "review service accepted scan request"
	urlLogFieldConstant                  = "url"
	codeBytesLogFieldConstant            = "code_bytes"
	statusLogFieldConstant               = "status"
	artifactLogFieldConstant             = "ipfs_cid"
)

// ErrBaseURLNotConfigured indicates a client constructed without a service address.
var ErrBaseURLNotConfigured = errors.New(baseURLMissingMessageConstant)

// HTTPClient executes HTTP requests.
type HTTPClient interface {
	Do(request *http.Request) (*http.Response, error)
}

// Client submits scan requests to the review service.
type Client struct {
	baseURL    string
	httpClient HTTPClient
	logger     *zap.Logger
}

// NewClient constructs a Client for baseURL. A nil httpClient uses http.DefaultClient.
func NewClient(baseURL string, httpClient HTTPClient, logger *zap.Logger) (*Client, error) {
	trimmedBaseURL := strings.TrimSpace(baseURL)
	if len(trimmedBaseURL) == 0 {
		return nil, ErrBaseURLNotConfigured
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{baseURL: trimmedBaseURL, httpClient: httpClient, logger: logger}, nil
}

// Submit posts request to /scan and decodes the response.
func (client *Client) Submit(submitContext context.Context, request attestation.ScanRequest) (ScanResponse, error) {
	payload, encodeError := json.Marshal(request)
	if encodeError != nil {
		return ScanResponse{}, fmt.Errorf(requestEncodingErrorTemplateConstant, encodeError)
	}

	endpoint := traceability.JoinURL(client.baseURL, scanPathConstant)
	httpRequest, requestError := http.NewRequestWithContext(submitContext, http.MethodPost, endpoint, bytes.NewReader(payload))
	if requestError != nil {
		return ScanResponse{}, fmt.Errorf(requestCreationErrorTemplateConstant, requestError)
	}
	httpRequest.Header.Set(contentTypeHeaderConstant, jsonContentTypeConstant)
	httpRequest.Header.Set(acceptHeaderConstant, jsonContentTypeConstant)

	client.logger.Debug(submittingLogMessageConstant, zap.String(urlLogFieldConstant, endpoint), zap.Int(codeBytesLogFieldConstant, len(request.Code)))

	statusCode, body, transportError := execute(client.httpClient, httpRequest, SubmitScanOperationName)
	if transportError != nil {
		return ScanResponse{}, transportError
	}

	if !isSuccessStatus(statusCode) {
		rejection := ServiceRejectedError{StatusCode: statusCode, Detail: ExtractDetail(body)}
		client.logger.Warn(rejectedLogMessageConstant, zap.Int(statusLogFieldConstant, statusCode))
		return ScanResponse{}, rejection
	}

	response, decodeError := DecodeScanResponse(body)
	if decodeError != nil {
		return ScanResponse{}, decodeError
	}

	client.logger.Info(acceptedLogMessageConstant, zap.Int(statusLogFieldConstant, statusCode), zap.String(artifactLogFieldConstant, response.ArtifactCID))
	return response, nil
}

func execute(httpClient HTTPClient, httpRequest *http.Request, operation OperationName) (int, []byte, error) {
	httpResponse, doError := httpClient.Do(httpRequest)
	if doError != nil {
		return 0, nil, TransportError{Operation: operation, Cause: doError}
	}
	defer httpResponse.Body.Close()

	body, readError := io.ReadAll(io.LimitReader(httpResponse.Body, maximumResponseBytesConstant))
	if readError != nil {
		return 0, nil, TransportError{Operation: operation, Cause: readError}
	}
	return httpResponse.StatusCode, body, nil
}

func isSuccessStatus(statusCode int) bool {
	return statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices
}
