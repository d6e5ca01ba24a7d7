package reviewservice

import "fmt"

const (
	transportErrorTemplateConstant            = "%s request failed: %s"
	serviceRejectedTemplateConstant           = "review service rejected request with status %d"
	serviceRejectedWithDetailTemplateConstant = "review service rejected request with status %d: %s"
	malformedResponseTemplateConstant         = "%s response malformed: %s"
	gatewayStatusTemplateConstant             = "artifact gateway returned status %d for %s"
)

// OperationName identifies a remote call.
type OperationName string

// Remote operations.
const (
	SubmitScanOperationName  OperationName = OperationName("SubmitScan")
	FetchReportOperationName OperationName = OperationName("FetchReport")
)

// TransportError reports a request that never produced a response.
type TransportError struct {
	Operation OperationName
	Cause     error
}

// Error describes the transport failure.
func (transportError TransportError) Error() string {
	return fmt.Sprintf(transportErrorTemplateConstant, transportError.Operation, transportError.Cause)
}

// Unwrap exposes the underlying cause.
func (transportError TransportError) Unwrap() error {
	return transportError.Cause
}

// ServiceRejectedError reports a non-2xx response. Detail holds the service-provided detail text unchanged.
type ServiceRejectedError struct {
	StatusCode int
	Detail     string
}

// Error describes the rejection.
func (rejectionError ServiceRejectedError) Error() string {
	if len(rejectionError.Detail) == 0 {
		return fmt.Sprintf(serviceRejectedTemplateConstant, rejectionError.StatusCode)
	}
	return fmt.Sprintf(serviceRejectedWithDetailTemplateConstant, rejectionError.StatusCode, rejectionError.Detail)
}

// MalformedResponseError reports a 2xx body that does not match the expected shape.
type MalformedResponseError struct {
	Operation OperationName
	Cause     error
}

// Error describes the decoding failure.
func (malformedError MalformedResponseError) Error() string {
	return fmt.Sprintf(malformedResponseTemplateConstant, malformedError.Operation, malformedError.Cause)
}

// Unwrap exposes the underlying cause.
func (malformedError MalformedResponseError) Unwrap() error {
	return malformedError.Cause
}

// GatewayStatusError reports a non-2xx response from the artifact gateway.
type GatewayStatusError struct {
	StatusCode int
	URL        string
}

// Error describes the gateway failure.
func (statusError GatewayStatusError) Error() string {
	return fmt.Sprintf(gatewayStatusTemplateConstant, statusError.StatusCode, statusError.URL)
}
