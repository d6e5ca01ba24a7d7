package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/temirov/sigaudit/internal/attestation"
	"github.com/temirov/sigaudit/internal/reviewservice"
	"github.com/temirov/sigaudit/internal/wallet"
)

const (
	providerUnavailableMessageConstant     = "No wallet provider available. Configure a signing key."
	connectionRejectedMessageConstant      = "Wallet connection was rejected."
	notConnectedMessageConstant            = "Wallet is not connected."
	signatureRejectedMessageConstant       = "Signature request was rejected."
	transportFailureMessageConstant        = "Scan failed: the review service could not be reached."
	timedOutMessageConstant                = "Scan timed out before the request was submitted."
	serviceRejectedMessageTemplateConstant = "Scan failed: the review service rejected the request (HTTP %d)."
	malformedResponseMessageConstant       = "Scan failed: the review service returned an unreadable response."
	invalidRequestMessageTemplateConstant  = "Scan request is invalid: %s"
	unexpectedFailureMessageConstant       = "Scan failed."
)

// FailureKind classifies why a run ended in Failed.
type FailureKind string

// Failure kinds.
const (
	FailureKindProviderUnavailable FailureKind = FailureKind("ProviderUnavailable")
	FailureKindConnectionRejected  FailureKind = FailureKind("ConnectionRejected")
	FailureKindNotConnected        FailureKind = FailureKind("NotConnected")
	FailureKindSignatureRejected   FailureKind = FailureKind("SignatureRejected")
	FailureKindInvalidRequest      FailureKind = FailureKind("InvalidRequest")
	FailureKindTimedOut            FailureKind = FailureKind("TimedOut")
	FailureKindTransportFailure    FailureKind = FailureKind("TransportFailure")
	FailureKindServiceRejected     FailureKind = FailureKind("ServiceRejected")
	FailureKindMalformedResponse   FailureKind = FailureKind("MalformedResponse")
	FailureKindUnexpected          FailureKind = FailureKind("Unexpected")
)

// Failure is the user-displayable outcome of a failed run.
type Failure struct {
	Kind    FailureKind `json:"kind" yaml:"kind"`
	Message string      `json:"message" yaml:"message"`
	Cause   error       `json:"-" yaml:"-"`
}

// Error returns the display message.
func (failure Failure) Error() string {
	return failure.Message
}

// Unwrap exposes the collaborator error.
func (failure Failure) Unwrap() error {
	return failure.Cause
}

// ClassifyFailure maps a collaborator error to a Failure. Service rejections keep the service detail verbatim;
// transport and decoding problems get generic messages. A deadline that expires before submission is reported as
// TimedOut whichever wallet step it interrupted.
func ClassifyFailure(cause error) Failure {
	var (
		unavailableError wallet.ProviderUnavailableError
		rejectedError    wallet.ConnectionRejectedError
		signatureError   wallet.SignatureRejectedError
		inputError       attestation.InvalidInputError
		serviceError     reviewservice.ServiceRejectedError
		malformedError   reviewservice.MalformedResponseError
		transportError   reviewservice.TransportError
	)

	switch {
	case errors.As(cause, &transportError):
		return Failure{Kind: FailureKindTransportFailure, Message: transportFailureMessageConstant, Cause: cause}
	case errors.Is(cause, context.DeadlineExceeded):
		return Failure{Kind: FailureKindTimedOut, Message: timedOutMessageConstant, Cause: cause}
	case errors.As(cause, &unavailableError):
		return Failure{Kind: FailureKindProviderUnavailable, Message: providerUnavailableMessageConstant, Cause: cause}
	case errors.As(cause, &rejectedError):
		return Failure{Kind: FailureKindConnectionRejected, Message: connectionRejectedMessageConstant, Cause: cause}
	case errors.Is(cause, wallet.ErrNotConnected):
		return Failure{Kind: FailureKindNotConnected, Message: notConnectedMessageConstant, Cause: cause}
	case errors.As(cause, &signatureError):
		return Failure{Kind: FailureKindSignatureRejected, Message: signatureRejectedMessageConstant, Cause: cause}
	case errors.As(cause, &inputError):
		return Failure{Kind: FailureKindInvalidRequest, Message: fmt.Sprintf(invalidRequestMessageTemplateConstant, inputError.Error()), Cause: cause}
	case errors.As(cause, &serviceError):
		message := serviceError.Detail
		if len(message) == 0 {
			message = fmt.Sprintf(serviceRejectedMessageTemplateConstant, serviceError.StatusCode)
		}
		return Failure{Kind: FailureKindServiceRejected, Message: message, Cause: cause}
	case errors.As(cause, &malformedError):
		return Failure{Kind: FailureKindMalformedResponse, Message: malformedResponseMessageConstant, Cause: cause}
	default:
		return Failure{Kind: FailureKindUnexpected, Message: unexpectedFailureMessageConstant, Cause: cause}
	}
}
