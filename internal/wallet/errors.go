package wallet

import (
	"errors"
	"fmt"
)

const (
	providerUnavailableMessageConstant           = "wallet provider unavailable"
	providerUnavailableWithCauseTemplateConstant = "wallet provider unavailable: %s"
	connectionRejectedMessageConstant            = "wallet connection rejected"
	connectionRejectedWithCauseTemplateConstant  = "wallet connection rejected: %s"
	signatureRejectedMessageConstant             = "signature rejected"
	signatureRejectedWithCauseTemplateConstant   = "signature rejected: %s"
	notConnectedMessageConstant                  = "wallet not connected"
	userRejectedMessageConstant                  = "request declined by user"
	providerMissingMessageConstant               = "no wallet provider configured"
)

// ErrNotConnected indicates a signing attempt without an active connection.
var ErrNotConnected = errors.New(notConnectedMessageConstant)

// ErrUserRejected indicates the user declined a connection or signing prompt.
var ErrUserRejected = errors.New(userRejectedMessageConstant)

// ErrProviderUnavailable marks provider failures that mean no wallet exists to talk to.
var ErrProviderUnavailable = errors.New(providerMissingMessageConstant)

// ProviderUnavailableError reports that no usable wallet provider is present.
type ProviderUnavailableError struct {
	Cause error
}

// Error describes the missing provider.
func (providerError ProviderUnavailableError) Error() string {
	if providerError.Cause == nil {
		return providerUnavailableMessageConstant
	}
	return fmt.Sprintf(providerUnavailableWithCauseTemplateConstant, providerError.Cause)
}

// Unwrap exposes the underlying cause.
func (providerError ProviderUnavailableError) Unwrap() error {
	return providerError.Cause
}

// ConnectionRejectedError reports that the user or provider declined the connection.
type ConnectionRejectedError struct {
	Cause error
}

// Error describes the rejection.
func (rejectionError ConnectionRejectedError) Error() string {
	if rejectionError.Cause == nil {
		return connectionRejectedMessageConstant
	}
	return fmt.Sprintf(connectionRejectedWithCauseTemplateConstant, rejectionError.Cause)
}

// Unwrap exposes the underlying cause.
func (rejectionError ConnectionRejectedError) Unwrap() error {
	return rejectionError.Cause
}

// SignatureRejectedError reports that the provider refused to sign.
type SignatureRejectedError struct {
	Cause error
}

// Error describes the refusal.
func (signatureError SignatureRejectedError) Error() string {
	if signatureError.Cause == nil {
		return signatureRejectedMessageConstant
	}
	return fmt.Sprintf(signatureRejectedWithCauseTemplateConstant, signatureError.Cause)
}

// Unwrap exposes the underlying cause.
func (signatureError SignatureRejectedError) Unwrap() error {
	return signatureError.Cause
}
