// Package attestation builds the message a wallet signs for each review request
// and assembles the signed request payload sent to the review service.
package attestation

import (
	"fmt"
	"strings"
	"time"
)

const (
	messagePrefixConstant             = "Audit request at "
	messageTimestampLayoutConstant    = "2006-01-02T15:04:05.000Z"
	codeFieldNameConstant             = "code"
	walletFieldNameConstant           = "wallet"
	signatureFieldNameConstant        = "signature"
	requiredValueMessageConstant      = "value required"
	invalidInputErrorTemplateConstant = "%s: %s"
)

// Clock supplies the current time for message construction.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// ScanRequest is the payload submitted to the review service.
type ScanRequest struct {
	Code      string `json:"code"`
	Wallet    string `json:"wallet"`
	Signature string `json:"signature"`
}

// InvalidInputError reports a missing request field.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// BuildMessage returns the attestation text embedding the timestamp in UTC ISO-8601 with milliseconds.
func BuildMessage(timestamp time.Time) string {
	return messagePrefixConstant + timestamp.UTC().Format(messageTimestampLayoutConstant)
}

// BuildRequest assembles a ScanRequest. Code that is blank after trimming is rejected; the code itself is sent unmodified.
func BuildRequest(code string, wallet string, signature string) (ScanRequest, error) {
	if len(strings.TrimSpace(code)) == 0 {
		return ScanRequest{}, InvalidInputError{FieldName: codeFieldNameConstant, Message: requiredValueMessageConstant}
	}
	trimmedWallet := strings.TrimSpace(wallet)
	if len(trimmedWallet) == 0 {
		return ScanRequest{}, InvalidInputError{FieldName: walletFieldNameConstant, Message: requiredValueMessageConstant}
	}
	trimmedSignature := strings.TrimSpace(signature)
	if len(trimmedSignature) == 0 {
		return ScanRequest{}, InvalidInputError{FieldName: signatureFieldNameConstant, Message: requiredValueMessageConstant}
	}
	return ScanRequest{Code: code, Wallet: trimmedWallet, Signature: trimmedSignature}, nil
}

// Builder produces attestation messages from a clock.
type Builder struct {
	clock Clock
}

// NewBuilder constructs a Builder; a nil clock falls back to SystemClock.
func NewBuilder(clock Clock) *Builder {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Builder{clock: clock}
}

// NewMessage builds the attestation message for the current time.
func (builder *Builder) NewMessage() string {
	return BuildMessage(builder.clock.Now())
}

// BuildRequest delegates to the package-level BuildRequest.
func (builder *Builder) BuildRequest(code string, wallet string, signature string) (ScanRequest, error) {
	return BuildRequest(code, wallet, signature)
}
