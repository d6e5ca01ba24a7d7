package wallet

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"
)

const (
	shortAddressLengthConstant        = 6
	shortAddressSuffixConstant        = "..."
	emptyAddressMessageConstant       = "provider returned an empty address"
	emptySignatureMessageConstant     = "provider returned an empty signature"
	walletConnectedLogMessageConstant = "wallet connected"
	walletClosedLogMessageConstant    = "wallet session closed"
	addressLogFieldConstant           = "address"
)

// Provider supplies a wallet address and message signatures. Both calls may block on user interaction.
type Provider interface {
	RequestAccounts(requestContext context.Context) (string, error)
	SignMessage(requestContext context.Context, message string) (string, error)
}

// Session holds the connected identity for the lifetime of one process.
type Session struct {
	provider Provider
	logger   *zap.Logger
	mutex    sync.Mutex
	address  string
}

// NewSession constructs a disconnected session over provider.
func NewSession(provider Provider, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{provider: provider, logger: logger}
}

// Connect requests an account from the provider and caches it.
// Connecting an already connected session returns the cached address without contacting the provider.
func (session *Session) Connect(connectContext context.Context) (string, error) {
	session.mutex.Lock()
	defer session.mutex.Unlock()

	if len(session.address) > 0 {
		return session.address, nil
	}
	if session.provider == nil {
		return "", ProviderUnavailableError{}
	}

	address, requestError := session.provider.RequestAccounts(connectContext)
	if requestError != nil {
		if errors.Is(requestError, ErrProviderUnavailable) {
			return "", ProviderUnavailableError{Cause: requestError}
		}
		return "", ConnectionRejectedError{Cause: requestError}
	}

	trimmedAddress := strings.TrimSpace(address)
	if len(trimmedAddress) == 0 {
		return "", ConnectionRejectedError{Cause: errors.New(emptyAddressMessageConstant)}
	}

	session.address = trimmedAddress
	session.logger.Info(walletConnectedLogMessageConstant, zap.String(addressLogFieldConstant, ShortAddress(trimmedAddress)))
	return trimmedAddress, nil
}

// Sign asks the provider to sign message with the connected account. The session state is not modified.
func (session *Session) Sign(signContext context.Context, message string) (string, error) {
	if !session.Connected() {
		return "", ErrNotConnected
	}

	signature, signError := session.provider.SignMessage(signContext, message)
	if signError != nil {
		return "", SignatureRejectedError{Cause: signError}
	}
	if len(strings.TrimSpace(signature)) == 0 {
		return "", SignatureRejectedError{Cause: errors.New(emptySignatureMessageConstant)}
	}
	return signature, nil
}

// Address returns the connected address or an empty string.
func (session *Session) Address() string {
	session.mutex.Lock()
	defer session.mutex.Unlock()
	return session.address
}

// Connected reports whether Connect has succeeded.
func (session *Session) Connected() bool {
	return len(session.Address()) > 0
}

// Close forgets the connected address.
func (session *Session) Close() {
	session.mutex.Lock()
	defer session.mutex.Unlock()
	if len(session.address) == 0 {
		return
	}
	session.address = ""
	session.logger.Debug(walletClosedLogMessageConstant)
}

// ShortAddress returns the first six characters of address followed by an ellipsis.
func ShortAddress(address string) string {
	if len(address) <= shortAddressLengthConstant {
		return address + shortAddressSuffixConstant
	}
	return address[:shortAddressLengthConstant] + shortAddressSuffixConstant
}
