package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	signatureRecoveryOffsetConstant = 27
	signatureRecoveryIndexConstant  = 64
	connectPromptTemplateConstant   = "Connect wallet %s? [y/N]: "
	signPromptTemplateConstant      = "Sign message %q with %s? [y/N]: "
	keyLoadErrorTemplateConstant    = "%w: %w"
	signingErrorTemplateConstant    = "signing failed: %w"
)

// KeyProvider is a Provider backed by a locally held secp256k1 key.
type KeyProvider struct {
	source   KeySourceConfiguration
	resolver KeyResolver
	prompter ConfirmationPrompter

	mutex      sync.Mutex
	privateKey *ecdsa.PrivateKey
}

// NewKeyProvider constructs a provider reading its key from source. A nil resolver uses the process environment;
// a nil prompter approves every interaction.
func NewKeyProvider(source KeySourceConfiguration, resolver KeyResolver, prompter ConfirmationPrompter) *KeyProvider {
	if resolver == nil {
		resolver = NewKeyResolver(nil, nil)
	}
	if prompter == nil {
		prompter = AutoApprovePrompter{}
	}
	return &KeyProvider{source: source, resolver: resolver, prompter: prompter}
}

// RequestAccounts loads the key and, once approved, returns its checksummed address.
func (provider *KeyProvider) RequestAccounts(requestContext context.Context) (string, error) {
	privateKey, keyError := provider.loadKey(requestContext)
	if keyError != nil {
		return "", keyError
	}

	address := crypto.PubkeyToAddress(privateKey.PublicKey)
	if approvalError := provider.approve(fmt.Sprintf(connectPromptTemplateConstant, address.Hex())); approvalError != nil {
		return "", approvalError
	}
	return address.Hex(), nil
}

// SignMessage produces a 65-byte personal_sign signature over message, hex encoded with a 27/28 recovery byte.
func (provider *KeyProvider) SignMessage(requestContext context.Context, message string) (string, error) {
	privateKey, keyError := provider.loadKey(requestContext)
	if keyError != nil {
		return "", keyError
	}

	address := crypto.PubkeyToAddress(privateKey.PublicKey)
	if approvalError := provider.approve(fmt.Sprintf(signPromptTemplateConstant, message, ShortAddress(address.Hex()))); approvalError != nil {
		return "", approvalError
	}

	if contextError := requestContext.Err(); contextError != nil {
		return "", contextError
	}

	signature, signError := crypto.Sign(accounts.TextHash([]byte(message)), privateKey)
	if signError != nil {
		return "", fmt.Errorf(signingErrorTemplateConstant, signError)
	}
	signature[signatureRecoveryIndexConstant] += signatureRecoveryOffsetConstant
	return hexutil.Encode(signature), nil
}

// Address returns the provider's address once the key has been loaded.
func (provider *KeyProvider) Address() common.Address {
	provider.mutex.Lock()
	defer provider.mutex.Unlock()
	if provider.privateKey == nil {
		return common.Address{}
	}
	return crypto.PubkeyToAddress(provider.privateKey.PublicKey)
}

func (provider *KeyProvider) loadKey(requestContext context.Context) (*ecdsa.PrivateKey, error) {
	provider.mutex.Lock()
	defer provider.mutex.Unlock()

	if provider.privateKey != nil {
		return provider.privateKey, nil
	}

	privateKey, resolveError := provider.resolver.ResolveKey(requestContext, provider.source)
	if resolveError != nil {
		return nil, fmt.Errorf(keyLoadErrorTemplateConstant, ErrProviderUnavailable, resolveError)
	}
	provider.privateKey = privateKey
	return privateKey, nil
}

func (provider *KeyProvider) approve(prompt string) error {
	approved, promptError := provider.prompter.Confirm(prompt)
	if promptError != nil {
		return promptError
	}
	if !approved {
		return ErrUserRejected
	}
	return nil
}
