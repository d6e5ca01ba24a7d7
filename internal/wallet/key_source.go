package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"

	pathutils "github.com/temirov/sigaudit/internal/utils/path"
)

const (
	keySourceSeparatorConstant                 = ":"
	environmentKeySourceTypeValueConstant      = "env"
	fileKeySourceTypeValueConstant             = "file"
	hexPrefixConstant                          = "0x"
	keySourceMissingErrorMessageConstant       = "key source must be provided"
	environmentNameMissingErrorMessageConstant = "environment variable name must be provided"
	filePathMissingErrorMessageConstant        = "key file path must be provided"
	environmentKeyMissingTemplateConstant      = "environment variable %s is not set"
	fileReadErrorTemplateConstant              = "unable to read key file %s: %w"
	fileKeyEmptyErrorTemplateConstant          = "key file %s is empty"
	unsupportedKeySourceTemplateConstant       = "unsupported key source type %q"
	invalidPrivateKeyTemplateConstant          = "invalid private key from %s source: %w"
)

var keySourceHomeDirectoryExpander = pathutils.NewHomeExpander()

// KeySourceType enumerates where a signing key is read from.
type KeySourceType string

// Key source types.
const (
	KeySourceTypeEnvironment KeySourceType = KeySourceType(environmentKeySourceTypeValueConstant)
	KeySourceTypeFile        KeySourceType = KeySourceType(fileKeySourceTypeValueConstant)
)

// KeySourceConfiguration locates a hex-encoded secp256k1 private key.
type KeySourceConfiguration struct {
	Type      KeySourceType
	Reference string
}

// KeyResolver loads private keys from configured sources.
type KeyResolver interface {
	ResolveKey(resolutionContext context.Context, source KeySourceConfiguration) (*ecdsa.PrivateKey, error)
}

// EnvironmentLookup obtains an environment variable value.
type EnvironmentLookup func(key string) (string, bool)

// FileReader reads the contents of a file path.
type FileReader func(path string) ([]byte, error)

// NewKeyResolver creates a key resolver; nil dependencies fall back to the process environment and file system.
func NewKeyResolver(environmentLookup EnvironmentLookup, fileReader FileReader) KeyResolver {
	if environmentLookup == nil {
		environmentLookup = os.LookupEnv
	}
	if fileReader == nil {
		fileReader = os.ReadFile
	}
	return &keyResolver{environmentLookup: environmentLookup, fileReader: fileReader}
}

// ParseKeySource interprets env:NAME and file:/path declarations. A bare value is an environment variable name.
func ParseKeySource(sourceValue string) (KeySourceConfiguration, error) {
	trimmedValue := strings.TrimSpace(sourceValue)
	if len(trimmedValue) == 0 {
		return KeySourceConfiguration{}, errors.New(keySourceMissingErrorMessageConstant)
	}

	components := strings.SplitN(trimmedValue, keySourceSeparatorConstant, 2)
	if len(components) == 1 {
		return KeySourceConfiguration{Type: KeySourceTypeEnvironment, Reference: trimmedValue}, nil
	}

	sourceType := strings.ToLower(strings.TrimSpace(components[0]))
	reference := strings.TrimSpace(components[1])

	switch sourceType {
	case environmentKeySourceTypeValueConstant:
		if len(reference) == 0 {
			return KeySourceConfiguration{}, errors.New(environmentNameMissingErrorMessageConstant)
		}
		return KeySourceConfiguration{Type: KeySourceTypeEnvironment, Reference: reference}, nil
	case fileKeySourceTypeValueConstant:
		if len(reference) == 0 {
			return KeySourceConfiguration{}, errors.New(filePathMissingErrorMessageConstant)
		}
		return KeySourceConfiguration{Type: KeySourceTypeFile, Reference: keySourceHomeDirectoryExpander.Expand(reference)}, nil
	default:
		return KeySourceConfiguration{}, fmt.Errorf(unsupportedKeySourceTemplateConstant, sourceType)
	}
}

type keyResolver struct {
	environmentLookup EnvironmentLookup
	fileReader        FileReader
}

func (resolver *keyResolver) ResolveKey(resolutionContext context.Context, source KeySourceConfiguration) (*ecdsa.PrivateKey, error) {
	if contextError := resolutionContext.Err(); contextError != nil {
		return nil, contextError
	}

	encodedKey, readError := resolver.readEncodedKey(source)
	if readError != nil {
		return nil, readError
	}

	privateKey, parseError := crypto.HexToECDSA(strings.TrimPrefix(encodedKey, hexPrefixConstant))
	if parseError != nil {
		return nil, fmt.Errorf(invalidPrivateKeyTemplateConstant, source.Type, parseError)
	}
	return privateKey, nil
}

func (resolver *keyResolver) readEncodedKey(source KeySourceConfiguration) (string, error) {
	switch source.Type {
	case KeySourceTypeEnvironment:
		value, found := resolver.environmentLookup(source.Reference)
		trimmedValue := strings.TrimSpace(value)
		if !found || len(trimmedValue) == 0 {
			return "", fmt.Errorf(environmentKeyMissingTemplateConstant, source.Reference)
		}
		return trimmedValue, nil
	case KeySourceTypeFile:
		contents, readError := resolver.fileReader(source.Reference)
		if readError != nil {
			return "", fmt.Errorf(fileReadErrorTemplateConstant, source.Reference, readError)
		}
		trimmedValue := strings.TrimSpace(string(contents))
		if len(trimmedValue) == 0 {
			return "", fmt.Errorf(fileKeyEmptyErrorTemplateConstant, source.Reference)
		}
		return trimmedValue, nil
	default:
		return "", fmt.Errorf(unsupportedKeySourceTemplateConstant, source.Type)
	}
}
