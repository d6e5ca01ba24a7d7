package report

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	canonicalDecodeErrorTemplateConstant = "canonical digest decode failed: %w"
	canonicalEncodeErrorTemplateConstant = "canonical digest encode failed: %w"
)

// CanonicalJSON re-encodes a JSON document with sorted object keys, compact separators, and unescaped HTML characters.
func CanonicalJSON(document []byte) ([]byte, error) {
	decoder := json.NewDecoder(bytes.NewReader(document))
	decoder.UseNumber()

	var value any
	if decodeError := decoder.Decode(&value); decodeError != nil {
		return nil, fmt.Errorf(canonicalDecodeErrorTemplateConstant, decodeError)
	}

	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	if encodeError := encoder.Encode(value); encodeError != nil {
		return nil, fmt.Errorf(canonicalEncodeErrorTemplateConstant, encodeError)
	}
	return bytes.TrimRight(buffer.Bytes(), "\n"), nil
}

// CanonicalDigest returns the Keccak-256 hash of the canonical form of a report document.
// The digest is a display aid for comparing against a registry entry; it is not verified anywhere.
func CanonicalDigest(document []byte) (common.Hash, error) {
	canonicalDocument, canonicalError := CanonicalJSON(document)
	if canonicalError != nil {
		return common.Hash{}, canonicalError
	}
	return crypto.Keccak256Hash(canonicalDocument), nil
}
