// Package traceability derives the provenance display state for a review
// response: the artifact gateway link and the ledger transaction reference.
//
// The classifications here are presentation only. A Confirmed transaction is
// merely a value that looks like a hash; nothing is looked up on chain and a
// resolved artifact link is not fetched or validated.
package traceability

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/temirov/sigaudit/internal/report"
)

const (
	artifactSentinelConstant         = "N/A"
	transactionPrefixConstant        = "0x"
	urlPathSeparatorConstant         = "/"
	truncationSuffixConstant         = "..."
	artifactDisplayLengthConstant    = 10
	transactionDisplayLengthConstant = 12
	artifactPendingLabelConstant     = "Processing / N/A"
	transactionPendingLabelConstant  = "Waiting for Block..."
)

// LinkState distinguishes resolved references from references still being processed.
type LinkState string

// Reference states.
const (
	LinkStatePending   LinkState = LinkState("pending")
	LinkStateResolved  LinkState = LinkState("resolved")
	LinkStateConfirmed LinkState = LinkState("confirmed")
)

// ArtifactLink is the display form of a content-addressed artifact identifier.
type ArtifactLink struct {
	State   LinkState `json:"state" yaml:"state"`
	CID     string    `json:"cid,omitempty" yaml:"cid,omitempty"`
	URL     string    `json:"url,omitempty" yaml:"url,omitempty"`
	Display string    `json:"display" yaml:"display"`
}

// Pending reports whether the artifact is not yet available.
func (link ArtifactLink) Pending() bool {
	return link.State == LinkStatePending
}

// TransactionDisplay is the display form of a ledger transaction reference.
type TransactionDisplay struct {
	State   LinkState `json:"state" yaml:"state"`
	Hash    string    `json:"hash,omitempty" yaml:"hash,omitempty"`
	Display string    `json:"display" yaml:"display"`
}

// Pending reports whether the transaction reference is not yet usable.
func (display TransactionDisplay) Pending() bool {
	return display.State == LinkStatePending
}

// ResolveArtifactLink appends cid to gatewayBase, or returns a pending link for an empty or "N/A" cid.
// The cid format is not validated.
func ResolveArtifactLink(gatewayBase string, cid string) ArtifactLink {
	trimmedCID := strings.TrimSpace(cid)
	if len(trimmedCID) == 0 || trimmedCID == artifactSentinelConstant {
		return ArtifactLink{State: LinkStatePending, Display: artifactPendingLabelConstant}
	}

	return ArtifactLink{
		State:   LinkStateResolved,
		CID:     trimmedCID,
		URL:     JoinURL(gatewayBase, trimmedCID),
		Display: truncate(trimmedCID, artifactDisplayLengthConstant),
	}
}

// ResolveTxDisplay classifies a transaction hash as Confirmed when it carries the 0x prefix.
// This is a presentation classification only: no on-chain verification is performed and a
// Confirmed value carries no guarantee that a mined transaction exists.
func ResolveTxDisplay(hash string) TransactionDisplay {
	trimmedHash := strings.TrimSpace(hash)
	if !strings.HasPrefix(trimmedHash, transactionPrefixConstant) {
		return TransactionDisplay{State: LinkStatePending, Display: transactionPendingLabelConstant}
	}
	return TransactionDisplay{
		State:   LinkStateConfirmed,
		Hash:    trimmedHash,
		Display: truncate(trimmedHash, transactionDisplayLengthConstant),
	}
}

// JoinURL appends a path segment to a base URL, inserting a separator when needed.
func JoinURL(baseURL string, segment string) string {
	trimmedBase := strings.TrimSpace(baseURL)
	if len(trimmedBase) > 0 && !strings.HasSuffix(trimmedBase, urlPathSeparatorConstant) {
		trimmedBase += urlPathSeparatorConstant
	}
	return trimmedBase + segment
}

// Panel groups the provenance details shown next to a report.
type Panel struct {
	Artifact     ArtifactLink       `json:"artifact" yaml:"artifact"`
	Transaction  TransactionDisplay `json:"transaction" yaml:"transaction"`
	ReportDigest string             `json:"report_digest,omitempty" yaml:"report_digest,omitempty"`
}

// NewPanel derives the panel for a response. reportDocument is the report JSON used for the digest;
// an undecodable or empty document leaves the digest blank.
func NewPanel(gatewayBase string, cid string, transactionHash string, reportDocument []byte) Panel {
	panel := Panel{
		Artifact:    ResolveArtifactLink(gatewayBase, cid),
		Transaction: ResolveTxDisplay(transactionHash),
	}
	if len(reportDocument) == 0 {
		return panel
	}
	digest, digestError := report.CanonicalDigest(reportDocument)
	if digestError != nil || digest == (common.Hash{}) {
		return panel
	}
	panel.ReportDigest = digest.Hex()
	return panel
}

func truncate(value string, length int) string {
	if len(value) <= length {
		return value + truncationSuffixConstant
	}
	return value[:length] + truncationSuffixConstant
}
