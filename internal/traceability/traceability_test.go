package traceability_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/sigaudit/internal/traceability"
)

const (
	testGatewayBaseConstant             = "https://gateway.pinata.cloud/ipfs/"
	testGatewayBaseNoSlashConstant      = "https://gateway.pinata.cloud/ipfs"
	testCIDConstant                     = "QmAbc123XyZ456abcdef"
	testTransactionHashConstant         = "0xabc1234567890def"
	artifactSentinelCaseNameConstant    = "sentinel_is_pending"
	artifactEmptyCaseNameConstant       = "empty_is_pending"
	artifactBlankCaseNameConstant       = "whitespace_is_pending"
	artifactResolvedCaseNameConstant    = "cid_is_appended"
	artifactNoSlashCaseNameConstant     = "separator_is_inserted"
	transactionNoPrefixCaseNameConstant = "missing_prefix_is_pending"
	transactionFailedCaseNameConstant   = "failure_text_is_pending"
	transactionEmptyCaseNameConstant    = "empty_is_pending"
	transactionPrefixCaseNameConstant   = "prefixed_hash_is_confirmed"
)

func TestResolveArtifactLink(testInstance *testing.T) {
	testCases := []struct {
		name            string
		gatewayBase     string
		cid             string
		expectedState   traceability.LinkState
		expectedURL     string
		expectedDisplay string
	}{
		{name: artifactSentinelCaseNameConstant, gatewayBase: testGatewayBaseConstant, cid: "N/A", expectedState: traceability.LinkStatePending, expectedDisplay: "Processing / N/A"},
		{name: artifactEmptyCaseNameConstant, gatewayBase: testGatewayBaseConstant, cid: "", expectedState: traceability.LinkStatePending, expectedDisplay: "Processing / N/A"},
		{name: artifactBlankCaseNameConstant, gatewayBase: testGatewayBaseConstant, cid: "  ", expectedState: traceability.LinkStatePending, expectedDisplay: "Processing / N/A"},
		{name: artifactResolvedCaseNameConstant, gatewayBase: testGatewayBaseConstant, cid: testCIDConstant, expectedState: traceability.LinkStateResolved, expectedURL: testGatewayBaseConstant + testCIDConstant, expectedDisplay: "QmAbc123Xy..."},
		{name: artifactNoSlashCaseNameConstant, gatewayBase: testGatewayBaseNoSlashConstant, cid: testCIDConstant, expectedState: traceability.LinkStateResolved, expectedURL: testGatewayBaseConstant + testCIDConstant, expectedDisplay: "QmAbc123Xy..."},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			link := traceability.ResolveArtifactLink(testCase.gatewayBase, testCase.cid)
			require.Equal(testInstance, testCase.expectedState, link.State)
			require.Equal(testInstance, testCase.expectedURL, link.URL)
			require.Equal(testInstance, testCase.expectedDisplay, link.Display)
			if !link.Pending() {
				require.True(testInstance, strings.HasSuffix(link.URL, testCase.cid))
			}
		})
	}
}

func TestResolveTxDisplay(testInstance *testing.T) {
	testCases := []struct {
		name            string
		hash            string
		expectedState   traceability.LinkState
		expectedDisplay string
	}{
		{name: transactionNoPrefixCaseNameConstant, hash: "deadbeef", expectedState: traceability.LinkStatePending, expectedDisplay: "Waiting for Block..."},
		{name: transactionFailedCaseNameConstant, hash: "Failed: insufficient funds", expectedState: traceability.LinkStatePending, expectedDisplay: "Waiting for Block..."},
		{name: transactionEmptyCaseNameConstant, hash: "", expectedState: traceability.LinkStatePending, expectedDisplay: "Waiting for Block..."},
		{name: transactionPrefixCaseNameConstant, hash: testTransactionHashConstant, expectedState: traceability.LinkStateConfirmed, expectedDisplay: "0xabc1234567..."},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			display := traceability.ResolveTxDisplay(testCase.hash)
			require.Equal(testInstance, testCase.expectedState, display.State)
			require.Equal(testInstance, testCase.expectedDisplay, display.Display)
		})
	}
}

func TestNewPanelIncludesDigestForValidDocument(testInstance *testing.T) {
	panel := traceability.NewPanel(testGatewayBaseConstant, testCIDConstant, testTransactionHashConstant, []byte(`{"vulnerabilities":[]}`))
	require.False(testInstance, panel.Artifact.Pending())
	require.False(testInstance, panel.Transaction.Pending())
	require.True(testInstance, strings.HasPrefix(panel.ReportDigest, "0x"))
	require.Len(testInstance, panel.ReportDigest, 66)

	withoutDocument := traceability.NewPanel(testGatewayBaseConstant, "N/A", "pending", nil)
	require.True(testInstance, withoutDocument.Artifact.Pending())
	require.True(testInstance, withoutDocument.Transaction.Pending())
	require.Empty(testInstance, withoutDocument.ReportDigest)
}
