package results_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/require"

	"github.com/temirov/sigaudit/internal/results"
	"github.com/temirov/sigaudit/internal/reviewservice"
)

const (
	pinnedCIDConstant         = "QmPinnedReport"
	pinnedReportConstant      = `{"name":"Pinned","vulnerabilities":[{"severity":"Medium","category":"Gas","explanation":"loop"}]}`
	emptyPinnedReportConstant = `{"name":"Pinned","vulnerabilities":[]}`
)

func executeReportCommand(testInstance *testing.T, builder *results.CommandBuilder, arguments ...string) (string, error) {
	testInstance.Helper()
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	outputBuffer := &bytes.Buffer{}
	command.SetOut(outputBuffer)
	command.SetErr(&bytes.Buffer{})
	command.SetArgs(arguments)
	command.SetContext(context.Background())
	executeError := command.Execute()
	return pterm.RemoveColorFromString(outputBuffer.String()), executeError
}

func TestReportShowFromStoredResults(testInstance *testing.T) {
	store, storeError := results.NewStore(testInstance.TempDir(), fixedClock{now: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(testInstance, storeError)
	response, decodeError := reviewservice.DecodeScanResponse([]byte(storeServiceBodyConstant))
	require.NoError(testInstance, decodeError)
	recordPath, saveError := store.Save(storeWalletAddressConstant, response)
	require.NoError(testInstance, saveError)

	builder := &results.CommandBuilder{
		ConfigurationProvider: func() results.ShowConfiguration {
			return results.ShowConfiguration{GatewayURL: "https://gateway.example/ipfs/"}
		},
	}
	output, executeError := executeReportCommand(testInstance, builder, "show", "--from", recordPath)
	require.NoError(testInstance, executeError)
	require.Contains(testInstance, output, "Vault")
	require.Contains(testInstance, output, "Reentrancy")
	require.Contains(testInstance, output, "https://gateway.example/ipfs/QmStored")
}

func TestReportShowRawViewFromStoredResults(testInstance *testing.T) {
	store, storeError := results.NewStore(testInstance.TempDir(), nil)
	require.NoError(testInstance, storeError)
	response, decodeError := reviewservice.DecodeScanResponse([]byte(storeServiceBodyConstant))
	require.NoError(testInstance, decodeError)
	recordPath, saveError := store.Save(storeWalletAddressConstant, response)
	require.NoError(testInstance, saveError)

	output, executeError := executeReportCommand(testInstance, &results.CommandBuilder{}, "show", "--from", recordPath, "--view", "raw")
	require.NoError(testInstance, executeError)
	require.Contains(testInstance, output, "raw text")
	require.NotContains(testInstance, output, "1 finding(s)")
}

func TestReportShowFetchesPinnedReport(testInstance *testing.T) {
	testCases := []struct {
		name           string
		body           string
		expectedOutput string
	}{
		{name: "findings", body: pinnedReportConstant, expectedOutput: "loop"},
		{name: "empty", body: emptyPinnedReportConstant, expectedOutput: "No vulnerabilities detected."},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			var requestedPath string
			server := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
				requestedPath = request.URL.Path
				_, _ = responseWriter.Write([]byte(testCase.body))
			}))
			defer server.Close()

			builder := &results.CommandBuilder{
				ConfigurationProvider: func() results.ShowConfiguration {
					return results.ShowConfiguration{GatewayURL: server.URL + "/ipfs/"}
				},
			}
			output, executeError := executeReportCommand(subTest, builder, "show", "--cid", pinnedCIDConstant)
			require.NoError(subTest, executeError)
			require.Equal(subTest, "/ipfs/"+pinnedCIDConstant, requestedPath)
			require.Contains(subTest, output, "Pinned")
			require.Contains(subTest, output, testCase.expectedOutput)
		})
	}
}

func TestReportShowPinnedReportFailure(testInstance *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		responseWriter.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, executeError := executeReportCommand(testInstance, &results.CommandBuilder{}, "show", "--cid", pinnedCIDConstant, "--gateway-url", server.URL)
	require.Error(testInstance, executeError)
	var statusError reviewservice.GatewayStatusError
	require.ErrorAs(testInstance, executeError, &statusError)
	require.Equal(testInstance, http.StatusNotFound, statusError.StatusCode)
}

func TestReportShowRequiresExactlyOneSource(testInstance *testing.T) {
	testCases := []struct {
		name      string
		arguments []string
	}{
		{name: "neither", arguments: []string{"show"}},
		{name: "both", arguments: []string{"show", "--from", "results.json", "--cid", pinnedCIDConstant}},
		{name: "positional", arguments: []string{"show", "extra"}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			_, executeError := executeReportCommand(subTest, &results.CommandBuilder{}, testCase.arguments...)
			require.Error(subTest, executeError)
		})
	}
}
