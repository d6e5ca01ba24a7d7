package workflow_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/sigaudit/internal/attestation"
	"github.com/temirov/sigaudit/internal/reviewservice"
	"github.com/temirov/sigaudit/internal/wallet"
	"github.com/temirov/sigaudit/internal/workflow"
)

const (
	testCodeConstant                     = "contract X {}"
	testAddressConstant                  = "0xAAA0000000000000000000000000000000000001"
	testSignatureConstant                = "0xsigned"
	testScanIdentifierConstant           = "scan-1"
	successSequenceCaseConstant          = "success"
	connectFailureCaseConstant           = "connect_rejected"
	signFailureCaseConstant              = "sign_rejected"
	submitRejectedCaseConstant           = "service_rejected"
	submitTransportCaseConstant          = "transport_failure"
	submitMalformedCaseConstant          = "malformed_response"
	emptyCodePreconditionCaseConstant    = "empty_code"
	blankCodePreconditionCaseConstant    = "blank_code"
	notConnectedPreconditionCaseConstant = "wallet_not_connected"
)

type stubSession struct {
	mutex        sync.Mutex
	address      string
	connected    bool
	connectError error
	signError    error
	connectCalls int
	signCalls    int
}

func (session *stubSession) Connect(context.Context) (string, error) {
	session.mutex.Lock()
	defer session.mutex.Unlock()
	session.connectCalls++
	if session.connectError != nil {
		return "", session.connectError
	}
	session.connected = true
	return session.address, nil
}

func (session *stubSession) Sign(context.Context, string) (string, error) {
	session.mutex.Lock()
	defer session.mutex.Unlock()
	session.signCalls++
	if session.signError != nil {
		return "", session.signError
	}
	return testSignatureConstant, nil
}

func (session *stubSession) Connected() bool {
	session.mutex.Lock()
	defer session.mutex.Unlock()
	return session.connected
}

type recordingBuilder struct {
	mutex      sync.Mutex
	buildCalls int
	messages   int
}

func (builder *recordingBuilder) NewMessage() string {
	builder.mutex.Lock()
	defer builder.mutex.Unlock()
	builder.messages++
	return attestation.BuildMessage(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
}

func (builder *recordingBuilder) BuildRequest(code string, walletAddress string, signature string) (attestation.ScanRequest, error) {
	builder.mutex.Lock()
	defer builder.mutex.Unlock()
	builder.buildCalls++
	return attestation.BuildRequest(code, walletAddress, signature)
}

type stubSubmitter struct {
	mutex    sync.Mutex
	response reviewservice.ScanResponse
	failure  error
	calls    int
	requests []attestation.ScanRequest
	started  chan struct{}
	release  chan struct{}
}

func (submitter *stubSubmitter) Submit(_ context.Context, request attestation.ScanRequest) (reviewservice.ScanResponse, error) {
	submitter.mutex.Lock()
	submitter.calls++
	submitter.requests = append(submitter.requests, request)
	submitter.mutex.Unlock()

	if submitter.started != nil {
		submitter.started <- struct{}{}
	}
	if submitter.release != nil {
		<-submitter.release
	}
	if submitter.failure != nil {
		return reviewservice.ScanResponse{}, submitter.failure
	}
	return submitter.response, nil
}

func (submitter *stubSubmitter) callCount() int {
	submitter.mutex.Lock()
	defer submitter.mutex.Unlock()
	return submitter.calls
}

type transitionRecorder struct {
	mutex       sync.Mutex
	transitions []workflow.Transition
}

func (recorder *transitionRecorder) OnTransition(transition workflow.Transition) {
	recorder.mutex.Lock()
	defer recorder.mutex.Unlock()
	recorder.transitions = append(recorder.transitions, transition)
}

func (recorder *transitionRecorder) states() []workflow.State {
	recorder.mutex.Lock()
	defer recorder.mutex.Unlock()
	states := make([]workflow.State, 0, len(recorder.transitions))
	for _, transition := range recorder.transitions {
		states = append(states, transition.To)
	}
	return states
}

func newTestWorkflow(testInstance *testing.T, session workflow.Session, builder workflow.RequestBuilder, submitter workflow.Submitter, recorder workflow.Observer, options workflow.Options) *workflow.Workflow {
	testInstance.Helper()
	scanWorkflow, creationError := workflow.New(workflow.Dependencies{
		Session:             session,
		Builder:             builder,
		Submitter:           submitter,
		Observer:            recorder,
		Logger:              zap.NewNop(),
		IdentifierGenerator: func() string { return testScanIdentifierConstant },
	}, options)
	require.NoError(testInstance, creationError)
	return scanWorkflow
}

func successfulResponse() reviewservice.ScanResponse {
	response, _ := reviewservice.DecodeScanResponse([]byte(`{"report":{"vulnerabilities":[]},"raw_output":"ok","ipfs_cid":"QmCid","tx_hash":"0xabc"}`))
	return response
}

func TestWorkflowRunTransitions(testInstance *testing.T) {
	testCases := []struct {
		name            string
		connectError    error
		signError       error
		submitError     error
		expectedStates  []workflow.State
		expectedKind    workflow.FailureKind
		expectedMessage string
		expectedBuilds  int
		expectedSubmits int
	}{
		{
			name:            successSequenceCaseConstant,
			expectedStates:  []workflow.State{workflow.StateConnecting, workflow.StateSigning, workflow.StateSubmitting, workflow.StateSucceeded},
			expectedBuilds:  1,
			expectedSubmits: 1,
		},
		{
			name:            connectFailureCaseConstant,
			connectError:    wallet.ConnectionRejectedError{Cause: wallet.ErrUserRejected},
			expectedStates:  []workflow.State{workflow.StateConnecting, workflow.StateFailed},
			expectedKind:    workflow.FailureKindConnectionRejected,
			expectedMessage: "Wallet connection was rejected.",
		},
		{
			name:            signFailureCaseConstant,
			signError:       wallet.SignatureRejectedError{Cause: wallet.ErrUserRejected},
			expectedStates:  []workflow.State{workflow.StateConnecting, workflow.StateSigning, workflow.StateFailed},
			expectedKind:    workflow.FailureKindSignatureRejected,
			expectedMessage: "Signature request was rejected.",
		},
		{
			name:            submitRejectedCaseConstant,
			submitError:     reviewservice.ServiceRejectedError{StatusCode: http.StatusUnprocessableEntity, Detail: "invalid solidity"},
			expectedStates:  []workflow.State{workflow.StateConnecting, workflow.StateSigning, workflow.StateSubmitting, workflow.StateFailed},
			expectedKind:    workflow.FailureKindServiceRejected,
			expectedMessage: "invalid solidity",
			expectedBuilds:  1,
			expectedSubmits: 1,
		},
		{
			name:            submitTransportCaseConstant,
			submitError:     reviewservice.TransportError{Operation: reviewservice.SubmitScanOperationName, Cause: errors.New("connection refused")},
			expectedStates:  []workflow.State{workflow.StateConnecting, workflow.StateSigning, workflow.StateSubmitting, workflow.StateFailed},
			expectedKind:    workflow.FailureKindTransportFailure,
			expectedMessage: "Scan failed: the review service could not be reached.",
			expectedBuilds:  1,
			expectedSubmits: 1,
		},
		{
			name:            submitMalformedCaseConstant,
			submitError:     reviewservice.MalformedResponseError{Operation: reviewservice.SubmitScanOperationName, Cause: errors.New("report field is required")},
			expectedStates:  []workflow.State{workflow.StateConnecting, workflow.StateSigning, workflow.StateSubmitting, workflow.StateFailed},
			expectedKind:    workflow.FailureKindMalformedResponse,
			expectedMessage: "Scan failed: the review service returned an unreadable response.",
			expectedBuilds:  1,
			expectedSubmits: 1,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			session := &stubSession{address: testAddressConstant, connectError: testCase.connectError, signError: testCase.signError}
			builder := &recordingBuilder{}
			submitter := &stubSubmitter{response: successfulResponse(), failure: testCase.submitError}
			recorder := &transitionRecorder{}
			scanWorkflow := newTestWorkflow(testInstance, session, builder, submitter, recorder, workflow.Options{AutoConnect: true})

			snapshot, runError := scanWorkflow.Run(context.Background(), testCodeConstant)
			require.NoError(testInstance, runError)
			require.Equal(testInstance, testCase.expectedStates, recorder.states())
			require.Equal(testInstance, testCase.expectedBuilds, builder.buildCalls)
			require.Equal(testInstance, testCase.expectedSubmits, submitter.callCount())
			require.Equal(testInstance, testScanIdentifierConstant, snapshot.ScanID)

			finalState := testCase.expectedStates[len(testCase.expectedStates)-1]
			require.Equal(testInstance, finalState, snapshot.State)
			require.Equal(testInstance, snapshot, scanWorkflow.Snapshot())

			if finalState == workflow.StateSucceeded {
				require.NotNil(testInstance, snapshot.Response)
				require.Nil(testInstance, snapshot.Failure)
				require.Equal(testInstance, "done", snapshot.Status)
				require.Equal(testInstance, testAddressConstant, submitter.requests[0].Wallet)
				require.Equal(testInstance, testSignatureConstant, submitter.requests[0].Signature)
				return
			}
			require.Nil(testInstance, snapshot.Response)
			require.NotNil(testInstance, snapshot.Failure)
			require.Equal(testInstance, testCase.expectedKind, snapshot.Failure.Kind)
			require.Equal(testInstance, testCase.expectedMessage, snapshot.Failure.Message)
		})
	}
}

func TestWorkflowRunPreconditions(testInstance *testing.T) {
	testCases := []struct {
		name          string
		code          string
		connected     bool
		options       workflow.Options
		expectedError error
	}{
		{name: emptyCodePreconditionCaseConstant, code: "", connected: true, expectedError: workflow.ErrEmptyCode},
		{name: blankCodePreconditionCaseConstant, code: "  \n", connected: true, options: workflow.Options{AutoConnect: true}, expectedError: workflow.ErrEmptyCode},
		{name: notConnectedPreconditionCaseConstant, code: testCodeConstant, connected: false, expectedError: workflow.ErrWalletNotConnected},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			session := &stubSession{address: testAddressConstant, connected: testCase.connected}
			builder := &recordingBuilder{}
			submitter := &stubSubmitter{response: successfulResponse()}
			recorder := &transitionRecorder{}
			scanWorkflow := newTestWorkflow(testInstance, session, builder, submitter, recorder, testCase.options)

			snapshot, runError := scanWorkflow.Run(context.Background(), testCase.code)
			require.ErrorIs(testInstance, runError, testCase.expectedError)
			require.Equal(testInstance, workflow.StateIdle, snapshot.State)
			require.Empty(testInstance, recorder.states())
			require.Zero(testInstance, session.connectCalls)
			require.Zero(testInstance, builder.buildCalls)
			require.Zero(testInstance, submitter.callCount())
		})
	}
}

func TestWorkflowRunIgnoresCallsWhileBusy(testInstance *testing.T) {
	session := &stubSession{address: testAddressConstant, connected: true}
	submitter := &stubSubmitter{response: successfulResponse(), started: make(chan struct{}), release: make(chan struct{})}
	recorder := &transitionRecorder{}
	scanWorkflow := newTestWorkflow(testInstance, session, &recordingBuilder{}, submitter, recorder, workflow.Options{})

	type runResult struct {
		snapshot workflow.Snapshot
		err      error
	}
	firstRun := make(chan runResult, 1)
	go func() {
		snapshot, runError := scanWorkflow.Run(context.Background(), testCodeConstant)
		firstRun <- runResult{snapshot: snapshot, err: runError}
	}()

	<-submitter.started
	require.Equal(testInstance, workflow.StateSubmitting, scanWorkflow.Snapshot().State)

	busySnapshot, busyError := scanWorkflow.Run(context.Background(), testCodeConstant)
	require.ErrorIs(testInstance, busyError, workflow.ErrScanInProgress)
	require.Equal(testInstance, workflow.StateSubmitting, busySnapshot.State)

	close(submitter.release)
	result := <-firstRun
	require.NoError(testInstance, result.err)
	require.Equal(testInstance, workflow.StateSucceeded, result.snapshot.State)
	require.Equal(testInstance, 1, submitter.callCount())
	require.Equal(testInstance, []workflow.State{workflow.StateConnecting, workflow.StateSigning, workflow.StateSubmitting, workflow.StateSucceeded}, recorder.states())
}

func TestWorkflowRerunDiscardsPriorResult(testInstance *testing.T) {
	session := &stubSession{address: testAddressConstant, connected: true}
	submitter := &stubSubmitter{response: successfulResponse()}
	recorder := &transitionRecorder{}
	scanWorkflow := newTestWorkflow(testInstance, session, &recordingBuilder{}, submitter, recorder, workflow.Options{})

	firstSnapshot, firstError := scanWorkflow.Run(context.Background(), testCodeConstant)
	require.NoError(testInstance, firstError)
	require.Equal(testInstance, workflow.StateSucceeded, firstSnapshot.State)

	submitter.failure = reviewservice.ServiceRejectedError{StatusCode: http.StatusInternalServerError}
	secondSnapshot, secondError := scanWorkflow.Run(context.Background(), testCodeConstant)
	require.NoError(testInstance, secondError)
	require.Equal(testInstance, workflow.StateFailed, secondSnapshot.State)
	require.Nil(testInstance, secondSnapshot.Response)
	require.Equal(testInstance, "Scan failed: the review service rejected the request (HTTP 500).", secondSnapshot.Failure.Message)
	require.Equal(testInstance, 2, session.connectCalls)

	states := recorder.states()
	require.Equal(testInstance, workflow.StateSucceeded, states[3])
	require.Equal(testInstance, workflow.StateConnecting, states[4])
	require.Equal(testInstance, workflow.StateFailed, states[len(states)-1])
}

func TestWorkflowLogsTransitions(testInstance *testing.T) {
	observedCore, observedLogs := observer.New(zapcore.InfoLevel)
	scanWorkflow, creationError := workflow.New(workflow.Dependencies{
		Session:             &stubSession{address: testAddressConstant, connected: true},
		Builder:             &recordingBuilder{},
		Submitter:           &stubSubmitter{response: successfulResponse()},
		Logger:              zap.New(observedCore),
		IdentifierGenerator: func() string { return testScanIdentifierConstant },
	}, workflow.Options{})
	require.NoError(testInstance, creationError)

	_, runError := scanWorkflow.Run(context.Background(), testCodeConstant)
	require.NoError(testInstance, runError)

	entries := observedLogs.FilterMessage("scan state changed").All()
	require.Len(testInstance, entries, 4)
	first := entries[0].ContextMap()
	require.Equal(testInstance, testScanIdentifierConstant, first["scan_id"])
	require.Equal(testInstance, "idle", first["from"])
	require.Equal(testInstance, "connecting", first["to"])
	require.Equal(testInstance, "connecting wallet", first["status"])

	signing := entries[1].ContextMap()
	require.Equal(testInstance, "awaiting signature", signing["status"])
	require.Equal(testInstance, "0xAAA0...", signing["wallet"])
	for _, entry := range entries {
		for _, field := range entry.Context {
			require.NotEqual(testInstance, testSignatureConstant, field.String)
		}
	}
}

func TestWorkflowTimeoutSurfacesTransportFailure(testInstance *testing.T) {
	httpServer := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		<-request.Context().Done()
	}))
	defer httpServer.Close()

	client, clientError := reviewservice.NewClient(httpServer.URL, httpServer.Client(), nil)
	require.NoError(testInstance, clientError)

	scanWorkflow := newTestWorkflow(testInstance, &stubSession{address: testAddressConstant, connected: true}, &recordingBuilder{}, client, nil, workflow.Options{Timeout: 50 * time.Millisecond})
	snapshot, runError := scanWorkflow.Run(context.Background(), testCodeConstant)
	require.NoError(testInstance, runError)
	require.Equal(testInstance, workflow.StateFailed, snapshot.State)
	require.Equal(testInstance, workflow.FailureKindTransportFailure, snapshot.Failure.Kind)
}

type deadlineProvider struct{}

func (deadlineProvider) RequestAccounts(context.Context) (string, error) {
	return testAddressConstant, nil
}

func (deadlineProvider) SignMessage(signContext context.Context, _ string) (string, error) {
	<-signContext.Done()
	return "", signContext.Err()
}

func TestWorkflowTimeoutDuringSigningIsTimedOut(testInstance *testing.T) {
	submitter := &stubSubmitter{response: successfulResponse()}
	session := wallet.NewSession(deadlineProvider{}, nil)
	scanWorkflow := newTestWorkflow(testInstance, session, &recordingBuilder{}, submitter, nil, workflow.Options{AutoConnect: true, Timeout: 50 * time.Millisecond})

	snapshot, runError := scanWorkflow.Run(context.Background(), testCodeConstant)
	require.NoError(testInstance, runError)
	require.Equal(testInstance, workflow.StateFailed, snapshot.State)
	require.Equal(testInstance, workflow.FailureKindTimedOut, snapshot.Failure.Kind)
	require.Zero(testInstance, submitter.callCount())
}

func TestWorkflowSurfacesServiceDetailEndToEnd(testInstance *testing.T) {
	httpServer := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		responseWriter.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(responseWriter, `{"detail":"invalid solidity"}`)
	}))
	defer httpServer.Close()

	client, clientError := reviewservice.NewClient(httpServer.URL, httpServer.Client(), nil)
	require.NoError(testInstance, clientError)

	scanWorkflow := newTestWorkflow(testInstance, &stubSession{address: testAddressConstant, connected: true}, attestation.NewBuilder(nil), client, nil, workflow.Options{})
	snapshot, runError := scanWorkflow.Run(context.Background(), testCodeConstant)
	require.NoError(testInstance, runError)
	require.Equal(testInstance, workflow.StateFailed, snapshot.State)
	require.Equal(testInstance, "invalid solidity", snapshot.Failure.Message)
}

func TestNewRequiresCollaborators(testInstance *testing.T) {
	_, sessionError := workflow.New(workflow.Dependencies{}, workflow.Options{})
	require.ErrorIs(testInstance, sessionError, workflow.ErrSessionNotConfigured)

	_, builderError := workflow.New(workflow.Dependencies{Session: &stubSession{}}, workflow.Options{})
	require.ErrorIs(testInstance, builderError, workflow.ErrBuilderNotConfigured)

	_, submitterError := workflow.New(workflow.Dependencies{Session: &stubSession{}, Builder: &recordingBuilder{}}, workflow.Options{})
	require.ErrorIs(testInstance, submitterError, workflow.ErrSubmitterNotConfigured)
}
