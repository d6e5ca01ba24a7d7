package workflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/temirov/sigaudit/internal/attestation"
	"github.com/temirov/sigaudit/internal/reviewservice"
	"github.com/temirov/sigaudit/internal/wallet"
)

const (
	sessionMissingMessageConstant   = "workflow wallet session not configured"
	builderMissingMessageConstant   = "workflow request builder not configured"
	submitterMissingMessageConstant = "workflow submitter not configured"
	stateChangedLogMessageConstant  = "scan state changed"
	scanRejectedLogMessageConstant  = "scan request rejected"
	scanIdentifierLogFieldConstant  = "scan_id"
	fromStateLogFieldConstant       = "from"
	toStateLogFieldConstant         = "to"
	statusLogFieldConstant          = "status"
	failureKindLogFieldConstant     = "failure_kind"
	walletLogFieldConstant          = "wallet"
	reasonLogFieldConstant          = "reason"
)

// Configuration errors returned by New.
var (
	ErrSessionNotConfigured   = errors.New(sessionMissingMessageConstant)
	ErrBuilderNotConfigured   = errors.New(builderMissingMessageConstant)
	ErrSubmitterNotConfigured = errors.New(submitterMissingMessageConstant)
)

// Session is the wallet session consumed by the workflow.
type Session interface {
	Connect(connectContext context.Context) (string, error)
	Sign(signContext context.Context, message string) (string, error)
	Connected() bool
}

// RequestBuilder produces attestation messages and request payloads.
type RequestBuilder interface {
	NewMessage() string
	BuildRequest(code string, wallet string, signature string) (attestation.ScanRequest, error)
}

// Submitter sends a signed request to the review service.
type Submitter interface {
	Submit(submitContext context.Context, request attestation.ScanRequest) (reviewservice.ScanResponse, error)
}

// IdentifierGenerator returns a correlation identifier for a run.
type IdentifierGenerator func() string

// Dependencies are the collaborators of a Workflow. Observer, Logger, and IdentifierGenerator are optional.
type Dependencies struct {
	Session             Session
	Builder             RequestBuilder
	Submitter           Submitter
	Observer            Observer
	Logger              *zap.Logger
	IdentifierGenerator IdentifierGenerator
}

// Options tune Run.
//
// AutoConnect accepts a session that is not yet connected and lets the Connecting step perform the connection,
// so a rejected connection ends in Failed. Without it an unconnected session is a precondition rejection.
// Timeout bounds a whole run when positive; zero leaves runs unbounded.
type Options struct {
	AutoConnect bool
	Timeout     time.Duration
}

// Workflow is the review request state machine. It is safe for concurrent use; at most one run is active.
type Workflow struct {
	session             Session
	builder             RequestBuilder
	submitter           Submitter
	observer            Observer
	logger              *zap.Logger
	identifierGenerator IdentifierGenerator
	options             Options

	mutex    sync.Mutex
	busy     bool
	snapshot Snapshot
}

// New constructs an idle Workflow.
func New(dependencies Dependencies, options Options) (*Workflow, error) {
	if dependencies.Session == nil {
		return nil, ErrSessionNotConfigured
	}
	if dependencies.Builder == nil {
		return nil, ErrBuilderNotConfigured
	}
	if dependencies.Submitter == nil {
		return nil, ErrSubmitterNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	identifierGenerator := dependencies.IdentifierGenerator
	if identifierGenerator == nil {
		identifierGenerator = uuid.NewString
	}
	if options.Timeout < 0 {
		options.Timeout = 0
	}

	return &Workflow{
		session:             dependencies.Session,
		builder:             dependencies.Builder,
		submitter:           dependencies.Submitter,
		observer:            dependencies.Observer,
		logger:              logger,
		identifierGenerator: identifierGenerator,
		options:             options,
		snapshot:            Snapshot{State: StateIdle, Status: StateIdle.StatusText()},
	}, nil
}

// Snapshot returns a copy of the current state.
func (workflow *Workflow) Snapshot() Snapshot {
	workflow.mutex.Lock()
	defer workflow.mutex.Unlock()
	return copySnapshot(workflow.snapshot)
}

// Run executes one review of code. A non-nil error means the call was rejected before starting
// (ErrScanInProgress, ErrEmptyCode, ErrWalletNotConnected) and nothing changed. Once started, every
// failure is reported through the returned snapshot's Failure and the error is nil.
func (workflow *Workflow) Run(runContext context.Context, code string) (Snapshot, error) {
	scanIdentifier, admissionError := workflow.admit(code)
	if admissionError != nil {
		workflow.logger.Debug(scanRejectedLogMessageConstant, zap.String(reasonLogFieldConstant, admissionError.Error()))
		return workflow.Snapshot(), admissionError
	}
	defer workflow.release()

	if workflow.options.Timeout > 0 {
		var cancel context.CancelFunc
		runContext, cancel = context.WithTimeout(runContext, workflow.options.Timeout)
		defer cancel()
	}

	workflow.begin(scanIdentifier)

	address, connectError := workflow.session.Connect(runContext)
	if connectError != nil {
		return workflow.fail(connectError), nil
	}
	workflow.recordWallet(address)

	workflow.transition(StateSigning)
	signature, signError := workflow.session.Sign(runContext, workflow.builder.NewMessage())
	if signError != nil {
		return workflow.fail(signError), nil
	}

	request, buildError := workflow.builder.BuildRequest(code, address, signature)
	if buildError != nil {
		return workflow.fail(buildError), nil
	}

	workflow.transition(StateSubmitting)
	response, submitError := workflow.submitter.Submit(runContext, request)
	if submitError != nil {
		return workflow.fail(submitError), nil
	}

	return workflow.succeed(response), nil
}

func (workflow *Workflow) admit(code string) (string, error) {
	workflow.mutex.Lock()
	defer workflow.mutex.Unlock()

	if workflow.busy {
		return "", ErrScanInProgress
	}
	if len(strings.TrimSpace(code)) == 0 {
		return "", ErrEmptyCode
	}
	if !workflow.options.AutoConnect && !workflow.session.Connected() {
		return "", ErrWalletNotConnected
	}

	workflow.busy = true
	return workflow.identifierGenerator(), nil
}

func (workflow *Workflow) release() {
	workflow.mutex.Lock()
	defer workflow.mutex.Unlock()
	workflow.busy = false
}

func (workflow *Workflow) begin(scanIdentifier string) {
	workflow.apply(func(snapshot *Snapshot) {
		snapshot.ScanID = scanIdentifier
		snapshot.Wallet = ""
		snapshot.Response = nil
		snapshot.Failure = nil
		snapshot.State = StateConnecting
		snapshot.Status = StateConnecting.StatusText()
	})
}

func (workflow *Workflow) recordWallet(address string) {
	workflow.mutex.Lock()
	defer workflow.mutex.Unlock()
	workflow.snapshot.Wallet = address
}

func (workflow *Workflow) transition(target State) {
	workflow.apply(func(snapshot *Snapshot) {
		snapshot.State = target
		snapshot.Status = target.StatusText()
	})
}

func (workflow *Workflow) fail(cause error) Snapshot {
	failure := ClassifyFailure(cause)
	return workflow.apply(func(snapshot *Snapshot) {
		snapshot.State = StateFailed
		snapshot.Status = StateFailed.StatusText()
		snapshot.Failure = &failure
	})
}

func (workflow *Workflow) succeed(response reviewservice.ScanResponse) Snapshot {
	return workflow.apply(func(snapshot *Snapshot) {
		snapshot.State = StateSucceeded
		snapshot.Status = StateSucceeded.StatusText()
		snapshot.Response = &response
	})
}

// apply mutates the snapshot under the lock, then logs and notifies the observer outside it.
func (workflow *Workflow) apply(mutation func(snapshot *Snapshot)) Snapshot {
	workflow.mutex.Lock()
	previousState := workflow.snapshot.State
	mutation(&workflow.snapshot)
	current := copySnapshot(workflow.snapshot)
	workflow.mutex.Unlock()

	transition := Transition{
		ScanID:  current.ScanID,
		From:    previousState,
		To:      current.State,
		Status:  current.Status,
		Failure: current.Failure,
	}

	fields := []zap.Field{
		zap.String(scanIdentifierLogFieldConstant, transition.ScanID),
		zap.String(fromStateLogFieldConstant, string(transition.From)),
		zap.String(toStateLogFieldConstant, string(transition.To)),
		zap.String(statusLogFieldConstant, transition.Status),
	}
	if len(current.Wallet) > 0 {
		fields = append(fields, zap.String(walletLogFieldConstant, wallet.ShortAddress(current.Wallet)))
	}
	if transition.Failure != nil {
		fields = append(fields, zap.String(failureKindLogFieldConstant, string(transition.Failure.Kind)))
	}
	workflow.logger.Info(stateChangedLogMessageConstant, fields...)

	if workflow.observer != nil {
		workflow.observer.OnTransition(transition)
	}
	return current
}

func copySnapshot(snapshot Snapshot) Snapshot {
	duplicated := snapshot
	if snapshot.Response != nil {
		responseCopy := *snapshot.Response
		responseCopy.Report.Vulnerabilities = append(responseCopy.Report.Vulnerabilities[:0:0], snapshot.Response.Report.Vulnerabilities...)
		responseCopy.ReportDocument = append(responseCopy.ReportDocument[:0:0], snapshot.Response.ReportDocument...)
		duplicated.Response = &responseCopy
	}
	if snapshot.Failure != nil {
		failureCopy := *snapshot.Failure
		duplicated.Failure = &failureCopy
	}
	return duplicated
}
