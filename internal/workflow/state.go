package workflow

import (
	"errors"

	"github.com/temirov/sigaudit/internal/reviewservice"
)

const (
	idleStatusConstant                = "idle"
	connectingStatusConstant          = "connecting wallet"
	signingStatusConstant             = "awaiting signature"
	submittingStatusConstant          = "submitting for review"
	succeededStatusConstant           = "done"
	failedStatusConstant              = "failed"
	scanInProgressMessageConstant     = "a scan is already in progress"
	emptyCodeMessageConstant          = "source code must be provided"
	walletNotConnectedMessageConstant = "wallet must be connected before scanning"
)

// State is a workflow stage.
type State string

// Workflow states.
const (
	StateIdle       State = State("idle")
	StateConnecting State = State("connecting")
	StateSigning    State = State("signing")
	StateSubmitting State = State("submitting")
	StateSucceeded  State = State("succeeded")
	StateFailed     State = State("failed")
)

var stateStatusTexts = map[State]string{
	StateIdle:       idleStatusConstant,
	StateConnecting: connectingStatusConstant,
	StateSigning:    signingStatusConstant,
	StateSubmitting: submittingStatusConstant,
	StateSucceeded:  succeededStatusConstant,
	StateFailed:     failedStatusConstant,
}

// StatusText returns the human-readable status for the state.
func (state State) StatusText() string {
	return stateStatusTexts[state]
}

// Precondition rejections of Run. None of them changes the workflow state.
var (
	ErrScanInProgress     = errors.New(scanInProgressMessageConstant)
	ErrEmptyCode          = errors.New(emptyCodeMessageConstant)
	ErrWalletNotConnected = errors.New(walletNotConnectedMessageConstant)
)

// Snapshot is a copy of the workflow state for readers.
type Snapshot struct {
	ScanID   string                      `json:"scan_id,omitempty" yaml:"scan_id,omitempty"`
	State    State                       `json:"state" yaml:"state"`
	Status   string                      `json:"status" yaml:"status"`
	Wallet   string                      `json:"wallet,omitempty" yaml:"wallet,omitempty"`
	Response *reviewservice.ScanResponse `json:"response,omitempty" yaml:"response,omitempty"`
	Failure  *Failure                    `json:"failure,omitempty" yaml:"failure,omitempty"`
}

// Transition describes one state change.
type Transition struct {
	ScanID  string
	From    State
	To      State
	Status  string
	Failure *Failure
}

// Observer receives transitions after they are applied.
type Observer interface {
	OnTransition(transition Transition)
}
