package ui

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/sigaudit/internal/workflow"
)

const (
	connectingMessageConstant           = "Connecting wallet"
	signingMessageConstant              = "Awaiting signature"
	submittingMessageConstant           = "Submitting for review"
	succeededMessageConstant            = "Scan complete"
	failedMessageTemplateConstant       = "Scan failed: %s"
	unknownFailureMessageConstant       = "unknown error"
	scanLabelTemplateConstant           = "[%s] %s"
	scanIdentifierDisplayLengthConstant = 8
)

// TransitionFormatter builds human-readable messages for workflow transitions.
type TransitionFormatter struct{}

// BuildMessage formats the message for a transition.
func (formatter TransitionFormatter) BuildMessage(transition workflow.Transition) string {
	var message string
	switch transition.To {
	case workflow.StateConnecting:
		message = connectingMessageConstant
	case workflow.StateSigning:
		message = signingMessageConstant
	case workflow.StateSubmitting:
		message = submittingMessageConstant
	case workflow.StateSucceeded:
		message = succeededMessageConstant
	case workflow.StateFailed:
		failureMessage := unknownFailureMessageConstant
		if transition.Failure != nil && len(strings.TrimSpace(transition.Failure.Message)) > 0 {
			failureMessage = transition.Failure.Message
		}
		message = fmt.Sprintf(failedMessageTemplateConstant, failureMessage)
	default:
		message = transition.Status
	}

	scanIdentifier := transition.ScanID
	if len(scanIdentifier) == 0 {
		return message
	}
	if len(scanIdentifier) > scanIdentifierDisplayLengthConstant {
		scanIdentifier = scanIdentifier[:scanIdentifierDisplayLengthConstant]
	}
	return fmt.Sprintf(scanLabelTemplateConstant, scanIdentifier, message)
}

// ConsoleTransitionLogger renders workflow transitions using a zap logger configured for human-readable output.
type ConsoleTransitionLogger struct {
	logger    *zap.Logger
	formatter TransitionFormatter
}

// NewConsoleTransitionLogger constructs a console transition logger backed by the provided zap logger.
func NewConsoleTransitionLogger(logger *zap.Logger) *ConsoleTransitionLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleTransitionLogger{logger: logger, formatter: TransitionFormatter{}}
}

// OnTransition implements workflow.Observer.
func (transitionLogger *ConsoleTransitionLogger) OnTransition(transition workflow.Transition) {
	if transitionLogger == nil {
		return
	}
	message := transitionLogger.formatter.BuildMessage(transition)
	if transition.To == workflow.StateFailed {
		transitionLogger.logger.Warn(message)
		return
	}
	transitionLogger.logger.Info(message)
}
