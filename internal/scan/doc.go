// Package scan provides the scan command: it reads contract source code, runs one review request through the
// workflow state machine, renders the outcome, and optionally persists successful responses.
package scan
