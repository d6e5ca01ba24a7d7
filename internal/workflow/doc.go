// Package workflow runs a single review request from wallet connection to
// a resolved report.
//
// A Workflow moves through Idle, Connecting, Signing, Submitting and ends in
// Succeeded or Failed. Only one run is in flight at a time; a call to Run while
// busy, with blank code, or without a connected wallet is rejected before any
// state changes. Every collaborator failure is converted into the Failed state
// with a Failure describing what went wrong, and each transition is logged and
// reported to an Observer.
package workflow
