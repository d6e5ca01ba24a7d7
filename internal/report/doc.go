// Package report holds the typed audit report returned by the review service,
// the three-tier severity classification used for display, and the canonical
// digest of a report document.
package report
