// Package results persists successful scan responses to disk and renders stored or pinned reports
// through the report show command.
package results
