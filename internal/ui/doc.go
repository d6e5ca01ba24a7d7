// Package ui provides helpers for formatting human-readable console output.
//
// ConsoleTransitionLogger turns workflow transitions into concise status lines
// for the console logger, while detailed telemetry continues to flow through
// structured loggers. Renderer draws a scan result either as the structured
// report view, the unprocessed service output, or a machine-readable document.
package ui
