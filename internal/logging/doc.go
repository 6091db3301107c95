// Package logging assembles the structured slog loggers used across ingot.
//
// It owns console/JSON handler construction, centralizes level and output
// plumbing, and exposes small attr helpers so ingest code tags log lines with
// asset identifiers and components consistently. A no-op logger is provided
// for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits records with the same shape.
package logging
