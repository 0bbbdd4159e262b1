// Package errors provides the structured error type used across streamkit.
// Every failure surfaced by a terminal operation is an *AppError carrying a
// machine-readable code, so callers can tell an unavailable source apart
// from a failing stage function without string matching.
package errors
