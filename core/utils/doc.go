// Package utils provides small conversion helpers shared by the scanner and the
// reconcile engine: numeric cell parsing, float formatting for the output table and
// flag-cell interpretation.
package utils
