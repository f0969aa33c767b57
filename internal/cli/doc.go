// Package cli implements the discover command-line tool.
//
// discover runs the same pipeline as the HTTP service for a single competition
// code, or refreshes many competitions with --all, and prints the result as JSON
// on stdout. Logs go to stderr.
package cli
