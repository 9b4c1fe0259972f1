// Package logging provides a small leveled logging interface for the
// video vault service.
//
// Levels, lowest to highest severity:
//   - DEBUG: verbose diagnostic output
//   - INFO: normal operational messages
//   - WARN: warning conditions
//   - ERROR: error conditions
//   - FATAL: unrecoverable errors that terminate the process
//
// The active level comes from the LOG_LEVEL environment variable
// (DEBUG=true also forces debug), read once at first use.
package logging
