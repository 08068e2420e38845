// Package logger provides leveled logging for credo commands.
//
// Output is prefixed with a colored level tag. Verbosity is controlled by
// two flags:
//
//   - --verbose: Shows info messages
//   - --debug: Shows info and debug messages
//
// Warnings and errors are always written to stderr.
//
// # Usage
//
//	log := Logger{Verbose: verbose, Debug: debug}
//	log.Infof("Processing %d files", count)
//
// Tests set Out and Err to capture output.
package logger
