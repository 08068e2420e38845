// Package utils provides shared utility functions for the credo CLI.
//
// This package contains general-purpose helpers used by the cmd package.
// Functions are organized into logical groups:
//
// # String Utilities
//
// Functions for rendering values in command output:
//   - ShellQuote: quotes a value for a POSIX shell export line
//   - FormatAge: renders a key age as days, hours and minutes
//
// # System Utilities
//
// Functions for interacting with the operating system:
//   - MergeEnv: overlays exported variables on a process environment
//
// # Terminal Utilities
//
// Functions for terminal detection and interaction:
//   - IsTerminal: checks if stdin is a terminal
//   - ReadPassphraseFromTTY: reads a hidden passphrase from /dev/tty
package utils
