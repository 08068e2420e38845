// Package workflows provides high-level orchestration for credo commands.
//
// Workflows coordinate the hierarchy, identity, credentials and sources
// packages to implement complete user-facing features. Each workflow handles
// a single command's business logic, independent of CLI concerns like flag
// parsing, spinners, and output formatting.
//
// # Design Philosophy
//
// The cmd/ package should be a thin layer that:
//   - Parses command-line flags and arguments
//   - Builds a Credo from the loaded configuration
//   - Calls the appropriate workflow method
//   - Formats the result for display
//
// Workflows handle everything else:
//   - Resolving repository, account and user, prompting when ambiguous
//   - Verifying the signed account id
//   - Loading, rotating and saving the credentials
//
// Nothing is written until the hierarchy, the account id and the record
// have all been resolved, so cancelling a prompt leaves the store untouched.
//
// # Available Workflows
//
//   - Show: Lists the credentials found under the root
//   - Import: Creates or extends credentials from a secret source
//   - Exports: Returns the environment for the chosen credentials
//   - Rotate: Replaces every active key
//   - Invalidate: Deletes every key after a compromise
//   - Log: Reads the change log of the chosen repository
//
// # Error Handling
//
// Workflows return typed errors from the internal/errors package, allowing
// the CLI layer to provide appropriate user-facing messages without string
// matching. Use errors.Is() to check for specific error conditions:
//
//	result, err := credo.Rotate(ctx)
//	if errors.Is(err, kerrors.ErrNoCredentialsFound) {
//	    // Show the filters that matched nothing
//	}
package workflows
