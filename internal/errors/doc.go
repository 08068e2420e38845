// Package errors provides typed error values for credo.
//
// Every failure raised by the core carries a kind (one of the sentinel
// errors below) plus free-form key/value attributes describing where it
// happened. Callers check the kind with errors.Is() rather than string
// matching.
//
// # Error Kinds
//
//   - ErrConfiguration: malformed or missing configuration
//   - ErrCredentialFile: unreadable or invalid credential/identity file
//   - ErrNoCredentialsFound: lookup targets a path with zero matches
//   - ErrBadCredentialSource: an external secret source is unavailable
//   - ErrUserCancelled: the user quit or closed input during a prompt
//   - ErrInvariant: a path assumed unreachable was reached
//
// # Usage
//
// Raise an error with context:
//
//	return errors.New(errors.ErrCredentialFile, "Doesn't exist", "location", location)
//
// Handle errors in the CLI layer:
//
//	if errors.Is(err, kerrors.ErrUserCancelled) {
//	    // Clean abort, nothing was written
//	}
//
// Wrapping with fmt.Errorf("...: %w", err) keeps the kind reachable.
package errors
