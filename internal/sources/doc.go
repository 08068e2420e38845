// Package sources finds the secret half of a key pair to import.
//
// A secret can be typed in, read from the environment, taken from an
// awscli or boto config file, or pulled from credo's own age-encrypted
// keyring. Each source is a Kind with its own resolver; Resolve asks the
// user which one to use when none is given.
package sources
