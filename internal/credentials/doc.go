// Package credentials holds the key material of a single user in the
// hierarchy and the rules for rotating it.
//
// A Locator points at one credentials.json file. Load turns its contents
// into a Record, which owns a Keys collection. Keys move forward through
// Active, Retiring and Deleted; Deleted keys are purged and never saved.
//
// Records only write when something changed or a save is forced, and each
// write is recorded in the owning repository's change log.
package credentials
