// Package audit records the change history of a credential repository.
//
// Every save of a credential file is recorded in the owning repository's
// change log so operators can see which keys changed, where and when.
//
// # Log Format
//
// The change log is stored as JSON Lines (one JSON object per line) at:
//
//	<root>/repos/<repository>/changes.jsonl
//
// Each entry contains:
//   - A unique id and a timestamp (RFC3339 with microseconds, UTC)
//   - A description of the change
//   - The affected paths, relative to the repository
//   - The repository, account and user the change belongs to
//
// # Usage
//
//	repo := audit.Open(repoLocation)
//	repo.RecordChange("Saving new keys", []string{location}, audit.Scope{
//	    Repository: "acme", Account: "prod", User: "ci",
//	})
//
// # Failure Handling
//
// Recording is fire-and-forget. If writing fails (permissions, disk full,
// etc.), the operation continues without error.
//
// # Reading Logs
//
// Use ReadEntries() to parse the change log for display. Malformed entries
// are silently skipped to handle partial writes.
package audit
