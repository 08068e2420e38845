package workflows

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/credo/internal/audit"
)

// LogOptions configures the log workflow.
type LogOptions struct {
	// Limit keeps only the last N entries. Zero keeps everything.
	Limit int

	// Mine keeps only entries for the chosen account and user.
	Mine bool
}

// LogResult contains the change history of a repository.
type LogResult struct {
	Repository string
	Entries    []audit.Entry
}

// History reads the change log of the chosen credentials' repository, oldest first.
func (c *Credo) History(ctx context.Context, opts LogOptions) (*LogResult, error) {
	record, err := c.FindCredentials(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.commit(record); err != nil {
		return nil, err
	}

	locator := record.Locator()
	entries, err := locator.Repository().ReadEntries()
	if err != nil {
		return nil, fmt.Errorf("reading change log: %w", err)
	}

	if opts.Mine {
		scope := locator.Scope()
		var mine []audit.Entry
		for _, entry := range entries {
			if entry.Account == scope.Account && entry.User == scope.User {
				mine = append(mine, entry)
			}
		}
		entries = mine
	}
	if opts.Limit > 0 && len(entries) > opts.Limit {
		entries = entries[len(entries)-opts.Limit:]
	}

	return &LogResult{Repository: locator.Repo, Entries: entries}, nil
}
