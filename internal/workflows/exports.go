package workflows

import (
	"context"

	"github.com/PolarWolf314/credo/internal/credentials"
)

// ExportsResult contains the environment for the chosen credentials.
type ExportsResult struct {
	Path string

	// Exports maps variable names to values.
	Exports map[string]string

	// Names lists Exports keys in print order.
	Names []string

	// Counts reports a rotation done because the keys were due.
	Counts credentials.Counts
}

// Exports finds credentials, rotates them when due and returns their
// environment.
func (c *Credo) Exports(ctx context.Context) (*ExportsResult, error) {
	record, err := c.FindCredentials(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.commit(record); err != nil {
		return nil, err
	}

	done := c.progress("Checking keys...")
	counts, err := record.Save(ctx, false)
	done()
	if err != nil {
		return nil, err
	}
	if counts.Created > 0 {
		c.Log.Infof("Rotated keys for %s", record.Path())
	}

	exports := record.ShellExports()
	return &ExportsResult{
		Path:    record.Path(),
		Exports: exports,
		Names:   credentials.SortedExportNames(exports),
		Counts:  counts,
	}, nil
}
