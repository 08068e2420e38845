package workflows

import (
	"context"

	"github.com/PolarWolf314/credo/internal/credentials"
	kerrors "github.com/PolarWolf314/credo/internal/errors"
)

// RotateResult contains the outcome of a rotation.
type RotateResult struct {
	Path   string
	Counts credentials.Counts
}

// Rotate replaces every Active key of the chosen credentials and saves them.
// A key the provider refused to delete is kept Retiring and reported in the
// returned error alongside the result.
func (c *Credo) Rotate(ctx context.Context) (*RotateResult, error) {
	record, err := c.FindCredentials(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.commit(record); err != nil {
		return nil, err
	}

	done := c.progress("Rotating keys...")
	counts, rotateErr := record.RotateAll(ctx)
	if rotateErr != nil && counts.Created == 0 {
		done()
		return nil, rotateErr
	}

	saved, err := record.Save(ctx, false)
	done()
	if err != nil {
		return nil, err
	}

	counts = counts.Add(saved)
	c.Log.Infof("Created %d credentials and deleted %d credentials", counts.Created, counts.Deleted)
	return &RotateResult{Path: record.Path(), Counts: counts}, rotateErr
}

// InvalidateResult contains the outcome of an invalidation.
type InvalidateResult struct {
	Path     string
	Location string
}

// Invalidate deletes every key of the chosen credentials. Keys are always
// removed from the store; provider failures are returned afterwards.
func (c *Credo) Invalidate(ctx context.Context) (*InvalidateResult, error) {
	record, err := c.FindCredentials(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.commit(record); err != nil {
		return nil, err
	}

	done := c.progress("Invalidating keys...")
	invalidateErr := record.InvalidateAll(ctx)
	_, err = record.Save(ctx, false)
	done()
	if err != nil {
		return nil, kerrors.Join(err, invalidateErr)
	}

	c.Log.Warnf("Invalidated every key of %s", record.Path())
	return &InvalidateResult{Path: record.Path(), Location: record.Locator().Location}, invalidateErr
}
