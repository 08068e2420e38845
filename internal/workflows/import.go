package workflows

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/credo/internal/credentials"
	kerrors "github.com/PolarWolf314/credo/internal/errors"
	"github.com/PolarWolf314/credo/internal/sources"
)

// KeyringService is the keyring service imported secrets are remembered under.
const KeyringService = "credo"

// ImportOptions configures the import workflow.
type ImportOptions struct {
	// Source names where the secret comes from. Empty falls back to the
	// configured source, then to asking.
	Source string

	// Remember also stores the secret in the keyring.
	Remember bool
}

// ImportResult contains the outcome of an import.
type ImportResult struct {
	// Location is the credentials file that was written.
	Location string

	// Path is the display form of the record.
	Path string

	// AccessKey is the imported access key, masked.
	AccessKey string

	// Source is where the secret came from.
	Source sources.Kind

	// Counts reports a rotation done while saving.
	Counts credentials.Counts
}

// Import resolves or creates credentials, reads a secret and saves it as a
// new Active key.
func (c *Credo) Import(ctx context.Context, opts ImportOptions) (*ImportResult, error) {
	if c.Sources == nil {
		return nil, kerrors.New(kerrors.ErrInvariant, "Import needs a secret source resolver")
	}

	var kind *sources.Kind
	name := opts.Source
	if name == "" {
		name = c.Config.Source
	}
	if name != "" {
		parsed, err := sources.ParseKind(name)
		if err != nil {
			return nil, err
		}
		kind = &parsed
	}

	record, err := c.MakeCredentials(ctx)
	if err != nil {
		return nil, err
	}

	secret, err := c.Sources.Resolve(ctx, kind)
	if err != nil {
		return nil, err
	}
	if secret.AccessKey == "" || secret.SecretKey == "" {
		return nil, kerrors.New(kerrors.ErrBadCredentialSource, "Need both an access key and a secret key", "source", secret.Source)
	}

	key := credentials.Key{AccessKey: secret.AccessKey, SecretKey: secret.SecretKey, CreatedAt: c.now()}
	if c.Config.VerifyAccount && c.Accounts != nil {
		done := c.progress("Checking which account owns the key...")
		owner, err := c.Accounts.CallerAccount(ctx, key)
		done()
		if err != nil {
			return nil, fmt.Errorf("checking which account owns the key: %w", err)
		}
		if owner != record.AccountID() {
			return nil, kerrors.New(kerrors.ErrConfiguration, "Key belongs to a different account",
				"expected", record.AccountID(), "found", owner)
		}
	}

	if err := c.commit(record); err != nil {
		return nil, err
	}

	record.AddKey(key)
	if opts.Remember && secret.Source != sources.KeyringSource && c.Sources.Keyring != nil {
		if err := c.Sources.Keyring.Set(KeyringService, secret.AccessKey, secret.SecretKey); err != nil {
			return nil, err
		}
	}

	done := c.progress("Saving credentials...")
	counts, err := record.Save(ctx, false)
	done()
	if err != nil {
		return nil, err
	}

	c.Log.Infof("Imported %s into %s", credentials.MaskedAccessKey(key.AccessKey), record.Path())
	return &ImportResult{
		Location:  record.Locator().Location,
		Path:      record.Path(),
		AccessKey: credentials.MaskedAccessKey(key.AccessKey),
		Source:    secret.Source,
		Counts:    counts,
	}, nil
}
